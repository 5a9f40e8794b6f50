package dbtypes

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// OccupantRecord is the stored form of one filled role slot.
type OccupantRecord struct {
	Role      string    `json:"role"`
	Principal bool      `json:"isPrincipalUser"`
	Label     string    `json:"label"`
	JoinedAt  time.Time `json:"joinedAt"`
}

// Occupants stores a group's occupants as a JSON text column, portable
// across Postgres and SQLite.
type Occupants []OccupantRecord

func (o *Occupants) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*o = Occupants{}
		return nil
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return fmt.Errorf("Occupants: unsupported Scan type %T", src)
	}
	if len(raw) == 0 {
		*o = Occupants{}
		return nil
	}
	var decoded []OccupantRecord
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return fmt.Errorf("Occupants: decode: %w", err)
	}
	if decoded == nil {
		decoded = []OccupantRecord{}
	}
	*o = decoded
	return nil
}

func (o Occupants) Value() (driver.Value, error) {
	if o == nil {
		return "[]", nil
	}
	raw, err := json.Marshal([]OccupantRecord(o))
	if err != nil {
		return nil, err
	}
	return string(raw), nil
}
