package validators

import (
	"net/http"
	"strconv"
	"strings"

	pkgerrors "github.com/angelmondragon/importgroups-backend/pkg/errors"
)

// IntBounds describes an optional integer query parameter.
type IntBounds struct {
	Default int
	Min     int
	Max     int
}

// QueryInt reads key from the query string, returning b.Default when absent.
func QueryInt(r *http.Request, key string, b IntBounds) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return b.Default, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "query parameter must be an integer").
			WithDetails(map[string]any{"field": key, "value": raw})
	}
	if value < b.Min || value > b.Max {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "query parameter out of range").
			WithDetails(map[string]any{"field": key, "min": b.Min, "max": b.Max})
	}
	return value, nil
}

// QueryList reads a comma separated parameter, also accepting repeated keys.
// Blank entries are dropped; a missing parameter yields nil.
func QueryList(r *http.Request, key string) []string {
	values, ok := r.URL.Query()[key]
	if !ok {
		return nil
	}
	out := []string{}
	for _, value := range values {
		for part := range strings.SplitSeq(value, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
