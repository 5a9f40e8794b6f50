package enums

import (
	"fmt"
	"strings"
)

// Role is one of the participant capacities an import group needs filled.
type Role string

const (
	RoleCarrier                Role = "carrier"
	RoleInsuranceBroker        Role = "insurance_broker"
	RoleCustomsAgent           Role = "customs_agent"
	RoleImporter               Role = "importer"
	RoleAssociatedProfessional Role = "associated_professional"
)

var validRoles = []Role{
	RoleCarrier,
	RoleInsuranceBroker,
	RoleCustomsAgent,
	RoleImporter,
	RoleAssociatedProfessional,
}

// legacyRoleIDs maps the account-role ids stored by the admin application.
var legacyRoleIDs = map[string]Role{
	"transportista": RoleCarrier,
	"corredor":      RoleInsuranceBroker,
	"despachante":   RoleCustomsAgent,
	"importador":    RoleImporter,
	"profesional":   RoleAssociatedProfessional,
}

// AllRoles returns the role universe in canonical order.
func AllRoles() []Role {
	roles := make([]Role, len(validRoles))
	copy(roles, validRoles)
	return roles
}

// String implements fmt.Stringer.
func (r Role) String() string {
	return string(r)
}

// IsValid reports whether the value is a known Role.
func (r Role) IsValid() bool {
	for _, candidate := range validRoles {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseRole converts raw input into a Role. Legacy account-role ids are accepted.
func ParseRole(value string) (Role, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	for _, candidate := range validRoles {
		if string(candidate) == normalized {
			return candidate, nil
		}
	}
	if role, ok := legacyRoleIDs[normalized]; ok {
		return role, nil
	}
	return "", fmt.Errorf("invalid role %q", value)
}
