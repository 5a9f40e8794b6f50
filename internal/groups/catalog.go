package groups

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/angelmondragon/importgroups-backend/pkg/enums"
)

// WeightClass is a gross-weight bracket. MaxKg nil means open ended.
type WeightClass struct {
	ID    string           `yaml:"id" json:"id" validate:"required"`
	Name  string           `yaml:"name" json:"name" validate:"required"`
	MinKg decimal.Decimal  `yaml:"minKg" json:"minKg"`
	MaxKg *decimal.Decimal `yaml:"maxKg,omitempty" json:"maxKg,omitempty"`
}

// Contains reports whether kg falls in [MinKg, MaxKg).
func (w WeightClass) Contains(kg decimal.Decimal) bool {
	if kg.LessThan(w.MinKg) {
		return false
	}
	return w.MaxKg == nil || kg.LessThan(*w.MaxKg)
}

// Catalog holds the fixed category lists groups are drawn from.
type Catalog struct {
	DisplayNames     []string              `yaml:"displayNames" validate:"required,min=1,dive,required"`
	CargoCategories  []string              `yaml:"cargoCategories" validate:"required,min=1,dive,required"`
	OriginCountries  []string              `yaml:"originCountries" validate:"required,min=1,dive,required"`
	WeightClasses    []WeightClass         `yaml:"weightClasses" validate:"required,min=1,dive"`
	CompanyPrefixes  []string              `yaml:"companyPrefixes" validate:"required,min=1,dive,required"`
	CompanySuffixes  []string              `yaml:"companySuffixes" validate:"required,min=1,dive,required"`
	RoleDescriptions map[enums.Role]string `yaml:"roleDescriptions"`
}

var catalogValidator = validator.New()

func kg(value int64) *decimal.Decimal {
	d := decimal.NewFromInt(value)
	return &d
}

// DefaultCatalog returns the categories used by the admin application's demo.
func DefaultCatalog() *Catalog {
	return &Catalog{
		DisplayNames: []string{
			"Maritime Import",
			"Air Import",
			"International Shipment",
			"Multimodal Transport",
			"International Cargo",
			"Consolidated Cargo",
			"Special Logistics",
			"Priority Cargo",
			"Express Import",
			"Commercial Shipment",
		},
		CargoCategories: []string{"Dry Goods", "Frozen Goods", "Chilled Goods"},
		OriginCountries: []string{"China", "Japan", "Argentina", "Germany", "United States", "Brazil", "Spain"},
		WeightClasses: []WeightClass{
			{ID: "light", Name: "Light (< 500 kg)", MinKg: decimal.Zero, MaxKg: kg(500)},
			{ID: "medium", Name: "Medium (500-2000 kg)", MinKg: decimal.NewFromInt(500), MaxKg: kg(2000)},
			{ID: "heavy", Name: "Heavy (2-10 t)", MinKg: decimal.NewFromInt(2000), MaxKg: kg(10000)},
			{ID: "very_heavy", Name: "Very heavy (> 10 t)", MinKg: decimal.NewFromInt(10000)},
		},
		CompanyPrefixes: []string{"GL", "INT", "TRS", "MG", "SUP", "PRO", "EXP", "FS"},
		CompanySuffixes: []string{"Log", "Trp", "Crg", "Ship", "Imp", "Trd", "Sol", "SRL"},
		RoleDescriptions: map[enums.Role]string{
			enums.RoleCarrier:                "Join existing import groups to offer transport services.",
			enums.RoleInsuranceBroker:        "Join import groups to insure the goods in transit.",
			enums.RoleCustomsAgent:           "Join groups to handle the customs clearance paperwork.",
			enums.RoleImporter:               "Create new import groups and invite other professionals.",
			enums.RoleAssociatedProfessional: "Join groups to provide complementary services.",
		},
	}
}

// LoadCatalog reads a YAML catalog on top of the defaults. Lists present in
// the file replace the default lists wholesale.
func LoadCatalog(path string) (*Catalog, error) {
	catalog := DefaultCatalog()
	if strings.TrimSpace(path) == "" {
		return catalog, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %q: %w", path, err)
	}
	return ParseCatalog(raw)
}

// ParseCatalog decodes a YAML payload on top of the defaults and validates it.
func ParseCatalog(raw []byte) (*Catalog, error) {
	catalog := DefaultCatalog()
	if err := yaml.Unmarshal(raw, catalog); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	if err := catalog.Validate(); err != nil {
		return nil, err
	}
	return catalog, nil
}

// Validate checks required lists and that weight classes form contiguous,
// ascending brackets with only the last one open ended.
func (c *Catalog) Validate() error {
	if c == nil {
		return errors.New("catalog required")
	}
	if err := catalogValidator.Struct(c); err != nil {
		return fmt.Errorf("invalid catalog: %w", err)
	}
	for i, class := range c.WeightClasses {
		last := i == len(c.WeightClasses)-1
		if class.MinKg.IsNegative() {
			return fmt.Errorf("weight class %q has negative lower bound", class.ID)
		}
		if class.MaxKg == nil {
			if !last {
				return fmt.Errorf("weight class %q is open ended but not last", class.ID)
			}
			continue
		}
		if !class.MaxKg.GreaterThan(class.MinKg) {
			return fmt.Errorf("weight class %q upper bound must exceed lower bound", class.ID)
		}
		if !last && !c.WeightClasses[i+1].MinKg.Equal(*class.MaxKg) {
			return fmt.Errorf("weight class %q does not meet %q", class.ID, c.WeightClasses[i+1].ID)
		}
	}
	for role := range c.RoleDescriptions {
		if !role.IsValid() {
			return fmt.Errorf("%w: %q in role descriptions", ErrUnknownRole, role)
		}
	}
	return nil
}

// ClassifyWeight returns the weight class containing kg.
func (c *Catalog) ClassifyWeight(kg decimal.Decimal) (WeightClass, error) {
	if kg.IsNegative() {
		return WeightClass{}, fmt.Errorf("%w: negative weight %s", ErrInvalidAttribute, kg)
	}
	for _, class := range c.WeightClasses {
		if class.Contains(kg) {
			return class, nil
		}
	}
	return WeightClass{}, fmt.Errorf("%w: no weight class for %s kg", ErrInvalidAttribute, kg)
}

// WeightClass looks up a class by id.
func (c *Catalog) WeightClass(id string) (WeightClass, bool) {
	for _, class := range c.WeightClasses {
		if class.ID == id {
			return class, true
		}
	}
	return WeightClass{}, false
}

// RoleDescription returns the human description for role.
func (c *Catalog) RoleDescription(role enums.Role) string {
	if desc, ok := c.RoleDescriptions[role]; ok {
		return desc
	}
	return "Role not defined"
}

// ValidateAttributes rejects explicit attributes that are not in the catalog.
// Empty attributes are allowed; the engine draws them at random.
func (c *Catalog) ValidateAttributes(attrs Attributes) error {
	if attrs.TransportMode != "" && !attrs.TransportMode.IsValid() {
		return fmt.Errorf("%w: transport mode %q", ErrInvalidAttribute, attrs.TransportMode)
	}
	if attrs.CargoCategory != "" && !slices.Contains(c.CargoCategories, attrs.CargoCategory) {
		return fmt.Errorf("%w: cargo category %q", ErrInvalidAttribute, attrs.CargoCategory)
	}
	if attrs.OriginCountry != "" && !slices.Contains(c.OriginCountries, attrs.OriginCountry) {
		return fmt.Errorf("%w: origin country %q", ErrInvalidAttribute, attrs.OriginCountry)
	}
	if attrs.WeightClass != "" {
		if _, ok := c.WeightClass(attrs.WeightClass); !ok {
			return fmt.Errorf("%w: weight class %q", ErrInvalidAttribute, attrs.WeightClass)
		}
	}
	return nil
}
