package models

// OptionType classifies an option as a mandatory default, an optional
// default, or a tenant-authored custom option. The two-letter codes are
// what gets stored in the option_type column.
type OptionType string

const (
	// OptionTypeMandatory options are visible to every tenant and cannot be deselected.
	OptionTypeMandatory OptionType = "dm"
	// OptionTypeOptional options are visible to every tenant and may be selected or unselected.
	OptionTypeOptional OptionType = "do"
	// OptionTypeCustom options are created by a single tenant and belong to it.
	OptionTypeCustom OptionType = "cu"
)

// Label returns the display name for the option type
func (t OptionType) Label() string {
	switch t {
	case OptionTypeMandatory:
		return "Default Mandatory"
	case OptionTypeOptional:
		return "Default Optional"
	case OptionTypeCustom:
		return "Custom"
	}
	return string(t)
}

// Valid reports whether the value is one of the known option types
func (t OptionType) Valid() bool {
	return t == OptionTypeMandatory || t == OptionTypeOptional || t == OptionTypeCustom
}

// IsDefault reports whether the option type is one of the two default kinds
// that may appear in a catalog's default-options table.
func (t OptionType) IsDefault() bool {
	return t == OptionTypeMandatory || t == OptionTypeOptional
}

// DefaultOptionTypes are the types allowed in a catalog's default-options table.
var DefaultOptionTypes = []OptionType{OptionTypeMandatory, OptionTypeOptional}
