package config

// Config represents the core xsgen configuration
type Config struct {
	Features FeaturesConfig `mapstructure:"features"`
	Typemap  TypemapConfig  `mapstructure:"typemap"`
	Output   OutputConfig   `mapstructure:"output"`
}

// FeaturesConfig holds the signature-language feature flags
type FeaturesConfig struct {
	ArgTypes bool `mapstructure:"arg_types"` // argument-type annotations in signatures
	InOut    bool `mapstructure:"in_out"`    // IN/OUT direction annotations
	HierType bool `mapstructure:"hier_type"` // keep "::" in generated type names
}

// TypemapConfig configures typemap resolution
type TypemapConfig struct {
	// Paths are extra typemap files layered, in order, over the builtin
	// table. Later files shadow earlier ones.
	Paths []string `mapstructure:"paths"`
}

// OutputConfig configures generated-file placement
type OutputConfig struct {
	Dir       string `mapstructure:"dir"`       // "" = next to the input file
	Extension string `mapstructure:"extension"` // default ".c"
}
