package config

import "github.com/spf13/viper"

// SetDefaults configures default values for all configuration options
func SetDefaults(v *viper.Viper) {
	// Feature defaults match the permissive compiler mode
	v.SetDefault("features.arg_types", true)
	v.SetDefault("features.in_out", true)
	v.SetDefault("features.hier_type", false)

	v.SetDefault("typemap.paths", []string{})

	v.SetDefault("output.dir", "")
	v.SetDefault("output.extension", ".c")
}
