package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config holds the recipe-estimator service's runtime configuration.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	ReferenceData ReferenceDataConfig `mapstructure:"reference_data"`
	Optimizer  OptimizerConfig  `mapstructure:"optimizer"`
	LogProduction bool          `mapstructure:"log_production"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Address string `mapstructure:"address"`
}

// ReferenceDataConfig points at the on-disk reference nutrient database,
// nutrient catalogue mapping and ingredient taxonomy files.
type ReferenceDataConfig struct {
	CiqualCompoXMLPath   string `mapstructure:"ciqual_compo_xml_path"`
	CiqualAlimXMLPath    string `mapstructure:"ciqual_alim_xml_path"`
	CiqualConstXMLPath   string `mapstructure:"ciqual_const_xml_path"`
	NutrientMapCSVPath   string `mapstructure:"nutrient_map_csv_path"`
	TaxonomyJSONPath     string `mapstructure:"taxonomy_json_path"`
}

// OptimizerConfig configures the differential-evolution driver.
type OptimizerConfig struct {
	MaxIterations       int     `mapstructure:"max_iterations"`
	PopulationMultiplier int    `mapstructure:"population_multiplier"`
	Seed                int64   `mapstructure:"seed"`
	ParallelLeafThreshold int   `mapstructure:"parallel_leaf_threshold"`
	ConvergenceTolerance float64 `mapstructure:"convergence_tolerance"`
}

// Default returns the out-of-the-box configuration, matching the values
// described by the estimator's design notes.
func Default() Config {
	return Config{
		Server: ServerConfig{Address: ":8080"},
		ReferenceData: ReferenceDataConfig{
			CiqualCompoXMLPath: "data/ciqual/compo_2020_07_07.xml",
			CiqualAlimXMLPath:  "data/ciqual/alim_2020_07_07.xml",
			CiqualConstXMLPath: "data/ciqual/const_2020_07_07.xml",
			NutrientMapCSVPath: "data/nutrient_map.csv",
			TaxonomyJSONPath:   "data/ingredients_taxonomy.json",
		},
		Optimizer: OptimizerConfig{
			MaxIterations:         5000,
			PopulationMultiplier:  15,
			Seed:                  42,
			ParallelLeafThreshold: 10,
			ConvergenceTolerance:  1e-6,
		},
		LogProduction: false,
	}
}

// Load reads configuration from (in order of increasing precedence) the
// built-in defaults, a config file, and RECIPE_ESTIMATOR_-prefixed
// environment variables.
func Load(configPath string) (Config, error) {
	cfg := Default()

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix("RECIPE_ESTIMATOR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("server.address", cfg.Server.Address)
	v.SetDefault("reference_data.ciqual_compo_xml_path", cfg.ReferenceData.CiqualCompoXMLPath)
	v.SetDefault("reference_data.ciqual_alim_xml_path", cfg.ReferenceData.CiqualAlimXMLPath)
	v.SetDefault("reference_data.ciqual_const_xml_path", cfg.ReferenceData.CiqualConstXMLPath)
	v.SetDefault("reference_data.nutrient_map_csv_path", cfg.ReferenceData.NutrientMapCSVPath)
	v.SetDefault("reference_data.taxonomy_json_path", cfg.ReferenceData.TaxonomyJSONPath)
	v.SetDefault("optimizer.max_iterations", cfg.Optimizer.MaxIterations)
	v.SetDefault("optimizer.population_multiplier", cfg.Optimizer.PopulationMultiplier)
	v.SetDefault("optimizer.seed", cfg.Optimizer.Seed)
	v.SetDefault("optimizer.parallel_leaf_threshold", cfg.Optimizer.ParallelLeafThreshold)
	v.SetDefault("optimizer.convergence_tolerance", cfg.Optimizer.ConvergenceTolerance)
	v.SetDefault("log_production", cfg.LogProduction)

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return cfg, fmt.Errorf("reading config file %s: %w", configPath, err)
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("unmarshaling config: %w", err)
	}

	return cfg, nil
}
