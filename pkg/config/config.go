package config

import (
	"errors"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config carries the knobs that live outside the positional arguments: a
// default date cutoff and the destination accounts for YNAB's two income
// pseudo-categories.
type Config struct {
	Since  string         `mapstructure:"since"`
	Income IncomeAccounts `mapstructure:"income"`
}

// IncomeAccounts optionally routes YNAB's income pseudo-categories to real
// destination accounts. Left empty, income entries keep the raw
// pseudo-category name and are flagged for manual review.
type IncomeAccounts struct {
	Immediate string `mapstructure:"immediate"`
	Deferred  string `mapstructure:"deferred"`
}

// Build loads configuration in ascending precedence: config file, YNAB2BEAN_*
// environment variables, then command-line flags.
func Build(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("YNAB2BEAN")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, err
		}
	}

	if err := v.ReadInConfig(); err != nil {
		// A missing default config file is fine; an explicit one is not.
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
