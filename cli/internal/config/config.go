// Package config loads the pgmanager CLI configuration from a config file,
// .env files, PGMANAGER_* environment variables and command-line flags.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/afero"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/ximilsoft/postgresql-manager/query/sqlgen"
	"github.com/ximilsoft/postgresql-manager/runtime/client"
)

// AppFs is the filesystem searched for config and .env files.
var AppFs = afero.NewOsFs()

const (
	configName = ".pgmanager"
	envPrefix  = "PGMANAGER"
)

var defaultPorts = map[string]string{
	sqlgen.ProviderPostgres: "5432",
	sqlgen.ProviderMySQL:    "3306",
}

// Keys holds every configuration key with its default.
var Keys = map[string]any{
	"provider":             "postgresql",
	"host":                 "localhost",
	"port":                 "",
	"user":                 "postgres",
	"password":             "",
	"database":             "",
	"maintenance_database": "",
	"sslmode":              "disable",
	"data_dir":             ".",
	"connect_timeout":      client.DefaultConnectTimeout,
	"id_column":            client.DefaultIDColumn,
	"allow_empty_password": false,
	"debug":                false,
}

// Load builds a client.Config. Precedence, highest first: flags that were
// set, environment (including .env files), config file, defaults. An explicit
// configFile must exist.
func Load(configFile string, flags *pflag.FlagSet) (client.Config, error) {
	v := viper.New()

	for key, def := range Keys {
		v.SetDefault(key, def)
	}

	if err := loadDotEnv(); err != nil {
		return client.Config{}, err
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return client.Config{}, fmt.Errorf("failed to read config %s: %w", configFile, err)
		}
	} else {
		home, err := homedir.Dir()
		if err != nil {
			return client.Config{}, fmt.Errorf("failed to find home directory: %w", err)
		}
		v.SetConfigName(configName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath(home)
		v.AddConfigPath(filepath.Join(home, ".config", "pgmanager"))

		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return client.Config{}, fmt.Errorf("failed to read config: %w", err)
			}
		}
	}

	if flags != nil {
		if err := bindFlags(v, flags); err != nil {
			return client.Config{}, err
		}
	}

	var cfg client.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return client.Config{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if cfg.Port == "" {
		cfg.Port = defaultPorts[sqlgen.NormalizeProvider(cfg.Provider)]
	}
	return cfg, nil
}

// loadDotEnv loads .env without touching variables that are already set,
// then .env.local, which overrides everything.
func loadDotEnv() error {
	if _, err := AppFs.Stat(".env"); err == nil {
		if err := godotenv.Load(".env"); err != nil {
			return fmt.Errorf("failed to load .env: %w", err)
		}
	}
	if _, err := AppFs.Stat(".env.local"); err == nil {
		if err := godotenv.Overload(".env.local"); err != nil {
			return fmt.Errorf("failed to load .env.local: %w", err)
		}
	}
	return nil
}

// bindFlags binds each flag whose name matches a key, with dashes mapped to
// underscores. viper only lets a flag win when it was set on the command line.
func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	var err error
	flags.VisitAll(func(f *pflag.Flag) {
		key := strings.ReplaceAll(f.Name, "-", "_")
		if _, ok := Keys[key]; !ok || err != nil {
			return
		}
		err = v.BindPFlag(key, f)
	})
	return err
}

// Save writes cfg to $HOME/.config/pgmanager/.pgmanager.yaml. The password is
// never written.
func Save(cfg client.Config) (string, error) {
	home, err := homedir.Dir()
	if err != nil {
		return "", err
	}

	v := viper.New()
	v.Set("provider", cfg.Provider)
	v.Set("host", cfg.Host)
	v.Set("port", cfg.Port)
	v.Set("user", cfg.User)
	v.Set("database", cfg.Database)
	v.Set("sslmode", cfg.SSLMode)
	v.Set("data_dir", cfg.DataDir)

	dir := filepath.Join(home, ".config", "pgmanager")
	if err := AppFs.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}

	path := filepath.Join(dir, configName+".yaml")
	v.SetFs(AppFs)
	if err := v.WriteConfigAs(path); err != nil {
		return "", err
	}
	return path, nil
}
