// Package config resolves deployment settings from flags, the process
// environment, an optional .env file and an optional config file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/Bidon15/vrfdeploy"
)

// Viper keys. Each one is bound to the environment variable of the same name
// in upper case.
const (
	KeyCoordinatorAddress    = "vrf_address"
	KeySubscriptionID        = "sub_id"
	KeyKeyHash               = "key_hash"
	KeyRPCURL                = "rpc_url"
	KeyChainID               = "chain_id"
	KeyPrivateKey            = "private_key"
	KeyPOPSignerRPCURL       = "popsigner_rpc_url"
	KeyPOPSignerAPIKey       = "popsigner_api_key"
	KeyDeployerAddress       = "deployer_address"
	KeyContractArtifact      = "contract_artifact"
	KeyArgumentsPath         = "arguments_path"
	KeyDeployTimeout         = "deploy_timeout"
	KeyWriteArgsAfterConfirm = "write_args_after_confirm"
	KeyPushgatewayURL        = "pushgateway_url"
	KeyLogLevel              = "log_level"
	KeyLogFormat             = "log_format"
)

var envBindings = map[string]string{
	KeyCoordinatorAddress:    vrfdeploy.EnvCoordinatorAddress,
	KeySubscriptionID:        vrfdeploy.EnvSubscriptionID,
	KeyKeyHash:               vrfdeploy.EnvKeyHash,
	KeyRPCURL:                vrfdeploy.EnvRPCURL,
	KeyChainID:               vrfdeploy.EnvChainID,
	KeyPrivateKey:            vrfdeploy.EnvPrivateKey,
	KeyPOPSignerRPCURL:       vrfdeploy.EnvPOPSignerRPCURL,
	KeyPOPSignerAPIKey:       vrfdeploy.EnvPOPSignerAPIKey,
	KeyDeployerAddress:       vrfdeploy.EnvDeployerAddress,
	KeyContractArtifact:      vrfdeploy.EnvContractArtifact,
	KeyArgumentsPath:         vrfdeploy.EnvArgumentsPath,
	KeyDeployTimeout:         vrfdeploy.EnvDeployTimeout,
	KeyWriteArgsAfterConfirm: vrfdeploy.EnvWriteArgsAfterConfirm,
	KeyPushgatewayURL:        vrfdeploy.EnvPushgatewayURL,
	KeyLogLevel:              vrfdeploy.EnvLogLevel,
	KeyLogFormat:             vrfdeploy.EnvLogFormat,
}

// LoadOptions controls where configuration is read from.
type LoadOptions struct {
	// ConfigFile is an optional YAML/TOML/JSON file. Empty means none.
	ConfigFile string

	// EnvFiles are dotenv files loaded into the process environment before
	// viper reads it. Defaults to ".env". Missing files are ignored.
	EnvFiles []string

	// Overrides take precedence over every other source (command-line flags).
	Overrides map[string]string
}

// Config is a typed accessor over the resolved configuration.
type Config struct {
	v *viper.Viper
}

// Load resolves configuration. Already-set environment variables win over
// values from dotenv files.
func Load(opts LoadOptions) (*Config, error) {
	envFiles := opts.EnvFiles
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load env file %s: %w", f, err)
		}
	}

	v := viper.New()
	v.SetDefault(KeyContractArtifact, vrfdeploy.DefaultContractArtifact)
	v.SetDefault(KeyArgumentsPath, vrfdeploy.DefaultArgumentsPath)
	v.SetDefault(KeyDeployTimeout, vrfdeploy.DefaultDeployTimeout.String())
	v.SetDefault(KeyWriteArgsAfterConfirm, false)
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFormat, "text")

	v.AutomaticEnv()
	for key, env := range envBindings {
		_ = v.BindEnv(key, env)
	}

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", opts.ConfigFile, err)
		}
	}

	for key, val := range opts.Overrides {
		if val != "" {
			v.Set(key, val)
		}
	}

	return &Config{v: v}, nil
}

// FromMap builds a Config from literal values. Used by tests and by callers
// that embed the deployer.
func FromMap(values map[string]string) *Config {
	v := viper.New()
	for key, val := range values {
		v.Set(key, val)
	}
	return &Config{v: v}
}

// String returns the trimmed value for key, or "" if unset.
func (c *Config) String(key string) string {
	return strings.TrimSpace(c.v.GetString(key))
}

// Require returns the value for key or an ErrMissingConfig error naming the
// environment variable. A blank value counts as absent.
func (c *Config) Require(key string) (string, error) {
	val := c.String(key)
	if val == "" {
		return "", fmt.Errorf("%w: %s is not set", vrfdeploy.ErrMissingConfig, envName(key))
	}
	return val, nil
}

// Bool parses key as a boolean. Unset is false.
func (c *Config) Bool(key string) (bool, error) {
	raw := c.String(key)
	if raw == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("%w: %s=%q is not a boolean", vrfdeploy.ErrInvalidParameter, envName(key), raw)
	}
	return b, nil
}

// Int64 parses key as a base-10 integer. Unset is 0.
func (c *Config) Int64(key string) (int64, error) {
	raw := c.String(key)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s=%q is not an integer", vrfdeploy.ErrInvalidParameter, envName(key), raw)
	}
	return n, nil
}

// Duration parses key with time.ParseDuration. Unset is 0.
func (c *Config) Duration(key string) (time.Duration, error) {
	raw := c.String(key)
	if raw == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s=%q is not a duration", vrfdeploy.ErrInvalidParameter, envName(key), raw)
	}
	return d, nil
}

// ConfigFileUsed reports the config file viper read, if any.
func (c *Config) ConfigFileUsed() string {
	return c.v.ConfigFileUsed()
}

func envName(key string) string {
	if env, ok := envBindings[key]; ok {
		return env
	}
	return strings.ToUpper(key)
}
