// Package config loads the client configuration from an optional file and the
// environment using viper.
package config

import (
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/turbin3/prereq-client/pkg/solana"
	"github.com/turbin3/prereq-client/pkg/solana/prereq"
)

const (
	// DefaultProgramID is the prereq program deployed on devnet.
	DefaultProgramID = "HC2oqz2p6DEWfrahenqdq2moUcga9c9biqRBcdK3XKU1"
)

// Config is the client configuration.
type Config struct {
	LogLevel string `mapstructure:"log_level"`

	AppName string `mapstructure:"app_name"`

	Cluster string `mapstructure:"cluster"`

	// RPCEndpoint overrides the public endpoint of Cluster.
	RPCEndpoint string `mapstructure:"rpc_endpoint"`

	ProgramID           string `mapstructure:"program_id"`
	IndexDiscriminators bool   `mapstructure:"index_discriminators"`

	KeypairPath string `mapstructure:"keypair_path"`

	Commitment          string        `mapstructure:"commitment"`
	RPCTimeout          time.Duration `mapstructure:"rpc_timeout"`
	ConfirmTimeout      time.Duration `mapstructure:"confirm_timeout"`
	ConfirmPollInterval time.Duration `mapstructure:"confirm_poll_interval"`
	SkipPreflight       bool          `mapstructure:"skip_preflight"`

	// RPCRateLimit paces requests per RPC method, in requests per second. Zero
	// disables pacing.
	RPCRateLimit float64 `mapstructure:"rpc_rate_limit"`

	// CheckSignerExists looks up the signer account before building a
	// completion, failing early for an unfunded wallet.
	CheckSignerExists bool `mapstructure:"check_signer_exists"`

	// ComputeUnitPrice, in micro-lamports, adds a priority fee when non-zero.
	ComputeUnitPrice uint64 `mapstructure:"compute_unit_price"`

	NewRelicLicenseKey string `mapstructure:"new_relic_license_key"`
}

var defaultConfig = Config{
	LogLevel: "info",

	AppName: "prereq-client",

	Cluster: string(solana.ClusterDevnet),

	ProgramID: DefaultProgramID,

	KeypairPath: "dev-wallet.json",

	Commitment:          "confirmed",
	RPCTimeout:          30 * time.Second,
	ConfirmTimeout:      90 * time.Second,
	ConfirmPollInterval: 2 * time.Second,

	RPCRateLimit: 10,

	CheckSignerExists: true,
}

var envBindings = map[string]string{
	"log_level":             "LOG_LEVEL",
	"app_name":              "APP_NAME",
	"cluster":               "PREREQ_CLUSTER",
	"rpc_endpoint":          "PREREQ_RPC_ENDPOINT",
	"program_id":            "PREREQ_PROGRAM_ID",
	"index_discriminators":  "PREREQ_INDEX_DISCRIMINATORS",
	"keypair_path":          "PREREQ_KEYPAIR_PATH",
	"commitment":            "PREREQ_COMMITMENT",
	"rpc_timeout":           "PREREQ_RPC_TIMEOUT",
	"confirm_timeout":       "PREREQ_CONFIRM_TIMEOUT",
	"confirm_poll_interval": "PREREQ_CONFIRM_POLL_INTERVAL",
	"skip_preflight":        "PREREQ_SKIP_PREFLIGHT",
	"rpc_rate_limit":        "PREREQ_RPC_RATE_LIMIT",
	"check_signer_exists":   "PREREQ_CHECK_SIGNER_EXISTS",
	"compute_unit_price":    "PREREQ_COMPUTE_UNIT_PRICE",
	"new_relic_license_key": "NEW_RELIC_LICENSE_KEY",
}

// NewViper returns a viper instance with every key bound to its environment
// variable.
func NewViper() *viper.Viper {
	v := viper.New()
	for key, env := range envBindings {
		_ = v.BindEnv(key, env)
	}
	return v
}

// Load reads the optional config file at path, applies the environment and
// validates the result. A missing file is not an error.
func Load(v *viper.Viper, path string) (*Config, error) {
	if path != "" {
		// viper.ReadInConfig only returns ConfigFileNotFoundError when it has
		// to search for a file, so check an explicit path ourselves.
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			if err := v.ReadInConfig(); err != nil {
				return nil, errors.Wrapf(err, "failed to load config %s", path)
			}
		} else if !os.IsNotExist(err) {
			return nil, errors.Wrapf(err, "failed to check if config %s exists", path)
		}
	}

	config := defaultConfig
	if err := v.Unmarshal(&config); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func (c *Config) Validate() error {
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return errors.Wrap(err, "invalid log_level")
	}
	if _, err := solana.ParseCluster(c.Cluster); err != nil {
		return errors.Wrap(err, "invalid cluster")
	}
	if _, err := solana.ParseCommitment(c.Commitment); err != nil {
		return errors.Wrap(err, "invalid commitment")
	}
	if _, err := c.Program(); err != nil {
		return errors.Wrap(err, "invalid program_id")
	}

	for name, d := range map[string]time.Duration{
		"rpc_timeout":           c.RPCTimeout,
		"confirm_timeout":       c.ConfirmTimeout,
		"confirm_poll_interval": c.ConfirmPollInterval,
	} {
		if d <= 0 {
			return errors.Errorf("%s must be positive, got %v", name, d)
		}
	}
	if c.RPCRateLimit < 0 {
		return errors.Errorf("rpc_rate_limit must not be negative, got %v", c.RPCRateLimit)
	}
	if c.ConfirmPollInterval > c.ConfirmTimeout {
		return errors.New("confirm_poll_interval must not exceed confirm_timeout")
	}

	return nil
}

func (c *Config) SolanaCluster() solana.Cluster {
	cluster, err := solana.ParseCluster(c.Cluster)
	if err != nil {
		return solana.ClusterDevnet
	}
	return cluster
}

// Endpoint is the JSON-RPC endpoint to use.
func (c *Config) Endpoint() string {
	if c.RPCEndpoint != "" {
		return c.RPCEndpoint
	}
	return string(c.SolanaCluster().Endpoint())
}

func (c *Config) SolanaCommitment() solana.Commitment {
	commitment, err := solana.ParseCommitment(c.Commitment)
	if err != nil {
		return solana.CommitmentConfirmed
	}
	return commitment
}

// Program returns the prereq program binding for the configured id.
func (c *Config) Program() (*prereq.Program, error) {
	var opts []prereq.Option
	if c.IndexDiscriminators {
		opts = append(opts, prereq.WithIndexDiscriminators())
	}
	return prereq.NewProgramFromBase58(c.ProgramID, opts...)
}

func (c *Config) Level() logrus.Level {
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return logrus.InfoLevel
	}
	return level
}
