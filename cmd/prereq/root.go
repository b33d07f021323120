package main

import (
	"context"
	"crypto/ed25519"
	"io"
	"time"

	"github.com/mr-tron/base58"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/turbin3/prereq-client/pkg/config"
	"github.com/turbin3/prereq-client/pkg/enroll"
	"github.com/turbin3/prereq-client/pkg/keys"
	"github.com/turbin3/prereq-client/pkg/metrics"
	"github.com/turbin3/prereq-client/pkg/network"
	"github.com/turbin3/prereq-client/pkg/rate"
	"github.com/turbin3/prereq-client/pkg/solana"
	"github.com/turbin3/prereq-client/pkg/solana/prereq"
)

const shutdownTimeout = 5 * time.Second

// cli holds the state shared by every command once the configuration is
// loaded.
type cli struct {
	config  *config.Config
	program *prereq.Program
	app     *newrelic.Application

	// gateway replaces the JSON-RPC gateway when set.
	gateway network.Gateway
}

// flagBindings maps persistent flags onto config keys. A flag only overrides
// the file and environment when it is set on the command line.
var flagBindings = map[string]string{
	"cluster":      "cluster",
	"rpc-endpoint": "rpc_endpoint",
	"program-id":   "program_id",
	"keypair":      "keypair_path",
	"log-level":    "log_level",
	"commitment":   "commitment",
}

func newRootCmd(c *cli) *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:          "prereq",
		Short:        "Enroll in the prereq program on Solana",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.load(cmd, configPath)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&configPath, "config", "", "YAML config file")
	flags.String("cluster", "", "devnet, testnet or mainnet-beta")
	flags.String("rpc-endpoint", "", "JSON-RPC endpoint, overrides the cluster endpoint")
	flags.String("program-id", "", "prereq program id")
	flags.StringP("keypair", "k", "", "signer wallet file")
	flags.String("log-level", "", "log level")
	flags.String("commitment", "", "processed, confirmed or finalized")

	root.AddCommand(
		newKeygenCmd(c),
		newBase58ToWalletCmd(c),
		newWalletToBase58Cmd(c),
		newDeriveCmd(c),
		newAirdropCmd(c),
		newTransferCmd(c),
		newCompleteCmd(c),
		newUpdateCmd(c),
		newStatusCmd(c),
	)

	return root
}

func (c *cli) load(cmd *cobra.Command, path string) error {
	v := config.NewViper()

	flags := cmd.Flags()
	for flag, key := range flagBindings {
		if !flags.Changed(flag) {
			continue
		}
		value, err := flags.GetString(flag)
		if err != nil {
			return err
		}
		v.Set(key, value)
	}

	cfg, err := config.Load(v, path)
	if err != nil {
		return err
	}
	c.config = cfg

	c.program, err = cfg.Program()
	if err != nil {
		return err
	}

	if c.app == nil {
		c.app, err = metrics.NewApplication(cfg.AppName, cfg.NewRelicLicenseKey)
		if err != nil {
			return err
		}
	}

	configureLogger(cfg, c.app, cmd.ErrOrStderr())
	return nil
}

func (c *cli) shutdown() {
	if c.app != nil {
		c.app.Shutdown(shutdownTimeout)
	}
}

func configureLogger(cfg *config.Config, app *newrelic.Application, out io.Writer) {
	if app != nil {
		logrus.SetFormatter(metrics.NewNewRelicLogFormatter(app, &logrus.JSONFormatter{}))
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{})
	}

	logrus.SetLevel(cfg.Level())

	// Stdout is reserved for command output.
	logrus.SetOutput(out)
}

// run executes fn inside a New Relic transaction named after the command.
func (c *cli) run(cmd *cobra.Command, fn func(ctx context.Context) error) error {
	ctx := metrics.WithApplication(cmd.Context(), c.app)

	ctx, end := metrics.StartTransaction(ctx, "cli/"+cmd.Name())
	err := fn(ctx)
	end(err)

	if err != nil {
		logrus.StandardLogger().WithField("type", "cli/"+cmd.Name()).WithError(err).Debug("command failed")
	}
	return err
}

func (c *cli) newGateway() network.Gateway {
	if c.gateway != nil {
		return c.gateway
	}

	return network.NewRPCGateway(
		solana.NewWithLimiter(c.config.Endpoint(), c.config.RPCTimeout, rate.FromConfig(c.config.RPCRateLimit)),
		network.WithCommitment(c.config.SolanaCommitment()),
		network.WithSkipPreflight(c.config.SkipPreflight),
		network.WithCallTimeout(c.config.RPCTimeout),
		network.WithConfirmTimeout(c.config.ConfirmTimeout),
		network.WithPollInterval(c.config.ConfirmPollInterval),
	)
}

func (c *cli) newService() *enroll.Service {
	return enroll.NewService(
		c.newGateway(),
		c.program,
		enroll.WithSignerCheck(c.config.CheckSignerExists),
		enroll.WithComputeUnitPrice(c.config.ComputeUnitPrice),
	)
}

func (c *cli) signer() (ed25519.PrivateKey, error) {
	key, err := keys.LoadWalletFile(c.config.KeypairPath)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load signer, run keygen or set --keypair")
	}
	return key, nil
}

func (c *cli) explorerTransactionURL(sig solana.Signature) string {
	return c.config.SolanaCluster().ExplorerTransactionURL(sig)
}

func (c *cli) explorerAddressURL(address ed25519.PublicKey) string {
	return c.config.SolanaCluster().ExplorerAddressURL(base58.Encode(address))
}
