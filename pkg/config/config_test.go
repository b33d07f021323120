package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turbin3/prereq-client/pkg/solana"
	"github.com/turbin3/prereq-client/pkg/solana/prereq"
)

func TestLoad_Defaults(t *testing.T) {
	config, err := Load(NewViper(), filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "info", config.LogLevel)
	assert.Equal(t, logrus.InfoLevel, config.Level())
	assert.Equal(t, solana.ClusterDevnet, config.SolanaCluster())
	assert.Equal(t, "https://api.devnet.solana.com", config.Endpoint())
	assert.Equal(t, solana.CommitmentConfirmed, config.SolanaCommitment())
	assert.Equal(t, 30*time.Second, config.RPCTimeout)
	assert.Equal(t, 90*time.Second, config.ConfirmTimeout)
	assert.Equal(t, 2*time.Second, config.ConfirmPollInterval)
	assert.True(t, config.CheckSignerExists)
	assert.False(t, config.SkipPreflight)
	assert.EqualValues(t, 10, config.RPCRateLimit)
	assert.Empty(t, config.NewRelicLicenseKey)

	program, err := config.Program()
	require.NoError(t, err)
	assert.Equal(t, DefaultProgramID, program.String())
	assert.Len(t, program.Discriminator(prereq.InstructionTypeComplete), 8)
}

func TestLoad_FileAndEnvironment(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
log_level: debug
cluster: testnet
commitment: finalized
rpc_timeout: 5s
confirm_poll_interval: 500ms
index_discriminators: true
compute_unit_price: 1000
rpc_rate_limit: 2.5
`), 0o600))

	t.Setenv("PREREQ_RPC_ENDPOINT", "http://localhost:8899")
	t.Setenv("PREREQ_SKIP_PREFLIGHT", "true")
	t.Setenv("PREREQ_CLUSTER", "mainnet-beta")

	config, err := Load(NewViper(), path)
	require.NoError(t, err)

	assert.Equal(t, logrus.DebugLevel, config.Level())
	assert.Equal(t, solana.ClusterMainnet, config.SolanaCluster())
	assert.Equal(t, "http://localhost:8899", config.Endpoint())
	assert.Equal(t, solana.CommitmentFinalized, config.SolanaCommitment())
	assert.Equal(t, 5*time.Second, config.RPCTimeout)
	assert.Equal(t, 500*time.Millisecond, config.ConfirmPollInterval)
	assert.Equal(t, 90*time.Second, config.ConfirmTimeout)
	assert.True(t, config.SkipPreflight)
	assert.EqualValues(t, 1000, config.ComputeUnitPrice)
	assert.EqualValues(t, 2.5, config.RPCRateLimit)

	program, err := config.Program()
	require.NoError(t, err)
	assert.Equal(t, []byte{1}, []byte(program.Discriminator(prereq.InstructionTypeComplete)))
}

func TestLoad_Invalid(t *testing.T) {
	for env, value := range map[string]string{
		"LOG_LEVEL":                    "loud",
		"PREREQ_CLUSTER":               "localnet",
		"PREREQ_COMMITMENT":            "eventually",
		"PREREQ_PROGRAM_ID":            "not-a-key",
		"PREREQ_RPC_TIMEOUT":           "0s",
		"PREREQ_CONFIRM_POLL_INTERVAL": "10m",
		"PREREQ_RPC_RATE_LIMIT":        "-1",
	} {
		t.Run(env, func(t *testing.T) {
			t.Setenv(env, value)

			_, err := Load(NewViper(), "")
			assert.Error(t, err)
		})
	}
}

func TestLoad_MalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("cluster: [unterminated"), 0o600))

	_, err := Load(NewViper(), path)
	assert.Error(t, err)
}
