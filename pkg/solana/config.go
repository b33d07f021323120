package solana

import (
	"fmt"

	"github.com/pkg/errors"
)

type Cluster string

const (
	ClusterDevnet  Cluster = "devnet"
	ClusterTestnet Cluster = "testnet"
	ClusterMainnet Cluster = "mainnet-beta"
)

type Environment string

const (
	EnvironmentDev  Environment = "https://api.devnet.solana.com"
	EnvironmentTest Environment = "https://api.testnet.solana.com"
	EnvironmentProd Environment = "https://api.mainnet-beta.solana.com"
)

func ParseCluster(name string) (Cluster, error) {
	switch Cluster(name) {
	case ClusterDevnet, ClusterTestnet, ClusterMainnet:
		return Cluster(name), nil
	case "mainnet":
		return ClusterMainnet, nil
	}

	return "", errors.Errorf("unknown cluster: %s", name)
}

// Endpoint returns the public RPC endpoint for the cluster.
func (c Cluster) Endpoint() Environment {
	switch c {
	case ClusterTestnet:
		return EnvironmentTest
	case ClusterMainnet:
		return EnvironmentProd
	default:
		return EnvironmentDev
	}
}

// ExplorerTransactionURL returns a block explorer link for the transaction.
func (c Cluster) ExplorerTransactionURL(sig Signature) string {
	return c.explorerURL("tx", sig.String())
}

// ExplorerAddressURL returns a block explorer link for the account.
func (c Cluster) ExplorerAddressURL(address string) string {
	return c.explorerURL("address", address)
}

func (c Cluster) explorerURL(kind, value string) string {
	if c == ClusterMainnet || c == "" {
		return fmt.Sprintf("https://explorer.solana.com/%s/%s", kind, value)
	}

	return fmt.Sprintf("https://explorer.solana.com/%s/%s?cluster=%s", kind, value, c)
}
