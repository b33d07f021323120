package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/turbin3/prereq-client/pkg/keys"
	"github.com/turbin3/prereq-client/pkg/solana"
)

const base58SeedPrefix = "base58:"

func newKeygenCmd(c *cli) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "Generate a new wallet",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.run(cmd, func(ctx context.Context) error {
				key, err := keys.Generate()
				if err != nil {
					return err
				}

				w := cmd.OutOrStdout()
				fmt.Fprintf(w, "public key: %s\n", base58.Encode(keys.PublicKey(key)))

				if out == "" {
					fmt.Fprintf(w, "wallet: %s\n", keys.FormatWallet(key))
					return nil
				}

				if err := keys.SaveWalletFile(out, key); err != nil {
					return err
				}
				fmt.Fprintf(w, "wallet saved to %s\n", out)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "write the wallet to this file instead of printing it")

	return cmd
}

func newBase58ToWalletCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "base58-to-wallet <base58-private-key>",
		Short: "Convert a base58 private key to wallet bytes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.run(cmd, func(ctx context.Context) error {
				wallet, err := keys.Base58ToWalletBytes(strings.TrimSpace(args[0]))
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), wallet)
				return nil
			})
		},
	}
}

func newWalletToBase58Cmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "wallet-to-base58 <wallet-bytes|wallet-file>",
		Short: "Convert wallet bytes to a base58 private key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.run(cmd, func(ctx context.Context) error {
				text := args[0]
				if !strings.HasPrefix(strings.TrimSpace(text), "[") {
					contents, err := os.ReadFile(text)
					if err != nil {
						return errors.Wrap(err, "argument is neither a byte array nor a readable file")
					}
					text = string(contents)
				}

				encoded, err := keys.WalletBytesToBase58(text)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), encoded)
				return nil
			})
		},
	}
}

func newDeriveCmd(c *cli) *cobra.Command {
	var seeds []string

	cmd := &cobra.Command{
		Use:   "derive",
		Short: "Derive a program address from seeds",
		Long: "Derive a program address owned by the prereq program.\n\n" +
			"Each --seed is used as UTF-8 text, or as decoded bytes when prefixed with \"" + base58SeedPrefix + "\".",
		Example: "  prereq derive --seed prereq --seed base58:<signer>",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.run(cmd, func(ctx context.Context) error {
				decoded, err := decodeSeeds(seeds)
				if err != nil {
					return err
				}

				address, bump, err := solana.FindProgramAddressAndBump(c.program.ID, decoded...)
				if err != nil {
					return err
				}

				w := cmd.OutOrStdout()
				fmt.Fprintf(w, "address: %s\n", base58.Encode(address))
				fmt.Fprintf(w, "bump: %d\n", bump)
				return nil
			})
		},
	}
	cmd.Flags().StringArrayVar(&seeds, "seed", nil, "seed, repeatable")

	return cmd
}

func decodeSeeds(seeds []string) ([][]byte, error) {
	decoded := make([][]byte, len(seeds))
	for i, seed := range seeds {
		if !strings.HasPrefix(seed, base58SeedPrefix) {
			decoded[i] = []byte(seed)
			continue
		}

		b, err := base58.Decode(strings.TrimPrefix(seed, base58SeedPrefix))
		if err != nil {
			return nil, errors.Wrapf(err, "invalid base58 seed at index %d", i)
		}
		decoded[i] = b
	}
	return decoded, nil
}
