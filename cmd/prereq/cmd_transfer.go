package main

import (
	"context"
	"crypto/ed25519"
	"fmt"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/turbin3/prereq-client/pkg/enroll"
	"github.com/turbin3/prereq-client/pkg/keys"
)

func newAirdropCmd(c *cli) *cobra.Command {
	var lamports uint64
	var to string

	cmd := &cobra.Command{
		Use:   "airdrop",
		Short: "Request lamports from the cluster faucet",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.run(cmd, func(ctx context.Context) error {
				recipient, err := c.recipient(to)
				if err != nil {
					return err
				}

				result, err := c.newService().Airdrop(ctx, recipient, lamports)
				if err != nil {
					return err
				}

				fmt.Fprintf(cmd.OutOrStdout(), "airdropped %d lamports to %s\n", result.Lamports, base58.Encode(recipient))
				fmt.Fprintln(cmd.OutOrStdout(), c.explorerTransactionURL(result.Signature))
				return nil
			})
		},
	}
	cmd.Flags().Uint64Var(&lamports, "lamports", enroll.DefaultAirdropLamports, "lamports to request")
	cmd.Flags().StringVar(&to, "to", "", "recipient, defaults to the signer")

	return cmd
}

func newTransferCmd(c *cli) *cobra.Command {
	var (
		to       string
		lamports uint64
		all      bool
		memo     string
	)

	cmd := &cobra.Command{
		Use:   "transfer",
		Short: "Transfer lamports from the signer",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.run(cmd, func(ctx context.Context) error {
				if all == (lamports > 0) {
					return errors.New("exactly one of --lamports or --all is required")
				}

				recipient, err := decodePublicKey(to)
				if err != nil {
					return err
				}

				signer, err := c.signer()
				if err != nil {
					return err
				}

				opts := memoOption(memo)

				svc := c.newService()

				var result *enroll.Result
				if all {
					result, err = svc.TransferAll(ctx, signer, recipient, opts...)
				} else {
					result, err = svc.Transfer(ctx, signer, recipient, lamports, opts...)
				}
				if err != nil {
					return err
				}

				w := cmd.OutOrStdout()
				fmt.Fprintf(w, "transferred %d lamports to %s\n", result.Lamports, to)
				if result.Fee > 0 {
					fmt.Fprintf(w, "fee: %d lamports\n", result.Fee)
				}
				fmt.Fprintln(w, c.explorerTransactionURL(result.Signature))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&to, "to", "", "recipient address")
	cmd.Flags().Uint64Var(&lamports, "lamports", 0, "lamports to transfer")
	cmd.Flags().BoolVar(&all, "all", false, "transfer the whole balance less the fee")
	cmd.Flags().StringVar(&memo, "memo", "", "memo to attach")
	_ = cmd.MarkFlagRequired("to")

	return cmd
}

// recipient decodes address, falling back to the signer's public key.
func (c *cli) recipient(address string) (ed25519.PublicKey, error) {
	if address != "" {
		return decodePublicKey(address)
	}

	signer, err := c.signer()
	if err != nil {
		return nil, err
	}
	return keys.PublicKey(signer), nil
}

func decodePublicKey(address string) (ed25519.PublicKey, error) {
	b, err := base58.Decode(address)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid address %q", address)
	}
	if len(b) != ed25519.PublicKeySize {
		return nil, errors.Errorf("invalid address %q: expected %d bytes, got %d", address, ed25519.PublicKeySize, len(b))
	}
	return b, nil
}
