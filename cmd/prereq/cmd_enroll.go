package main

import (
	"context"
	"fmt"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/turbin3/prereq-client/pkg/enroll"
	"github.com/turbin3/prereq-client/pkg/keys"
	"github.com/turbin3/prereq-client/pkg/network"
)

func newCompleteCmd(c *cli) *cobra.Command {
	var github, memo string

	cmd := &cobra.Command{
		Use:   "complete",
		Short: "Record the signer's completed prerequisites",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.run(cmd, func(ctx context.Context) error {
				signer, err := c.signer()
				if err != nil {
					return err
				}

				result, err := c.newService().SubmitCompletion(ctx, signer, github, memoOption(memo)...)
				if err != nil {
					return err
				}

				w := cmd.OutOrStdout()
				fmt.Fprintf(w, "enrolled %s as %s\n", base58.Encode(keys.PublicKey(signer)), github)
				fmt.Fprintf(w, "prereq account: %s\n", base58.Encode(result.Address))
				fmt.Fprintln(w, c.explorerTransactionURL(result.Signature))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&github, "github", "", "github username")
	cmd.Flags().StringVar(&memo, "memo", "", "memo to attach")
	_ = cmd.MarkFlagRequired("github")

	return cmd
}

func newUpdateCmd(c *cli) *cobra.Command {
	var github string

	cmd := &cobra.Command{
		Use:   "update",
		Short: "Change the github username of an enrollment",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.run(cmd, func(ctx context.Context) error {
				signer, err := c.signer()
				if err != nil {
					return err
				}

				result, err := c.newService().UpdateGithub(ctx, signer, github)
				if err != nil {
					return err
				}

				fmt.Fprintf(cmd.OutOrStdout(), "updated github to %s\n", github)
				fmt.Fprintln(cmd.OutOrStdout(), c.explorerTransactionURL(result.Signature))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&github, "github", "", "github username")
	_ = cmd.MarkFlagRequired("github")

	return cmd
}

func newStatusCmd(c *cli) *cobra.Command {
	var address string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the enrollment of a signer",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.run(cmd, func(ctx context.Context) error {
				signer, err := c.recipient(address)
				if err != nil {
					return err
				}

				account, prereqAddress, err := c.newService().GetEnrollment(ctx, signer)

				w := cmd.OutOrStdout()
				if errors.Is(err, network.ErrAccountNotFound) {
					fmt.Fprintf(w, "%s is not enrolled\n", base58.Encode(signer))
					fmt.Fprintf(w, "prereq account: %s\n", base58.Encode(prereqAddress))
					return nil
				} else if err != nil {
					return err
				}

				fmt.Fprintf(w, "%s is enrolled as %s\n", base58.Encode(signer), account.Github)
				fmt.Fprintf(w, "prereq account: %s\n", base58.Encode(prereqAddress))
				fmt.Fprintln(w, c.explorerAddressURL(prereqAddress))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&address, "signer", "", "signer address, defaults to the configured keypair")

	return cmd
}

func memoOption(memo string) []enroll.CallOption {
	if memo == "" {
		return nil
	}
	return []enroll.CallOption{enroll.WithMemo(memo)}
}
