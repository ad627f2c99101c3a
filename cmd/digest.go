package cmd

import (
	"fmt"

	"github.com/campusid/parking-portal/internal/credential"
	"github.com/spf13/cobra"
)

var (
	digestScheme string
	digestCost   int
)

var digestCmd = &cobra.Command{
	Use:   "digest <password>",
	Short: "Print the admin password digest",
	Long:  `Print the digest to put in security.admin_password_digest (or ADMIN_PASSWORD_DIGEST) for the chosen password scheme.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		hasher, err := credential.New(digestScheme, digestCost)
		if err != nil {
			return err
		}
		digest, err := hasher.Hash(args[0])
		if err != nil {
			return fmt.Errorf("hash password: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), digest)
		return nil
	},
}

func init() {
	digestCmd.Flags().StringVar(&digestScheme, "scheme", credential.SchemeSHA256, "password scheme (sha256 or bcrypt)")
	digestCmd.Flags().IntVar(&digestCost, "cost", 0, "bcrypt cost, 0 for the library default")
}
