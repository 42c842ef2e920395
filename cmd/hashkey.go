package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
)

var hashAdminKeyCmd = &cobra.Command{
	Use:     "hash-admin-key <key>",
	Short:   "Print the bcrypt hash to put in ADMIN_KEY_HASH",
	Args:    cobra.ExactArgs(1),
	Example: "leng-api hash-admin-key 0i2rinbcp12yc31h",
	RunE: func(cmd *cobra.Command, args []string) error {
		hash, err := bcrypt.GenerateFromPassword([]byte(args[0]), bcrypt.DefaultCost)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "ADMIN_KEY_HASH=%s\n", hash)
		return nil
	},
}
