package command

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/stolasapp/journal/internal/config"
	"github.com/stolasapp/journal/internal/sec"
)

func passwdCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "passwd",
		Short: "Hash the admin password",
		Long: "Reads a password from stdin or the interactive prompt and prints its bcrypt\n" +
			"hash, suitable for admin_password_hash or " + config.EnvAdminPasswordHash + ".",
		Args: cobra.NoArgs,
		// hashing needs no configuration, so skip loading it
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		RunE: func(cmd *cobra.Command, _ []string) error {
			passwd, err := prompt(cmd, "password: ", true)
			if err != nil {
				return err
			}
			if len(passwd) == 0 {
				return errors.New("password must not be empty")
			}
			hash, err := sec.HashPassword(passwd)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(hash))
			return err
		},
	}
}
