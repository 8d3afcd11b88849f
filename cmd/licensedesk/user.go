package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tcardoso/licensedesk/internal/auth"
)

var (
	flagUserEmail    string
	flagUserName     string
	flagUserPassword string
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage administrator accounts",
}

var userAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Create an administrator account",
	RunE: func(cmd *cobra.Command, args []string) error {
		if flagUserEmail == "" || flagUserPassword == "" {
			return fmt.Errorf("--email and --password are required")
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		db, err := cfg.InitializeDatabase()
		if err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		defer db.Close()

		hash, err := auth.HashPassword(flagUserPassword)
		if err != nil {
			return err
		}
		account, err := auth.NewAccountStore(db).Create(cmd.Context(), flagUserEmail, flagUserName, hash)
		if err != nil {
			return err
		}

		fmt.Printf("created account %s (%s)\n", account.Email, account.ID)
		return nil
	},
}

func init() {
	userAddCmd.Flags().StringVar(&flagUserEmail, "email", "", "account email")
	userAddCmd.Flags().StringVar(&flagUserName, "name", "", "display name")
	userAddCmd.Flags().StringVar(&flagUserPassword, "password", "", "account password")

	userCmd.AddCommand(userAddCmd)
}
