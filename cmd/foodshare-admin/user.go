package main

import (
	"foodshare/internal/service"

	"github.com/spf13/cobra"
)

var newUser service.RegisterInput

var createUserCmd = &cobra.Command{
	Use:   "create-user",
	Short: "Register an account",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, closeStore, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer closeStore()

		user, err := service.NewUserService(store.Users).Register(cmd.Context(), newUser)
		if err != nil {
			return err
		}
		cmd.Printf("created user %d (%s)\n", user.ID, user.Username)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(createUserCmd)
	createUserCmd.Flags().StringVar(&newUser.Username, "username", "", "login name")
	createUserCmd.Flags().StringVar(&newUser.Email, "email", "", "email address")
	createUserCmd.Flags().StringVar(&newUser.Password, "password", "", "initial password")
	createUserCmd.Flags().StringVar(&newUser.DisplayName, "display-name", "", "display name")
	for _, name := range []string{"username", "email", "password"} {
		_ = createUserCmd.MarkFlagRequired(name)
	}
}
