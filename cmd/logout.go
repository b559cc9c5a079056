package cmd

import (
	"context"
	"fmt"

	"github.com/kozaktomas/face-compare/internal/config"
	"github.com/spf13/cobra"
)

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the stored session",
	Args:  cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		cfg := config.Load()
		ctx := context.Background()

		gate, closeStore, err := openGate(ctx, cfg, nil, newLogger())
		if err != nil {
			return err
		}
		defer closeStore()

		if err := gate.Logout(ctx); err != nil {
			return err
		}
		fmt.Println("Logged out.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(logoutCmd)
}
