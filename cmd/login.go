package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/kozaktomas/face-compare/internal/config"
	"github.com/kozaktomas/face-compare/internal/session"
	"github.com/spf13/cobra"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Unlock face-compare with the shared password",
	Long: `Log in with the password configured in FACECOMPARE_PASSWORD.

The password is read from --password or, when omitted, from standard input.
On success a session marker is stored (in the marker file, or in PostgreSQL
when DATABASE_URL is set) and later commands run without asking again.

Examples:
  face-compare login
  echo "$SECRET" | face-compare login`,
	Args: cobra.NoArgs,
	RunE: runLogin,
}

func init() {
	rootCmd.AddCommand(loginCmd)

	loginCmd.Flags().String("password", "", "Password (read from stdin when empty)")
}

func readPassword() (string, error) {
	fmt.Fprint(os.Stderr, "Password: ")
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("reading password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func runLogin(cmd *cobra.Command, _ []string) error {
	cfg := config.Load()
	logger := newLogger()
	ctx := context.Background()

	gate, closeStore, err := openGate(ctx, cfg, nil, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	password := mustGetString(cmd, "password")
	if password == "" {
		if password, err = readPassword(); err != nil {
			return err
		}
	}

	if _, err := gate.Login(ctx, password); err != nil {
		if errors.Is(err, session.ErrLoginFailed) {
			return errors.New(cfg.Messages.LoginFailed)
		}
		return err
	}

	fmt.Println("Logged in.")
	return nil
}
