package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/relaypoint/cli/internal/api"
	"github.com/relaypoint/cli/internal/session"
	"github.com/relaypoint/cli/internal/token"
)

var (
	authUsername string
	authPassword string
	authToken    string
)

var (
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	absentStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

// authCmd represents the auth command
var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage Relaypoint authentication",
	Long: `Manage the session credential for the Relaypoint API.

Examples:
  # Interactive login
  relaypoint auth login

  # Non-interactive login
  relaypoint auth login --username alice --password SECRET

  # Import an existing token
  relaypoint auth login --token TOKEN

  # Check auth status
  relaypoint auth status

  # Remove the stored credential
  relaypoint auth logout`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAuthLogin(cmd)
	},
}

var authLoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Authenticate with Relaypoint",
	Long: `Log in to the Relaypoint API. Interactive by default when run in a terminal.

Non-interactive flags:
  --username NAME    Account username
  --password SECRET  Account password
  --token TOKEN      Import an existing session token instead of logging in`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAuthLogin(cmd)
	},
}

var authStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show current authentication state",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, store, _, err := buildDeps()
		if err != nil {
			return err
		}

		tok, err := store.Get()
		if errors.Is(err, token.ErrNotFound) {
			fmt.Println(absentStyle.Render("Not authenticated"))
			fmt.Println("Run 'relaypoint auth login' to authenticate.")
			return nil
		}
		if err != nil {
			return err
		}

		fmt.Println(okStyle.Render("Authenticated"))
		fmt.Printf("  Source: %s\n", token.Source(cfg.Store))
		masked := tok
		if len(masked) > 8 {
			masked = masked[:4] + "..." + masked[len(masked)-4:]
		}
		fmt.Printf("  Token: %s\n", masked)
		return nil
	},
}

var authVerifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Verify the stored credential is valid",
	Long: `Verify that the stored credential can authenticate with the Relaypoint API.

If the server rejects the credential it is cleared, and the next start routes
to the login entry point. Useful in CI to validate authentication before
running tasks.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, store, client, err := buildDeps()
		if err != nil {
			return err
		}

		if _, err := store.Get(); errors.Is(err, token.ErrNotFound) {
			return fmt.Errorf("no credential found: run 'relaypoint auth login' to authenticate")
		}

		if err := client.Verify(cmd.Context()); err != nil {
			if errors.Is(err, api.ErrAuthRequired) {
				return fmt.Errorf("credential rejected and cleared: %w", err)
			}
			return fmt.Errorf("verification failed: %w", err)
		}

		fmt.Println("Credential verified successfully")
		if identity, werr := client.Whoami(cmd.Context()); werr == nil {
			fmt.Printf("  Signed in as: %s\n", identity.Username)
		}
		return nil
	},
}

var authLogoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Remove the stored credential",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, store, client, err := buildDeps()
		if err != nil {
			return err
		}

		ctrl := session.NewController(store, client)
		if err := ctrl.Logout(); err != nil {
			return err
		}
		fmt.Println("Credential removed successfully")
		return nil
	},
}

func runAuthLogin(cmd *cobra.Command) error {
	_, store, client, err := buildDeps()
	if err != nil {
		return err
	}
	ctrl := session.NewController(store, client)

	// Token import path: verify-through-save, no password exchange.
	if authToken != "" {
		if err := ctrl.ImportToken(cmd.Context(), authToken); err != nil {
			return err
		}
		fmt.Println("Token imported successfully")
		return nil
	}

	username := authUsername
	password := authPassword

	interactive := isInteractive() && username == "" && password == ""
	if interactive {
		var err error
		username, password, err = interactiveLogin()
		if err != nil {
			return err
		}
	} else {
		if username == "" {
			return fmt.Errorf("--username is required in non-interactive mode")
		}
		if password == "" {
			return fmt.Errorf("--password is required in non-interactive mode")
		}
	}

	fmt.Println("Authenticating...")
	if err := ctrl.Login(cmd.Context(), username, password); err != nil {
		return err
	}
	fmt.Println("Authentication successful")

	return nil
}

func interactiveLogin() (string, string, error) {
	reader := bufio.NewReader(os.Stdin)

	fmt.Print("Username: ")
	username, _ := reader.ReadString('\n')
	username = strings.TrimSpace(username)
	if username == "" {
		return "", "", fmt.Errorf("username cannot be empty")
	}

	fmt.Print("Password: ")
	raw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return "", "", fmt.Errorf("failed to read password: %w", err)
	}
	password := strings.TrimSpace(string(raw))
	if password == "" {
		return "", "", fmt.Errorf("password cannot be empty")
	}

	return username, password, nil
}

func isInteractive() bool {
	fi, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (fi.Mode() & os.ModeCharDevice) != 0
}

func init() {
	for _, c := range []*cobra.Command{authCmd, authLoginCmd} {
		c.Flags().StringVar(&authUsername, "username", "", "Account username")
		c.Flags().StringVar(&authPassword, "password", "", "Account password")
		c.Flags().StringVar(&authToken, "token", "", "Import an existing session token")
	}

	authCmd.AddCommand(authLoginCmd, authStatusCmd, authLogoutCmd, authVerifyCmd)
	rootCmd.AddCommand(authCmd)
}
