package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/relaypoint/cli/internal/api"
	"github.com/relaypoint/cli/internal/config"
	"github.com/relaypoint/cli/internal/route"
	"github.com/relaypoint/cli/internal/token"
)

var (
	// Command line flags
	storeFlag string
	baseURL   string
	noProbe   bool
	version   = "1.0.0" // This will be set during build
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "relaypoint",
	Short: "Relaypoint CLI - Session bootstrap for the Relaypoint API",
	Long: `Relaypoint CLI manages the session credential for the Relaypoint API: it
keeps the token in platform secure storage, decides on start whether you are
signed in, and attaches the token to every outgoing request.

Invoked without a subcommand it resolves the startup entry point: home when a
valid credential is stored, login otherwise.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, store, client, err := buildDeps()
		if err != nil {
			return err
		}

		resolver := route.NewResolver(store)
		if !noProbe {
			resolver = resolver.WithProbe(client)
		}

		startRoute, err := resolver.Resolve(cmd.Context())
		if err != nil {
			return err
		}

		fmt.Printf("Relaypoint CLI v%s\n", version)

		switch startRoute {
		case route.RouteHome:
			fmt.Println("Entry point: home (signed in)")
			if !noProbe {
				// The probe just succeeded; identity display is best effort.
				if identity, werr := client.Whoami(cmd.Context()); werr == nil {
					fmt.Printf("  Signed in as: %s", identity.Username)
					if identity.Org != "" {
						fmt.Printf(" (org: %s)", identity.Org)
					}
					fmt.Println()
				}
			}
		case route.RouteLogin:
			fmt.Println("Entry point: login (not signed in)")
			fmt.Println("Run 'relaypoint auth login' to authenticate.")
		}

		return nil
	},
}

// buildDeps loads configuration and wires the credential store and API client
// shared by every command.
func buildDeps() (*config.Config, token.Store, *api.Client, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, err
	}

	if storeFlag != "" {
		backend, err := token.ValidateBackend(storeFlag)
		if err != nil {
			return nil, nil, nil, err
		}
		cfg.Store = backend
	}
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}

	store, err := token.Open(cfg.Store)
	if err != nil {
		return nil, nil, nil, err
	}

	client := api.NewClient(cfg.BaseURL, store, time.Duration(cfg.Timeout))
	return cfg, store, client, nil
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&storeFlag, "store", "", "Credential storage: keyring, file (overrides config)")
	rootCmd.PersistentFlags().StringVar(&baseURL, "base-url", "", "Base URL for the Relaypoint API (overrides config)")
	rootCmd.Flags().BoolVar(&noProbe, "no-probe", false, "Skip the credential liveness check on start")

	// Add version command
	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print the version number of Relaypoint CLI",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("Relaypoint CLI v%s\n", version)
		},
	}

	rootCmd.AddCommand(versionCmd)
}
