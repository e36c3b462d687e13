package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/relaypoint/cli/internal/session"
)

// callCmd performs an arbitrary authenticated request against the API. The
// response is printed as received; an auth failure additionally reports that
// the credential was cleared.
var callCmd = &cobra.Command{
	Use:   "call METHOD PATH",
	Short: "Make an authenticated request against the Relaypoint API",
	Long: `Make a raw request through the authenticated client.

Examples:
  relaypoint call GET /v1/session/whoami
  relaypoint call GET /v1/projects`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		method := strings.ToUpper(args[0])
		path := args[1]
		if !strings.HasPrefix(path, "/") {
			path = "/" + path
		}

		_, _, client, err := buildDeps()
		if err != nil {
			return err
		}

		status, body, err := client.Do(cmd.Context(), method, path)
		if status != 0 {
			fmt.Printf("HTTP %d\n", status)
		}
		if len(body) > 0 {
			fmt.Println(string(body))
		}

		if r, reroute := session.Guard(err); reroute {
			return fmt.Errorf("credential rejected and cleared; next start routes to %s: %w", r, err)
		}
		return err
	},
}

func init() {
	rootCmd.AddCommand(callCmd)
}
