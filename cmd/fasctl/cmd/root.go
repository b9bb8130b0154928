package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/fasops-io/fasops/internal/console"
	"github.com/fasops-io/fasops/internal/console/authz"
)

var (
	serverURL       string
	credentialsPath string
)

var rootCmd = &cobra.Command{
	Use:   "fasctl",
	Short: "fasops admin console",
	Long: `fasctl is the command-line console for the fasops facility-management
backend. Use it to manage roles, permissions and user accounts.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		pterm.Error.Println(err)
		os.Exit(1)
	}
}

func init() {
	server := os.Getenv("FASOPS_SERVER")
	if server == "" {
		server = "http://localhost:8080"
	}
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", server, "fasops API server URL (env FASOPS_SERVER)")
	rootCmd.PersistentFlags().StringVar(&credentialsPath, "credentials", "", "credentials file path (default ~/.fasops/credentials.json)")

	rootCmd.AddCommand(authCmd)
	rootCmd.AddCommand(roleCmd)
	rootCmd.AddCommand(permCmd)
	rootCmd.AddCommand(userCmd)
}

// runtime builds the console dependency chain for this invocation.
func runtime() (*console.Runtime, error) {
	return console.NewRuntime(console.Options{
		ServerURL:       serverURL,
		CredentialsPath: credentialsPath,
		Logger:          slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})),
	})
}

// guard resolves identity if needed and evaluates the command's requirement.
// It returns the runtime only when the command may proceed.
func guard(ctx context.Context, view string, req authz.Requirement) (*console.Runtime, error) {
	rt, err := runtime()
	if err != nil {
		return nil, err
	}

	if _, ok := rt.Store.Token(); ok {
		// Resolution failure is either a rejected token (the store is cleared
		// and the gate reports unauthenticated below) or an unreachable
		// server, which deserves its own message.
		if err := rt.Resolver.Bootstrap(ctx); err != nil {
			if _, still := rt.Store.Token(); still {
				return nil, fmt.Errorf("cannot reach %s: %w", serverURL, err)
			}
		}
	}

	outcome := rt.Gate.Check(view, req)
	switch outcome.Decision {
	case authz.Authorized:
		return rt, nil
	case authz.Unauthenticated:
		return nil, fmt.Errorf("not logged in (wanted %s): run `fasctl auth login` first", outcome.RequestedView)
	case authz.Forbidden:
		return nil, fmt.Errorf("access denied: %s requires %s", outcome.RequestedView, describeRequirement(req))
	default:
		return nil, fmt.Errorf("identity resolution still in progress, try again")
	}
}

func describeRequirement(req authz.Requirement) string {
	if req.AdminOnly {
		return "the admin role"
	}
	if req.Permission != "" {
		return "permission " + req.Permission
	}
	return "a logged-in user"
}
