package command

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/meterd/internal/server/httpserver/handler"
)

// SystemCommand returns the system subcommand group.
func SystemCommand() *cli.Command {
	return &cli.Command{
		Name:    "system",
		Aliases: []string{"sys"},
		Usage:   "System commands",
		Subcommands: []*cli.Command{
			{
				Name:   "status",
				Usage:  "Show server status (admin endpoint)",
				Action: systemStatus,
			},
			{
				Name:   "health",
				Usage:  "Check server liveness",
				Action: systemHealth,
			},
			{
				Name:   "ready",
				Usage:  "Check whether the server's probes are running",
				Action: systemReady,
			},
		},
	}
}

func systemStatus(c *cli.Context) error {
	client, flags, err := EnsureConnected(c)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(c.Context, flags.Timeout)
	defer cancel()

	var result handler.StatusResponse
	if err := client.GetJSON(ctx, "/admin/v1/status", &result); err != nil {
		return err
	}

	return render(c, flags, result, func(w io.Writer) error {
		fmt.Fprintf(w, "System Status\n")
		fmt.Fprintf(w, "=============\n\n")
		fmt.Fprintf(w, "Status:      %s\n", result.Status)
		fmt.Fprintf(w, "Version:     %s\n", result.Build.Version)
		fmt.Fprintf(w, "Commit:      %s\n", result.Build.Commit)
		fmt.Fprintf(w, "Go:          %s\n", result.Build.GoVersion)
		fmt.Fprintf(w, "Started:     %s\n", result.StartedAt)
		fmt.Fprintf(w, "Uptime:      %s\n", result.Uptime)
		fmt.Fprintf(w, "Goroutines:  %d\n", result.Goroutines)
		fmt.Fprintf(w, "Ready:       %t\n", result.Ready)
		return nil
	})
}

func systemHealth(c *cli.Context) error {
	return probe(c, "/health", "healthy")
}

func systemReady(c *cli.Context) error {
	return probe(c, "/ready", "ready")
}

// probe checks an unauthenticated status endpoint.
func probe(c *cli.Context, path, want string) error {
	client, flags, err := EnsureConnected(c)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(c.Context, min(flags.Timeout, 10*time.Second))
	defer cancel()

	var result handler.HealthResponse
	if err := client.GetJSON(ctx, path, &result); err != nil {
		return fmt.Errorf("server not %s: %w", want, err)
	}

	return render(c, flags, result, func(w io.Writer) error {
		if result.Status != want {
			return fmt.Errorf("server not %s: %s", want, result.Status)
		}
		fmt.Fprintf(w, "✓ Server is %s\n", want)
		fmt.Fprintf(w, "  Target: %s\n", client.BaseURL())
		return nil
	})
}
