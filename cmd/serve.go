package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/SynapseHQ/limbic/internal/httpapi"
	"github.com/SynapseHQ/limbic/internal/mcp"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:     "serve",
	Aliases: []string{"mcp"},
	Short:   "Start MCP server (default)",
	Long: `Start the MCP server using stdio transport.

The server communicates via JSON-RPC over stdin/stdout and is designed
to be connected to by an MCP client such as Claude Code, Cursor, etc.

With --http, a read-only HTTP API is served alongside for dashboards
and local inspection.

Examples:
  limbic serve
  limbic mcp
  limbic serve --http 127.0.0.1:7077`,
	RunE: func(cmd *cobra.Command, args []string) error {
		httpAddr, _ := cmd.Flags().GetString("http")
		return runServe(httpAddr)
	},
}

func init() {
	serveCmd.Flags().String("http", "", "Serve the read-only HTTP API on this address")
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("limbic %s (commit: %s, built: %s)\n", Version, Commit, Date)
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show memory status",
	Long: `Show current memory status including the data directory,
total memories, database size, and last activity.

Examples:
  limbic status`,
	RunE: func(cmd *cobra.Command, args []string) error { return runStatus() },
}

func runServe(httpAddr string) error {
	fmt.Fprintln(os.Stderr, "🧠 Limbic - Persistent Memory Engine")
	fmt.Fprintln(os.Stderr, "Starting MCP server (stdio transport)...")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "This server communicates via JSON-RPC over stdin/stdout.")
	fmt.Fprintln(os.Stderr, "It is not an interactive CLI; connect an MCP client (Claude Code, Cursor, etc.).")
	fmt.Fprintln(os.Stderr, "Press Ctrl+C to stop. Run 'limbic help' for available commands.")
	fmt.Fprintln(os.Stderr, "")

	mcp.Version = Version

	server, err := mcp.NewServer()
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}
	defer server.Stop()

	var httpServer *http.Server
	if httpAddr != "" {
		api := httpapi.New(server.Store(), Version)
		httpServer = &http.Server{Addr: httpAddr, Handler: api}
		go func() {
			fmt.Fprintf(os.Stderr, "HTTP API listening on %s\n", httpAddr)
			if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				fmt.Fprintf(os.Stderr, "http server error: %v\n", err)
			}
		}()
	}

	err = server.Start()

	// The MCP loop ends when stdin closes; take the HTTP API down with it
	if httpServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		httpServer.Shutdown(ctx)
	}

	return err
}

func runStatus() error {
	server, err := mcp.NewServer()
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}
	defer server.Stop()

	stats := server.GetMemoryStats()
	fmt.Printf("Limbic Memory Status:\n")
	fmt.Printf("  Data Dir: %s\n", server.Store().DataDir())
	fmt.Printf("  Total Memories: %d\n", stats.TotalMemories)
	fmt.Printf("  Database Size: %s\n", stats.DatabaseSize)
	fmt.Printf("  Last Activity: %s\n", stats.LastActivity)
	return nil
}
