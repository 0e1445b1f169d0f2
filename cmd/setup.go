package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/cobra"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Register the MCP server with installed clients",
	Long: `Auto-detect installed MCP clients and register Limbic with them.

Without arguments, auto-detects installed clients and configures each one.
Specify a client to configure only that one.

Examples:
  limbic setup              # auto-detect and configure all clients
  limbic setup cursor       # configure Cursor only
  limbic setup claude-code  # configure Claude Code only`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSetup()
	},
}

func init() {
	setupCmd.AddCommand(&cobra.Command{
		Use:   "cursor",
		Short: "Register Limbic with Cursor",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSetupCursor()
		},
	})

	setupCmd.AddCommand(&cobra.Command{
		Use:   "windsurf",
		Short: "Register Limbic with Windsurf",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSetupWindsurf()
		},
	})

	setupCmd.AddCommand(&cobra.Command{
		Use:   "claude-code",
		Short: "Register Limbic with Claude Code",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSetupClaudeCode()
		},
	})

	setupCmd.AddCommand(&cobra.Command{
		Use:   "vscode",
		Short: "Register Limbic with VS Code (GitHub Copilot)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSetupVSCode()
		},
	})

	setupCmd.AddCommand(&cobra.Command{
		Use:   "zed",
		Short: "Register Limbic with Zed",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSetupZed()
		},
	})
}

// limbicServerEntry is the JSON blob MCP clients launch the server from.
func limbicServerEntry(binPath string) map[string]interface{} {
	return map[string]interface{}{
		"command": binPath,
		"args":    []string{"serve"},
	}
}

// upsertServerConfig merges the limbic entry into the JSON config at
// configPath under serversKey, preserving everything else in the file.
func upsertServerConfig(configPath, serversKey string, entry map[string]interface{}) error {
	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	config := make(map[string]interface{})
	if data, err := os.ReadFile(configPath); err == nil {
		if err := json.Unmarshal(data, &config); err != nil {
			return fmt.Errorf("failed to parse %s: %w", filepath.Base(configPath), err)
		}
		fmt.Printf("✓ Found existing %s\n", filepath.Base(configPath))
	} else {
		fmt.Printf("✓ Creating new %s\n", filepath.Base(configPath))
	}

	servers, ok := config[serversKey].(map[string]interface{})
	if !ok {
		servers = make(map[string]interface{})
		config[serversKey] = servers
	}
	servers["limbic"] = entry

	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write %s: %w", filepath.Base(configPath), err)
	}

	fmt.Printf("✓ Updated: %s\n", configPath)
	return nil
}

func findLimbicBinary() (string, error) {
	path, err := exec.LookPath("limbic")
	if err != nil {
		return "", fmt.Errorf("limbic binary not found in PATH. Install it first or add it to PATH")
	}
	fmt.Printf("✓ Found limbic at: %s\n", path)
	return path, nil
}

// printClientFooter prints the post-setup banner for a configured client.
func printClientFooter(client, note string) {
	fmt.Println()
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	fmt.Printf("✅ Limbic is now configured for %s!\n", client)
	fmt.Println()
	fmt.Println(note)
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  limbic status   - View memory status")
	fmt.Println("  limbic stats    - View memory statistics")
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// runSetup auto-detects installed MCP clients and configures each one.
func runSetup() error {
	fmt.Println("🔍 Auto-detecting MCP clients for Limbic setup...")
	fmt.Println()

	home, _ := os.UserHomeDir()

	type client struct {
		name   string
		detect func() bool
		setup  func() error
	}
	clients := []client{
		{"Cursor", func() bool { return dirExists(filepath.Join(home, ".cursor")) }, runSetupCursor},
		{"Windsurf", func() bool { return dirExists(filepath.Join(home, ".windsurf")) }, runSetupWindsurf},
		{"Claude Code", func() bool {
			_, err := exec.LookPath("claude")
			return err == nil
		}, runSetupClaudeCode},
		{"VS Code", func() bool {
			p := vscodeMCPConfigPath()
			return p != "" && dirExists(filepath.Dir(p))
		}, runSetupVSCode},
		{"Zed", func() bool { return dirExists(filepath.Dir(zedSettingsFilePath())) }, runSetupZed},
	}

	configured := 0
	for _, c := range clients {
		if !c.detect() {
			continue
		}
		fmt.Printf("👉 Detected %s\n", c.name)
		if err := c.setup(); err != nil {
			fmt.Printf("   ❌ %s setup failed: %v\n", c.name, err)
			continue
		}
		configured++
	}

	if configured == 0 {
		fmt.Println("⚠️  No MCP clients automatically detected.")
		fmt.Println("   You can still configure one directly:")
		fmt.Println("   limbic setup cursor")
		fmt.Println("   limbic setup claude-code")
		fmt.Println("   limbic setup vscode")
		return nil
	}

	fmt.Printf("\n✅ Successfully configured %d client(s)!\n", configured)
	return nil
}

// runSetupCursor merges a limbic entry into Cursor's mcp.json.
func runSetupCursor() error {
	fmt.Println("🔧 Setting up Limbic for Cursor...")
	fmt.Println()

	binPath, err := findLimbicBinary()
	if err != nil {
		return err
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("cannot determine home directory: %w", err)
	}

	configPath := filepath.Join(home, ".cursor", "mcp.json")
	if err := upsertServerConfig(configPath, "mcpServers", limbicServerEntry(binPath)); err != nil {
		return err
	}

	printClientFooter("Cursor", "Restart Cursor; the memory tools appear once the MCP server loads.")
	return nil
}

// runSetupWindsurf merges a limbic entry into Windsurf's mcp_config.json.
func runSetupWindsurf() error {
	fmt.Println("🔧 Setting up Limbic for Windsurf...")
	fmt.Println()

	binPath, err := findLimbicBinary()
	if err != nil {
		return err
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("cannot determine home directory: %w", err)
	}

	configPath := filepath.Join(home, ".windsurf", "mcp_config.json")
	if err := upsertServerConfig(configPath, "mcpServers", limbicServerEntry(binPath)); err != nil {
		return err
	}

	printClientFooter("Windsurf", "Restart Windsurf; the memory tools appear once the MCP server loads.")
	return nil
}

// runSetupClaudeCode registers limbic through the claude CLI rather than a
// config file, since Claude Code owns its own registration store.
func runSetupClaudeCode() error {
	fmt.Println("🔧 Setting up Limbic for Claude Code...")
	fmt.Println()

	claudePath, err := exec.LookPath("claude")
	if err != nil {
		return fmt.Errorf("claude binary not found in PATH. Install Claude Code first")
	}
	fmt.Printf("✓ Found claude at: %s\n", claudePath)

	binPath, err := findLimbicBinary()
	if err != nil {
		return err
	}

	fmt.Print("✓ Checking existing MCP registrations... ")
	listOutput, err := exec.Command(claudePath, "mcp", "list").CombinedOutput()
	if err != nil {
		fmt.Println("⚠️  could not list MCP servers (continuing)")
	} else if strings.Contains(string(listOutput), "limbic") {
		fmt.Println("already registered")
		fmt.Println()
		fmt.Println("To re-register, run `claude mcp remove limbic` first.")
		return nil
	} else {
		fmt.Println("not yet registered")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("cannot determine home directory: %w", err)
	}
	dataDir := os.Getenv("LIMBIC_DATA_DIR")
	if dataDir == "" {
		dataDir = filepath.Join(home, ".limbic")
	}

	fmt.Print("✓ Registering limbic MCP server... ")
	addCmd := exec.Command(claudePath, "mcp", "add",
		"-e", "LIMBIC_DATA_DIR="+dataDir,
		"--scope", "user",
		"limbic",
		"--",
		binPath, "serve",
	)
	if out, err := addCmd.CombinedOutput(); err != nil {
		return fmt.Errorf("failed to register MCP server: %w\nOutput: %s", err, string(out))
	}
	fmt.Println("done")

	printClientFooter("Claude Code", "Start a new session; the server auto-starts on first tool use.")
	return nil
}

// vscodeMCPConfigPath returns the user-level VS Code MCP config path.
func vscodeMCPConfigPath() string {
	switch runtime.GOOS {
	case "darwin":
		home, _ := os.UserHomeDir()
		return filepath.Join(home, "Library", "Application Support", "Code", "User", "mcp.json")
	case "linux":
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "Code", "User", "mcp.json")
	case "windows":
		appdata := os.Getenv("APPDATA")
		if appdata == "" {
			return ""
		}
		return filepath.Join(appdata, "Code", "User", "mcp.json")
	}
	return ""
}

// runSetupVSCode configures VS Code. Its MCP config nests entries under
// "servers" and each entry carries a transport type.
func runSetupVSCode() error {
	fmt.Println("🔧 Setting up Limbic for VS Code...")
	fmt.Println()

	binPath, err := findLimbicBinary()
	if err != nil {
		return err
	}

	configPath := vscodeMCPConfigPath()
	if configPath == "" {
		return fmt.Errorf("could not determine VS Code config path for this platform")
	}

	entry := limbicServerEntry(binPath)
	entry["type"] = "stdio"
	if err := upsertServerConfig(configPath, "servers", entry); err != nil {
		return err
	}

	printClientFooter("VS Code", "Requires VS Code 1.99+ with Copilot Agent Mode. No restart needed.")
	return nil
}

// zedSettingsFilePath returns the Zed settings.json path.
func zedSettingsFilePath() string {
	home, _ := os.UserHomeDir()
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, ".zed", "settings.json")
	case "linux":
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, "zed", "settings.json")
		}
		return filepath.Join(home, ".config", "zed", "settings.json")
	}
	return filepath.Join(home, ".zed", "settings.json")
}

// runSetupZed configures Zed, which calls MCP servers context servers.
func runSetupZed() error {
	fmt.Println("🔧 Setting up Limbic for Zed...")
	fmt.Println()

	binPath, err := findLimbicBinary()
	if err != nil {
		return err
	}

	settingsPath := zedSettingsFilePath()
	if err := upsertServerConfig(settingsPath, "context_servers", limbicServerEntry(binPath)); err != nil {
		return err
	}

	printClientFooter("Zed", "No restart needed; Zed hot-reloads settings.")
	return nil
}
