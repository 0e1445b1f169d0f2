package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/SynapseHQ/limbic/internal/memory"
	"github.com/spf13/cobra"
)

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import memories from a snapshot file",
	Long: `Import memories from a snapshot file produced by 'limbic export'
or the export_memories MCP tool.

Existing memories with the same id are skipped unless --overwrite is
given. Records that fail validation are reported individually and the
rest of the snapshot still lands.

Examples:
  limbic import memories.json
  limbic import --overwrite memories.json
  limbic import --preserve-ids=false memories.json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		overwrite, _ := cmd.Flags().GetBool("overwrite")
		preserveIDs, _ := cmd.Flags().GetBool("preserve-ids")
		return runImport(args[0], overwrite, preserveIDs)
	},
}

var exportCmd = &cobra.Command{
	Use:   "export [output]",
	Short: "Export memories to a file",
	Long: `Export memories to a file.

Supported formats:
  json      - versioned snapshot, round-trips through 'limbic import' (default)
  markdown  - human-readable report

If no output path is given, a default filename is generated.

Examples:
  limbic export
  limbic export memories.json
  limbic export --format markdown memories.md
  limbic export --archived --no-metadata backup.json`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		output := ""
		if len(args) >= 1 {
			output = args[0]
		}
		format, _ := cmd.Flags().GetString("format")
		archived, _ := cmd.Flags().GetBool("archived")
		noMetadata, _ := cmd.Flags().GetBool("no-metadata")
		return runExport(format, output, archived, !noMetadata)
	},
}

func init() {
	importCmd.Flags().Bool("overwrite", false, "Overwrite existing memories with the same id")
	importCmd.Flags().Bool("preserve-ids", true, "Keep memory ids from the snapshot")

	exportCmd.Flags().String("format", "json", "Output format (json or markdown)")
	exportCmd.Flags().Bool("archived", false, "Include archived memories")
	exportCmd.Flags().Bool("no-metadata", false, "Strip metadata from the export")
}

func runImport(path string, overwrite, preserveIDs bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("cannot read snapshot: %w", err)
	}

	var snap memory.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("invalid snapshot file: %w", err)
	}

	store, err := memory.NewStore()
	if err != nil {
		return fmt.Errorf("failed to open memory store: %w", err)
	}
	defer store.Close()

	ctx := context.Background()

	fmt.Printf("Importing %d memories from %s\n", len(snap.Memories), path)

	stats, err := store.Import(ctx, &snap, overwrite, preserveIDs)
	if err != nil {
		return fmt.Errorf("import failed: %w", err)
	}

	fmt.Printf("\n✅ Import Complete!\n")
	fmt.Printf("   Created: %d\n", stats.Created)
	fmt.Printf("   Updated: %d\n", stats.Updated)
	fmt.Printf("   Skipped: %d\n", stats.Skipped)

	if len(stats.Errors) > 0 {
		fmt.Printf("\n⚠️  Errors (%d):\n", len(stats.Errors))
		for i, e := range stats.Errors {
			if i >= 5 {
				fmt.Printf("   ... and %d more\n", len(stats.Errors)-5)
				break
			}
			fmt.Printf("   - %s: %s\n", e.Memory, e.Error)
		}
	}

	return nil
}

// runExport writes memories to a snapshot or markdown file
func runExport(format, output string, includeArchived, includeMetadata bool) error {
	store, err := memory.NewStore()
	if err != nil {
		return fmt.Errorf("failed to open memory store: %w", err)
	}
	defer store.Close()

	ctx := context.Background()

	snap, err := store.Export(ctx, includeArchived, includeMetadata)
	if err != nil {
		return fmt.Errorf("export failed: %w", err)
	}

	if snap.Count == 0 {
		fmt.Println("No memories to export.")
		return nil
	}

	var data []byte

	switch format {
	case "json":
		data, err = json.MarshalIndent(snap, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal JSON: %w", err)
		}

	case "markdown", "md":
		var sb strings.Builder
		sb.WriteString("# Limbic Memory Export\n\n")
		sb.WriteString(fmt.Sprintf("Exported: %s\n\n", snap.ExportedAt.Format("2006-01-02 15:04:05")))
		sb.WriteString(fmt.Sprintf("Total memories: %d\n\n", snap.Count))
		sb.WriteString("---\n\n")

		for _, m := range snap.Memories {
			sb.WriteString(fmt.Sprintf("## %s\n\n", m.Title))
			sb.WriteString(fmt.Sprintf("*%s* | Weight: %.2f", m.CreatedAt.Format("2006-01-02 15:04"), m.Weight))
			if m.Pinned {
				sb.WriteString(" | 📌 pinned")
			}
			if len(m.Tags) > 0 {
				sb.WriteString(fmt.Sprintf(" | Tags: %s", strings.Join(m.Tags, ", ")))
			}
			sb.WriteString("\n\n")
			sb.WriteString(m.Content)
			sb.WriteString("\n\n---\n\n")
		}

		data = []byte(sb.String())

	default:
		return fmt.Errorf("unknown format: %s (supported: json, markdown)", format)
	}

	// Output
	if output == "" {
		timestamp := time.Now().Format("2006-01-02")
		ext := "json"
		if format == "markdown" || format == "md" {
			ext = "md"
		}
		output = fmt.Sprintf("limbic-export-%s.%s", timestamp, ext)
	}

	if err := os.WriteFile(output, data, 0644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	fmt.Printf("✅ Exported %d memories to %s\n", snap.Count, output)
	return nil
}
