package cmd

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/SynapseHQ/limbic/internal/memory"
	"github.com/spf13/cobra"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Diagnose common setup issues",
	Long: `Diagnose common setup and database issues and optionally fix them.

Examples:
  limbic doctor        # check for issues
  limbic doctor --fix  # check and auto-fix issues`,
	RunE: func(cmd *cobra.Command, args []string) error {
		fix, _ := cmd.Flags().GetBool("fix")
		return runDoctor(fix)
	},
}

func init() {
	doctorCmd.Flags().Bool("fix", false, "Attempt to automatically fix issues")
}

// runDoctor diagnoses common setup issues
func runDoctor(fix bool) error {
	fmt.Println("🔍 Limbic Doctor - Diagnosing Setup")
	if fix {
		fmt.Println("🛠️  Auto-fix enabled")
	}
	fmt.Println()

	issues := 0
	warnings := 0
	fixed := 0

	// 1. Check if binary is in PATH
	fmt.Print("✓ Checking if limbic is in PATH... ")
	path, err := exec.LookPath("limbic")
	if err != nil {
		fmt.Println("❌ FAILED")
		fmt.Println("  Issue: limbic binary not found in PATH")
		fmt.Println("  Fix: Add limbic to your PATH or use full path")
		issues++
	} else {
		fmt.Printf("✅ OK (%s)\n", path)
	}

	// 2. Check binary permissions
	fmt.Print("✓ Checking binary permissions... ")
	if path != "" {
		info, err := os.Stat(path)
		if err != nil {
			fmt.Println("❌ FAILED")
			fmt.Printf("  Issue: Cannot stat binary: %v\n", err)
			issues++
		} else if info.Mode()&0111 == 0 {
			if fix {
				fmt.Print("🛠️  Fixing... ")
				if err := os.Chmod(path, info.Mode()|0111); err != nil {
					fmt.Printf("❌ FAILED: %v\n", err)
					issues++
				} else {
					fmt.Println("✅ FIXED")
					fixed++
				}
			} else {
				fmt.Println("❌ FAILED")
				fmt.Println("  Issue: Binary is not executable")
				fmt.Printf("  Fix: Run 'chmod +x %s'\n", path)
				issues++
			}
		} else {
			fmt.Println("✅ OK")
		}
	} else {
		fmt.Println("⚠️  SKIPPED (not in PATH)")
	}

	// 3. Check data directory
	fmt.Print("✓ Checking data directory... ")
	dataDir := os.Getenv("LIMBIC_DATA_DIR")
	if dataDir == "" {
		home, _ := os.UserHomeDir()
		dataDir = filepath.Join(home, ".limbic")
	}
	if _, err := os.Stat(dataDir); os.IsNotExist(err) {
		if fix {
			fmt.Print("🛠️  Creating... ")
			if err := os.MkdirAll(dataDir, 0700); err != nil {
				fmt.Printf("❌ FAILED: %v\n", err)
				issues++
			} else {
				fmt.Println("✅ FIXED")
				fixed++
			}
		} else {
			fmt.Println("⚠️  WARNING")
			fmt.Printf("  Data directory does not exist: %s\n", dataDir)
			fmt.Println("  It will be created on first run")
			warnings++
		}
	} else {
		fmt.Printf("✅ OK (%s)\n", dataDir)
	}

	// 4. Check SQLite database
	fmt.Print("✓ Checking SQLite database... ")
	dbPath := filepath.Join(dataDir, "limbic.db")
	dbExists := true
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		dbExists = false
		fmt.Println("⚠️  WARNING")
		fmt.Printf("  Database not found: %s\n", dbPath)
		fmt.Println("  It will be created on first run")
		warnings++
	} else {
		fmt.Println("✅ OK")
	}

	// 5. Check database integrity
	fmt.Print("✓ Checking database integrity... ")
	if !dbExists {
		fmt.Println("⚠️  SKIPPED (no database yet)")
	} else {
		store, err := memory.NewStore()
		if err != nil {
			fmt.Println("❌ FAILED")
			fmt.Printf("  Issue: Cannot open store: %v\n", err)
			issues++
		} else {
			ctx := context.Background()
			problems, checkErr := store.CheckIntegrity(ctx)
			count, _ := store.Count(ctx)
			store.Close()

			if checkErr != nil {
				fmt.Println("❌ FAILED")
				fmt.Printf("  Issue: Integrity check failed: %v\n", checkErr)
				issues++
			} else if len(problems) > 0 {
				fmt.Println("❌ FAILED")
				for _, p := range problems {
					fmt.Printf("  Issue: %s\n", p)
				}
				issues += len(problems)
			} else {
				fmt.Printf("✅ OK (%d memories)\n", count)
			}
		}
	}

	// 6. Test CLI startup
	fmt.Print("✓ Testing CLI startup... ")
	if path == "" {
		fmt.Println("⚠️  SKIPPED (not in PATH)")
	} else {
		cmd := exec.Command("limbic", "version")
		if err := cmd.Run(); err != nil {
			fmt.Println("❌ FAILED")
			fmt.Printf("  Issue: Cannot run limbic: %v\n", err)
			issues++
		} else {
			fmt.Println("✅ OK")
		}
	}

	// 7. Check for common environment issues
	fmt.Print("✓ Checking environment... ")
	if runtime.GOOS == "darwin" {
		// Check for Rosetta on Apple Silicon
		if runtime.GOARCH == "arm64" {
			fmt.Println("✅ OK (Apple Silicon native)")
		} else {
			fmt.Println("⚠️  WARNING (Running under Rosetta)")
			warnings++
		}
	} else {
		fmt.Printf("✅ OK (%s/%s)\n", runtime.GOOS, runtime.GOARCH)
	}

	// Summary
	fmt.Println()
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	if issues == 0 && warnings == 0 {
		fmt.Println("✅ All checks passed! Limbic is ready to use.")
	} else {
		if fixed > 0 {
			fmt.Printf("🛠️  Auto-fixed %d issue(s)\n", fixed)
		}
		if issues > 0 {
			fmt.Printf("❌ Found %d critical issue(s)\n", issues)
		}
		if warnings > 0 {
			fmt.Printf("⚠️  Found %d warning(s)\n", warnings)
		}
		fmt.Println()
		fmt.Println("Run the suggested fixes above to resolve issues.")
	}
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")

	if issues > 0 {
		return fmt.Errorf("found %d critical issue(s)", issues)
	}
	return nil
}
