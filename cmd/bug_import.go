package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/jmahler/bugtrack/internal/store"
	"github.com/jmahler/bugtrack/internal/validate"
)

var importDryRun bool

var bugImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import bugs from a YAML file",
	Long: `Import bugs in bulk from a YAML file.

The file holds a list of bug entries:

  - title: Login button unresponsive
    description: Clicking login does nothing on Safari
    reporter: alice
    priority: high
    stepsToReproduce:
      - Open the login page
      - Click the login button

Each entry is validated with the same rules as the API; invalid
entries are skipped with a warning.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return bugImportRun(args[0])
	},
}

func init() {
	bugImportCmd.Flags().BoolVar(&importDryRun, "dry-run", false, "Preview bugs without creating them")
	bugCmd.AddCommand(bugImportCmd)
}

func bugImportRun(file string) error {
	data, err := os.ReadFile(file)
	if err != nil {
		return fmt.Errorf("read file: %w", err)
	}

	var payloads []validate.CreatePayload
	if err := yaml.Unmarshal(data, &payloads); err != nil {
		return fmt.Errorf("parse yaml: %w", err)
	}
	if len(payloads) == 0 {
		ui.Info("No bugs found in file.")
		return nil
	}

	s, err := getStore()
	if err != nil {
		return err
	}
	ctx := context.Background()

	// Preview table
	table := ui.Table([]string{"#", "Title", "Priority", "Reporter"})
	for i, p := range payloads {
		_ = table.Append([]string{
			fmt.Sprintf("%d", i+1),
			p.Title,
			p.Priority,
			p.Reporter,
		})
	}
	_ = table.Render()

	if importDryRun || dryRun {
		ui.DryRunMsg("Would import %d bugs", len(payloads))
		return nil
	}

	return createImportedBugs(ctx, s, payloads)
}

func createImportedBugs(ctx context.Context, s store.Store, payloads []validate.CreatePayload) error {
	created := 0
	skipped := 0

	for i, p := range payloads {
		if err := p.Validate(); err != nil {
			ui.Warning("Skipping entry %d (%q): %v", i+1, p.Title, err)
			skipped++
			continue
		}

		bug := p.Normalize()
		if err := s.CreateBug(ctx, &bug); err != nil {
			ui.Warning("Failed to create bug %q: %v", p.Title, err)
			skipped++
			continue
		}
		created++
	}

	ui.Success("Imported %d bugs", created)
	if skipped > 0 {
		ui.Warning("Skipped %d entries", skipped)
	}

	return nil
}
