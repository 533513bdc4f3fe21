package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/jmahler/bugtrack/internal/models"
	"github.com/jmahler/bugtrack/internal/output"
	"github.com/jmahler/bugtrack/internal/store"
	"github.com/jmahler/bugtrack/internal/validate"
)

var (
	bugTitle    string
	bugDesc     string
	bugReporter string
	bugAssignee string
	bugPriority string
	bugStatus   string
	bugSteps    []string
	bugPage     int
	bugLimit    int
)

var bugCmd = &cobra.Command{
	Use:   "bug",
	Short: "Manage bug reports",
	Long:  "File, list, and update bug reports.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return bugListRun()
	},
}

var bugAddCmd = &cobra.Command{
	Use:   "add",
	Short: "File a new bug",
	RunE: func(cmd *cobra.Command, args []string) error {
		return bugAddRun()
	},
}

var bugListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List bugs",
	Long:    "List bugs, newest first. Filter with --status and --priority.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return bugListRun()
	},
}

var bugShowCmd = &cobra.Command{
	Use:   "show <bug-id>",
	Short: "Show bug details",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return bugShowRun(args[0])
	},
}

var bugUpdateCmd = &cobra.Command{
	Use:   "update <bug-id>",
	Short: "Update a bug",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return bugUpdateRun(cmd, args[0])
	},
}

var bugDeleteCmd = &cobra.Command{
	Use:   "delete <bug-id>",
	Short: "Delete a bug permanently",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return bugDeleteRun(args[0])
	},
}

func init() {
	bugAddCmd.Flags().StringVar(&bugTitle, "title", "", "Bug title (required)")
	bugAddCmd.Flags().StringVar(&bugDesc, "desc", "", "What went wrong (required)")
	bugAddCmd.Flags().StringVar(&bugReporter, "reporter", "", "Who is reporting (required)")
	bugAddCmd.Flags().StringVar(&bugAssignee, "assignee", "", "Who should fix it")
	bugAddCmd.Flags().StringVar(&bugPriority, "priority", "", "Priority: low, medium, high, critical")
	bugAddCmd.Flags().StringVar(&bugStatus, "status", "", "Status: open, in-progress, resolved, closed")
	bugAddCmd.Flags().StringArrayVar(&bugSteps, "step", nil, "Reproduction step (repeatable, in order)")
	_ = bugAddCmd.MarkFlagRequired("title")
	_ = bugAddCmd.MarkFlagRequired("desc")
	_ = bugAddCmd.MarkFlagRequired("reporter")

	bugListCmd.Flags().StringVar(&bugStatus, "status", "", "Filter by status: open, in-progress, resolved, closed")
	bugListCmd.Flags().StringVar(&bugPriority, "priority", "", "Filter by priority: low, medium, high, critical")
	bugListCmd.Flags().IntVar(&bugPage, "page", 1, "Page number (1-based)")
	bugListCmd.Flags().IntVar(&bugLimit, "limit", 10, "Bugs per page")

	bugUpdateCmd.Flags().StringVar(&bugTitle, "title", "", "New title")
	bugUpdateCmd.Flags().StringVar(&bugDesc, "desc", "", "New description")
	bugUpdateCmd.Flags().StringVar(&bugReporter, "reporter", "", "New reporter")
	bugUpdateCmd.Flags().StringVar(&bugAssignee, "assignee", "", "New assignee")
	bugUpdateCmd.Flags().StringVar(&bugStatus, "status", "", "New status")
	bugUpdateCmd.Flags().StringVar(&bugPriority, "priority", "", "New priority")

	bugCmd.AddCommand(bugAddCmd)
	bugCmd.AddCommand(bugListCmd)
	bugCmd.AddCommand(bugShowCmd)
	bugCmd.AddCommand(bugUpdateCmd)
	bugCmd.AddCommand(bugDeleteCmd)
	rootCmd.AddCommand(bugCmd)
}

func bugAddRun() error {
	s, err := getStore()
	if err != nil {
		return err
	}
	ctx := context.Background()

	payload := validate.CreatePayload{
		Title:            bugTitle,
		Description:      bugDesc,
		Reporter:         bugReporter,
		Assignee:         bugAssignee,
		Status:           bugStatus,
		Priority:         bugPriority,
		StepsToReproduce: bugSteps,
	}
	if err := payload.Validate(); err != nil {
		return err
	}

	if dryRun {
		ui.DryRunMsg("Would file bug: %s (reporter %s)", bugTitle, bugReporter)
		return nil
	}

	bug := payload.Normalize()
	if err := s.CreateBug(ctx, &bug); err != nil {
		return fmt.Errorf("create bug: %w", err)
	}

	ui.Success("Filed bug %s: %s", output.Cyan(shortID(bug.ID)), bug.Title)
	return nil
}

func bugListRun() error {
	s, err := getStore()
	if err != nil {
		return err
	}
	ctx := context.Background()

	if bugPage < 1 || bugLimit < 1 {
		return fmt.Errorf("--page and --limit must be positive integers")
	}

	filter := store.BugFilter{
		Status:   models.BugStatus(bugStatus),
		Priority: models.BugPriority(bugPriority),
	}

	bugs, total, err := s.ListBugs(ctx, filter, bugLimit, (bugPage-1)*bugLimit)
	if err != nil {
		return err
	}

	if total == 0 {
		ui.Info("No bugs found.")
		return nil
	}

	table := ui.Table([]string{"ID", "Title", "Status", "Priority", "Reporter", "Assignee", "Created"})
	for _, b := range bugs {
		_ = table.Append([]string{
			shortID(b.ID),
			b.Title,
			output.StatusColor(string(b.Status)),
			output.PriorityColor(string(b.Priority)),
			b.Reporter,
			b.Assignee,
			b.CreatedAt.Format("2006-01-02"),
		})
	}
	_ = table.Render()

	totalPages := (total + bugLimit - 1) / bugLimit
	ui.Info("Page %d of %d (%d bugs)", bugPage, totalPages, total)
	return nil
}

func bugShowRun(id string) error {
	s, err := getStore()
	if err != nil {
		return err
	}
	ctx := context.Background()

	bug, err := findBug(ctx, s, id)
	if err != nil {
		return err
	}

	fmt.Fprintf(ui.Out, "%s  %s\n", output.Cyan(shortID(bug.ID)), bug.Title)
	fmt.Fprintf(ui.Out, "  Status:     %s\n", output.StatusColor(string(bug.Status)))
	fmt.Fprintf(ui.Out, "  Priority:   %s\n", output.PriorityColor(string(bug.Priority)))
	fmt.Fprintf(ui.Out, "  Reporter:   %s\n", bug.Reporter)
	if bug.Assignee != "" {
		fmt.Fprintf(ui.Out, "  Assignee:   %s\n", bug.Assignee)
	}
	fmt.Fprintf(ui.Out, "  Desc:       %s\n", bug.Description)
	if len(bug.StepsToReproduce) > 0 {
		fmt.Fprintf(ui.Out, "  Steps:\n")
		for i, step := range bug.StepsToReproduce {
			fmt.Fprintf(ui.Out, "    %d. %s\n", i+1, step)
		}
	}
	if bug.Environment != (models.Environment{}) {
		fmt.Fprintf(ui.Out, "  Env:        %s %s %s\n", bug.Environment.OS, bug.Environment.Browser, bug.Environment.Version)
	}
	fmt.Fprintf(ui.Out, "  Created:    %s\n", bug.CreatedAt.Format(time.RFC3339))
	fmt.Fprintf(ui.Out, "  Updated:    %s\n", bug.UpdatedAt.Format(time.RFC3339))
	fmt.Fprintf(ui.Out, "  Full ID:    %s\n", bug.ID)

	return nil
}

func bugUpdateRun(cmd *cobra.Command, id string) error {
	s, err := getStore()
	if err != nil {
		return err
	}
	ctx := context.Background()

	bug, err := findBug(ctx, s, id)
	if err != nil {
		return err
	}

	// Build a partial payload from the flags the user actually set, so an
	// explicitly empty value is still a present value.
	var payload validate.UpdatePayload
	if cmd.Flags().Changed("title") {
		payload.Title = &bugTitle
	}
	if cmd.Flags().Changed("desc") {
		payload.Description = &bugDesc
	}
	if cmd.Flags().Changed("reporter") {
		payload.Reporter = &bugReporter
	}
	if cmd.Flags().Changed("assignee") {
		payload.Assignee = &bugAssignee
	}
	if cmd.Flags().Changed("status") {
		payload.Status = &bugStatus
	}
	if cmd.Flags().Changed("priority") {
		payload.Priority = &bugPriority
	}

	if payload == (validate.UpdatePayload{}) {
		return fmt.Errorf("no updates specified (use --status, --priority, --title, --desc, --reporter, or --assignee)")
	}

	if err := payload.Validate(); err != nil {
		return err
	}

	if dryRun {
		ui.DryRunMsg("Would update bug %s", shortID(bug.ID))
		return nil
	}

	payload.Apply(bug)
	if err := s.UpdateBug(ctx, bug); err != nil {
		return fmt.Errorf("update bug: %w", err)
	}

	ui.Success("Updated bug %s", output.Cyan(shortID(bug.ID)))
	return nil
}

func bugDeleteRun(id string) error {
	s, err := getStore()
	if err != nil {
		return err
	}
	ctx := context.Background()

	bug, err := findBug(ctx, s, id)
	if err != nil {
		return err
	}

	if dryRun {
		ui.DryRunMsg("Would delete bug %s: %s", shortID(bug.ID), bug.Title)
		return nil
	}

	if err := s.DeleteBug(ctx, bug.ID); err != nil {
		return fmt.Errorf("delete bug: %w", err)
	}

	ui.Success("Deleted bug %s: %s", output.Cyan(shortID(bug.ID)), bug.Title)
	return nil
}

// findBug finds a bug by full ID or prefix match.
func findBug(ctx context.Context, s store.Store, id string) (*models.Bug, error) {
	// Try exact match first
	if bug, err := s.GetBug(ctx, id); err == nil {
		return bug, nil
	}

	// Try prefix match across all bugs
	upper := strings.ToUpper(id)
	var matches []*models.Bug
	for offset := 0; ; offset += 100 {
		bugs, total, err := s.ListBugs(ctx, store.BugFilter{}, 100, offset)
		if err != nil {
			return nil, err
		}
		for _, b := range bugs {
			if strings.HasPrefix(b.ID, upper) {
				matches = append(matches, b)
			}
		}
		if offset+100 >= total {
			break
		}
	}

	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("bug not found: %s", id)
	case 1:
		return matches[0], nil
	default:
		return nil, fmt.Errorf("ambiguous bug ID %s: matches %d bugs", id, len(matches))
	}
}

// shortID returns a truncated ULID for display (first 12 chars).
func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}
