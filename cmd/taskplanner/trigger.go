package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"taskplanner/internal/service"
)

var triggerTemplateID uint

var triggerCmd = &cobra.Command{
	Use:   "trigger <action>",
	Short: "Run an engine action manually",
	Long: `Runs one administrative action against the recurring-task engine,
bypassing the daily timers but sharing the same due-checks.

Actions: generate-all, generate-for-template, count-pending, list-status,
reset-schedule, cleanup-duplicates.`,
	Args: cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTrigger(service.Action(args[0]))
	},
}

func init() {
	for _, a := range service.Actions() {
		triggerCmd.ValidArgs = append(triggerCmd.ValidArgs, string(a))
	}
	triggerCmd.Flags().UintVar(&triggerTemplateID, "template", 0,
		"template id (required for generate-for-template, optional for reset-schedule and cleanup-duplicates)")
}

func runTrigger(action service.Action) error {
	a, err := newApp(configPath)
	if err != nil {
		return err
	}
	defer a.close()

	var templateID *uint
	if triggerTemplateID != 0 {
		templateID = &triggerTemplateID
	}

	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.JobTimeout())
	defer cancel()

	result, err := a.admin.Do(ctx, action, templateID, time.Now().UTC())
	if err != nil {
		return err
	}

	printResult(result)
	return nil
}

func printResult(result service.ActionResult) {
	fmt.Printf("action:  %s\n", result.Action)
	fmt.Printf("success: %v\n", result.Success)
	if result.Message != "" {
		fmt.Printf("message: %s\n", result.Message)
	}
	if result.Generated > 0 {
		fmt.Printf("generated: %d\n", result.Generated)
	}
	if result.Removed > 0 {
		fmt.Printf("removed: %d\n", result.Removed)
	}
	if result.Action == service.ActionCountPending {
		fmt.Printf("pending: %d\n", result.PendingCount)
	}
	for _, job := range result.Jobs {
		lastRun := "never"
		if job.LastRunDate != nil {
			lastRun = job.LastRunDate.Format("2006-01-02")
		}
		fmt.Printf("job %-24s last_run=%s running=%v", job.Name, lastRun, job.IsRunning)
		if job.LastError != "" {
			fmt.Printf(" last_error=%q", job.LastError)
		}
		fmt.Println()
	}
	for _, tmpl := range result.Templates {
		next := "-"
		if tmpl.NextGenerationAt != nil {
			next = tmpl.NextGenerationAt.Format("2006-01-02")
		}
		fmt.Printf("template %-4d %-30q next=%s ended=%v\n", tmpl.TemplateID, tmpl.Title, next, tmpl.Ended)
	}
	for _, e := range result.Errors {
		fmt.Printf("error: %s\n", e)
	}
}
