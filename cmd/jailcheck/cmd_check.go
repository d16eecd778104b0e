package main

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"jailcheck/internal/custody/models"
	"jailcheck/internal/custody/service"
	"jailcheck/internal/ingest"
	"jailcheck/internal/platform/logger"
	"jailcheck/internal/report"
)

var checkFlags struct {
	outputDir   string
	delay       time.Duration
	timeout     time.Duration
	maxAttempts int
	concurrency int
}

var checkCmd = &cobra.Command{
	Use:   "check <defendants-file>",
	Short: "Check a defendant list against the current jail roster",
	Long: `Read a defendant list, fetch the complete current-inmate roster and
write a JSON custody report next to a printed summary.

Accepted inputs:
  *.csv    "Active Cases By Assigned Personnel Detail" export
  *.json   array of {"name", "case_number", ...} from a PDF extractor

The report is written to <output>/<stem>_custody_<timestamp>.json. If the
roster cannot be read completely, a failed report is written and the
command exits non-zero.`,
	Args: cobra.ExactArgs(1),
	RunE: runCheck,
}

func init() {
	f := checkCmd.Flags()
	f.StringVarP(&checkFlags.outputDir, "output", "o", ".", "Directory for the JSON report")
	f.DurationVar(&checkFlags.delay, "delay", time.Second, "Minimum delay between roster requests")
	f.DurationVar(&checkFlags.timeout, "timeout", 30*time.Second, "Per-request timeout")
	f.IntVar(&checkFlags.maxAttempts, "max-attempts", 3, "Attempts per roster request, first included")
	f.IntVar(&checkFlags.concurrency, "concurrency", 1, "Roster pages fetched in parallel (max 5)")
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if flags.Changed("delay") {
		cfg.Roster.Delay = checkFlags.delay
	}
	if flags.Changed("timeout") {
		cfg.Roster.Timeout = checkFlags.timeout
	}
	if flags.Changed("max-attempts") {
		cfg.Roster.MaxAttempts = checkFlags.maxAttempts
	}
	if flags.Changed("concurrency") {
		cfg.Roster.Concurrency = checkFlags.concurrency
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	log := logger.NewWithWriter(cmd.ErrOrStderr(), cfg.Log)
	source := args[0]
	defendants, err := ingest.ParseFile(source)
	if err != nil {
		return err
	}
	if len(defendants) == 0 {
		return fmt.Errorf("no defendants found in %s", source)
	}

	ctx := cmd.Context()
	a, err := newApp(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Checking %d defendants from %s\n", len(defendants), source)

	run, checkErr := a.service.Check(ctx, service.CheckRequest{SourceFile: source, Defendants: defendants})
	if run != nil {
		path, err := report.WriteFile(checkFlags.outputDir, run)
		if err != nil {
			return err
		}
		printSummary(out, run)
		fmt.Fprintf(out, "\nReport written: %s\n", path)
	}
	if checkErr != nil {
		if errors.Is(checkErr, service.ErrNotCompleted) && run != nil {
			return fmt.Errorf("%w: %s", service.ErrNotCompleted, run.Error)
		}
		return checkErr
	}
	return nil
}

func printSummary(w io.Writer, run *models.Run) {
	fmt.Fprintf(w, "\nRun %s (%s)\n", run.ID, run.Status)
	if !run.Completed() {
		fmt.Fprintf(w, "  Custody check could not be completed: %s\n", run.Error)
		fmt.Fprintln(w, "  No custody conclusions were drawn.")
		return
	}

	s := run.Result.Summary
	fmt.Fprintf(w, "  Roster size:     %d\n", run.RosterSize)
	fmt.Fprintf(w, "  Defendants:      %d\n", s.Total)
	fmt.Fprintf(w, "  In custody:      %d\n", s.InCustody)
	fmt.Fprintf(w, "  Not in custody:  %d\n", s.NotInCustody)
	fmt.Fprintf(w, "  Errors:          %d\n", s.Errors)

	inCustody := run.Result.InCustody()
	if len(inCustody) == 0 {
		return
	}
	fmt.Fprintln(w, "\nIn custody:")
	for _, v := range inCustody {
		line := fmt.Sprintf("  - %s", v.Defendant.RawName)
		if v.Defendant.CaseNumber != "" {
			line += fmt.Sprintf(" [%s]", v.Defendant.CaseNumber)
		}
		fmt.Fprintf(w, "%s: %s\n", line, v.StatusSummary())
		if v.Ambiguous() {
			fmt.Fprintf(w, "      %s\n", v.Detail)
		}
	}
}
