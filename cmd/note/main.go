package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	_ "time/tzdata"

	"github.com/spf13/cobra"

	"github.com/juparave/researchnote/internal/app"
	"github.com/juparave/researchnote/internal/config"
	"github.com/juparave/researchnote/internal/logger"
	"github.com/juparave/researchnote/internal/report"
	"github.com/juparave/researchnote/internal/store"
	"github.com/juparave/researchnote/internal/util"
)

var (
	version  = "0.1.0"
	cfgFile  string
	date     string
	repos    []string
	parallel int
	dryRun   bool
	verbose  bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:     "note",
		Short:   "Research note - a daily summary of your commits",
		Long:    `note collects the day's commits by one author across repositories, has a language model review every changed file, and writes a dated research note in markdown and JSON.`,
		Version: version,
		RunE:    run,
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "Path to config file (default: ~/.config/researchnote/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.Flags().StringVarP(&date, "date", "d", "", "Note date as YYYY-MM-DD in the report timezone (default: today)")
	rootCmd.Flags().StringSliceVarP(&repos, "repo", "r", nil, "Repository to scan, repeatable (overrides config)")
	rootCmd.Flags().IntVarP(&parallel, "parallel", "p", 0, "Repositories processed concurrently (overrides config)")
	rootCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Write the note but don't send email or record history")

	rootCmd.AddCommand(renderCmd(), historyCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, *logger.Logger, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	cfg.Verbose = verbose
	level := cfg.Log.Level
	if verbose {
		level = "debug"
	}
	return cfg, logger.New(level, cfg.Log.Format), nil
}

func run(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}

	// Override config with CLI flags
	if len(repos) > 0 {
		cfg.Source.Repos = repos
	}
	if parallel > 0 {
		cfg.Pipeline.ParallelRepos = parallel
	}
	if dryRun {
		cfg.Email.Enabled = false
		cfg.Reports.HistoryDB = ""
	}

	res, err := app.NewRunner(cfg, log).Run(cmd.Context(), date)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Markdown: %s\nJSON: %s\nCommits: %d\n",
		res.Paths.Markdown, res.Paths.JSON, len(res.Report.Commits))
	return nil
}

func renderCmd() *cobra.Command {
	var asHTML bool

	cmd := &cobra.Command{
		Use:   "render <report.json>",
		Short: "Render a saved JSON note as markdown or HTML",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig()
			if err != nil {
				return err
			}

			if !util.FileExists(args[0]) {
				return fmt.Errorf("report not found: %s", args[0])
			}

			rpt, err := report.Load(args[0])
			if err != nil {
				return err
			}

			formatter := report.NewFormatter(cfg.Reports.OutputDir, nil)
			if !asHTML {
				_, err = fmt.Fprint(cmd.OutOrStdout(), formatter.ToMarkdown(rpt))
				return err
			}

			html, err := formatter.ToHTML(rpt)
			if err != nil {
				return err
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), html)
			return err
		},
	}
	cmd.Flags().BoolVar(&asHTML, "html", false, "Render HTML instead of markdown")
	return cmd
}

func historyCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent notes recorded in the history database",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig()
			if err != nil {
				return err
			}
			if cfg.Reports.HistoryDB == "" {
				return fmt.Errorf("reports.history_db is not configured")
			}

			history, err := store.Open(cfg.Reports.HistoryDB)
			if err != nil {
				return err
			}
			defer history.Close()

			runs, err := history.Recent(cmd.Context(), limit)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "DATE\tCOMMITS\tFILES\tHIGH\tMEDIUM\tLOW\tMODEL")
			for _, run := range runs {
				fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%d\t%d\t%s\n", run.NoteDate, run.CommitCount,
					run.FileCount, run.HighCount, run.MediumCount, run.LowCount, run.Model)
			}
			return w.Flush()
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 14, "Number of runs to show")
	return cmd
}
