package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func scrapeCommand(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "scrape",
		Short: "Fetch ads from every configured source",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			res, err := c.app.Scrape(cmd.Context())
			if err != nil {
				return err
			}
			p := newPrinter(cmd.OutOrStdout())
			p.title("Scrape")
			p.count("fetched", res.Fetched)
			p.count("kept", res.Kept)
			p.warnCount("dropped", res.Dropped)
			if c.cfg.Store.DSN != "" {
				p.count("new in store", res.Stored)
			}
			p.path("results", res.ResultsPath)
			p.path("summary", res.SummaryPath)
			return nil
		},
	}
}

func mergeCSVCommand(c *cli) *cobra.Command {
	var (
		dir    string
		cutoff string
		out    string
	)
	cmd := &cobra.Command{
		Use:   "merge-csv",
		Short: "Merge Ad Library CSV exports into the enriched metadata file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var cut time.Time
			if cutoff != "" {
				t, err := time.Parse(time.DateOnly, cutoff)
				if err != nil {
					return fmt.Errorf("--cutoff: %w", err)
				}
				cut = t
			}
			n, err := c.app.MergeCSV(dir, cut, out)
			if err != nil {
				return err
			}
			p := newPrinter(cmd.OutOrStdout())
			p.title("Merge CSV")
			p.count("ads", n)
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "exports", "Directory holding the CSV exports")
	cmd.Flags().StringVar(&cutoff, "cutoff", "", "Drop ads that stopped before this date (YYYY-MM-DD)")
	cmd.Flags().StringVarP(&out, "output", "o", "", "Output file (default grade.metadata)")
	return cmd
}

func classifyCommand(c *cli) *cobra.Command {
	var results string
	cmd := &cobra.Command{
		Use:   "classify",
		Short: "Classify scraped ads with Gemini",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			res, err := c.app.Classify(cmd.Context(), results)
			if err != nil {
				return err
			}
			p := newPrinter(cmd.OutOrStdout())
			p.title("Classify")
			p.count("successful", res.Successful)
			p.warnCount("failed", res.Failed)
			p.count("skipped", res.Skipped)
			p.count("total", res.Total())
			return nil
		},
	}
	cmd.Flags().StringVar(&results, "results", "", "Results file (default newest in paths.results)")
	return cmd
}

func complaintCommand(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "complaint",
		Short: "Render the LaTeX complaint from classifier responses",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			res, err := c.app.Complaint(cmd.Context())
			if err != nil {
				return err
			}
			p := newPrinter(cmd.OutOrStdout())
			p.title("Complaint")
			p.count("files", res.Files.Files)
			p.warnCount("malformed", res.Files.Malformed)
			p.count("entities", res.Entities)
			p.count("violations", res.Items)
			p.path("document", res.Path)
			return nil
		},
	}
}

func reportCommand(c *cli) *cobra.Command {
	var results string
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Write the violations workbook",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			res, err := c.app.Report(cmd.Context(), results)
			if err != nil {
				return err
			}
			p := newPrinter(cmd.OutOrStdout())
			p.title("Report")
			p.count("rows", res.Rows)
			p.warnCount("unmatched", res.Unmatched)
			p.path("workbook", res.Path)
			return nil
		},
	}
	cmd.Flags().StringVar(&results, "results", "", "Results file (default newest in paths.results)")
	return cmd
}

func gradeCommand(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "grade",
		Short: "Score verdicts against ad metadata and chart the results",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			res, err := c.app.Grade()
			if err != nil {
				return err
			}
			newPrinter(cmd.OutOrStdout()).grade(res)
			return nil
		},
	}
}

func runCommand(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Scrape, classify, then write the complaint and the report",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			res, err := c.app.Run(cmd.Context())
			if err != nil {
				return err
			}
			newPrinter(cmd.OutOrStdout()).pipeline(res)
			return nil
		},
	}
}

func watchCommand(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Rerun the pipeline on schedule.interval until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			err := c.app.Watch(cmd.Context())
			if errors.Is(err, cmd.Context().Err()) {
				return nil
			}
			return err
		},
	}
}
