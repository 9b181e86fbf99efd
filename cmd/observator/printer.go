package main

import (
	"fmt"
	"io"
	"sort"

	"github.com/fatih/color"

	"github.com/Stefatorus/observator-electoral-transparenta/internal/usecase"
)

// printer writes colored command summaries.
type printer struct {
	w      io.Writer
	header *color.Color
	label  *color.Color
	good   *color.Color
	warn   *color.Color
	dim    *color.Color
}

func newPrinter(w io.Writer) *printer {
	return &printer{
		w:      w,
		header: color.New(color.FgCyan, color.Bold),
		label:  color.New(color.FgWhite),
		good:   color.New(color.FgGreen),
		warn:   color.New(color.FgYellow),
		dim:    color.New(color.Faint),
	}
}

func (p *printer) title(s string) {
	p.header.Fprintln(p.w, s)
}

func (p *printer) count(name string, n int) {
	p.label.Fprintf(p.w, "  %-16s", name)
	p.good.Fprintf(p.w, "%d\n", n)
}

func (p *printer) warnCount(name string, n int) {
	if n == 0 {
		p.count(name, n)
		return
	}
	p.label.Fprintf(p.w, "  %-16s", name)
	p.warn.Fprintf(p.w, "%d\n", n)
}

func (p *printer) path(name, path string) {
	p.label.Fprintf(p.w, "  %-16s", name)
	if path == "" {
		p.dim.Fprintln(p.w, "(not written)")
		return
	}
	fmt.Fprintln(p.w, path)
}

func (p *printer) grade(res usecase.GradeResult) {
	v := res.Summary.Violations
	p.title("Grade")
	p.count("files", res.Counts.Files)
	p.count("parsed", res.Counts.Parsed)
	p.warnCount("malformed", res.Counts.Malformed)
	p.warnCount("no metadata", res.Counts.MissingMetadata)
	p.count("violations", v.TotalViolations)
	p.warnCount("false positives", v.TotalFalsePositives)
	p.label.Fprintf(p.w, "  %-16s", "fp rate")
	p.warn.Fprintf(p.w, "%.2f%%\n", v.FalsePositiveRate*100)
	p.label.Fprintf(p.w, "  %-16s", "total spend")
	p.good.Fprintf(p.w, "%.2f\n", v.TotalSpend)

	parties := make([]string, 0, len(v.ViolationsByParty))
	for party := range v.ViolationsByParty {
		parties = append(parties, party)
	}
	sort.Slice(parties, func(i, j int) bool {
		a, b := v.ViolationsByParty[parties[i]], v.ViolationsByParty[parties[j]]
		if a != b {
			return a > b
		}
		return parties[i] < parties[j]
	})
	if len(parties) > 0 {
		p.header.Fprintln(p.w, "By party")
	}
	for _, party := range parties {
		p.label.Fprintf(p.w, "  %-32s", party)
		p.good.Fprintf(p.w, "%4d", v.ViolationsByParty[party])
		p.dim.Fprintf(p.w, "  precision %.2f\n", v.PrecisionByParty[party])
	}

	p.path("summary", res.SummaryPath)
	p.path("charts", res.ChartsPath)
}

func (p *printer) pipeline(res usecase.PipelineResult) {
	p.title("Run")
	p.count("ads kept", res.Scrape.Kept)
	p.count("classified", res.Classify.Successful)
	p.warnCount("failed", res.Classify.Failed)
	p.count("skipped", res.Classify.Skipped)
	p.count("entities", res.Complaint.Entities)
	p.count("violations", res.Complaint.Items)
	p.count("report rows", res.Report.Rows)
	p.path("complaint", res.Complaint.Path)
	p.path("report", res.Report.Path)
}
