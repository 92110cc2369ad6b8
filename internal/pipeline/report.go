package pipeline

import (
	"fmt"
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"fwimport/internal/errs"
	"fwimport/internal/importer"
)

// TableReport is the per-table summary of one run.
type TableReport struct {
	Table    string
	Files    int
	Imported int64 // rows committed by this run
	Total    int64 // rows in the table after the run; -1 when it could not be counted
	Rejected int
	Err      error

	// ClaimedBy names the table whose job archived a shared data file before
	// this job could read it.
	ClaimedBy string
}

// Report is the outcome of Runner.Run.
type Report struct {
	RunID     string
	Started   time.Time
	Duration  time.Duration
	Results   []importer.Result
	Tables    []TableReport
	Unclaimed []string

	// RejectsPath is the rejected-row log of this run, if one was written.
	RejectsPath string
}

// Failed returns the number of jobs that did not commit.
func (r Report) Failed() int {
	n := 0
	for _, res := range r.Results {
		if !res.OK() {
			n++
		}
	}
	return n
}

// OK reports whether every job committed.
func (r Report) OK() bool { return r.Failed() == 0 }

// Render writes the per-table report as a text table.
func (r Report) Render(w io.Writer) {
	if len(r.Tables) == 0 {
		_, _ = fmt.Fprintln(w, "(no import jobs)")
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"table", "files", "imported", "rejected", "total", "status"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight},
		{Number: 3, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
		{Number: 5, Align: text.AlignRight},
	})

	var imported int64
	for _, tr := range r.Tables {
		total := any(tr.Total)
		if tr.Total < 0 {
			total = "-"
		}
		t.AppendRow(table.Row{tr.Table, tr.Files, tr.Imported, tr.Rejected, total, status(tr)})
		imported += tr.Imported
	}
	t.AppendFooter(table.Row{"", "", imported, "", "", fmt.Sprintf("%d failed", r.Failed())})
	t.Render()
}

func status(tr TableReport) string {
	switch {
	case tr.Err == nil:
		return "ok"
	case tr.ClaimedBy != "":
		return "failed (claimed by earlier job " + tr.ClaimedBy + ")"
	default:
		return "failed (" + errs.KindOf(tr.Err).String() + ")"
	}
}
