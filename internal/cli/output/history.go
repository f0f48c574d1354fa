package output

import (
	"fmt"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
)

// RunInfo is one recorded analysis.
type RunInfo struct {
	ID        string    `json:"id"`
	Job       string    `json:"job"`
	Source    string    `json:"source"`
	Dialect   string    `json:"dialect"`
	Status    string    `json:"status"`
	Error     string    `json:"error,omitempty"`
	Columns   int       `json:"columns"`
	CreatedAt time.Time `json:"created_at"`
}

// Runs renders the run history.
func (r *Renderer) Runs(runs []RunInfo) error {
	mode := r.EffectiveMode()
	if mode.IsMachine() {
		if runs == nil {
			runs = []RunInfo{}
		}
		return r.JSON(runs)
	}

	if len(runs) == 0 {
		if mode == ModeMarkdown {
			r.Println("No recorded runs")
		} else {
			r.Muted("No recorded runs")
		}
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(r.out)
	t.AppendHeader(table.Row{"ID", "Job", "Status", "Dialect", "Columns", "Recorded"})
	for _, run := range runs {
		status := run.Status
		if mode == ModeText {
			switch run.Status {
			case "completed":
				status = r.styles.Success.Render(status)
			case "failed":
				status = r.styles.Error.Render(status)
			}
		}
		t.AppendRow(table.Row{shortID(run.ID), run.Job, status, run.Dialect, run.Columns, run.CreatedAt.Local().Format(time.DateTime)})
	}

	if mode == ModeMarkdown {
		r.Println(FormatHeader(1, "Run History"))
		r.Println("")
		t.RenderMarkdown()
		return nil
	}
	r.Header(1, "Run History")
	t.SetStyle(table.StyleLight)
	t.Render()
	r.Muted(fmt.Sprintf("%d runs", len(runs)))
	return nil
}

// RunHeader renders the details of one run before its lineage.
func (r *Renderer) RunHeader(run RunInfo) {
	if r.EffectiveMode() == ModeMarkdown {
		r.Println(FormatHeader(1, "Run "+run.ID))
		r.Println("")
		r.Println(FormatKeyValue("Job", run.Job))
		r.Println(FormatKeyValue("Source", run.Source))
		r.Println(FormatKeyValue("Status", run.Status))
		r.Println(FormatKeyValue("Recorded", run.CreatedAt.Local().Format(time.DateTime)))
		if run.Error != "" {
			r.Println(FormatKeyValue("Error", run.Error))
		}
		r.Println("")
		return
	}

	r.Header(1, "Run "+run.ID)
	r.Printf("  %s: %s\n", r.styles.Bold.Render("Job"), run.Job)
	r.Printf("  %s: %s\n", r.styles.Bold.Render("Source"), run.Source)
	r.Printf("  %s: %s\n", r.styles.Bold.Render("Status"), run.Status)
	r.Printf("  %s: %s\n", r.styles.Bold.Render("Recorded"), run.CreatedAt.Local().Format(time.DateTime))
	if run.Error != "" {
		r.Printf("  %s: %s\n", r.styles.Bold.Render("Error"), r.styles.Error.Render(run.Error))
	}
	r.Println("")
}

// shortID abbreviates a UUID for tables.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
