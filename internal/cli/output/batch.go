package output

import (
	"fmt"

	"github.com/leapstack-labs/leaplineage/pkg/lineage"
	"github.com/leapstack-labs/leaplineage/pkg/openlineage"
)

// BatchStatus values.
const (
	BatchFailed  = "failed"
	BatchSkipped = "skipped"
)

// BatchIssue is a query of a batch that produced no lineage.
type BatchIssue struct {
	Source string `json:"source"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// batchQuery is the JSON form of one analyzed query.
type batchQuery struct {
	Job     string          `json:"job"`
	Dataset string          `json:"dataset"`
	Source  string          `json:"source"`
	Dialect string          `json:"dialect"`
	Columns *lineage.Result `json:"columns"`
}

type batchJSON struct {
	Queries []batchQuery `json:"queries"`
	Issues  []BatchIssue `json:"issues"`
}

// Batch renders the lineage of several queries followed by the queries
// that produced none.
func (r *Renderer) Batch(outs []LineageOutput, issues []BatchIssue) error {
	if issues == nil {
		issues = []BatchIssue{}
	}

	switch r.EffectiveMode() {
	case ModeJSON:
		doc := batchJSON{Queries: make([]batchQuery, 0, len(outs)), Issues: issues}
		for _, out := range outs {
			doc.Queries = append(doc.Queries, batchQuery{
				Job:     out.Job,
				Dataset: out.Dataset,
				Source:  out.Source,
				Dialect: out.Dialect,
				Columns: out.Result,
			})
		}
		return r.JSON(doc)
	case ModeOpenLineage:
		events := make([]*openlineage.RunEvent, 0, len(outs))
		for _, out := range outs {
			if out.Event == nil {
				return ErrNoEvent
			}
			events = append(events, out.Event)
		}
		return r.JSON(events)
	}

	for _, out := range outs {
		if err := r.Lineage(out); err != nil {
			return err
		}
		r.Println("")
	}

	r.Header(2, "Summary")
	for _, out := range outs {
		r.StatusLine(out.Source, "success", out.Dataset)
	}
	for _, issue := range issues {
		r.StatusLine(issue.Source, issue.Status, issue.Error)
	}
	r.Println("")
	r.Println(fmt.Sprintf("%d succeeded, %d failed, %d skipped",
		len(outs), countStatus(issues, BatchFailed), countStatus(issues, BatchSkipped)))
	return nil
}

func countStatus(issues []BatchIssue, status string) int {
	n := 0
	for _, issue := range issues {
		if issue.Status == status {
			n++
		}
	}
	return n
}
