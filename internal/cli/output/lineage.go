package output

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/leapstack-labs/leaplineage/pkg/core"
	"github.com/leapstack-labs/leaplineage/pkg/lineage"
	"github.com/leapstack-labs/leaplineage/pkg/openlineage"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// ErrNoEvent is returned when openlineage output is requested without an event.
var ErrNoEvent = errors.New("no OpenLineage event to render")

// LineageOutput is everything shown for one analyzed query.
type LineageOutput struct {
	Job     string
	Dataset string
	Source  string
	Dialect string
	Result  *lineage.Result
	Event   *openlineage.RunEvent
}

var titleCaser = cases.Title(language.English)

// TransformationLabel returns a human label such as "Direct Aggregation (masked)".
func TransformationLabel(t core.Transformation) string {
	label := titleCaser.String(strings.ToLower(string(t.Type)))
	if t.Subtype != core.SubtypeNone {
		sub := strings.ReplaceAll(strings.ToLower(string(t.Subtype)), "_", " ")
		label += " " + titleCaser.String(sub)
	}
	if t.Masking {
		label += " (masked)"
	}
	return label
}

// QualifiedInput returns namespace/table.field, omitting an empty namespace.
func QualifiedInput(in core.InputField) string {
	name := in.Name + "." + in.Field
	if in.Namespace != "" {
		return in.Namespace + "/" + name
	}
	return name
}

// Lineage renders a lineage result in the effective mode.
func (r *Renderer) Lineage(out LineageOutput) error {
	switch r.EffectiveMode() {
	case ModeJSON:
		return r.JSON(out.Result)
	case ModeOpenLineage:
		if out.Event == nil {
			return ErrNoEvent
		}
		return r.JSON(out.Event)
	case ModeMarkdown:
		r.lineageMarkdown(out)
	default:
		r.lineageText(out)
	}
	return nil
}

func (r *Renderer) lineageRows(out LineageOutput, styled bool) []table.Row {
	var rows []table.Row
	out.Result.Each(func(name string, field core.FieldLineage) {
		column := name
		if styled {
			column = r.styles.Column.Render(name)
		}
		if len(field.InputFields) == 0 {
			none := "(no inputs)"
			if styled {
				none = r.styles.Muted.Render(none)
			}
			rows = append(rows, table.Row{column, none, ""})
			return
		}
		for _, in := range field.InputFields {
			source := QualifiedInput(in)
			labels := make([]string, 0, len(in.Transformations))
			for _, t := range in.Transformations {
				label := TransformationLabel(t)
				if styled && t.Masking {
					label = r.styles.Masked.Render(label)
				}
				labels = append(labels, label)
			}
			if styled {
				source = r.styles.TablePath.Render(source)
			}
			rows = append(rows, table.Row{column, source, strings.Join(labels, ", ")})
		}
	})
	return rows
}

func (r *Renderer) lineageTable(out LineageOutput, styled bool) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(r.out)
	t.AppendHeader(table.Row{"Output", "Source", "Transformation"})
	t.AppendRows(r.lineageRows(out, styled))
	return t
}

func (r *Renderer) lineageText(out LineageOutput) {
	title := "Lineage"
	if out.Job != "" {
		title += ": " + out.Job
	}
	r.Header(1, title)

	if out.Result.Len() == 0 {
		r.Muted("No output columns")
		return
	}

	t := r.lineageTable(out, true)
	t.SetStyle(table.StyleLight)
	t.SetColumnConfigs([]table.ColumnConfig{{Number: 1, AutoMerge: true}})
	t.Render()

	r.Println(r.styles.Muted.Render(lineageSummary(out)))
}

func (r *Renderer) lineageMarkdown(out LineageOutput) {
	title := "Lineage"
	if out.Job != "" {
		title += ": " + out.Job
	}
	r.Println(FormatHeader(1, title))
	r.Println("")
	if out.Source != "" {
		r.Println(FormatKeyValue("Source", out.Source))
	}
	if out.Dataset != "" {
		r.Println(FormatKeyValue("Dataset", out.Dataset))
	}
	if out.Dialect != "" {
		r.Println(FormatKeyValue("Dialect", out.Dialect))
	}
	r.Println(FormatKeyValue("Summary", lineageSummary(out)))
	r.Println("")

	if out.Result.Len() == 0 {
		return
	}
	r.lineageTable(out, false).RenderMarkdown()
}

func lineageSummary(out LineageOutput) string {
	tables := make(map[string]struct{})
	out.Result.Each(func(_ string, field core.FieldLineage) {
		for _, in := range field.InputFields {
			tables[in.Namespace+"/"+in.Name] = struct{}{}
		}
	})
	return fmt.Sprintf("%d columns, %d source tables", out.Result.Len(), len(tables))
}
