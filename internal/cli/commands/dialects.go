package commands

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/leapstack-labs/leaplineage/internal/cli/output"
	"github.com/leapstack-labs/leaplineage/pkg/dialect"
	"github.com/spf13/cobra"
)

// dialectInfo is the JSON form of a registered dialect.
type dialectInfo struct {
	Name          string `json:"name"`
	Normalization string `json:"normalization"`
	Quote         string `json:"quote"`
	DefaultSchema string `json:"default_schema,omitempty"`
	Default       bool   `json:"default"`
}

// NewDialectsCommand creates the dialects command.
func NewDialectsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "dialects",
		Short: "List supported SQL dialects",
		Long: `List the SQL dialects queries can be written in, with how each one
normalizes unquoted identifiers when matching them against the schema.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDialects(cmd)
		},
	}
}

func runDialects(cmd *cobra.Command) error {
	cc := NewCommandContextWithoutEngine(cmd)
	r := cc.Renderer

	infos := make([]dialectInfo, 0)
	for _, name := range dialect.List() {
		d, ok := dialect.Get(name)
		if !ok {
			continue
		}
		infos = append(infos, dialectInfo{
			Name:          d.Name,
			Normalization: d.Identifiers.Normalization.String(),
			Quote:         d.Identifiers.Quote,
			DefaultSchema: d.DefaultSchema,
			Default:       d.Name == cc.Cfg.Dialect,
		})
	}

	if r.EffectiveMode().IsMachine() {
		return r.JSON(infos)
	}

	t := table.NewWriter()
	t.SetOutputMirror(r.Writer())
	t.AppendHeader(table.Row{"Dialect", "Identifiers", "Quote", "Default Schema"})
	for _, info := range infos {
		name := info.Name
		if info.Default {
			name += " (configured)"
		}
		t.AppendRow(table.Row{name, info.Normalization, info.Quote, info.DefaultSchema})
	}

	if r.EffectiveMode() == output.ModeMarkdown {
		t.RenderMarkdown()
		return nil
	}
	t.SetStyle(table.StyleLight)
	t.Render()
	return nil
}
