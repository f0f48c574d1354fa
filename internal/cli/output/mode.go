// Package output renders command results for terminals, markdown
// consumers and machines.
package output

// Mode selects how results are rendered.
type Mode string

// OutputMode is an alias kept for call sites that read better with it.
type OutputMode = Mode //nolint:revive // stutter is intentional at call sites

// Output modes.
const (
	ModeAuto        Mode = "auto"        // TTY=text, non-TTY=markdown
	ModeText        Mode = "text"        // styled terminal output
	ModeMarkdown    Mode = "markdown"    // agent-friendly markdown
	ModeJSON        Mode = "json"        // lineage result as JSON
	ModeOpenLineage Mode = "openlineage" // OpenLineage RunEvent JSON
)

// IsMachine reports whether the mode emits JSON.
func (m Mode) IsMachine() bool {
	return m == ModeJSON || m == ModeOpenLineage
}
