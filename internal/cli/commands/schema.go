package commands

import (
	"github.com/leapstack-labs/leaplineage/internal/schema"
	"github.com/spf13/cobra"
)

// NewSchemaCommand creates the schema command.
func NewSchemaCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the schema lineage is resolved against",
		Long: `Load the configured schema and print it as YAML.

When schema_driver is set the database catalog is introspected, so the
output can be saved as a schema file and used offline:

  leaplineage schema --schema-driver postgres --schema-dsn "$DATABASE_URL" > schema.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSchema(cmd)
		},
	}
}

func runSchema(cmd *cobra.Command) error {
	cc := NewCommandContextWithoutEngine(cmd)

	s, err := schema.Load(cmd.Context(), cc.Cfg.SchemaSource(), cc.Logger)
	if err != nil {
		return err
	}

	if cc.Renderer.EffectiveMode().IsMachine() {
		return cc.Renderer.JSON(s)
	}
	return schema.Encode(cc.Renderer.Writer(), s)
}
