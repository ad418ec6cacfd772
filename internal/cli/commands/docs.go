package commands

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ChangJoo-Park/json-api/internal/adapter"
	"github.com/ChangJoo-Park/json-api/internal/cli/ui"
	"github.com/ChangJoo-Park/json-api/internal/config"
	"github.com/ChangJoo-Park/json-api/internal/docstore/memory"
)

var (
	docsJSON       bool
	docsNoColor    bool
	docsSchemaFile string
)

// NewDocsCommand creates the docs command
func NewDocsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "docs [type]",
		Short: "Document the resource types of the schema file",
		Long: `Print the fields, subtypes and relationships of a resource type. Without
a type, list every resource type.

Examples:
  jsonapi docs
  jsonapi docs organizations
  jsonapi docs organizations --json`,
		Args: cobra.MaximumNArgs(1),
		RunE: runDocs,
	}

	cmd.Flags().BoolVar(&docsJSON, "json", false, "Output as JSON")
	cmd.Flags().BoolVar(&docsNoColor, "no-color", false, "Disable colored output")
	cmd.Flags().StringVar(&docsSchemaFile, "schema", "", "Schema file (overrides config)")

	return cmd
}

func runDocs(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if docsSchemaFile != "" {
		cfg.Store.SchemaFile = docsSchemaFile
	}

	// Introspection never reads documents, so any backend will do.
	a, err := newAdapter(memory.New(), cfg.Store, zap.NewNop())
	if err != nil {
		return err
	}

	if len(args) == 0 {
		return listTypes(cmd, a)
	}
	return describeType(cmd, a, args[0])
}

func listTypes(cmd *cobra.Command, a *adapter.Adapter) error {
	types := a.Registry().Types()
	if docsJSON {
		return printJSON(cmd, types)
	}

	section := ui.NewSection(cmd.OutOrStdout(), "Resource types", docsNoColor)
	for _, typ := range types {
		section.AddLine(typ)
	}
	section.Render()
	return nil
}

func describeType(cmd *cobra.Command, a *adapter.Adapter, typ string) error {
	fields, err := a.GetStandardizedSchema(typ)
	if err != nil {
		return unknownTypeError(a, typ, err)
	}
	allowed, err := a.GetTypesAllowedInCollection(typ)
	if err != nil {
		return err
	}
	rels, err := a.GetRelationshipNames(typ)
	if err != nil {
		return err
	}

	docs := ui.TypeDocs{
		Type:          typ,
		Fields:        fields,
		AllowedTypes:  allowed,
		Relationships: rels,
	}
	if docsJSON {
		return printJSON(cmd, docs)
	}
	ui.RenderTypeDocs(cmd.OutOrStdout(), docs, docsNoColor)
	return nil
}

// unknownTypeError adds close type names to a lookup failure.
func unknownTypeError(a *adapter.Adapter, typ string, err error) error {
	suggestions := ui.Suggest(typ, a.Registry().Types())
	if len(suggestions) == 0 {
		return err
	}
	hint := color.YellowString("did you mean: %s?", strings.Join(suggestions, ", "))
	if docsNoColor {
		hint = fmt.Sprintf("did you mean: %s?", strings.Join(suggestions, ", "))
	}
	return fmt.Errorf("%w (%s)", err, hint)
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}
