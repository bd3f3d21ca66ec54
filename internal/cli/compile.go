package cli

import (
	"fmt"
	"os"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/structcc/structcc/internal/compiler"
	"github.com/structcc/structcc/internal/ir"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Output string // schema IR output file path
}

// CompileSummary is the success payload of the compile command.
type CompileSummary struct {
	Fingerprint string `json:"fingerprint"`
	Enums       int    `json:"enums"`
	BitFields   int    `json:"bit_fields"`
	Structures  int    `json:"structures"`
	Groups      int    `json:"groups"`
	Output      string `json:"output,omitempty"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <definitions-file>",
		Short: "Compile a definition file to a resolved schema",
		Long: `Compile a TOML, YAML, or JSON definition file into a resolved schema.

Every definition is validated (sizes, bit ranges, references, group tags)
and all errors are reported in one pass. With --output the resolved schema
is written as JSON.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write the resolved schema JSON to this file")

	return cmd
}

func runCompile(opts *CompileOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	schema, err := compileDefinitions(formatter, path)
	if err != nil {
		return err
	}

	fingerprint, err := schema.Fingerprint()
	if err != nil {
		_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
		return NewExitError(ExitFailure, err.Error())
	}

	if opts.Output != "" {
		if err := writeSchemaFile(schema, opts.Output); err != nil {
			_ = formatter.Error(ErrCodeWrite, err.Error(), nil)
			return NewExitError(ExitCommandError, err.Error())
		}
	}

	summary := CompileSummary{
		Fingerprint: fingerprint,
		Enums:       len(schema.Enums),
		BitFields:   len(schema.BitFields),
		Structures:  len(schema.Structures),
		Groups:      len(schema.Groups),
		Output:      opts.Output,
	}
	return outputCompileSuccess(formatter, schema, summary)
}

// compileDefinitions loads and builds a definition file, emitting errors
// through the formatter. Shared by every command that needs a schema.
func compileDefinitions(formatter *OutputFormatter, path string) (*ir.Schema, error) {
	raw, err := LoadDefinitions(path)
	if err != nil {
		_ = formatter.Error(ErrCodeLoad, err.Error(), nil)
		return nil, NewExitError(ExitCommandError, err.Error())
	}
	formatter.VerboseLog("Loaded %d top-level definition(s) from %s", len(raw), path)

	schema, errs := compiler.Build(raw)
	if len(errs) > 0 {
		_ = formatter.Errors(ErrCodeBuild, errs)
		return nil, NewExitError(ExitFailure, fmt.Sprintf("schema build failed with %d error(s)", len(errs)))
	}
	return schema, nil
}

func outputCompileSuccess(formatter *OutputFormatter, schema *ir.Schema, summary CompileSummary) error {
	if formatter.Format == "json" {
		return formatter.Success(summary)
	}

	fmt.Fprintf(formatter.Writer, "✓ Compiled %d definition(s)\n\n", len(schema.Order))
	for _, name := range schema.Order {
		kind, _ := schema.KindOf(name)
		size, _ := schema.SizeOf(name)
		fmt.Fprintf(formatter.Writer, "  %-10s %s (%d byte(s))\n", kind, name, size)
	}
	fmt.Fprintf(formatter.Writer, "\nFingerprint: %s\n", summary.Fingerprint)
	if summary.Output != "" {
		fmt.Fprintf(formatter.Writer, "Wrote schema to %s\n", summary.Output)
	}
	return nil
}

// writeSchemaFile writes the resolved schema as indented JSON.
func writeSchemaFile(schema *ir.Schema, filename string) error {
	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling schema: %w", err)
	}
	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("writing schema: %w", err)
	}
	return nil
}
