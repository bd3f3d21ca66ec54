package cli

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/structcc/structcc/internal/codec"
	"github.com/structcc/structcc/internal/ir"
)

// EncodeOptions holds flags for the encode command.
type EncodeOptions struct {
	*RootOptions
	Output string // raw binary output file; hex to stdout when empty
}

// EncodeResult is the success payload of the encode command.
type EncodeResult struct {
	Root  string `json:"root"`
	Hex   string `json:"hex"`
	Bytes int    `json:"bytes"`
}

// NewEncodeCommand creates the encode command.
func NewEncodeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &EncodeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "encode <definitions-file> <root> [value-file]",
		Short: "Encode a JSON value into bytes",
		Long: `Encode a JSON value against a definition in the compiled schema.

The value is read from value-file, or from stdin when the argument is
omitted or "-". Encoding is strict: every member must be present and every
value must fit its declared width.`,
		Args:          cobra.RangeArgs(2, 3),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEncode(opts, args, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write raw bytes to this file instead of hex to stdout")

	return cmd
}

func runEncode(opts *EncodeOptions, args []string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	schema, err := compileDefinitions(formatter, args[0])
	if err != nil {
		return err
	}
	root := args[1]

	valueJSON, err := readInput(cmd.InOrStdin(), args, 2)
	if err != nil {
		_ = formatter.Error(ErrCodeInput, err.Error(), nil)
		return NewExitError(ExitCommandError, err.Error())
	}
	value, err := ir.UnmarshalValue(valueJSON)
	if err != nil {
		_ = formatter.Error(ErrCodeInput, fmt.Sprintf("parsing value: %v", err), nil)
		return NewExitError(ExitCommandError, err.Error())
	}

	c := codec.NewWithOrder(schema, codec.ByteOrder(opts.Endian))
	data, err := c.Encode(root, value)
	if err != nil {
		_ = formatter.Error(ErrCodeCodec, err.Error(), nil)
		return NewExitError(ExitFailure, err.Error())
	}
	formatter.VerboseLog("Encoded %q to %d byte(s)", root, len(data))

	if opts.Output != "" {
		if err := os.WriteFile(opts.Output, data, 0644); err != nil {
			_ = formatter.Error(ErrCodeWrite, err.Error(), nil)
			return NewExitError(ExitCommandError, err.Error())
		}
	}

	result := EncodeResult{Root: root, Hex: hex.EncodeToString(data), Bytes: len(data)}
	if formatter.Format == "json" {
		return formatter.Success(result)
	}
	fmt.Fprintln(formatter.Writer, result.Hex)
	return nil
}

// readInput returns the contents of args[idx] as a file, or stdin when the
// argument is missing or "-".
func readInput(stdin io.Reader, args []string, idx int) ([]byte, error) {
	if len(args) <= idx || args[idx] == "-" {
		return io.ReadAll(stdin)
	}
	return os.ReadFile(args[idx])
}
