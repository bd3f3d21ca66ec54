package cli

import (
	"encoding/hex"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/structcc/structcc/internal/codec"
	"github.com/structcc/structcc/internal/ir"
)

// DecodeOptions holds flags for the decode command.
type DecodeOptions struct {
	*RootOptions
	Strict bool // treat an unrecognized group payload as a failure
}

// DecodeResult is the success payload of the decode command.
type DecodeResult struct {
	Root         string   `json:"root"`
	Value        ir.Value `json:"value"`
	Unrecognized bool     `json:"unrecognized,omitempty"`
}

// NewDecodeCommand creates the decode command.
func NewDecodeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DecodeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "decode <definitions-file> <root> [hex]",
		Short: "Decode bytes into a JSON value",
		Long: `Decode a hex byte string against a definition in the compiled schema.

The bytes are given as a hex argument, or read from stdin when the argument
is omitted or "-". A group root degrades to an "unrecognized" value on an
unknown tag instead of failing, unless --strict is set.`,
		Args:          cobra.RangeArgs(2, 3),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDecode(opts, args, cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Strict, "strict", false, "fail on unrecognized group payloads")

	return cmd
}

func runDecode(opts *DecodeOptions, args []string, cmd *cobra.Command) error {
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

	data, err := readHexInput(cmd.InOrStdin(), args)
	if err != nil {
		_ = formatter.Error(ErrCodeInput, err.Error(), nil)
		return NewExitError(ExitCommandError, err.Error())
	}

	c := codec.NewWithOrder(schema, codec.ByteOrder(opts.Endian))
	value, err := c.Decode(root, data)
	if err != nil {
		_ = formatter.Error(ErrCodeCodec, err.Error(), nil)
		return NewExitError(ExitFailure, err.Error())
	}
	formatter.VerboseLog("Decoded %d byte(s) as %q", len(data), root)

	unrecognized := ir.IsUnrecognized(value)
	if unrecognized && opts.Strict {
		u := value.(*ir.Unrecognized)
		_ = formatter.Error(ErrCodeCodec, u.Reason, nil)
		return NewExitError(ExitFailure, u.Reason)
	}

	if formatter.Format == "json" {
		return formatter.Success(DecodeResult{Root: root, Value: value, Unrecognized: unrecognized})
	}

	out, err := ir.MarshalValue(value)
	if err != nil {
		_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
		return NewExitError(ExitFailure, err.Error())
	}
	fmt.Fprintln(formatter.Writer, string(out))
	return nil
}

// readHexInput parses the hex argument, or reads hex text from stdin when the
// argument is missing or "-". Whitespace is ignored so piped xxd-style dumps
// survive.
func readHexInput(stdin io.Reader, args []string) ([]byte, error) {
	var raw []byte
	if len(args) > 2 && args[2] != "-" {
		raw = []byte(args[2])
	} else {
		var err error
		raw, err = io.ReadAll(stdin)
		if err != nil {
			return nil, err
		}
	}
	s := strings.Map(func(r rune) rune {
		if r == ' ' || r == '\n' || r == '\t' || r == '\r' {
			return -1
		}
		return r
	}, string(raw))
	data, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("parsing hex input: %w", err)
	}
	return data, nil
}
