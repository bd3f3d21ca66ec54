package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/structcc/structcc/internal/codec"
)

// RootOptions holds global flags shared by all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"
	Endian  string // "big" | "little"
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the structcc CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "structcc",
		Short: "structcc - schema-driven binary structure compiler",
		Long: `Compile declarative structure definitions into a resolved schema,
convert byte buffers to and from JSON values against it, and generate
source files for other languages.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			if !codec.ByteOrder(opts.Endian).Valid() {
				return fmt.Errorf("invalid endian %q: must be %q or %q", opts.Endian, codec.BigEndian, codec.LittleEndian)
			}
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.Endian, "endian", string(codec.BigEndian), "wire byte order (big|little)")

	cmd.AddCommand(NewCompileCommand(opts))
	cmd.AddCommand(NewEncodeCommand(opts))
	cmd.AddCommand(NewDecodeCommand(opts))
	cmd.AddCommand(NewGenerateCommand(opts))

	return cmd
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}
