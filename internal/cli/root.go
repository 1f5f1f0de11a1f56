package cli

import (
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose  bool
	Format   string // "text" | "json" | "csv"
	Database string
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json", "csv"}

// DefaultDatabase is the SQLite file used when --db is not given.
const DefaultDatabase = "benchy.db"

// NewRootCommand creates the root command for the benchy CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "benchy",
		Short: "benchy - record and aggregate benchmark measurements",
		Long: `Record measurements into schema-checked tables and report on them.

Each table is declared by a CUE schema. Records are validated against the
schema before they are stored, and reports group, filter and aggregate them
with SUM, AVG, MIN, MAX or COUNT. Reports over one or two variables can be
pivoted into a table.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			configureLogging(cmd.ErrOrStderr(), opts.Verbose)
			return nil
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (text|json|csv)")
	cmd.PersistentFlags().StringVar(&opts.Database, "db", DefaultDatabase, "path to SQLite database")

	// Add subcommands
	cmd.AddCommand(NewCreateCommand(opts))
	cmd.AddCommand(NewDropCommand(opts))
	cmd.AddCommand(NewTablesCommand(opts))
	cmd.AddCommand(NewDescribeCommand(opts))
	cmd.AddCommand(NewRecordCommand(opts))
	cmd.AddCommand(NewReportCommand(opts))
	cmd.AddCommand(NewDomainCommand(opts))
	cmd.AddCommand(NewDeleteCommand(opts))
	cmd.AddCommand(NewPivotCommand(opts))

	return cmd
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}

// configureLogging sends structured logs to w: everything at Debug when
// verbose, warnings and errors otherwise.
func configureLogging(w io.Writer, verbose bool) {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
}
