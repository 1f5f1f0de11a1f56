package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/roach88/benchy/internal/aggregator"
	"github.com/roach88/benchy/internal/ir"
	"github.com/roach88/benchy/internal/store"
)

// RecordOptions holds flags for the record command.
type RecordOptions struct {
	*RootOptions
	RunVar  string
	TimeVar string

	// RunGenerator allows overriding the run identifier generator (for testing).
	// If nil, defaults to a UUIDv7 string.
	RunGenerator func() string

	// Clock allows overriding the time bound by --time-var (for testing).
	// If nil, defaults to ir.Now.
	Clock func() time.Time
}

// NewRecordCommand creates the record command.
func NewRecordCommand(rootOpts *RootOptions) *cobra.Command {
	return newRecordCommand(&RecordOptions{RootOptions: rootOpts})
}

func newRecordCommand(opts *RecordOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "record <table> <records.yaml>",
		Short: "Record measurements into a table",
		Long: `Record measurements from a YAML file into a table.

The file is a list of mappings from variable to value. Every record must bind
exactly the table's variables; values are converted to the declared types.
Nothing is recorded unless every record in the file is valid.

  - host: h1
    size: 1
    latency: 10.5

--run-var binds a fresh UUIDv7 to the named variable on every record of this
invocation, and --time-var binds the current time, so the file leaves them out.

Example:
  benchy record runs results.yaml
  benchy record runs results.yaml --run-var run --time-var at`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return recordFile(opts, args[0], args[1], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.RunVar, "run-var", "", "variable bound to a fresh run identifier")
	cmd.Flags().StringVar(&opts.TimeVar, "time-var", "", "variable bound to the current time")

	return cmd
}

type recordResult struct {
	Table    string `json:"table"`
	Recorded int    `json:"recorded"`
	Run      string `json:"run,omitempty"`
}

func recordFile(opts *RecordOptions, tableName, path string, cmd *cobra.Command) error {
	formatter := newFormatter(cmd, opts.RootOptions)

	data, err := os.ReadFile(path)
	if err != nil {
		return formatter.Fail(fmt.Errorf("read records file: %w", err))
	}

	return withStore(cmd, opts.RootOptions, func(ctx context.Context, st *store.Store) error {
		table, err := st.Get(ctx, tableName)
		if err != nil {
			return formatter.Fail(err)
		}

		result := recordResult{Table: table.Name()}
		var target aggregator.Aggregator = table
		if opts.RunVar != "" {
			generate := opts.RunGenerator
			if generate == nil {
				generate = func() string { return uuid.Must(uuid.NewV7()).String() }
			}
			result.Run = generate()
			if target, err = bind(target, opts.RunVar, result.Run); err != nil {
				return formatter.Fail(err)
			}
		}
		if opts.TimeVar != "" {
			clock := opts.Clock
			if clock == nil {
				clock = ir.Now
			}
			if target, err = bind(target, opts.TimeVar, clock()); err != nil {
				return formatter.Fail(err)
			}
		}

		records, err := decodeRecords(target.Schema(), data)
		if err != nil {
			return formatter.Fail(fmt.Errorf("%s: %w", path, err))
		}
		for i, r := range records {
			if err := target.Record(ctx, r); err != nil {
				return formatter.Fail(fmt.Errorf("record %d: %w", i+1, err))
			}
		}
		result.Recorded = len(records)
		formatter.VerboseLog("Recorded %d record(s) from %s", len(records), path)

		if formatter.Format == "json" {
			return formatter.Success(result)
		}
		fmt.Fprintf(formatter.Writer, "Recorded %d record(s) into %s", result.Recorded, result.Table)
		if result.Run != "" {
			fmt.Fprintf(formatter.Writer, " (run %s)", result.Run)
		}
		fmt.Fprintln(formatter.Writer)
		return nil
	})
}

// bind fixes variable to value on agg, converting value to the variable's
// declared type first.
func bind(agg aggregator.Aggregator, variable string, value any) (aggregator.Aggregator, error) {
	name, err := ir.NormalizeVariable(variable)
	if err != nil {
		return nil, err
	}
	typ, ok := agg.Schema().TypeOf(name)
	if !ok {
		return nil, ir.NewUnknownVariableError(name, agg.Schema().Variables())
	}
	v, err := typ.Coerce(value)
	if err != nil {
		return nil, fmt.Errorf("bind %s: %w", name, err)
	}
	bound, err := agg.With(name, v)
	if err != nil {
		return nil, err
	}
	return bound, nil
}

// decodeRecords parses a YAML list of mappings into records of schema,
// converting every value to its declared type. All records are checked
// before any is returned.
func decodeRecords(schema *ir.Schema, data []byte) ([]*ir.Record, error) {
	var rows []map[string]any
	if err := yaml.Unmarshal(data, &rows); err != nil {
		return nil, ir.NewInvalidArgumentError("records must be a YAML list of mappings: %v", err)
	}

	records := make([]*ir.Record, 0, len(rows))
	for i, row := range rows {
		r := ir.NewRecord()
		var extra []string
		for k, v := range row {
			name, err := ir.NormalizeVariable(k)
			if err != nil {
				return nil, fmt.Errorf("record %d: %w", i+1, err)
			}
			typ, ok := schema.TypeOf(name)
			if !ok {
				extra = append(extra, name)
				continue
			}
			coerced, err := typ.Coerce(v)
			if err != nil {
				return nil, fmt.Errorf("record %d: %s: %w", i+1, name, err)
			}
			r.Set(name, coerced)
		}
		var missing []string
		for _, v := range schema.Variables() {
			if !r.Has(v) {
				missing = append(missing, v)
			}
		}
		if len(missing) > 0 || len(extra) > 0 {
			return nil, fmt.Errorf("record %d: %w", i+1, ir.NewSchemaMismatchError(missing, extra))
		}
		records = append(records, r)
	}
	return records, nil
}
