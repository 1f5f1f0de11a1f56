package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/benchy/internal/ir"
	"github.com/roach88/benchy/internal/testutil"
)

func TestMain(m *testing.M) {
	color.NoColor = true
	m.Run()
}

const runsSchema = `
name: "runs"
schema: {
	host:    "LONG_STRING"
	size:    "INTEGER"
	latency: "DOUBLE"
}
`

const runsRecords = `
- host: h1
  size: 1
  latency: 10
- host: h1
  size: 1
  latency: 20
- host: h1
  size: 2
  latency: 30
- host: h2
  size: 1
  latency: 5
`

type testEnv struct {
	t   *testing.T
	dir string
	db  string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()
	return &testEnv{t: t, dir: dir, db: filepath.Join(dir, "test.db")}
}

func (e *testEnv) file(name, content string) string {
	e.t.Helper()
	path := filepath.Join(e.dir, name)
	require.NoError(e.t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// run executes the root command against the environment's database and
// returns what it printed on stdout.
func (e *testEnv) run(args ...string) (string, error) {
	e.t.Helper()
	out := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(append([]string{"--db", e.db}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func (e *testEnv) mustRun(args ...string) string {
	e.t.Helper()
	out, err := e.run(args...)
	require.NoError(e.t, err, out)
	return out
}

// seed creates the runs table and records four measurements into it.
func (e *testEnv) seed() {
	e.t.Helper()
	e.mustRun("create", e.file("runs.cue", runsSchema))
	e.mustRun("record", "runs", e.file("runs.yaml", runsRecords))
}

func decodeData(t *testing.T, out string, data any) {
	t.Helper()
	var resp struct {
		Status string          `json:"status"`
		Data   json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp), out)
	require.Equal(t, "ok", resp.Status, out)
	require.NoError(t, json.Unmarshal(resp.Data, data))
}

func TestCreate(t *testing.T) {
	env := newTestEnv(t)
	out := env.mustRun("create", env.file("runs.cue", runsSchema))
	assert.Equal(t, "Created RUNS\n  HOST     LONG_STRING\n  SIZE     INTEGER\n  LATENCY  DOUBLE\n", out)

	assert.Equal(t, "RUNS\n", env.mustRun("tables"))
}

func TestCreate_Existing(t *testing.T) {
	env := newTestEnv(t)
	env.seed()
	path := filepath.Join(env.dir, "runs.cue")

	out, err := env.run("create", path)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [INVALID_ARGUMENT]")

	env.mustRun("create", "--reuse", path)
	assert.Equal(t, "[]\n{value=4}\n", env.mustRun("report", "runs"), "reuse keeps the records")

	env.mustRun("create", "--force", path)
	assert.Equal(t, "[]\n{value=0}\n", env.mustRun("report", "runs"), "force starts empty")
}

func TestCreate_ReuseWithDifferentSchema(t *testing.T) {
	env := newTestEnv(t)
	env.seed()
	other := env.file("other.cue", `
name: "runs"
schema: {
	host: "LONG_STRING"
	run:  "MED_STRING"
}
`)

	out, err := env.run("create", "--reuse", other, "--format", "json")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, "SCHEMA_MISMATCH", resp.Error.Code)
	assert.Equal(t, map[string]any{"missing": "RUN", "extra": "LATENCY,SIZE"}, resp.Error.Details)
}

func TestCreate_Name(t *testing.T) {
	env := newTestEnv(t)
	anonymous := env.file("anon.cue", `schema: { latency: "DOUBLE" }`)

	out, err := env.run("create", anonymous)
	require.Error(t, err)
	assert.Contains(t, out, "declares no name")

	out = env.mustRun("create", "--name", "nightly", anonymous)
	assert.Contains(t, out, "Created NIGHTLY")
}

func TestCreate_BadSchemaFile(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.run("create", filepath.Join(env.dir, "missing.cue"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	_, err = env.run("create", env.file("bad.cue", `name: "bad"
schema: { x: "NOT_A_TYPE" }`))
	require.Error(t, err)
	assert.NotEqual(t, ExitSuccess, GetExitCode(err))
}

func TestDescribe_JSON(t *testing.T) {
	env := newTestEnv(t)
	env.seed()

	var info tableInfo
	decodeData(t, env.mustRun("describe", "runs", "--format", "json"), &info)
	assert.Equal(t, tableInfo{
		Table: "RUNS",
		Columns: []columnInfo{
			{Variable: "HOST", Type: "LONG_STRING"},
			{Variable: "SIZE", Type: "INTEGER"},
			{Variable: "LATENCY", Type: "DOUBLE"},
		},
	}, info)
}

func TestDescribe_NotFound(t *testing.T) {
	env := newTestEnv(t)

	out, err := env.run("describe", "nope")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [TABLE_NOT_FOUND]")
}

func TestDrop(t *testing.T) {
	env := newTestEnv(t)
	env.seed()

	assert.Equal(t, "Dropped runs\n", env.mustRun("drop", "runs"))
	assert.Equal(t, "No table runs\n", env.mustRun("drop", "runs"))
	assert.Equal(t, "", env.mustRun("tables"))

	var names []string
	decodeData(t, env.mustRun("tables", "--format", "json"), &names)
	assert.Empty(t, names)
}

func TestRecord_RejectsWholeFile(t *testing.T) {
	tests := []struct {
		name    string
		records string
		code    string
		exit    int
	}{
		{
			name:    "bad value",
			records: "- {host: h1, size: 1, latency: 1}\n- {host: h1, size: big, latency: 1}\n",
			code:    "TYPE_COERCION",
			exit:    ExitFailure,
		},
		{
			name:    "missing variable",
			records: "- {host: h1, size: 1, latency: 1}\n- {host: h1, size: 1}\n",
			code:    "SCHEMA_MISMATCH",
			exit:    ExitFailure,
		},
		{
			name:    "extra variable",
			records: "- {host: h1, size: 1, latency: 1, run: x}\n",
			code:    "SCHEMA_MISMATCH",
			exit:    ExitFailure,
		},
		{
			name:    "not a list",
			records: "host: h1\n",
			code:    "INVALID_ARGUMENT",
			exit:    ExitCommandError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			env.mustRun("create", env.file("runs.cue", runsSchema))

			out, err := env.run("record", "runs", env.file("bad.yaml", tt.records))
			require.Error(t, err)
			assert.Equal(t, tt.exit, GetExitCode(err))
			assert.Contains(t, out, "Error ["+tt.code+"]")

			assert.Equal(t, "[]\n{value=0}\n", env.mustRun("report", "runs"), "nothing recorded")
		})
	}
}

func TestRecord_RunAndTimeVariables(t *testing.T) {
	env := newTestEnv(t)
	env.mustRun("create", env.file("runs.cue", `
name: "runs"
schema: {
	run:     "MED_STRING"
	at:      "TIMESTAMP"
	latency: "DOUBLE"
}
`))
	records := env.file("runs.yaml", "- latency: 1.5\n- latency: 2.5\n")

	runs := testutil.NewSequenceRunGenerator("")
	clock := testutil.NewStepClock(time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC), time.Hour)
	record := func() string {
		out := &bytes.Buffer{}
		cmd := newRecordCommand(&RecordOptions{
			RootOptions:  &RootOptions{Format: "text", Database: env.db},
			RunGenerator: runs.Generate,
			Clock:        clock.Now,
		})
		cmd.SetOut(out)
		cmd.SetArgs([]string{"runs", records, "--run-var", "run", "--time-var", "at"})
		require.NoError(t, cmd.Execute())
		return out.String()
	}
	assert.Equal(t, "Recorded 2 record(s) into RUNS (run run-1)\n", record())
	assert.Equal(t, "Recorded 2 record(s) into RUNS (run run-2)\n", record())

	assert.Equal(t, "[RUN]\n{RUN=run-1, value=2}\n{RUN=run-2, value=2}\n",
		env.mustRun("report", "runs", "--per", "run", "--order", "run"))
	assert.Equal(t, "2026-10-18 09:00:00.000000000\n2026-10-18 10:00:00.000000000\n",
		env.mustRun("domain", "runs", "at"))
	assert.Equal(t, "[RUN]\n{RUN=run-2, value=2}\n",
		env.mustRun("report", "runs", "--agg", "avg(latency)", "--bind", "run=run-2"))
}

func TestRecord_DefaultRunIsUUIDv7(t *testing.T) {
	env := newTestEnv(t)
	env.mustRun("create", env.file("runs.cue", `
name: "runs"
schema: {
	run:     "MED_STRING"
	latency: "DOUBLE"
}
`))

	var result recordResult
	decodeData(t, env.mustRun("record", "runs", env.file("runs.yaml", "- latency: 1\n"),
		"--run-var", "run", "--format", "json"), &result)
	assert.Equal(t, "RUNS", result.Table)
	assert.Equal(t, 1, result.Recorded)

	id, err := uuid.Parse(result.Run)
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(7), id.Version())
}

func TestRecord_RunVariableMustBeDeclared(t *testing.T) {
	env := newTestEnv(t)
	env.seed()

	out, err := env.run("record", "runs", filepath.Join(env.dir, "runs.yaml"), "--run-var", "run")
	require.Error(t, err)
	assert.Contains(t, out, "Error [UNKNOWN_VARIABLE]")
}

func TestReport(t *testing.T) {
	env := newTestEnv(t)
	env.seed()

	tests := []struct {
		name string
		args []string
		want string
	}{
		{
			name: "average per host",
			args: []string{"--agg", "avg(latency)", "--per", "host", "--order", "host"},
			want: "[HOST]\n{HOST=h1, value=20}\n{HOST=h2, value=5}\n",
		},
		{
			name: "count ordered by count",
			args: []string{"--per", "host", "--order", "aggregated_column desc"},
			want: "[HOST]\n{HOST=h1, value=3}\n{HOST=h2, value=1}\n",
		},
		{
			name: "filtered grand total",
			args: []string{"--agg", "sum(size)", "--where", "host=h1"},
			want: "[]\n{value=4}\n",
		},
		{
			name: "conjoined filters",
			args: []string{"--agg", "max(latency)", "--where", "host=h1", "--where", "size<2"},
			want: "[]\n{value=20}\n",
		},
		{
			name: "two variables",
			args: []string{"--per", "host,size", "--order", "host", "--order", "size"},
			want: "[HOST, SIZE]\n{HOST=h1, SIZE=1, value=2}\n{HOST=h1, SIZE=2, value=1}\n{HOST=h2, SIZE=1, value=1}\n",
		},
		{
			name: "having",
			args: []string{"--agg", "min(latency)", "--per", "host", "--order", "host", "--having", `HOST == "h2"`},
			want: "[HOST]\n{HOST=h2, value=5}\n",
		},
		{
			name: "bound",
			args: []string{"--agg", "avg(latency)", "--bind", "host=h1"},
			want: "[HOST]\n{HOST=h1, value=20}\n",
		},
		{
			name: "empty selection",
			args: []string{"--agg", "max(latency)", "--where", "host=nobody"},
			want: "[]\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := env.mustRun(append([]string{"report", "runs"}, tt.args...)...)
			assert.Equal(t, tt.want, out)
		})
	}
}

func TestReport_Formats(t *testing.T) {
	env := newTestEnv(t)
	env.seed()

	out := env.mustRun("report", "runs", "--agg", "sum(size)", "--per", "host", "--order", "host", "--format", "csv")
	assert.Equal(t, "HOST,SIZE\nh1,4\nh2,1\n", out)

	var result reportResult
	decodeData(t, env.mustRun("report", "runs", "--per", "host", "--order", "host", "--format", "json"), &result)
	assert.Equal(t, "COUNT(*)", result.Aggregate)
	assert.Equal(t, []string{"HOST"}, result.Variables)
	assert.Equal(t, []map[string]any{
		{"HOST": "h1", "value": 3.0},
		{"HOST": "h2", "value": 1.0},
	}, result.Records)
}

func TestReport_Errors(t *testing.T) {
	env := newTestEnv(t)
	env.seed()

	tests := []struct {
		name string
		args []string
		code string
	}{
		{name: "bad aggregate", args: []string{"--agg", "median(latency)"}, code: "INVALID_ARGUMENT"},
		{name: "sum over text", args: []string{"--agg", "sum(host)"}, code: "INVALID_ARGUMENT"},
		{name: "unknown group", args: []string{"--per", "nope"}, code: "UNKNOWN_VARIABLE"},
		{name: "bad filter value", args: []string{"--where", "size=big"}, code: "TYPE_COERCION"},
		{name: "bad order", args: []string{"--order", "host sideways"}, code: "INVALID_ARGUMENT"},
		{name: "bad binding", args: []string{"--bind", "host"}, code: "INVALID_ARGUMENT"},
		{name: "bad having", args: []string{"--having", "HOST =="}, code: "INVALID_ARGUMENT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := env.run(append([]string{"report", "runs"}, tt.args...)...)
			require.Error(t, err)
			assert.Contains(t, out, "Error ["+tt.code+"]")
		})
	}
}

func TestDomain(t *testing.T) {
	env := newTestEnv(t)
	env.seed()

	assert.Equal(t, "h1\nh2\n", env.mustRun("domain", "runs", "host"))
	assert.Equal(t, "2\n1\n", env.mustRun("domain", "runs", "size", "--order", "size desc"))
	assert.Equal(t, "h1\n", env.mustRun("domain", "runs", "host", "--where", "size=2"))
	assert.Equal(t, "SIZE\n1\n2\n", env.mustRun("domain", "runs", "size", "--format", "csv"))

	var values []any
	decodeData(t, env.mustRun("domain", "runs", "latency", "--where", "latency>10", "--format", "json"), &values)
	assert.Equal(t, []any{20.0, 30.0}, values)
}

func TestDelete(t *testing.T) {
	env := newTestEnv(t)
	env.seed()

	out, err := env.run("delete", "runs")
	require.Error(t, err)
	assert.Contains(t, out, "without --all")
	assert.Equal(t, "[]\n{value=4}\n", env.mustRun("report", "runs"))

	assert.Equal(t, "Deleted records from RUNS\n", env.mustRun("delete", "runs", "--where", "host=h2"))
	assert.Equal(t, "h1\n", env.mustRun("domain", "runs", "host"))

	env.mustRun("delete", "runs", "--all")
	assert.Equal(t, "[]\n{value=0}\n", env.mustRun("report", "runs"))
}

func TestPivot_Text(t *testing.T) {
	env := newTestEnv(t)
	env.seed()

	out := env.mustRun("pivot", "runs", "--per", "host", "--per", "size")
	assert.Equal(t,
		"RUNS (COUNT(*))\n"+
			"HOST/SIZE  1  2\n"+
			"---------  -  -\n"+
			"h1         2  1\n"+
			"h2         1  -\n",
		out)
}

func TestPivot_LabelsAndOrder(t *testing.T) {
	env := newTestEnv(t)
	env.seed()

	out := env.mustRun("pivot", "runs", "--agg", "avg(latency)", "--per", "host",
		"--title", "Latency", "--range-label", "ms", "--label", "host=Host", "--desc", "host")
	assert.Equal(t,
		"Latency (ms)\n"+
			"Host  ms\n"+
			"----  --\n"+
			"h2    5\n"+
			"h1    20\n",
		out)
}

func TestPivot_CSV(t *testing.T) {
	env := newTestEnv(t)
	env.seed()

	out := env.mustRun("pivot", "runs", "--per", "host,size", "--format", "csv")
	assert.Equal(t, "HOST/SIZE,1,2\nh1,2,1\nh2,1,\n", out)
}

func TestPivot_JSON(t *testing.T) {
	env := newTestEnv(t)
	env.seed()

	var result pivotResult
	decodeData(t, env.mustRun("pivot", "runs", "--per", "host", "--per", "size", "--format", "json"), &result)
	assert.Equal(t, "RUNS", result.Title)
	assert.Equal(t, "COUNT(*)", result.RangeLabel)
	assert.Equal(t, []pivotDimension{
		{Variable: "HOST", Label: "HOST", Domain: []any{"h1", "h2"}},
		{Variable: "SIZE", Label: "SIZE", Domain: []any{1.0, 2.0}},
	}, result.Dimensions)
	assert.Equal(t, []any{2.0, 1.0, 1.0, nil}, result.Cells, "host varies fastest")
}

func TestPivot_Errors(t *testing.T) {
	env := newTestEnv(t)
	env.seed()

	tests := []struct {
		name string
		args []string
		code string
	}{
		{name: "too many dimensions", args: []string{"--per", "host,size,latency"}, code: "INVALID_ARGUMENT"},
		{name: "unknown label", args: []string{"--per", "host", "--label", "size=Size"}, code: "UNKNOWN_VARIABLE"},
		{name: "malformed label", args: []string{"--per", "host", "--label", "host"}, code: "INVALID_ARGUMENT"},
		{name: "unknown desc", args: []string{"--per", "host", "--desc", "size"}, code: "UNKNOWN_VARIABLE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := env.run(append([]string{"pivot", "runs"}, tt.args...)...)
			require.Error(t, err)
			assert.Contains(t, out, "Error ["+tt.code+"]")
		})
	}
}

func TestOutputFormatter_FailExitCodes(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code string
		exit int
	}{
		{name: "plain error", err: os.ErrNotExist, code: ErrCodeGeneric, exit: ExitCommandError},
		{name: "not found", err: ir.NewTableNotFoundError("RUNS"), code: "TABLE_NOT_FOUND", exit: ExitCommandError},
		{name: "rejected data", err: ir.NewSchemaMismatchError([]string{"HOST"}, nil), code: "SCHEMA_MISMATCH", exit: ExitFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			f := &OutputFormatter{Format: "text", Writer: buf}
			err := f.Fail(tt.err)
			assert.Equal(t, tt.exit, GetExitCode(err))
			assert.Contains(t, buf.String(), "Error ["+tt.code+"]")
			assert.ErrorIs(t, err, tt.err)
		})
	}
}
