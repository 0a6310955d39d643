// The export verb: derive signals for the inputs and insert them into Postgres, for dashboards
// and cross-job queries.  Three tables: jobs (header + job aggregate), module_aggregates, and
// record_signals (one row per signal, value and NA reason in separate columns).  Re-exporting a
// log replaces its rows.

package export

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"sort"

	"github.com/jackc/pgx/v5"

	. "darsig/command"
	. "darsig/common"
	"darsig/darlog"
	"darsig/signal"
)

type ExportCommand struct /* implements LogAnalysisCommand */ {
	SharedArgs
	DataSource   string
	CreateTables bool
}

func (_ *ExportCommand) Summary() []string {
	return []string{
		"Derive I/O signals from darshan-parser logs and insert them into a",
		"Postgres database.",
	}
}

func (ec *ExportCommand) Add(fs *flag.FlagSet) {
	ec.SharedArgs.Add(fs)
	fs.StringVar(&ec.DataSource, "data-source", "",
		"Connect to this Postgres `uri`\n[default: export.data-source from ~/.darsig]")
	fs.BoolVar(&ec.CreateTables, "create-tables", false,
		"Create the signal tables if they do not exist before inserting")
}

func (ec *ExportCommand) Validate() error {
	err := ec.SharedArgs.Validate()
	if err != nil {
		return err
	}
	ApplyDefault(&ec.DataSource, ExportDataSource)
	if ec.DataSource == "" {
		return errors.New("Required -data-source")
	}
	return nil
}

func (ec *ExportCommand) Perform(out io.Writer, logs []*darlog.LogFile) error {
	sort.Slice(logs, func(i, j int) bool {
		return logs[i].Path < logs[j].Path
	})

	db, err := openSignalDB(ec.DataSource)
	if err != nil {
		return err
	}
	defer db.Close()

	cx := context.Background()
	if ec.CreateTables {
		for _, ddl := range createTableStmts {
			if err := db.Exec(cx, ddl); err != nil {
				return fmt.Errorf("Table creation failed: %v", err)
			}
		}
	}

	signalRows := 0
	for _, lf := range logs {
		tree := signal.Derive(lf, signal.Options{})
		b := new(pgx.Batch)
		signalRows += queueLog(b, tree)
		if err := db.SendBatch(cx, b); err != nil {
			return fmt.Errorf("Insert failed for %s: %v", lf.Path, err)
		}
		Log.Infof("exported %s", lf.Path)
	}

	fmt.Fprintf(out, "Exported %d logs, %d signal rows\n", len(logs), signalRows)
	return nil
}

// queueLog adds the delete-then-insert statements for one derived tree to the batch and returns
// the number of record_signals rows queued.

func queueLog(b *pgx.Batch, tree *signal.Tree) int {
	p := tree.Log.Path
	b.Queue("DELETE FROM record_signals WHERE log_path = $1", p)
	b.Queue("DELETE FROM module_aggregates WHERE log_path = $1", p)
	b.Queue("DELETE FROM jobs WHERE log_path = $1", p)

	b.Queue(insertJobSQL, jobArgs(tree)...)
	rows := 0
	for _, ms := range tree.Modules {
		if !ms.Heatmap {
			b.Queue(insertModuleSQL, moduleArgs(p, ms)...)
		}
		for _, rs := range ms.Records {
			for _, name := range rs.SortedNames() {
				b.Queue(insertSignalSQL, signalArgs(p, ms.Name, rs, name)...)
				rows++
			}
		}
	}
	return rows
}

const insertJobSQL = `INSERT INTO jobs (
    log_path, job_id, uid, nprocs, run_time, start_time, end_time, exe,
    total_bytes_read, total_bytes_written, total_reads, total_writes
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

func jobArgs(tree *signal.Tree) []any {
	h := &tree.Log.Header
	return []any{
		tree.Log.Path,
		h.JobID,
		h.UID,
		intOrNull(h.Nprocs),
		floatOrNull(h.RunTime),
		intOrNull(h.StartTime),
		intOrNull(h.EndTime),
		h.Exe,
		tree.Job.BytesRead,
		tree.Job.BytesWritten,
		tree.Job.Reads,
		tree.Job.Writes,
	}
}

const insertModuleSQL = `INSERT INTO module_aggregates (
    log_path, module,
    total_bytes_read, total_bytes_written, total_reads, total_writes,
    total_read_time, total_write_time,
    read_bw, read_bw_reason, write_bw, write_bw_reason,
    read_iops, read_iops_reason, write_iops, write_iops_reason,
    avg_read_size, avg_read_size_reason, avg_write_size, avg_write_size_reason
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)`

func moduleArgs(logPath string, ms *signal.ModuleSignals) []any {
	args := []any{
		logPath,
		ms.Name,
		ms.Agg.BytesRead,
		ms.Agg.BytesWritten,
		ms.Agg.Reads,
		ms.Agg.Writes,
		ms.Agg.ReadTime,
		ms.Agg.WriteTime,
	}
	for _, v := range []signal.Value{
		ms.Perf.ReadBW, ms.Perf.WriteBW,
		ms.Perf.ReadIOPS, ms.Perf.WriteIOPS,
		ms.Perf.AvgReadSize, ms.Perf.AvgWriteSize,
	} {
		num, reason := sqlValue(v)
		args = append(args, num, reason)
	}
	return args
}

const insertSignalSQL = `INSERT INTO record_signals (
    log_path, module, rank, record_id, file_name, signal, value, na_reason
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

func signalArgs(logPath, module string, rs *signal.RecordSignals, name string) []any {
	num, reason := sqlValue(rs.Values[name])
	return []any{logPath, module, rs.Rank, rs.Record, rs.File, name, num, reason}
}

// sqlValue splits a signal value into a nullable number and a nullable reason, exactly one of
// which is non-null.

func sqlValue(v signal.Value) (any, any) {
	if f, ok := v.Float(); ok {
		return f, nil
	}
	return nil, v.Reason().String()
}

func intOrNull(s darlog.Scalar) any {
	if !s.Present() || !s.IsNum {
		return nil
	}
	return s.Int()
}

func floatOrNull(s darlog.Scalar) any {
	if !s.Present() || !s.IsNum {
		return nil
	}
	return s.Num
}

// MT: Constant after initialization; immutable
var createTableStmts = []string{
	`CREATE TABLE IF NOT EXISTS jobs (
    log_path TEXT PRIMARY KEY,
    job_id TEXT,
    uid TEXT,
    nprocs BIGINT,
    run_time DOUBLE PRECISION,
    start_time BIGINT,
    end_time BIGINT,
    exe TEXT,
    total_bytes_read DOUBLE PRECISION NOT NULL,
    total_bytes_written DOUBLE PRECISION NOT NULL,
    total_reads DOUBLE PRECISION NOT NULL,
    total_writes DOUBLE PRECISION NOT NULL
)`,
	`CREATE TABLE IF NOT EXISTS module_aggregates (
    log_path TEXT NOT NULL,
    module TEXT NOT NULL,
    total_bytes_read DOUBLE PRECISION NOT NULL,
    total_bytes_written DOUBLE PRECISION NOT NULL,
    total_reads DOUBLE PRECISION NOT NULL,
    total_writes DOUBLE PRECISION NOT NULL,
    total_read_time DOUBLE PRECISION NOT NULL,
    total_write_time DOUBLE PRECISION NOT NULL,
    read_bw DOUBLE PRECISION,
    read_bw_reason TEXT,
    write_bw DOUBLE PRECISION,
    write_bw_reason TEXT,
    read_iops DOUBLE PRECISION,
    read_iops_reason TEXT,
    write_iops DOUBLE PRECISION,
    write_iops_reason TEXT,
    avg_read_size DOUBLE PRECISION,
    avg_read_size_reason TEXT,
    avg_write_size DOUBLE PRECISION,
    avg_write_size_reason TEXT,
    PRIMARY KEY (log_path, module)
)`,
	`CREATE TABLE IF NOT EXISTS record_signals (
    log_path TEXT NOT NULL,
    module TEXT NOT NULL,
    rank INTEGER NOT NULL,
    record_id TEXT NOT NULL,
    file_name TEXT,
    signal TEXT NOT NULL,
    value DOUBLE PRECISION,
    na_reason TEXT,
    PRIMARY KEY (log_path, module, rank, record_id, signal)
)`,
}
