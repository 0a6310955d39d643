package extract

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"darsig/darlog"
	"darsig/signal"
)

// A two-sided STDIO scenario with round numbers: 1 MiB read in 1s over a 2s span, 2 MiB written
// in 2s over a 4s span, no metadata activity.

const stdioLog = "# darshan log version: 3.41\n" +
	"# exe: /bin/ioapp\n" +
	"# jobid: 99\n" +
	"# nprocs: 2\n" +
	"# description of columns:\n" +
	"STDIO\t0\t777\tSTDIO_BYTES_READ\t1048576\t/data/in.dat\t/data\tlustre\n" +
	"STDIO\t0\t777\tSTDIO_READS\t256\n" +
	"STDIO\t0\t777\tSTDIO_F_READ_TIME\t1.0\n" +
	"STDIO\t0\t777\tSTDIO_F_READ_START_TIMESTAMP\t1.0\n" +
	"STDIO\t0\t777\tSTDIO_F_READ_END_TIMESTAMP\t3.0\n" +
	"STDIO\t0\t777\tSTDIO_BYTES_WRITTEN\t2097152\n" +
	"STDIO\t0\t777\tSTDIO_WRITES\t512\n" +
	"STDIO\t0\t777\tSTDIO_F_WRITE_TIME\t2.0\n" +
	"STDIO\t0\t777\tSTDIO_F_WRITE_START_TIMESTAMP\t2.0\n" +
	"STDIO\t0\t777\tSTDIO_F_WRITE_END_TIMESTAMP\t6.0\n"

func goldenStdio() string {
	banner := "# *******************************************************\n"
	return "# darshan log version: 3.41\n" +
		"# exe: /bin/ioapp\n" +
		"# jobid: 99\n" +
		"# nprocs: 2\n" +
		"\n" +
		banner +
		"# JOB LEVEL - Derived Signals\n" +
		banner +
		"#\n" +
		"# Job-level aggregates:\n" +
		"#   total_bytes_read: sum of all bytes read across all modules\n" +
		"#   total_bytes_written: sum of all bytes written across all modules\n" +
		"#   total_reads: sum of all read operations\n" +
		"#   total_writes: sum of all write operations\n" +
		"#\n" +
		"#<level>\t<metric>\t<value>\n" +
		"JOB\ttotal_bytes_read\t1048576\n" +
		"JOB\ttotal_bytes_written\t2097152\n" +
		"JOB\ttotal_reads\t256\n" +
		"JOB\ttotal_writes\t512\n" +
		"\n" +
		banner +
		"# STDIO module - Derived Signals\n" +
		banner +
		"#\n" +
		signal.Descriptions("STDIO") +
		"#\n" +
		"# Module-level aggregates:\n" +
		"#<module>\t<level>\t<metric>\t<value>\n" +
		"STDIO\tMODULE_AGG\ttotal_bytes_read\t1048576\n" +
		"STDIO\tMODULE_AGG\ttotal_bytes_written\t2097152\n" +
		"STDIO\tMODULE_AGG\ttotal_reads\t256\n" +
		"STDIO\tMODULE_AGG\ttotal_writes\t512\n" +
		"STDIO\tMODULE_AGG\ttotal_read_time\t0\n" +
		"STDIO\tMODULE_AGG\ttotal_write_time\t0\n" +
		"\n" +
		"# Module-level performance signals:\n" +
		"#<module>\t<level>\t<metric>\t<value>\n" +
		"STDIO\tMODULE_PERF\tread_bw\tNA(no_time)\n" +
		"STDIO\tMODULE_PERF\twrite_bw\tNA(no_time)\n" +
		"STDIO\tMODULE_PERF\tread_iops\tNA(no_time)\n" +
		"STDIO\tMODULE_PERF\twrite_iops\tNA(no_time)\n" +
		"STDIO\tMODULE_PERF\tavg_read_size\t4096\n" +
		"STDIO\tMODULE_PERF\tavg_write_size\t4096\n" +
		"\n" +
		"# Record: 777, rank=0, file=/data/in.dat, mount=/data, fs=lustre\n" +
		"#<counter>\t<value>\n" +
		"SIGNAL_AVG_READ_SIZE\t4096\n" +
		"SIGNAL_AVG_WRITE_SIZE\t4096\n" +
		"SIGNAL_BUSY_FRAC\t0.6\n" +
		"SIGNAL_BYTES_READ\t1048576\n" +
		"SIGNAL_BYTES_WRITTEN\t2097152\n" +
		"SIGNAL_FASTEST_RANK_TIME\tNA(not_shared_file)\n" +
		"SIGNAL_IO_SPAN\t5\n" +
		"SIGNAL_IO_TIME\t3\n" +
		"SIGNAL_META_BUSY_FRAC\tNA(dependency_missing)\n" +
		"SIGNAL_META_END_TS\tNA(missing_timestamp)\n" +
		"SIGNAL_META_SPAN\tNA(missing_timestamp)\n" +
		"SIGNAL_META_START_TS\tNA(missing_timestamp)\n" +
		"SIGNAL_META_TIME\tNA(missing_time_counter)\n" +
		"SIGNAL_RANK_TIME_IMB\tNA(not_shared_file)\n" +
		"SIGNAL_READ_BUSY_FRAC\t0.5\n" +
		"SIGNAL_READ_BW\t1\n" +
		"SIGNAL_READ_END_TS\t3\n" +
		"SIGNAL_READ_IOPS\t256\n" +
		"SIGNAL_READ_SPAN\t2\n" +
		"SIGNAL_READ_START_TS\t1\n" +
		"SIGNAL_READ_TIME\t1\n" +
		"SIGNAL_READS\t256\n" +
		"SIGNAL_SLOWEST_RANK_TIME\tNA(not_shared_file)\n" +
		"SIGNAL_VAR_RANK_TIME\tNA(not_shared_file)\n" +
		"SIGNAL_WRITE_BUSY_FRAC\t0.5\n" +
		"SIGNAL_WRITE_BW\t1\n" +
		"SIGNAL_WRITE_END_TS\t6\n" +
		"SIGNAL_WRITE_IOPS\t256\n" +
		"SIGNAL_WRITE_SPAN\t4\n" +
		"SIGNAL_WRITE_START_TS\t2\n" +
		"SIGNAL_WRITE_TIME\t2\n" +
		"SIGNAL_WRITES\t512\n" +
		"\n"
}

func TestWriteSignals(t *testing.T) {
	lf, err := darlog.ParseDarshanLog("test.txt", strings.NewReader(stdioLog), darlog.NewSymFacade())
	if err != nil {
		t.Fatal(err)
	}
	tree := signal.Derive(lf, signal.Options{})

	var buf bytes.Buffer
	WriteSignals(&buf, tree)
	got := buf.String()
	want := goldenStdio()
	if got != want {
		gotLines := strings.Split(got, "\n")
		wantLines := strings.Split(want, "\n")
		for i := 0; i < len(gotLines) && i < len(wantLines); i++ {
			if gotLines[i] != wantLines[i] {
				t.Fatalf("Line %d differs\ngot  %q\nwant %q", i+1, gotLines[i], wantLines[i])
			}
		}
		t.Fatalf("Length differs: got %d lines, want %d lines", len(gotLines), len(wantLines))
	}
}

func TestOutputPath(t *testing.T) {
	var ec ExtractCommand
	p, err := ec.outputPath("x/y/foo.txt")
	if err != nil || p != "x/y/foo_signals.txt" {
		t.Fatalf("Expected sibling path, got %q %v", p, err)
	}

	ec = ExtractCommand{OutDir: "out"}
	ec.LogFiles = []string{"x/y/foo.txt"}
	p, err = ec.outputPath("x/y/foo.txt")
	if err != nil || p != "out/foo_signals.txt" {
		t.Fatalf("Expected flat out-dir path, got %q %v", p, err)
	}

	ec = ExtractCommand{OutDir: "out"}
	ec.DataDir = "data"
	p, err = ec.outputPath("data/sub/foo.txt")
	if err != nil || p != "out/sub/foo_signals.txt" {
		t.Fatalf("Expected mirrored path, got %q %v", p, err)
	}
}

func TestExtractBatch(t *testing.T) {
	dir, err := os.MkdirTemp("", "extractbatch")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)
	good := filepath.Join(dir, "good.txt")
	if err := os.WriteFile(good, []byte(stdioLog), 0o644); err != nil {
		t.Fatal(err)
	}
	missing := filepath.Join(dir, "missing.txt")
	outDir := filepath.Join(dir, "out")

	var ec ExtractCommand
	ec.LogFiles = []string{good, missing}
	ec.OutDir = outDir
	if err := ec.Validate(); err != nil {
		t.Fatal(err)
	}

	var stdout, stderr bytes.Buffer
	if err := ec.Perform(nil, &stdout, &stderr); err != nil {
		t.Fatalf("One good input should carry the batch, got %v", err)
	}
	msgs := stderr.String()
	if !strings.Contains(msgs, "ERROR processing "+missing) {
		t.Fatalf("Expected error report for %s, got %q", missing, msgs)
	}
	if !strings.Contains(msgs, "1 succeeded, 1 failed") {
		t.Fatalf("Expected stats on failure, got %q", msgs)
	}

	written, err := os.ReadFile(filepath.Join(outDir, "good_signals.txt"))
	if err != nil {
		t.Fatal(err)
	}
	if string(written) != goldenStdio() {
		t.Fatal("Signal file does not match expected output")
	}
}

func TestExtractMirrorsDataDir(t *testing.T) {
	dir, err := os.MkdirTemp("", "extractmirror")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)
	dataDir := filepath.Join(dir, "data")
	if err := os.MkdirAll(filepath.Join(dataDir, "run1"), 0o755); err != nil {
		t.Fatal(err)
	}
	input := filepath.Join(dataDir, "run1", "job.txt")
	if err := os.WriteFile(input, []byte(stdioLog), 0o644); err != nil {
		t.Fatal(err)
	}

	var ec ExtractCommand
	ec.DataDir = dataDir
	ec.OutDir = filepath.Join(dir, "out")
	if err := ec.Validate(); err != nil {
		t.Fatal(err)
	}
	var stdout, stderr bytes.Buffer
	if err := ec.Perform(nil, &stdout, &stderr); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(dir, "out", "run1", "job_signals.txt")); err != nil {
		t.Fatalf("Expected mirrored signal file, got %v", err)
	}
}

func TestExtractStdout(t *testing.T) {
	dir, err := os.MkdirTemp("", "extractstdout")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)
	input := filepath.Join(dir, "a.txt")
	if err := os.WriteFile(input, []byte(stdioLog), 0o644); err != nil {
		t.Fatal(err)
	}

	var ec ExtractCommand
	ec.Stdout = true
	ec.LogFiles = []string{input}
	if err := ec.Validate(); err != nil {
		t.Fatal(err)
	}
	var stdout, stderr bytes.Buffer
	if err := ec.Perform(nil, &stdout, &stderr); err != nil {
		t.Fatal(err)
	}
	if stdout.String() != goldenStdio() {
		t.Fatal("Stdout output does not match expected output")
	}

	ec = ExtractCommand{Stdout: true}
	ec.LogFiles = []string{input, input}
	if err := ec.Validate(); err != nil {
		t.Fatal(err)
	}
	if err := ec.Perform(nil, &stdout, &stderr); err == nil {
		t.Fatal("Expected error for -stdout with two inputs")
	}
}

func TestExtractAllFailed(t *testing.T) {
	var ec ExtractCommand
	ec.LogFiles = []string{"/nonexistent/a.txt", "/nonexistent/b.txt"}
	if err := ec.Validate(); err != nil {
		t.Fatal(err)
	}
	var stdout, stderr bytes.Buffer
	if err := ec.Perform(nil, &stdout, &stderr); err == nil {
		t.Fatal("Expected failure when every input fails")
	}
	if !strings.Contains(stderr.String(), "0 succeeded, 2 failed") {
		t.Fatalf("Expected stats line, got %q", stderr.String())
	}
}
