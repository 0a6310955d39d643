package signal

import "testing"

func TestModuleAggregate(t *testing.T) {
	input := "# description of columns:\n" +
		"POSIX\t0\tr1\tPOSIX_BYTES_READ\t100\n" +
		"POSIX\t0\tr1\tPOSIX_READS\t10\n" +
		"POSIX\t1\tr2\tPOSIX_BYTES_READ\t200\n" +
		"POSIX\t1\tr2\tPOSIX_READS\t40\n" +
		"POSIX\t2\tr3\tPOSIX_BYTES_WRITTEN\t50\n"
	tree := Derive(parseLog(t, input), Options{})

	m := tree.Modules[0]
	if m.Agg.BytesRead != 300 || m.Agg.Reads != 50 {
		t.Fatalf("Expected 300/50, got %v/%v", m.Agg.BytesRead, m.Agg.Reads)
	}
	if m.Agg.BytesWritten != 50 || m.Agg.Writes != 0 {
		t.Fatalf("Expected 50/0, got %v/%v", m.Agg.BytesWritten, m.Agg.Writes)
	}
	if m.Agg.ReadTime != 0 || m.Agg.WriteTime != 0 {
		t.Fatal("Time sums are not accumulated by default")
	}
	wantNum(t, "avg_read_size", m.Perf.AvgReadSize, 6)
	wantNA(t, "avg_write_size", m.Perf.AvgWriteSize, NoWrites)
	wantNA(t, "read_bw", m.Perf.ReadBW, NoTime)
	wantNA(t, "write_bw", m.Perf.WriteBW, NoTime)
	wantNA(t, "read_iops", m.Perf.ReadIOPS, NoTime)
	wantNA(t, "write_iops", m.Perf.WriteIOPS, NoTime)
}

func TestSumModuleTimes(t *testing.T) {
	input := "# description of columns:\n" +
		"POSIX\t0\tr1\tPOSIX_BYTES_READ\t2097152\n" +
		"POSIX\t0\tr1\tPOSIX_READS\t8\n" +
		"POSIX\t0\tr1\tPOSIX_F_READ_TIME\t0.5\n" +
		"POSIX\t1\tr2\tPOSIX_BYTES_READ\t2097152\n" +
		"POSIX\t1\tr2\tPOSIX_READS\t8\n" +
		"POSIX\t1\tr2\tPOSIX_F_READ_TIME\t1.5\n"
	tree := Derive(parseLog(t, input), Options{SumModuleTimes: true})

	m := tree.Modules[0]
	if m.Agg.ReadTime != 2 {
		t.Fatalf("Expected 2s read time, got %v", m.Agg.ReadTime)
	}
	// 4 MiB over 2 seconds.
	wantNum(t, "read_bw", m.Perf.ReadBW, 2)
	wantNum(t, "read_iops", m.Perf.ReadIOPS, 8)
	wantNA(t, "write_bw", m.Perf.WriteBW, NoTime)
}

// The job level sums over every record of every module.  Heatmap records carry none of the
// summed signals and contribute nothing, and heatmap modules have no module aggregate at all.

func TestJobAggregate(t *testing.T) {
	input := "# description of columns:\n" +
		"POSIX\t0\tr1\tPOSIX_BYTES_READ\t100\n" +
		"STDIO\t0\tr2\tSTDIO_BYTES_READ\t30\n" +
		"STDIO\t0\tr2\tSTDIO_WRITES\t7\n" +
		"HEATMAP\t0\thm\tHEATMAP_F_BIN_WIDTH_SECONDS\t1.0\n" +
		"HEATMAP\t0\thm\tHEATMAP_READ_BIN_0\t500\n"
	tree := Derive(parseLog(t, input), Options{})

	if tree.Job.BytesRead != 130 {
		t.Fatalf("Expected 130, got %v", tree.Job.BytesRead)
	}
	if tree.Job.Writes != 7 {
		t.Fatalf("Expected 7, got %v", tree.Job.Writes)
	}

	for _, m := range tree.Modules {
		if m.Name == "HEATMAP" {
			if !m.Heatmap {
				t.Fatal("HEATMAP module not flagged")
			}
			var zero ModuleAgg
			if m.Agg != zero {
				t.Fatal("HEATMAP module must not aggregate")
			}
		}
	}
}

func TestHeatmapOnlyLog(t *testing.T) {
	input := "# description of columns:\n" +
		"HEATMAP\t0\thm\tHEATMAP_F_BIN_WIDTH_SECONDS\t1.0\n" +
		"HEATMAP\t0\thm\tHEATMAP_READ_BIN_0\t500\n" +
		"HEATMAP\t0\thm\tHEATMAP_WRITE_BIN_1\t200\n"
	tree := Derive(parseLog(t, input), Options{})

	if tree.Job.BytesRead != 0 || tree.Job.BytesWritten != 0 || tree.Job.Reads != 0 || tree.Job.Writes != 0 {
		t.Fatalf("Expected empty job aggregate, got %v", tree.Job)
	}
	rs := findRecord(t, tree, "HEATMAP", 0, "hm")
	checkNum(t, rs, "total_read_events", 500)
	checkNum(t, rs, "total_write_events", 200)
}

func TestKeepZeroInSums(t *testing.T) {
	// Zeros add nothing either way; the option just makes the exclusion rule explicit.
	input := "# description of columns:\n" +
		"POSIX\t0\tr1\tPOSIX_BYTES_READ\t100\n" +
		"POSIX\t1\tr2\tPOSIX_BYTES_READ\t0\n"
	excl := Derive(parseLog(t, input), Options{})
	incl := Derive(parseLog(t, input), Options{KeepZeroInSums: true})
	if excl.Job.BytesRead != 100 || incl.Job.BytesRead != 100 {
		t.Fatalf("Expected 100 both ways, got %v and %v", excl.Job.BytesRead, incl.Job.BytesRead)
	}
}
