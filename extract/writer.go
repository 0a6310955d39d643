// Rendering of a derived signal tree in the darshan-parser text shape: the original header
// replayed verbatim, then job, module, and record signal blocks as tab-separated rows under
// comment banners.  Downstream tooling parses this layout, so the shape here is load-bearing
// down to the blank lines.

package extract

import (
	"fmt"
	"io"
	"strings"

	"darsig/darlog"
	"darsig/signal"
)

const banner = "# *******************************************************"

// WriteSignals renders the tree onto w.  Write errors are left to the underlying writer; callers
// hand in a buffered writer and check its Flush.

func WriteSignals(w io.Writer, tree *signal.Tree) {
	for _, line := range tree.Log.Header.Lines {
		fmt.Fprintln(w, line)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, banner)
	fmt.Fprintln(w, "# JOB LEVEL - Derived Signals")
	fmt.Fprintln(w, banner)
	fmt.Fprintln(w, "#")
	fmt.Fprintln(w, "# Job-level aggregates:")
	fmt.Fprintln(w, "#   total_bytes_read: sum of all bytes read across all modules")
	fmt.Fprintln(w, "#   total_bytes_written: sum of all bytes written across all modules")
	fmt.Fprintln(w, "#   total_reads: sum of all read operations")
	fmt.Fprintln(w, "#   total_writes: sum of all write operations")
	fmt.Fprintln(w, "#")
	fmt.Fprintln(w, "#<level>\t<metric>\t<value>")
	fmt.Fprintf(w, "JOB\ttotal_bytes_read\t%s\n", darlog.FormatFloat(tree.Job.BytesRead))
	fmt.Fprintf(w, "JOB\ttotal_bytes_written\t%s\n", darlog.FormatFloat(tree.Job.BytesWritten))
	fmt.Fprintf(w, "JOB\ttotal_reads\t%s\n", darlog.FormatFloat(tree.Job.Reads))
	fmt.Fprintf(w, "JOB\ttotal_writes\t%s\n", darlog.FormatFloat(tree.Job.Writes))
	fmt.Fprintln(w)

	for _, ms := range tree.Modules {
		writeModule(w, ms)
	}
}

func writeModule(w io.Writer, ms *signal.ModuleSignals) {
	fmt.Fprintln(w, banner)
	fmt.Fprintf(w, "# %s module - Derived Signals\n", ms.Name)
	fmt.Fprintln(w, banner)
	fmt.Fprintln(w, "#")
	fmt.Fprint(w, signal.Descriptions(ms.Name))
	fmt.Fprintln(w, "#")

	if !ms.Heatmap {
		fmt.Fprintln(w, "# Module-level aggregates:")
		fmt.Fprintln(w, "#<module>\t<level>\t<metric>\t<value>")
		fmt.Fprintf(w, "%s\tMODULE_AGG\ttotal_bytes_read\t%s\n", ms.Name, darlog.FormatFloat(ms.Agg.BytesRead))
		fmt.Fprintf(w, "%s\tMODULE_AGG\ttotal_bytes_written\t%s\n", ms.Name, darlog.FormatFloat(ms.Agg.BytesWritten))
		fmt.Fprintf(w, "%s\tMODULE_AGG\ttotal_reads\t%s\n", ms.Name, darlog.FormatFloat(ms.Agg.Reads))
		fmt.Fprintf(w, "%s\tMODULE_AGG\ttotal_writes\t%s\n", ms.Name, darlog.FormatFloat(ms.Agg.Writes))
		fmt.Fprintf(w, "%s\tMODULE_AGG\ttotal_read_time\t%s\n", ms.Name, darlog.FormatFloat(ms.Agg.ReadTime))
		fmt.Fprintf(w, "%s\tMODULE_AGG\ttotal_write_time\t%s\n", ms.Name, darlog.FormatFloat(ms.Agg.WriteTime))
		fmt.Fprintln(w)
		fmt.Fprintln(w, "# Module-level performance signals:")
		fmt.Fprintln(w, "#<module>\t<level>\t<metric>\t<value>")
		fmt.Fprintf(w, "%s\tMODULE_PERF\tread_bw\t%s\n", ms.Name, ms.Perf.ReadBW)
		fmt.Fprintf(w, "%s\tMODULE_PERF\twrite_bw\t%s\n", ms.Name, ms.Perf.WriteBW)
		fmt.Fprintf(w, "%s\tMODULE_PERF\tread_iops\t%s\n", ms.Name, ms.Perf.ReadIOPS)
		fmt.Fprintf(w, "%s\tMODULE_PERF\twrite_iops\t%s\n", ms.Name, ms.Perf.WriteIOPS)
		fmt.Fprintf(w, "%s\tMODULE_PERF\tavg_read_size\t%s\n", ms.Name, ms.Perf.AvgReadSize)
		fmt.Fprintf(w, "%s\tMODULE_PERF\tavg_write_size\t%s\n", ms.Name, ms.Perf.AvgWriteSize)
		fmt.Fprintln(w)
	}

	for _, rs := range ms.Records {
		writeRecord(w, rs)
	}
}

func writeRecord(w io.Writer, rs *signal.RecordSignals) {
	fmt.Fprintf(w, "# Record: %s, rank=%d, file=%s, mount=%s, fs=%s\n",
		rs.Record, rs.Rank, orUnknown(rs.File), orUnknown(rs.MountPt), orUnknown(rs.FsType))
	fmt.Fprintln(w, "#<counter>\t<value>")
	for _, name := range rs.SortedNames() {
		fmt.Fprintf(w, "SIGNAL_%s\t%s\n", strings.ToUpper(name), rs.Values[name])
	}
	fmt.Fprintln(w)
}

func orUnknown(s string) string {
	if s == "" {
		return "UNKNOWN"
	}
	return s
}
