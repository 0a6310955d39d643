// Human-readable signal descriptions embedded in the derived output files, so that a signal
// file documents itself the way darshan-parser output documents its counters.

package signal

import "strings"

// Descriptions returns the comment block describing the signal set of the named module, empty
// for modules without one.

func Descriptions(module string) string {
	switch {
	case strings.Contains(module, "POSIX"):
		return baseDescriptions + posixDescriptions
	case strings.Contains(module, "STDIO") || strings.Contains(module, "MPI-IO"):
		return baseDescriptions
	case strings.Contains(module, "HEATMAP"):
		return heatmapDescriptions
	}
	return ""
}

const baseDescriptions = `# description of derived signals:
#
# ==== TIME METRICS (CORE) ====
#   SIGNAL_READ_START_TS: timestamp of first read operation
#   SIGNAL_READ_END_TS: timestamp of last read operation
#   SIGNAL_WRITE_START_TS: timestamp of first write operation
#   SIGNAL_WRITE_END_TS: timestamp of last write operation
#   SIGNAL_META_START_TS: timestamp of first metadata operation
#   SIGNAL_META_END_TS: timestamp of last metadata operation
#   SIGNAL_READ_TIME: cumulative time spent in read operations (seconds)
#   SIGNAL_WRITE_TIME: cumulative time spent in write operations (seconds)
#   SIGNAL_META_TIME: cumulative time spent in metadata operations (seconds)
#   SIGNAL_READ_SPAN: wall-clock span of read operations = READ_END_TS - READ_START_TS
#   SIGNAL_WRITE_SPAN: wall-clock span of write operations = WRITE_END_TS - WRITE_START_TS
#   SIGNAL_META_SPAN: wall-clock span of metadata operations = META_END_TS - META_START_TS
#   SIGNAL_IO_SPAN: overall I/O span = max(all_END_TS) - min(all_START_TS)
#   SIGNAL_IO_TIME: overall cumulative I/O time = READ_TIME + WRITE_TIME + META_TIME
#   SIGNAL_READ_BUSY_FRAC: read busy fraction = READ_TIME / READ_SPAN
#   SIGNAL_WRITE_BUSY_FRAC: write busy fraction = WRITE_TIME / WRITE_SPAN
#   SIGNAL_META_BUSY_FRAC: metadata busy fraction = META_TIME / META_SPAN
#   SIGNAL_BUSY_FRAC: overall busy fraction = IO_TIME / IO_SPAN
#
# ==== PERFORMANCE METRICS ====
#   SIGNAL_READ_BW: read bandwidth in MB/s = bytes_read / 1024² / read_time
#   SIGNAL_WRITE_BW: write bandwidth in MB/s = bytes_written / 1024² / write_time
#   SIGNAL_READ_IOPS: read operations per second = reads / read_time
#   SIGNAL_WRITE_IOPS: write operations per second = writes / read_time
#   SIGNAL_AVG_READ_SIZE: average read size in bytes = bytes_read / reads
#   SIGNAL_AVG_WRITE_SIZE: average write size in bytes = bytes_written / writes
#   SIGNAL_SEQ_RATIO: sequential access ratio = (seq_reads + seq_writes) / (reads + writes)
#   SIGNAL_CONSEC_RATIO: consecutive access ratio = (consec_reads + consec_writes) / (reads + writes)
#   SIGNAL_SEQ_READ_RATIO: sequential read ratio = seq_reads / reads (POSIX only)
#   SIGNAL_SEQ_WRITE_RATIO: sequential write ratio = seq_writes / writes (POSIX only)
#   SIGNAL_CONSEC_READ_RATIO: consecutive read ratio = consec_reads / reads (POSIX only)
#   SIGNAL_CONSEC_WRITE_RATIO: consecutive write ratio = consec_writes / writes (POSIX only)
#
# ==== METADATA (POSIX only) ====
#   SIGNAL_META_OPS: total metadata operations = opens + stats + seeks + fsyncs + fdsyncs
#   SIGNAL_META_INTENSITY: metadata intensity = meta_ops / (reads + writes)
#   SIGNAL_META_FRACTION: metadata time fraction = meta_time / total_time
#
# ==== ALIGNMENT (POSIX only) ====
#   SIGNAL_UNALIGNED_READ_RATIO: unaligned read ratio = not_aligned_reads / reads
#   SIGNAL_UNALIGNED_WRITE_RATIO: unaligned write ratio = not_aligned_writes / writes
#
# ==== SMALL I/O (POSIX only) ====
#   SIGNAL_SMALL_READ_RATIO: small read ratio (< 10KB) = (size_0-100 + size_100-1K + size_1K-10K) / reads
#   SIGNAL_SMALL_WRITE_RATIO: small write ratio (< 10KB) = (size_0-100 + size_100-1K + size_1K-10K) / writes
#
# ==== DATA REUSE (POSIX only) ====
#   SIGNAL_REUSE_PROXY: data reuse proxy = bytes_read / (MAX_BYTE_READ + 1)
#
# ==== RANK IMBALANCE (shared files only, rank=-1) ====
#   SIGNAL_RANK_IMBALANCE_RATIO: rank byte imbalance = slowest_rank_bytes / fastest_rank_bytes
#   SIGNAL_BW_VARIANCE_PROXY: bandwidth variance proxy = variance_rank_bytes
#   SIGNAL_FASTEST_RANK_TIME: fastest rank I/O time (shared files)
#   SIGNAL_SLOWEST_RANK_TIME: slowest rank I/O time (shared files)
#   SIGNAL_VAR_RANK_TIME: variance of rank I/O times (shared files)
#   SIGNAL_RANK_TIME_IMB: rank time imbalance = (slowest_time - fastest_time) / slowest_time
#   SIGNAL_IS_SHARED: shared file indicator = 1 if rank=-1, else 0
`

const posixDescriptions = `#
# ==== POSIX-SPECIFIC TIME METRICS ====
#   SIGNAL_AVG_READ_LAT: average read latency per operation = read_time / reads
#   SIGNAL_AVG_WRITE_LAT: average write latency per operation = write_time / writes
#   SIGNAL_MAX_READ_TIME: duration of slowest read operation
#   SIGNAL_MAX_WRITE_TIME: duration of slowest write operation
#   SIGNAL_MAX_READ_TIME_SIZE: size of slowest read operation (bytes)
#   SIGNAL_MAX_WRITE_TIME_SIZE: size of slowest write operation (bytes)
#   SIGNAL_TAIL_READ_RATIO: read tail latency ratio = max_read_time / avg_read_lat
#   SIGNAL_TAIL_WRITE_RATIO: write tail latency ratio = max_write_time / avg_write_lat
#   SIGNAL_RW_SWITCHES: number of read/write access alternations
#   SIGNAL_RW_SWITCH_RATE: RW switch rate = rw_switches / io_span
`

const heatmapDescriptions = `# description of HEATMAP derived signals:
#   SIGNAL_TOTAL_READ_EVENTS: total read events across all bins = Σ READ_BIN_k
#   SIGNAL_TOTAL_WRITE_EVENTS: total write events across all bins = Σ WRITE_BIN_k
#   SIGNAL_ACTIVE_BINS: number of bins with activity = |{k | (READ_BIN_k + WRITE_BIN_k) > 0}|
#   SIGNAL_ACTIVE_TIME: total active time in seconds = active_bins × BIN_WIDTH_SECONDS
#   SIGNAL_ACTIVITY_SPAN: time span from first to last active bin = (k_last - k_first + 1) × BIN_WIDTH_SECONDS
#   SIGNAL_PEAK_ACTIVITY_BIN: bin index with maximum activity = argmax_k (READ_BIN_k + WRITE_BIN_k)
#   SIGNAL_PEAK_ACTIVITY_VALUE: maximum activity value = max_k (READ_BIN_k + WRITE_BIN_k)
#   SIGNAL_READ_ACTIVITY_ENTROPY_NORM: normalized entropy of read distribution [0,1] = H(reads) / log(N)
#   SIGNAL_WRITE_ACTIVITY_ENTROPY_NORM: normalized entropy of write distribution [0,1] = H(writes) / log(N)
#   SIGNAL_TOP1_SHARE: fraction of activity in peak bin = max_k(activity) / Σ(activity)
`
