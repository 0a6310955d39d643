// The derivation engine: raw per-record counters in, per-record derived signals plus module and
// job roll-ups out.
//
// Derivation runs strictly after parsing, when every counter of every record is in hand, and is
// a pure function of the parsed log: deriving twice yields the same tree.  Every quotient is
// guarded, and a failed guard yields NA with the guard's reason rather than 0 or Inf.
//
// Module names gate the signal sets by substring: POSIX modules carry the full set, everything
// else falls back to the STDIO counter names (absent counters then read as zero or NA), and
// HEATMAP modules get the separate binned-activity set.  This mirrors how darshan names its
// counters across modules.

package signal

import (
	"math"
	"sort"
	"strings"

	"darsig/darlog"
)

const eps = 1e-9

// Options select among derivation behaviors.  The zero value is the standard pipeline.

type Options struct {
	// NoTimeSignals drops the per-operation timestamp/span/busy-fraction block and the signals
	// derived from it, leaving the reduced pre-timing signal set.
	NoTimeSignals bool
	// SumModuleTimes accumulates per-record read/write times into the module aggregate so that
	// module-level bandwidth and iops derive from real totals.  Off, the time sums stay zero
	// and those four signals come out NA(no_time), which is what the original pipeline did.
	SumModuleTimes bool
	// KeepZeroInSums includes zero-valued signals in aggregate sums instead of skipping them.
	KeepZeroInSums bool
}

// A Tree is the full derivation result for one log: job-level aggregate, modules sorted by
// name, and per-module records sorted by (rank, record id).

type Tree struct {
	Log     *darlog.LogFile
	Job     JobAgg
	Modules []*ModuleSignals
}

type ModuleSignals struct {
	Name    string
	Heatmap bool // heatmap modules have no module-level aggregates
	Agg     ModuleAgg
	Perf    ModulePerf
	Records []*RecordSignals
}

type RecordSignals struct {
	Rank    int32
	Record  string
	File    string
	MountPt string
	FsType  string
	Values  map[string]Value

	// Collapsed cumulative times, kept outside the signal map for module aggregation.
	readTime  float64
	writeTime float64
}

// SortedNames returns the record's signal names in output order.

func (rs *RecordSignals) SortedNames() []string {
	names := make([]string, 0, len(rs.Values))
	for name := range rs.Values {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Derive computes the full signal tree for a parsed log.

func Derive(lf *darlog.LogFile, opts Options) *Tree {
	byModule := make(map[string][]*RecordSignals)
	for _, rec := range lf.Records {
		name := rec.Key.Module.String()
		byModule[name] = append(byModule[name], deriveRecord(name, rec, opts))
	}

	names := make([]string, 0, len(byModule))
	for name := range byModule {
		names = append(names, name)
	}
	sort.Strings(names)

	tree := &Tree{
		Log:     lf,
		Modules: make([]*ModuleSignals, 0, len(names)),
	}
	for _, name := range names {
		recs := byModule[name]
		sort.Slice(recs, func(i, j int) bool {
			if recs[i].Rank != recs[j].Rank {
				return recs[i].Rank < recs[j].Rank
			}
			return recs[i].Record < recs[j].Record
		})
		ms := &ModuleSignals{
			Name:    name,
			Heatmap: strings.Contains(name, "HEATMAP"),
			Records: recs,
		}
		if !ms.Heatmap {
			ms.Agg, ms.Perf = moduleAggregate(recs, opts)
		}
		tree.Modules = append(tree.Modules, ms)
		for _, rs := range recs {
			tree.Job.accumulate(rs, opts.KeepZeroInSums)
		}
	}
	return tree
}

// Counter name tables, interned once.  The volume and timing counters come in a POSIX and an
// STDIO flavor; non-POSIX modules read the STDIO names, so for modules with neither name set
// the volume counters collapse to zero and the timestamps to NA.

type opKeys struct {
	start darlog.Sym
	end   darlog.Sym
	time  darlog.Sym
}

type volumeKeys struct {
	bytesRead    darlog.Sym
	bytesWritten darlog.Sym
	reads        darlog.Sym
	writes       darlog.Sym
	readTime     darlog.Sym
	writeTime    darlog.Sym
	read         opKeys
	write        opKeys
	meta         opKeys
}

func newVolumeKeys(prefix string) *volumeKeys {
	k := func(suffix string) darlog.Sym {
		return darlog.StringToSym(prefix + suffix)
	}
	op := func(name string) opKeys {
		return opKeys{
			start: k("_F_" + name + "_START_TIMESTAMP"),
			end:   k("_F_" + name + "_END_TIMESTAMP"),
			time:  k("_F_" + name + "_TIME"),
		}
	}
	return &volumeKeys{
		bytesRead:    k("_BYTES_READ"),
		bytesWritten: k("_BYTES_WRITTEN"),
		reads:        k("_READS"),
		writes:       k("_WRITES"),
		readTime:     k("_F_READ_TIME"),
		writeTime:    k("_F_WRITE_TIME"),
		read:         op("READ"),
		write:        op("WRITE"),
		meta:         op("META"),
	}
}

// MT: Constant after initialization; thread-safe
var (
	posixKeys = newVolumeKeys("POSIX")
	stdioKeys = newVolumeKeys("STDIO")

	posixSeqReads          = darlog.StringToSym("POSIX_SEQ_READS")
	posixConsecReads       = darlog.StringToSym("POSIX_CONSEC_READS")
	posixSeqWrites         = darlog.StringToSym("POSIX_SEQ_WRITES")
	posixConsecWrites      = darlog.StringToSym("POSIX_CONSEC_WRITES")
	posixFileNotAligned    = darlog.StringToSym("POSIX_FILE_NOT_ALIGNED")
	posixMaxByteRead       = darlog.StringToSym("POSIX_MAX_BYTE_READ")
	posixFastestRankBytes  = darlog.StringToSym("POSIX_FASTEST_RANK_BYTES")
	posixSlowestRankBytes  = darlog.StringToSym("POSIX_SLOWEST_RANK_BYTES")
	posixVarianceRankBytes = darlog.StringToSym("POSIX_F_VARIANCE_RANK_BYTES")
	posixMaxReadTime       = darlog.StringToSym("POSIX_F_MAX_READ_TIME")
	posixMaxWriteTime      = darlog.StringToSym("POSIX_F_MAX_WRITE_TIME")
	posixMaxReadTimeSize   = darlog.StringToSym("POSIX_MAX_READ_TIME_SIZE")
	posixMaxWriteTimeSize  = darlog.StringToSym("POSIX_MAX_WRITE_TIME_SIZE")
	posixRWSwitches        = darlog.StringToSym("POSIX_RW_SWITCHES")
	posixFastestRankTime   = darlog.StringToSym("POSIX_F_FASTEST_RANK_TIME")
	posixSlowestRankTime   = darlog.StringToSym("POSIX_F_SLOWEST_RANK_TIME")
	posixVarianceRankTime  = darlog.StringToSym("POSIX_F_VARIANCE_RANK_TIME")

	stdioFastestRankTime  = darlog.StringToSym("STDIO_F_FASTEST_RANK_TIME")
	stdioSlowestRankTime  = darlog.StringToSym("STDIO_F_SLOWEST_RANK_TIME")
	stdioVarianceRankTime = darlog.StringToSym("STDIO_F_VARIANCE_RANK_TIME")

	posixMetaOpKeys = []darlog.Sym{
		darlog.StringToSym("POSIX_OPENS"),
		darlog.StringToSym("POSIX_STATS"),
		darlog.StringToSym("POSIX_SEEKS"),
		darlog.StringToSym("POSIX_FSYNCS"),
		darlog.StringToSym("POSIX_FDSYNCS"),
	}
	posixSmallReadKeys = []darlog.Sym{
		darlog.StringToSym("POSIX_SIZE_READ_0_100"),
		darlog.StringToSym("POSIX_SIZE_READ_100_1K"),
		darlog.StringToSym("POSIX_SIZE_READ_1K_10K"),
	}
	posixSmallWriteKeys = []darlog.Sym{
		darlog.StringToSym("POSIX_SIZE_WRITE_0_100"),
		darlog.StringToSym("POSIX_SIZE_WRITE_100_1K"),
		darlog.StringToSym("POSIX_SIZE_WRITE_1K_10K"),
	}
)

// Counter lookup with the engine's reading of raw values: a counter is usable when it is
// present, numeric, and monitored.  Darshan writes -1 for counters it did not track.

type counters struct {
	m map[darlog.Sym]darlog.CounterValue
}

func (c counters) num(key darlog.Sym) (float64, bool) {
	v, found := c.m[key]
	if !found || !v.IsNumeric() || v.Num == -1 {
		return 0, false
	}
	return v.Num, true
}

// numOrZero collapses absence to zero, for the volume counters that sum and divide.

func (c counters) numOrZero(key darlog.Sym) float64 {
	f, _ := c.num(key)
	return f
}

// raw skips the -1 filter; the heatmap counters use their whole value range.

func (c counters) raw(key darlog.Sym) (float64, bool) {
	v, found := c.m[key]
	if !found || !v.IsNumeric() {
		return 0, false
	}
	return v.Num, true
}

func numOr(f float64, ok bool, r Reason) Value {
	if ok {
		return Num(f)
	}
	return NA(r)
}

func deriveRecord(name string, rec *darlog.Record, opts Options) *RecordSignals {
	rs := &RecordSignals{
		Rank:    rec.Key.Rank,
		Record:  rec.Key.Record.String(),
		File:    rec.File,
		MountPt: rec.MountPt,
		FsType:  rec.FsType,
		Values:  make(map[string]Value, 64),
	}
	c := counters{rec.Counters}
	sig := rs.Values

	if strings.Contains(name, "HEATMAP") {
		deriveHeatmap(c, sig)
		return rs
	}

	keys := stdioKeys
	posix := strings.Contains(name, "POSIX")
	if posix {
		keys = posixKeys
	}

	bytesRead := c.numOrZero(keys.bytesRead)
	bytesWritten := c.numOrZero(keys.bytesWritten)
	reads := c.numOrZero(keys.reads)
	writes := c.numOrZero(keys.writes)
	readTime := c.numOrZero(keys.readTime)
	writeTime := c.numOrZero(keys.writeTime)
	rs.readTime = readTime
	rs.writeTime = writeTime

	sig["bytes_read"] = Num(bytesRead)
	sig["bytes_written"] = Num(bytesWritten)
	sig["reads"] = Num(reads)
	sig["writes"] = Num(writes)

	var ioSpan Value
	if !opts.NoTimeSignals {
		ops := []struct {
			name string
			k    opKeys
		}{
			{"read", keys.read},
			{"write", keys.write},
			{"meta", keys.meta},
		}
		var starts, ends []float64
		ioTime := 0.0
		ioTimeValid := false
		for _, op := range ops {
			start, end, dur := opTimeSignals(c, op.k, op.name, sig)
			if f, ok := start.Float(); ok {
				starts = append(starts, f)
			}
			if f, ok := end.Float(); ok {
				ends = append(ends, f)
			}
			if f, ok := dur.Float(); ok {
				ioTime += f
				ioTimeValid = true
			}
		}

		if len(starts) > 0 && len(ends) > 0 {
			ioSpan = Num(math.Max(0, maxOf(ends)-minOf(starts)))
		} else {
			ioSpan = NA(MissingTimestamp)
		}
		sig["io_span"] = ioSpan
		sig["io_time"] = numOr(ioTime, ioTimeValid, MissingTimeCounter)
		if f, ok := ioSpan.Float(); ioTimeValid && ok && f > eps {
			sig["busy_frac"] = Num(ioTime / f)
		} else {
			sig["busy_frac"] = NA(DependencyMissing)
		}
	}

	if readTime > 0 {
		sig["read_bw"] = Num(bytesRead / (1024 * 1024) / readTime)
		sig["read_iops"] = Num(reads / readTime)
	} else {
		sig["read_bw"] = NA(NoReadTime)
		sig["read_iops"] = NA(NoReadTime)
	}
	if writeTime > 0 {
		sig["write_bw"] = Num(bytesWritten / (1024 * 1024) / writeTime)
		sig["write_iops"] = Num(writes / writeTime)
	} else {
		sig["write_bw"] = NA(NoWriteTime)
		sig["write_iops"] = NA(NoWriteTime)
	}

	sig["avg_read_size"] = Div(bytesRead, reads, NoReads)
	sig["avg_write_size"] = Div(bytesWritten, writes, NoWrites)

	if posix {
		seqReads := c.numOrZero(posixSeqReads)
		consecReads := c.numOrZero(posixConsecReads)
		seqWrites := c.numOrZero(posixSeqWrites)
		consecWrites := c.numOrZero(posixConsecWrites)

		sig["seq_read_ratio"] = Div(seqReads, reads, NoReads)
		sig["seq_write_ratio"] = Div(seqWrites, writes, NoWrites)
		sig["consec_read_ratio"] = Div(consecReads, reads, NoReads)
		sig["consec_write_ratio"] = Div(consecWrites, writes, NoWrites)

		totalIO := reads + writes
		sig["seq_ratio"] = Div(seqReads+seqWrites, totalIO, NoIO)
		sig["consec_ratio"] = Div(consecReads+consecWrites, totalIO, NoIO)

		metaOps := 0.0
		for _, k := range posixMetaOpKeys {
			metaOps += c.numOrZero(k)
		}
		sig["meta_ops"] = Num(metaOps)
		sig["meta_intensity"] = Div(metaOps, totalIO, NoIO)

		metaTime := c.numOrZero(posixKeys.meta.time)
		sig["meta_fraction"] = Div(metaTime, metaTime+readTime+writeTime, NoTime)

		fileNotAligned := c.numOrZero(posixFileNotAligned)
		sig["unaligned_read_ratio"] = Div(fileNotAligned, reads, NoReads)
		sig["unaligned_write_ratio"] = Div(fileNotAligned, writes, NoWrites)

		smallReads := 0.0
		for _, k := range posixSmallReadKeys {
			smallReads += c.numOrZero(k)
		}
		smallWrites := 0.0
		for _, k := range posixSmallWriteKeys {
			smallWrites += c.numOrZero(k)
		}
		sig["small_read_ratio"] = Div(smallReads, reads, NoReads)
		sig["small_write_ratio"] = Div(smallWrites, writes, NoWrites)

		// The highest byte offset read approximates the file size; without it there is no
		// meaningful reuse number.
		estFileSize := c.numOrZero(posixMaxByteRead) + 1
		if estFileSize > 1 {
			sig["reuse_proxy"] = Div(bytesRead, estFileSize, NoFileSize)
		} else {
			sig["reuse_proxy"] = NA(NoFileSize)
		}

		// Byte-level rank imbalance exists only for shared records that moved data.
		if rec.Key.Rank == darlog.SharedRank && bytesRead+bytesWritten > 0 {
			fastestBytes := c.numOrZero(posixFastestRankBytes)
			slowestBytes := c.numOrZero(posixSlowestRankBytes)
			sig["rank_imbalance_ratio"] = Div(slowestBytes, fastestBytes, NoFastestBytes)
			sig["bw_variance_proxy"] = Num(c.numOrZero(posixVarianceRankBytes))
		} else {
			reason := NotSharedFile
			if rec.Key.Rank == darlog.SharedRank {
				reason = NoBytes
			}
			sig["rank_imbalance_ratio"] = NA(reason)
			sig["bw_variance_proxy"] = NA(reason)
		}

		if rec.Key.Rank == darlog.SharedRank {
			sig["is_shared"] = Num(1)
		} else {
			sig["is_shared"] = Num(0)
		}

		if !opts.NoTimeSignals {
			var avgReadLat, avgWriteLat Value
			switch {
			case reads > 0 && readTime > 0:
				avgReadLat = Num(readTime / reads)
			case reads == 0:
				avgReadLat = NA(NoReads)
			default:
				avgReadLat = NA(NoReadTime)
			}
			switch {
			case writes > 0 && writeTime > 0:
				avgWriteLat = Num(writeTime / writes)
			case writes == 0:
				avgWriteLat = NA(NoWrites)
			default:
				avgWriteLat = NA(NoWriteTime)
			}
			sig["avg_read_lat"] = avgReadLat
			sig["avg_write_lat"] = avgWriteLat

			maxReadTime, maxReadOk := c.num(posixMaxReadTime)
			maxWriteTime, maxWriteOk := c.num(posixMaxWriteTime)
			maxReadSize, maxReadSizeOk := c.num(posixMaxReadTimeSize)
			maxWriteSize, maxWriteSizeOk := c.num(posixMaxWriteTimeSize)
			sig["max_read_time"] = numOr(maxReadTime, maxReadOk, NotAvailable)
			sig["max_write_time"] = numOr(maxWriteTime, maxWriteOk, NotAvailable)
			sig["max_read_time_size"] = numOr(maxReadSize, maxReadSizeOk, NotAvailable)
			sig["max_write_time_size"] = numOr(maxWriteSize, maxWriteSizeOk, NotAvailable)

			if lat, ok := avgReadLat.Float(); maxReadOk && ok && lat > eps {
				sig["tail_read_ratio"] = Num(maxReadTime / lat)
			} else {
				sig["tail_read_ratio"] = NA(DependencyMissing)
			}
			if lat, ok := avgWriteLat.Float(); maxWriteOk && ok && lat > eps {
				sig["tail_write_ratio"] = Num(maxWriteTime / lat)
			} else {
				sig["tail_write_ratio"] = NA(DependencyMissing)
			}

			rwSwitches, rwOk := c.num(posixRWSwitches)
			sig["rw_switches"] = numOr(rwSwitches, rwOk, NotAvailable)
			if span, ok := ioSpan.Float(); rwOk && ok && span > eps {
				sig["rw_switch_rate"] = Num(rwSwitches / span)
			} else {
				sig["rw_switch_rate"] = NA(DependencyMissing)
			}

			rankTimeSignals(c, rec.Key.Rank, posixFastestRankTime, posixSlowestRankTime, posixVarianceRankTime, sig)
		}
	} else if strings.Contains(name, "STDIO") {
		if !opts.NoTimeSignals {
			rankTimeSignals(c, rec.Key.Rank, stdioFastestRankTime, stdioSlowestRankTime, stdioVarianceRankTime, sig)
		}
	}

	return rs
}

// Timestamp, cumulative-time, span and busy-fraction signals for one operation kind.  Returns
// the three base values for the record-wide io_span/io_time computation.

func opTimeSignals(c counters, k opKeys, op string, sig map[string]Value) (start, end, dur Value) {
	startF, startOk := c.num(k.start)
	endF, endOk := c.num(k.end)
	durF, durOk := c.num(k.time)

	start = numOr(startF, startOk, MissingTimestamp)
	end = numOr(endF, endOk, MissingTimestamp)
	dur = numOr(durF, durOk, MissingTimeCounter)
	sig[op+"_start_ts"] = start
	sig[op+"_end_ts"] = end
	sig[op+"_time"] = dur

	if startOk && endOk {
		span := math.Max(0, endF-startF)
		sig[op+"_span"] = Num(span)
		switch {
		case durOk && span > eps:
			sig[op+"_busy_frac"] = Num(durF / span)
		case durOk:
			sig[op+"_busy_frac"] = NA(ZeroSpan)
		default:
			sig[op+"_busy_frac"] = NA(DependencyMissing)
		}
	} else {
		sig[op+"_span"] = NA(MissingTimestamp)
		sig[op+"_busy_frac"] = NA(DependencyMissing)
	}
	return
}

// Fastest/slowest/variance rank-time passthroughs and their imbalance ratio, defined only for
// shared records.

func rankTimeSignals(c counters, rank int32, fastestKey, slowestKey, varianceKey darlog.Sym, sig map[string]Value) {
	if rank != darlog.SharedRank {
		sig["fastest_rank_time"] = NA(NotSharedFile)
		sig["slowest_rank_time"] = NA(NotSharedFile)
		sig["var_rank_time"] = NA(NotSharedFile)
		sig["rank_time_imb"] = NA(NotSharedFile)
		return
	}
	fastest, fOk := c.num(fastestKey)
	slowest, sOk := c.num(slowestKey)
	variance, vOk := c.num(varianceKey)
	sig["fastest_rank_time"] = numOr(fastest, fOk, NotAvailable)
	sig["slowest_rank_time"] = numOr(slowest, sOk, NotAvailable)
	sig["var_rank_time"] = numOr(variance, vOk, NotAvailable)
	if fOk && sOk && slowest > eps {
		sig["rank_time_imb"] = Num((slowest - fastest) / slowest)
	} else {
		sig["rank_time_imb"] = NA(DependencyMissing)
	}
}

func minOf(xs []float64) float64 {
	m := xs[0]
	for _, x := range xs[1:] {
		if x < m {
			m = x
		}
	}
	return m
}

func maxOf(xs []float64) float64 {
	m := xs[0]
	for _, x := range xs[1:] {
		if x > m {
			m = x
		}
	}
	return m
}
