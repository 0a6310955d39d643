// Module- and job-level roll-ups of the per-record signals.
//
// Sums run over the derived byte/operation signals, not the raw counters, and skip NA values;
// zero values are skipped too unless KeepZeroInSums asks otherwise.  Heatmap modules carry no
// module aggregate at all, and their records contribute nothing at the job level since they have
// none of the summed signals.

package signal

type ModuleAgg struct {
	BytesRead    float64
	BytesWritten float64
	Reads        float64
	Writes       float64
	ReadTime     float64
	WriteTime    float64
}

type ModulePerf struct {
	ReadBW       Value
	WriteBW      Value
	ReadIOPS     Value
	WriteIOPS    Value
	AvgReadSize  Value
	AvgWriteSize Value
}

type JobAgg struct {
	BytesRead    float64
	BytesWritten float64
	Reads        float64
	Writes       float64
}

func (a *JobAgg) accumulate(rs *RecordSignals, keepZero bool) {
	a.BytesRead += aggVal(rs.Values["bytes_read"], keepZero)
	a.BytesWritten += aggVal(rs.Values["bytes_written"], keepZero)
	a.Reads += aggVal(rs.Values["reads"], keepZero)
	a.Writes += aggVal(rs.Values["writes"], keepZero)
}

// aggVal is a signal's contribution to an aggregate sum: NA never counts, zero counts only on
// request.  A missing signal reads as the zero Value and so contributes nothing either way.

func aggVal(v Value, keepZero bool) float64 {
	f, ok := v.Float()
	if !ok || (f == 0 && !keepZero) {
		return 0
	}
	return f
}

func moduleAggregate(recs []*RecordSignals, opts Options) (ModuleAgg, ModulePerf) {
	var agg ModuleAgg
	for _, rs := range recs {
		agg.BytesRead += aggVal(rs.Values["bytes_read"], opts.KeepZeroInSums)
		agg.BytesWritten += aggVal(rs.Values["bytes_written"], opts.KeepZeroInSums)
		agg.Reads += aggVal(rs.Values["reads"], opts.KeepZeroInSums)
		agg.Writes += aggVal(rs.Values["writes"], opts.KeepZeroInSums)
		if opts.SumModuleTimes {
			agg.ReadTime += rs.readTime
			agg.WriteTime += rs.writeTime
		}
	}

	var perf ModulePerf
	if agg.ReadTime > 0 {
		perf.ReadBW = Num(agg.BytesRead / (1024 * 1024) / agg.ReadTime)
		perf.ReadIOPS = Num(agg.Reads / agg.ReadTime)
	} else {
		perf.ReadBW = NA(NoTime)
		perf.ReadIOPS = NA(NoTime)
	}
	if agg.WriteTime > 0 {
		perf.WriteBW = Num(agg.BytesWritten / (1024 * 1024) / agg.WriteTime)
		perf.WriteIOPS = Num(agg.Writes / agg.WriteTime)
	} else {
		perf.WriteBW = NA(NoTime)
		perf.WriteIOPS = NA(NoTime)
	}
	perf.AvgReadSize = Div(agg.BytesRead, agg.Reads, NoReads)
	perf.AvgWriteSize = Div(agg.BytesWritten, agg.Writes, NoWrites)
	return agg, perf
}
