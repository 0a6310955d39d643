// Core types for parsed darshan-parser log data.

package darlog

import (
	"math"
	"strconv"
)

// A CounterValue is the parsed fifth field of a data row.  Almost all values are numeric and we
// keep those as a float64 plus an int/float distinction for faithful reformatting; darshan's
// histogram counters come in bracket notation and are kept as a float array; anything else is
// kept as the verbatim field text.  There can be millions of these per log, so the common numeric
// case carries no heap data at all.

type ValueKind uint8

const (
	KindInt ValueKind = iota
	KindFloat
	KindArray
	KindString
)

type CounterValue struct {
	Num  float64   // KindInt, KindFloat
	Str  string    // KindArray, KindString: verbatim field text
	Arr  []float64 // KindArray
	Kind ValueKind
}

// True for values the signal engine can compute with.

func (v CounterValue) IsNumeric() bool {
	return v.Kind == KindInt || v.Kind == KindFloat
}

func (v CounterValue) String() string {
	switch v.Kind {
	case KindInt:
		return strconv.FormatInt(int64(v.Num), 10)
	case KindFloat:
		return FormatFloat(v.Num)
	default:
		return v.Str
	}
}

// FormatFloat renders a float the way the rest of the pipeline does: integral values without a
// decimal point, everything else in shortest round-trippable form.

func FormatFloat(f float64) string {
	if f == math.Trunc(f) && math.Abs(f) < 1e15 {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// A Scalar is an optional header field that should be numeric but is preserved as raw text when
// it isn't.  Absent fields have Raw == "".

type Scalar struct {
	Raw   string
	Num   float64
	IsNum bool
}

func (s Scalar) Present() bool {
	return s.Raw != ""
}

func (s Scalar) Int() int64 {
	return int64(s.Num)
}

// One entry of the header's mount table: "# mount[<idx>] = <fstype>://<path>".

type Mount struct {
	Index  int
	FsType string
	Path   string
}

// Job-level metadata extracted from the header lines.  Every field is independently optional;
// Lines preserves the header verbatim for pass-through output.

type Header struct {
	Lines      []string
	JobID      string
	UID        string
	Nprocs     Scalar
	RunTime    Scalar
	StartTime  Scalar
	StartASCI  string
	EndTime    Scalar
	EndASCI    string
	Exe        string
	Version    string
	LogVersion string
	Mounts     []Mount
}

// The unique identity of a record within one log: instrumentation module, MPI rank, and the
// opaque record id (usually a hashed file name).  Rank -1 is darshan's sentinel for a record
// shared across all ranks; it is not a real rank and several derived signals exist only for it.

const SharedRank int32 = -1

type RecordKey struct {
	Module Sym
	Record Sym
	Rank   int32
}

// One record's raw counters plus the optional trailing file metadata.  Counters accumulate as
// data rows are demultiplexed; a counter name appearing twice for the same key takes the later
// value.  File metadata is captured the first time it appears and never overwritten.

type Record struct {
	Key      RecordKey
	File     string
	MountPt  string
	FsType   string
	Counters map[Sym]CounterValue
	metaSet  bool
}

func (r *Record) Shared() bool {
	return r.Key.Rank == SharedRank
}

// A fully parsed log file.  This is a per-file value with no shared mutable state, so files can
// be parsed and processed concurrently without locks.

type LogFile struct {
	Path       string
	Header     Header
	Records    map[RecordKey]*Record
	SoftErrors int // malformed data rows dropped during parsing
}
