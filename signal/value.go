// Derived-signal values.
//
// A signal is either a number or NA-for-a-reason.  The reason travels with the value so that a
// consumer (or a person reading the output) can tell "no reads happened" apart from "the counter
// was not monitored".  Arithmetic never produces 0, Inf or NaN to stand in for absence; a guard
// that fails yields NA with the guard's reason.

package signal

import "darsig/darlog"

type Reason uint8

// The zero Reason is reserved so that the zero Value is the number 0, not an NA.

const (
	noReason Reason = iota
	NoReadTime
	NoWriteTime
	NoReads
	NoWrites
	NoIO
	NoTime
	NoFileSize
	NoBytes
	NotSharedFile
	NoFastestBytes
	MissingTimestamp
	MissingTimeCounter
	ZeroSpan
	DependencyMissing
	NotMonitored
	NotAvailable
	NoBinWidth
	NoActivity
	DivByZero
)

var reasonNames = []string{
	noReason:           "",
	NoReadTime:         "no_read_time",
	NoWriteTime:        "no_write_time",
	NoReads:            "no_reads",
	NoWrites:           "no_writes",
	NoIO:               "no_io",
	NoTime:             "no_time",
	NoFileSize:         "no_file_size",
	NoBytes:            "no_bytes",
	NotSharedFile:      "not_shared_file",
	NoFastestBytes:     "no_fastest_bytes",
	MissingTimestamp:   "missing_timestamp",
	MissingTimeCounter: "missing_time_counter",
	ZeroSpan:           "zero_span",
	DependencyMissing:  "dependency_missing",
	NotMonitored:       "not_monitored",
	NotAvailable:       "not_available",
	NoBinWidth:         "no_bin_width",
	NoActivity:         "no_activity",
	DivByZero:          "div_by_zero",
}

func (r Reason) String() string {
	if int(r) < len(reasonNames) {
		return reasonNames[r]
	}
	return ""
}

// A Value is a number or an NA.  The zero Value is the number 0.

type Value struct {
	num    float64
	reason Reason
}

func Num(x float64) Value {
	return Value{num: x}
}

func NA(r Reason) Value {
	return Value{reason: r}
}

func (v Value) IsNA() bool {
	return v.reason != noReason
}

// Float returns the numeric value and whether there is one.

func (v Value) Float() (float64, bool) {
	return v.num, v.reason == noReason
}

// Reason returns the NA reason, or the zero Reason for numbers.

func (v Value) Reason() Reason {
	return v.reason
}

func (v Value) String() string {
	if v.reason != noReason {
		return "NA(" + v.reason.String() + ")"
	}
	return darlog.FormatFloat(v.num)
}

// Div returns a/b, or NA(r) when b is zero.  A negative denominator divides normally.

func Div(a, b float64, r Reason) Value {
	if b == 0 {
		return NA(r)
	}
	return Num(a / b)
}
