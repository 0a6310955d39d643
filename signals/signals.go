// The signals verb: per-record derived signals as flat rows, for piping into analysis tooling.
// The value and the NA reason are separate columns so that consumers need not parse "NA(...)"
// forms; the extract verb is the one that renders the combined text shape.

package signals

import (
	"errors"
	"flag"
	"io"
	"sort"
	"strconv"
	"strings"

	. "darsig/command"
	"darsig/darlog"
	"darsig/signal"
)

type SignalsCommand struct /* implements LogAnalysisCommand */ {
	SharedArgs
	Modules []string
	Records []string
	Signals []string
	Fmt     string

	// Synthesized and other
	printFields []string
	printOpts   *FormatOptions
}

func (_ *SignalsCommand) Summary() []string {
	return []string{
		"Derive per-record I/O signals and print them as flat rows, with",
		"optional substring filtering on module, record and signal names.",
	}
}

func (sc *SignalsCommand) Add(fs *flag.FlagSet) {
	sc.SharedArgs.Add(fs)
	fs.Var(NewRepeatableString(&sc.Modules), "module",
		"Print only modules whose name contains `substring` (repeatable)")
	fs.Var(NewRepeatableString(&sc.Records), "record",
		"Print only records whose id contains `substring` (repeatable)")
	fs.Var(NewRepeatableString(&sc.Signals), "signal",
		"Print only signals whose name contains `substring` (repeatable)")
	fs.StringVar(&sc.Fmt, "fmt", "",
		"Select `field,...` and format for the output [default: try -fmt=help]")
}

func (sc *SignalsCommand) Validate() error {
	var e1, e2 error
	e1 = sc.SharedArgs.Validate()
	var others map[string]bool
	sc.printFields, others, e2 = ParseFormatSpec(signalsDefaultFields, sc.Fmt, signalsFormatters, signalsAliases)
	if e2 == nil && len(sc.printFields) == 0 {
		e2 = errors.New("No output fields were selected in format string")
	}
	sc.printOpts = StandardFormatOptions(others, DefaultCsv)

	return errors.Join(e1, e2)
}

func (sc *SignalsCommand) Perform(out io.Writer, logs []*darlog.LogFile) error {
	sort.Slice(logs, func(i, j int) bool {
		return logs[i].Path < logs[j].Path
	})

	var rows []signalRow
	for _, lf := range logs {
		tree := signal.Derive(lf, signal.Options{})
		for _, ms := range tree.Modules {
			if !matchAny(sc.Modules, ms.Name) {
				continue
			}
			for _, rs := range ms.Records {
				if !matchAny(sc.Records, rs.Record) {
					continue
				}
				for _, name := range rs.SortedNames() {
					if !matchAny(sc.Signals, name) {
						continue
					}
					rows = append(rows, signalRow{
						Log:    lf.Path,
						Module: ms.Name,
						Rank:   rs.Rank,
						Record: rs.Record,
						Signal: name,
						Value:  rs.Values[name],
					})
				}
			}
		}
	}

	FormatData(
		out,
		sc.printFields,
		signalsFormatters,
		sc.printOpts,
		rows,
		signalsCtx(sc.printOpts.NoDefaults),
	)
	return nil
}

// A nil or empty filter admits everything.

func matchAny(filters []string, s string) bool {
	if len(filters) == 0 {
		return true
	}
	for _, f := range filters {
		if strings.Contains(s, f) {
			return true
		}
	}
	return false
}

func (sc *SignalsCommand) MaybeFormatHelp() *FormatHelp {
	return StandardFormatHelp(sc.Fmt, signalsHelp, signalsFormatters, signalsAliases, signalsDefaultFields)
}

const signalsHelp = `
signals
  Derive per-record I/O signals from darshan-parser logs and print them
  as flat rows.  Default output format is 'csv'.
`

type signalRow struct {
	Log    string
	Module string
	Record string
	Signal string
	Value  signal.Value
	Rank   int32
}

const signalsDefaultFields = "module,rank,record,signal,value,reason"

// MT: Constant after initialization; immutable
var signalsAliases = map[string][]string{
	"all": []string{
		"log",
		"module",
		"rank",
		"record",
		"signal",
		"value",
		"reason",
	},
}

type signalsCtx bool

// MT: Constant after initialization; immutable
var signalsFormatters = map[string]Formatter[signalRow, signalsCtx]{
	"log": {
		Fmt: func(d signalRow, _ signalsCtx) string {
			return d.Log
		},
		Help: "Path of the source log file",
	},
	"module": {
		Fmt: func(d signalRow, _ signalsCtx) string {
			return d.Module
		},
		Help: "Instrumentation module name",
	},
	"rank": {
		Fmt: func(d signalRow, _ signalsCtx) string {
			return strconv.FormatInt(int64(d.Rank), 10)
		},
		Help: "MPI rank, -1 for records shared across ranks",
	},
	"record": {
		Fmt: func(d signalRow, _ signalsCtx) string {
			return d.Record
		},
		Help: "Darshan record id",
	},
	"signal": {
		Fmt: func(d signalRow, _ signalsCtx) string {
			return d.Signal
		},
		Help: "Signal name",
	},
	"value": {
		Fmt: func(d signalRow, _ signalsCtx) string {
			if f, ok := d.Value.Float(); ok {
				return darlog.FormatFloat(f)
			}
			return "NA"
		},
		Help: "Numeric signal value, or NA",
	},
	"reason": {
		Fmt: func(d signalRow, nodefaults signalsCtx) string {
			r := d.Value.Reason().String()
			if nodefaults && r == "" {
				return "*skip*"
			}
			return r
		},
		Help: "Why the value is NA, empty for numeric values",
	},
}
