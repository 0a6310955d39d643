// The parse verb: the flat counter-row view of one or more logs, for piping into downstream
// tooling.  By default the rows come out as written in the file, duplicates and all; with -merge
// the demultiplexed record view is printed instead, one row per surviving counter.

package parse

import (
	"errors"
	"flag"
	"io"
	"sort"
	"strconv"

	. "darsig/command"
	"darsig/darlog"
)

type ParseCommand struct /* implements LogAnalysisCommand */ {
	SharedArgs
	Merge bool
	Fmt   string

	// Synthesized and other
	printFields []string
	printOpts   *FormatOptions
}

func (_ *ParseCommand) Summary() []string {
	return []string{
		"Print the raw counter rows of darshan-parser logs in various formats,",
		"optionally demultiplexed into one row per surviving counter.",
	}
}

func (pc *ParseCommand) Add(fs *flag.FlagSet) {
	pc.SharedArgs.Add(fs)
	fs.BoolVar(&pc.Merge, "merge", false,
		"Collapse duplicate (module,rank,record,counter) rows, last write wins")
	fs.StringVar(&pc.Fmt, "fmt", "",
		"Select `field,...` and format for the output [default: try -fmt=help]")
}

func (pc *ParseCommand) Validate() error {
	var e1, e2 error
	e1 = pc.SharedArgs.Validate()
	var others map[string]bool
	pc.printFields, others, e2 = ParseFormatSpec(parseDefaultFields, pc.Fmt, parseFormatters, parseAliases)
	if e2 == nil && len(pc.printFields) == 0 {
		e2 = errors.New("No output fields were selected in format string")
	}
	pc.printOpts = StandardFormatOptions(others, DefaultCsv)

	return errors.Join(e1, e2)
}

func (pc *ParseCommand) Perform(out io.Writer, logs []*darlog.LogFile) error {
	sort.Slice(logs, func(i, j int) bool {
		return logs[i].Path < logs[j].Path
	})

	var rows []parseRow
	for _, lf := range logs {
		if pc.Merge {
			rows = append(rows, mergedRows(lf)...)
			continue
		}
		raw, _, err := darlog.ReadRawRows(lf.Path)
		if err != nil {
			return err
		}
		for _, r := range raw {
			rows = append(rows, parseRow{
				Log:     lf.Path,
				Module:  r.Module,
				Rank:    r.Rank,
				Record:  r.Record,
				Counter: r.Counter,
				Value:   r.Value,
				File:    r.File,
				MountPt: r.MountPt,
				FsType:  r.FsType,
			})
		}
	}

	FormatData(
		out,
		pc.printFields,
		parseFormatters,
		pc.printOpts,
		rows,
		parseCtx(pc.printOpts.NoDefaults),
	)
	return nil
}

// The demultiplexed view: records sorted by (module, rank, record id), counters sorted by name,
// values in their canonical text form.

func mergedRows(lf *darlog.LogFile) []parseRow {
	keys := make([]darlog.RecordKey, 0, len(lf.Records))
	for key := range lf.Records {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, b := keys[i], keys[j]
		if a.Module != b.Module {
			return a.Module.String() < b.Module.String()
		}
		if a.Rank != b.Rank {
			return a.Rank < b.Rank
		}
		return a.Record.String() < b.Record.String()
	})

	var rows []parseRow
	for _, key := range keys {
		rec := lf.Records[key]
		names := make([]darlog.Sym, 0, len(rec.Counters))
		for name := range rec.Counters {
			names = append(names, name)
		}
		sort.Slice(names, func(i, j int) bool {
			return names[i].String() < names[j].String()
		})
		for _, name := range names {
			rows = append(rows, parseRow{
				Log:     lf.Path,
				Module:  key.Module.String(),
				Rank:    key.Rank,
				Record:  key.Record.String(),
				Counter: name.String(),
				Value:   rec.Counters[name].String(),
				File:    rec.File,
				MountPt: rec.MountPt,
				FsType:  rec.FsType,
			})
		}
	}
	return rows
}

func (pc *ParseCommand) MaybeFormatHelp() *FormatHelp {
	return StandardFormatHelp(pc.Fmt, parseHelp, parseFormatters, parseAliases, parseDefaultFields)
}

const parseHelp = `
parse
  Read darshan-parser logs and print their counter rows in whole or part.
  Default output format is 'csv'.
`

type parseRow struct {
	Log     string
	Module  string
	Record  string
	Counter string
	Value   string
	File    string
	MountPt string
	FsType  string
	Rank    int32
}

const parseDefaultFields = "module,rank,record,counter,value"

// MT: Constant after initialization; immutable
var parseAliases = map[string][]string{
	"all": []string{
		"log",
		"module",
		"rank",
		"record",
		"counter",
		"value",
		"file",
		"mount",
		"fs",
	},
}

type parseCtx bool

// MT: Constant after initialization; immutable
var parseFormatters = map[string]Formatter[parseRow, parseCtx]{
	"log": {
		Fmt: func(d parseRow, _ parseCtx) string {
			return d.Log
		},
		Help: "Path of the source log file",
	},
	"module": {
		Fmt: func(d parseRow, _ parseCtx) string {
			return d.Module
		},
		Help: "Instrumentation module name",
	},
	"rank": {
		Fmt: func(d parseRow, _ parseCtx) string {
			return strconv.FormatInt(int64(d.Rank), 10)
		},
		Help: "MPI rank, -1 for records shared across ranks",
	},
	"record": {
		Fmt: func(d parseRow, _ parseCtx) string {
			return d.Record
		},
		Help: "Darshan record id",
	},
	"counter": {
		Fmt: func(d parseRow, _ parseCtx) string {
			return d.Counter
		},
		Help: "Counter name",
	},
	"value": {
		Fmt: func(d parseRow, _ parseCtx) string {
			return d.Value
		},
		Help: "Counter value",
	},
	"file": {
		Fmt: func(d parseRow, nodefaults parseCtx) string {
			if nodefaults && d.File == "" {
				return "*skip*"
			}
			return d.File
		},
		Help: "File name the record refers to, if recorded",
	},
	"mount": {
		Fmt: func(d parseRow, nodefaults parseCtx) string {
			if nodefaults && d.MountPt == "" {
				return "*skip*"
			}
			return d.MountPt
		},
		Help: "Mount point of the file, if recorded",
	},
	"fs": {
		Fmt: func(d parseRow, nodefaults parseCtx) string {
			if nodefaults && d.FsType == "" {
				return "*skip*"
			}
			return d.FsType
		},
		Help: "File system type of the mount, if recorded",
	},
}
