// The metadata verb: job-level header information for each input log, one row per log, or one
// row per mount-table entry with -mounts.

package metadata

import (
	"errors"
	"flag"
	"io"
	"reflect"
	"sort"

	. "darsig/command"
	"darsig/darlog"
)

type MetadataCommand struct /* implements LogAnalysisCommand */ {
	SharedArgs
	Mounts bool
	Fmt    string

	// Synthesized and other
	printFields []string
	printOpts   *FormatOptions
}

var _ LogAnalysisCommand = (*MetadataCommand)(nil)

func (_ *MetadataCommand) Summary() []string {
	return []string{
		"Display job-level metadata from the log headers: job identity, process",
		"count, run time, executable, and the mount table.",
	}
}

func (mc *MetadataCommand) Add(fs *flag.FlagSet) {
	mc.SharedArgs.Add(fs)
	fs.BoolVar(&mc.Mounts, "mounts", false,
		"Print one row per mount-table entry instead of one row per log")
	fs.StringVar(&mc.Fmt, "fmt", "",
		"Select `field,...` and format for the output [default: try -fmt=help]")
}

func (mc *MetadataCommand) Validate() error {
	var e1, e2 error
	e1 = mc.SharedArgs.Validate()
	var others map[string]bool
	if mc.Mounts {
		mc.printFields, others, e2 = ParseFormatSpec(mountDefaultFields, mc.Fmt, mountFormatters, mountAliases)
	} else {
		mc.printFields, others, e2 = ParseFormatSpec(metadataDefaultFields, mc.Fmt, metadataFormatters, metadataAliases)
	}
	if e2 == nil && len(mc.printFields) == 0 {
		e2 = errors.New("No output fields were selected in format string")
	}
	mc.printOpts = StandardFormatOptions(others, DefaultFixed)

	return errors.Join(e1, e2)
}

func (mc *MetadataCommand) Perform(out io.Writer, logs []*darlog.LogFile) error {
	sort.Slice(logs, func(i, j int) bool {
		return logs[i].Path < logs[j].Path
	})

	if mc.Mounts {
		rows := make([]any, 0)
		for _, lf := range logs {
			for _, m := range lf.Header.Mounts {
				rows = append(rows, &mountItem{
					Log:    lf.Path,
					Index:  m.Index,
					FsType: m.FsType,
					Path:   m.Path,
				})
			}
		}
		FormatData(out, mc.printFields, mountFormatters, mc.printOpts, rows,
			ComputePrintMods(mc.printOpts))
		return nil
	}

	rows := make([]any, 0, len(logs))
	for _, lf := range logs {
		h := &lf.Header
		mounts := make([]string, 0, len(h.Mounts))
		for _, m := range h.Mounts {
			mounts = append(mounts, m.FsType+"://"+m.Path)
		}
		rows = append(rows, &metadataItem{
			Log:        lf.Path,
			JobID:      h.JobID,
			UID:        h.UID,
			Nprocs:     h.Nprocs.Raw,
			RunTime:    h.RunTime.Raw,
			StartTime:  h.StartTime.Raw,
			StartASCI:  h.StartASCI,
			EndTime:    h.EndTime.Raw,
			EndASCI:    h.EndASCI,
			Exe:        h.Exe,
			Version:    h.Version,
			LogVersion: h.LogVersion,
			Records:    len(lf.Records),
			SoftErrors: lf.SoftErrors,
			Mounts:     mounts,
		})
	}
	FormatData(out, mc.printFields, metadataFormatters, mc.printOpts, rows,
		ComputePrintMods(mc.printOpts))
	return nil
}

func (mc *MetadataCommand) MaybeFormatHelp() *FormatHelp {
	if mc.Mounts {
		return StandardFormatHelp(mc.Fmt, metadataHelp, mountFormatters, mountAliases, mountDefaultFields)
	}
	return StandardFormatHelp(mc.Fmt, metadataHelp, metadataFormatters, metadataAliases, metadataDefaultFields)
}

const metadataHelp = `
metadata
  Extract and display job-level metadata from the log headers.  Default
  output format is 'fixed'.
`

type metadataItem struct {
	Log        string   `alias:"log,file" desc:"Path of the source log file"`
	JobID      string   `alias:"jobid"    desc:"Job id from the log header"`
	UID        string   `alias:"uid"      desc:"Numeric user id of the job owner"`
	Nprocs     string   `alias:"nprocs"   desc:"Number of MPI processes"`
	RunTime    string   `alias:"runtime"  desc:"Job run time in seconds"`
	StartTime  string   `alias:"start"    desc:"Job start time, unix timestamp"`
	StartASCI  string   `alias:"start_asci" desc:"Job start time, human-readable"`
	EndTime    string   `alias:"end"      desc:"Job end time, unix timestamp"`
	EndASCI    string   `alias:"end_asci" desc:"Job end time, human-readable"`
	Exe        string   `alias:"exe"      desc:"Executable path and arguments"`
	Version    string   `alias:"version"  desc:"Darshan log format version"`
	LogVersion string   `alias:"log_ver"  desc:"Compatibility log version, if present"`
	Records    int      `alias:"records"  desc:"Number of distinct records in the log"`
	SoftErrors int      `alias:"soft_errors" desc:"Number of malformed data rows dropped"`
	Mounts     []string `alias:"mounts"   desc:"Mount table entries as fstype://path"`
}

const metadataDefaultFields = "log,jobid,uid,nprocs,runtime,exe"

// MT: Constant after initialization; immutable
var metadataAliases = map[string][]string{
	"all": []string{
		"log", "jobid", "uid", "nprocs", "runtime", "start", "start_asci",
		"end", "end_asci", "exe", "version", "log_ver", "records",
		"soft_errors", "mounts",
	},
}

// MT: Constant after initialization; immutable
var metadataFormatters = ReflectFormattersFromTags(reflect.TypeFor[metadataItem](), nil)

type mountItem struct {
	Log    string `alias:"log"   desc:"Path of the source log file"`
	Index  int    `alias:"index" desc:"Position in the mount table"`
	FsType string `alias:"fs"    desc:"File system type"`
	Path   string `alias:"path"  desc:"Mount path"`
}

const mountDefaultFields = "log,index,fs,path"

// MT: Constant after initialization; immutable
var mountAliases = map[string][]string{
	"all": []string{"log", "index", "fs", "path"},
}

// MT: Constant after initialization; immutable
var mountFormatters = ReflectFormattersFromTags(reflect.TypeFor[mountItem](), nil)
