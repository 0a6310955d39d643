// `darsig` -- Extract derived I/O signals from darshan-parser text logs
//
// See MANUAL.md for a manual, or run `darsig help` for brief help.

package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"runtime/pprof"

	. "darsig/command"
	"darsig/common"
	"darsig/daemon"
	"darsig/export"
	"darsig/extract"
	"darsig/metadata"
	"darsig/parse"
	"darsig/signals"
	"darsig/status"
)

func main() {
	err := darsig()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func darsig() error {
	anyCmd, _ := commandLine()

	if anyCmd.VerboseFlag() {
		common.Log.LowerLevelTo(status.LogLevelInfo)
	}

	if anyCmd.CpuProfileFile() != "" {
		f, err := os.Create(anyCmd.CpuProfileFile())
		if err != nil {
			return fmt.Errorf("Failed to create profile\n%w", err)
		}
		pprof.StartCPUProfile(f)
		defer pprof.StopCPUProfile()
	}

	switch cmd := anyCmd.(type) {
	case LogAnalysisCommand:
		return logAnalysis(cmd)
	case PrimitiveCommand:
		return cmd.Perform(os.Stdin, os.Stdout, os.Stderr)
	default:
		return errors.New("NYI command")
	}
}

func commandLine() (Command, string) {
	out := flag.CommandLine.Output()

	if len(os.Args) < 2 {
		fmt.Fprintf(out, "Required operation missing, try `darsig help`\n")
		os.Exit(2)
	}

	var cmd Command
	var verb = os.Args[1]
	switch verb {
	case "help", "-h":
		fmt.Fprintf(out, "Usage: %s command [options] [-- logfile ...]\n", os.Args[0])
		fmt.Fprintf(out, "Commands:\n")
		fmt.Fprintf(out, "  daemon   - serve signal extraction over HTTP\n")
		fmt.Fprintf(out, "  export   - derive signals and insert them into Postgres\n")
		fmt.Fprintf(out, "  extract  - derive signals and write annotated signal files\n")
		fmt.Fprintf(out, "  metadata - parse data, print stats and metadata\n")
		fmt.Fprintf(out, "  parse    - parse, select and reformat input data\n")
		fmt.Fprintf(out, "  signals  - print derived per-record signals\n")
		fmt.Fprintf(out, "  version  - print information about the program\n")
		fmt.Fprintf(out, "  help     - print this message\n")
		fmt.Fprintf(out, "Each command accepts -h to further explain options.\n")
		os.Exit(0)
	case "daemon":
		cmd = new(daemon.DaemonCommand)
	case "export":
		cmd = new(export.ExportCommand)
	case "extract":
		cmd = new(extract.ExtractCommand)
	case "meta", "metadata":
		cmd = new(metadata.MetadataCommand)
		verb = "metadata"
	case "parse":
		cmd = new(parse.ParseCommand)
	case "signals":
		cmd = new(signals.SignalsCommand)
	case "version":
		// Must print version on stdout.
		fmt.Printf("darsig version(%s)\n", common.DarsigVersion)
		os.Exit(0)
	default:
		fmt.Fprintf(out, "Required operation missing, try `darsig help`\n")
		os.Exit(2)
	}

	fs := flag.NewFlagSet(os.Args[0], flag.ExitOnError)
	cmd.Add(fs)

	fs.Usage = func() {
		restargs := ""
		if _, ok := cmd.(SetRestArgumentsAPI); ok {
			restargs = " [-- logfile ...]"
		}
		fmt.Fprintf(
			out,
			"Usage: %s %s [options]%s\n\n",
			os.Args[0],
			os.Args[1],
			restargs,
		)
		for _, s := range cmd.Summary() {
			fmt.Fprintln(out, "  ", s)
		}
		fmt.Fprint(out, "\nOptions:\n\n")
		fs.PrintDefaults()
		if restargs != "" {
			fmt.Fprintf(out, "  logfile ...\n    \tInput data files\n")
		}
	}
	fs.Parse(os.Args[2:])

	rest := fs.Args()
	if len(rest) > 0 {
		if lfCmd, ok := cmd.(SetRestArgumentsAPI); ok {
			lfCmd.SetRestArguments(rest)
		} else {
			fmt.Fprintf(out, "Rest arguments not accepted by `%s`.\n", verb)
			os.Exit(2)
		}
	}

	if fhCmd, ok := cmd.(FormatHelpAPI); ok {
		if h := fhCmd.MaybeFormatHelp(); h != nil {
			PrintFormatHelp(out, h)
			os.Exit(0)
		}
	}

	err := cmd.Validate()
	if err != nil {
		fmt.Fprintf(out, "Bad arguments, try -h\n%v\n", err.Error())
		os.Exit(2)
	}

	return cmd, verb
}
