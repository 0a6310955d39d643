// The extract verb: the batch pipeline.  Every input file is parsed, the derived-signal tree is
// computed, and a companion signal file is written next to the input or under -out-dir.  Faults
// are isolated per file: a bad input is reported on stderr and the batch continues, and the exit
// status is nonzero only if no input could be processed at all.

package extract

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"

	. "darsig/command"
	. "darsig/common"
	"darsig/darlog"
	"darsig/signal"
)

type ExtractCommand struct /* implements PrimitiveCommand */ {
	SharedArgs
	OutDir         string
	Stdout         bool
	NoTimeSignals  bool
	SumModuleTimes bool
	KeepZeroInSums bool
	Stats          bool
}

func (_ *ExtractCommand) Summary() []string {
	return []string{
		"Derive I/O signals from darshan-parser logs and write them as",
		"companion signal files.  One bad input does not abort the batch.",
	}
}

func (ec *ExtractCommand) Add(fs *flag.FlagSet) {
	ec.SharedArgs.Add(fs)
	fs.StringVar(&ec.OutDir, "out-dir", "",
		"Write signal files under this `directory` instead of next to the inputs\n"+
			"[default: data-source.out-dir from ~/.darsig]")
	fs.BoolVar(&ec.Stdout, "stdout", false,
		"Write the signal text to stdout (single input only)")
	fs.BoolVar(&ec.NoTimeSignals, "no-time-signals", false,
		"Suppress the timestamp/span/busy-fraction signal block")
	fs.BoolVar(&ec.SumModuleTimes, "sum-module-times", false,
		"Accumulate record I/O times into the module aggregates, so that module\n"+
			"bandwidth and iops derive from real totals instead of being NA")
	fs.BoolVar(&ec.KeepZeroInSums, "keep-zero-in-sums", false,
		"Include zero-valued signals in aggregate sums (only observable together\n"+
			"with -sum-module-times)")
	fs.BoolVar(&ec.Stats, "stats", false,
		"Print success/failure counts to stderr at the end of the run")
}

func (ec *ExtractCommand) Validate() error {
	err := ec.SharedArgs.Validate()
	if err != nil {
		return err
	}
	if ec.Stdout {
		if ec.OutDir != "" {
			return errors.New("-stdout and -out-dir are incompatible")
		}
		return nil
	}
	ApplyDefault(&ec.OutDir, DataSourceOutDir)
	if ec.OutDir != "" {
		ec.OutDir = path.Clean(ec.OutDir)
	}
	return nil
}

func (ec *ExtractCommand) options() signal.Options {
	return signal.Options{
		NoTimeSignals:  ec.NoTimeSignals,
		SumModuleTimes: ec.SumModuleTimes,
		KeepZeroInSums: ec.KeepZeroInSums,
	}
}

func (ec *ExtractCommand) Perform(_ io.Reader, stdout, stderr io.Writer) error {
	files, err := ec.InputFiles()
	if err != nil {
		return err
	}
	if ec.Stdout && len(files) != 1 {
		return fmt.Errorf("-stdout requires exactly one input file, have %d", len(files))
	}

	succeeded := 0
	failed := 0
	darlog.ProcessFiles(files, func(p string, lf *darlog.LogFile, err error) {
		if err == nil {
			err = ec.emit(stdout, p, lf)
		}
		if err != nil {
			failed++
			fmt.Fprintf(stderr, "ERROR processing %s: %v\n", p, err)
			return
		}
		succeeded++
	})

	if ec.Stats || failed > 0 {
		fmt.Fprintf(stderr, "extract: %d succeeded, %d failed\n", succeeded, failed)
	}
	if failed > 0 && succeeded == 0 {
		return errors.New("No input file could be processed")
	}
	return nil
}

func (ec *ExtractCommand) emit(stdout io.Writer, input string, lf *darlog.LogFile) error {
	if lf.SoftErrors > 0 {
		Log.Warningf("%s: dropped %d malformed data rows", input, lf.SoftErrors)
	}
	tree := signal.Derive(lf, ec.options())

	if ec.Stdout {
		w := bufio.NewWriter(stdout)
		WriteSignals(w, tree)
		return w.Flush()
	}

	outPath, err := ec.outputPath(input)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(outPath), 0755); err != nil {
		return err
	}
	f, err := os.Create(outPath)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)
	WriteSignals(w, tree)
	if err := w.Flush(); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	Log.Infof("%s -> %s", input, outPath)
	return nil
}

// The signal file for x/y/foo.txt is named foo_signals.txt.  By default it is written next to
// its input.  With -out-dir and a -data-dir source the input's path relative to the data
// directory is mirrored under the output directory; explicit input files go into -out-dir flat.

func (ec *ExtractCommand) outputPath(input string) (string, error) {
	base := filepath.Base(input)
	name := base[:len(base)-len(filepath.Ext(base))] + "_signals.txt"
	switch {
	case ec.OutDir == "":
		return filepath.Join(filepath.Dir(input), name), nil
	case len(ec.LogFiles) > 0:
		return filepath.Join(ec.OutDir, name), nil
	default:
		rel, err := filepath.Rel(ec.DataDir, input)
		if err != nil {
			return "", err
		}
		return filepath.Join(ec.OutDir, filepath.Dir(rel), name), nil
	}
}
