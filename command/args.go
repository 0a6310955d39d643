package command

import (
	"errors"
	"flag"
	"path"
	"strings"

	"darsig/common"
	"darsig/darlog"
)

///////////////////////////////////////////////////////////////////////////////////////////////////
//
// DevArgs are for development and their inclusion can be controlled with the devArgs setting,
// below.

type DevArgs struct {
	CpuProfile string
}

const devArgs = true

func (d *DevArgs) CpuProfileFile() string {
	return d.CpuProfile
}

func (d *DevArgs) Add(fs *flag.FlagSet) {
	if devArgs {
		fs.StringVar(&d.CpuProfile, "cpuprofile", "",
			"(Development) write cpu profile to `filename`")
	}
}

func (d *DevArgs) Validate() error {
	return nil
}

///////////////////////////////////////////////////////////////////////////////////////////////////
//
// You wouldn't think -v would be so complicated.

type VerboseArgs struct {
	Verbose bool
}

func (va *VerboseArgs) Add(fs *flag.FlagSet) {
	fs.BoolVar(&va.Verbose, "v", false, "Print verbose diagnostics to stderr")
	fs.BoolVar(&va.Verbose, "verbose", false, "Print verbose diagnostics to stderr")
}

func (va *VerboseArgs) Validate() error {
	return nil
}

func (va *VerboseArgs) VerboseFlag() bool {
	return va.Verbose
}

///////////////////////////////////////////////////////////////////////////////////////////////////
//
// Handle -data-dir

type DataDirArgs struct {
	DataDir string
}

func (dd *DataDirArgs) Add(fs *flag.FlagSet) {
	fs.StringVar(&dd.DataDir, "data-dir", "",
		"Select the root `directory` to scan for darshan-parser logs\n"+
			"[default: data-source.data-dir from ~/.darsig]")
	fs.StringVar(&dd.DataDir, "data-path", "", "Alias for -data-dir `directory`")
}

func (dd *DataDirArgs) Validate() error {
	if dd.DataDir != "" {
		dd.DataDir = path.Clean(dd.DataDir)
	}
	return nil
}

///////////////////////////////////////////////////////////////////////////////////////////////////
//
// SourceArgs describe where input logs come from: explicit files after `--`, or a -data-dir
// walked recursively for eligible files.  Explicit files win; the ini file can default the data
// directory.

type SourceArgs struct {
	DataDirArgs
	LogFiles []string
}

func (s *SourceArgs) Add(fs *flag.FlagSet) {
	s.DataDirArgs.Add(fs)
}

func (s *SourceArgs) SetRestArguments(args []string) {
	s.LogFiles = args
}

func (s *SourceArgs) Validate() error {
	if len(s.LogFiles) > 0 {
		for i := 0; i < len(s.LogFiles); i++ {
			s.LogFiles[i] = path.Clean(s.LogFiles[i])
		}
		return nil
	}
	err := s.DataDirArgs.Validate()
	if err != nil {
		return err
	}
	common.ApplyDefault(&s.DataDir, common.DataSourceDataDir)
	if s.DataDir == "" {
		return errors.New("Required -data-dir or -- logfile ...")
	}
	return nil
}

// InputFiles resolves the source to a concrete list of file names: the explicit files if any
// were given, otherwise the eligible files under the data directory.

func (s *SourceArgs) InputFiles() ([]string, error) {
	if len(s.LogFiles) > 0 {
		return s.LogFiles, nil
	}
	files, err := darlog.EnumerateLogFiles(s.DataDir)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, errors.New("No input files under " + s.DataDir)
	}
	return files, nil
}

///////////////////////////////////////////////////////////////////////////////////////////////////
//
// Shared by all the commands that read log files.

type SharedArgs struct {
	DevArgs
	SourceArgs
	VerboseArgs
}

func (sa *SharedArgs) SharedFlags() *SharedArgs {
	return sa
}

func (sa *SharedArgs) SourceFlags() *SourceArgs {
	return &sa.SourceArgs
}

func (s *SharedArgs) Add(fs *flag.FlagSet) {
	s.DevArgs.Add(fs)
	s.SourceArgs.Add(fs)
	s.VerboseArgs.Add(fs)
}

func (s *SharedArgs) Validate() error {
	return errors.Join(
		s.DevArgs.Validate(),
		s.SourceArgs.Validate(),
		s.VerboseArgs.Validate(),
	)
}

///////////////////////////////////////////////////////////////////////////////////////////////////
//
// Repeatable arguments: each occurrence on the command line appends to the list.

type RepeatableString struct {
	xs *[]string
}

func NewRepeatableString(xs *[]string) *RepeatableString {
	return &RepeatableString{xs}
}

func (rs *RepeatableString) String() string {
	if rs == nil || rs.xs == nil {
		return ""
	}
	return strings.Join(*rs.xs, ",")
}

func (rs *RepeatableString) Set(s string) error {
	// No comma-splitting here: filter strings can legitimately contain commas.
	if *rs.xs == nil {
		*rs.xs = []string{s}
	} else {
		*rs.xs = append(*rs.xs, s)
	}
	return nil
}
