package command

import (
	"flag"
	"io"

	"darsig/darlog"
)

///////////////////////////////////////////////////////////////////////////////////////////////////
//
// Represents a darsig command: extract, parse, signals, etc

type Command interface {
	// Documentation lines for the command, printed by -h
	Summary() []string

	// Add all arguments including shared arguments
	Add(fs *flag.FlagSet)

	// Validate all arguments including shared arguments
	Validate() error

	// Return the name of the cpu profile file, if requested
	CpuProfileFile() string

	// The -v flag
	VerboseFlag() bool
}

// Commands that accept input files after `--` implement this.

type SetRestArgumentsAPI interface {
	SetRestArguments(args []string)
}

// Commands that accept a -fmt argument implement this.  If the value of that argument is "help",
// MaybeFormatHelp returns a non-nil object with formatter help.

type FormatHelpAPI interface {
	MaybeFormatHelp() *FormatHelp
}

// A command that operates on a batch of parsed logs and prints to out.  The driver resolves the
// input set and parses everything up front, failing wholesale if any file can't be read;
// per-file fault tolerance is the extract command's business, not this one's.

type LogAnalysisCommand interface {
	Command
	SetRestArgumentsAPI

	// Retrieve input source arguments
	SourceFlags() *SourceArgs

	// Perform the operation on the parsed logs
	Perform(out io.Writer, logs []*darlog.LogFile) error
}

// A command that handles its own i/o and control flow completely.

type PrimitiveCommand interface {
	Command

	Perform(stdin io.Reader, stdout, stderr io.Writer) error
}
