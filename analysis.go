// Driver for the commands that analyze a batch of parsed logs.

package main

import (
	"fmt"
	"os"

	. "darsig/command"
	. "darsig/common"
	"darsig/darlog"
)

func logAnalysis(cmd LogAnalysisCommand) error {
	files, err := cmd.SourceFlags().InputFiles()
	if err != nil {
		return err
	}

	logs, softErrors, err := darlog.ParseFiles(files, cmd.VerboseFlag())
	if err != nil {
		return fmt.Errorf("Failed to read log files\n%w", err)
	}
	if softErrors > 0 {
		Log.Warningf("%d soft errors across input files", softErrors)
	}

	stdout := Buffered(os.Stdout)
	defer stdout.Flush()

	err = cmd.Perform(stdout, logs)
	if err != nil {
		return fmt.Errorf("Failed to perform operation\n%w", err)
	}
	return nil
}
