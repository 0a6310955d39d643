package daemon

import (
	"errors"
	"fmt"
	"io"
	"log/syslog"
	"syscall"

	. "darsig/common"
)

func (dc *DaemonCommand) Perform(_ io.Reader, _, stderr io.Writer) error {
	if dc.Syslog {
		logger, err := syslog.Dial("", "", syslog.LOG_INFO|syslog.LOG_USER, logTag)
		if err != nil {
			return fmt.Errorf("FATAL ERROR: Failing to open logger: %v", err)
		}
		Log.SetUnderlying(logger)
	}

	if dc.kafkaEnabled() {
		go Forever(dc.runKafka, stderr)
	}

	var programFailed bool
	s := newServer(dc.Verbose, dc.Port, dc.newAPIHandler(), func(err error) {
		programFailed = true
	})
	go s.start()

	// Wait here until we're stopped by SIGHUP (manual) or SIGTERM (from OS during shutdown).
	//
	// TODO: For SIGHUP we should reread the password file instead of exiting.
	waitForSignal(syscall.SIGHUP, syscall.SIGTERM)
	s.stop()

	if programFailed {
		return errors.New("HTTP server failed to start, or errored out")
	}
	return nil
}
