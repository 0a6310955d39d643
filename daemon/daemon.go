// `darsig daemon` - HTTP service that runs the signal pipeline on behalf of remote clients
//
// The service exposes two endpoints:
//
//   POST /api/extract
//
//    The request body is raw darshan-parser text.  The response is the derived signal tree as
//    JSON: header fields, the job-level aggregate, per-module aggregates and performance
//    signals, and per-record signals.  Signal values are {"value": n} or {"na": reason}
//    objects.
//
//   GET /api/health
//
//    Liveness probe, also reports counts of processed and failed logs since startup.  This
//    endpoint is never behind authentication.
//
// If -kafka-broker and -kafka-topic are given the daemon additionally consumes raw log text
// messages from Kafka, derives signals for each, and writes the derived text into -spool-dir.
// A malformed message is logged and skipped, it never takes the consumer down.  Offsets are
// committed only after a fetched batch has been processed.
//
// Arguments:
//
// -port <port-number>
//
//  Optional, the port number on which to listen, the default is 8087.
//
// -password-file <filename>
//
//  Optional.  It names a file with username:password pairs, one per line, to be matched with
//  values in an incoming HTTP basic authentication header.  (Note, if the connection is not
//  HTTPS then the password may have been intercepted in transit.)
//
// -spool-dir <directory>
//
//  Directory for derived output from Kafka messages, required when Kafka ingest is enabled.
//
// -syslog
//
//  Log to the syslog instead of stderr, for running under a process supervisor.
//
// Termination:
//
//  Sending SIGHUP or SIGTERM to `darsig daemon` will shut it down in an orderly manner.  The
//  daemon tries hard to stay up, infrastructure should exist to restart it if it crashes.

package daemon

import (
	"errors"
	"flag"
	"fmt"
	"path"
	"sync/atomic"

	. "darsig/command"
	. "darsig/common"
)

const (
	defaultListenPort = 8087
	defaultKafkaGroup = "darsig-ingest"
	logTag            = "darsig/daemon"
	authRealm         = "Darsig remote access"
)

// Counts are accessed concurrently by the HTTP handlers, the Kafka goroutine, and the health
// endpoint.
//
// MT: Locked (atomics)
type serviceStats struct {
	processed atomic.Uint64
	failed    atomic.Uint64
}

// Immutable after Validate() (no mutator operations) and thread-safe.  It *will* be accessed
// concurrently b/c every HTTP handler runs as a separate goroutine.
type DaemonCommand struct /* implements PrimitiveCommand */ {
	DevArgs
	VerboseArgs
	Port         uint
	SpoolDir     string
	PasswordFile string
	Syslog       bool
	KafkaBroker  string
	KafkaTopic   string
	KafkaGroup   string

	authenticator *authenticator
	stats         serviceStats
}

func (_ *DaemonCommand) Summary() []string {
	return []string{
		"Run an HTTP service that derives I/O signals from uploaded darshan-parser",
		"text, optionally also ingesting logs from a Kafka topic.",
	}
}

func (dc *DaemonCommand) Add(fs *flag.FlagSet) {
	dc.DevArgs.Add(fs)
	dc.VerboseArgs.Add(fs)
	fs.UintVar(&dc.Port, "port", defaultListenPort, "Listen for connections on `port`")
	fs.StringVar(&dc.SpoolDir, "spool-dir", "",
		"Write derived output for Kafka messages in this `directory`\n[default: daemon.spool-dir from ~/.darsig]")
	fs.StringVar(&dc.PasswordFile, "password-file", "",
		"Authentication info `filename` with username:password lines\n[default: daemon.password-file from ~/.darsig]")
	fs.BoolVar(&dc.Syslog, "syslog", false, "Log to the syslog instead of stderr")
	fs.StringVar(&dc.KafkaBroker, "kafka-broker", "",
		"Consume log text from this Kafka `broker`\n[default: daemon.kafka-broker from ~/.darsig]")
	fs.StringVar(&dc.KafkaTopic, "kafka-topic", "",
		"Consume log text from this `topic`\n[default: daemon.kafka-topic from ~/.darsig]")
	fs.StringVar(&dc.KafkaGroup, "kafka-group", "",
		"Consumer `group` name\n[default: daemon.kafka-group from ~/.darsig, then \""+defaultKafkaGroup+"\"]")
}

func (dc *DaemonCommand) Validate() error {
	var e1, e2, e3, e4 error
	e1 = dc.DevArgs.Validate()
	e2 = dc.VerboseArgs.Validate()

	ApplyDefault(&dc.SpoolDir, DaemonSpoolDir)
	ApplyDefault(&dc.PasswordFile, DaemonPasswordFile)
	ApplyDefault(&dc.KafkaBroker, DaemonKafkaBroker)
	ApplyDefault(&dc.KafkaTopic, DaemonKafkaTopic)
	ApplyDefault(&dc.KafkaGroup, DaemonKafkaGroup)
	if dc.KafkaGroup == "" {
		dc.KafkaGroup = defaultKafkaGroup
	}

	if dc.PasswordFile != "" {
		dc.authenticator, e3 = readPasswords(dc.PasswordFile)
		if e3 != nil {
			e3 = fmt.Errorf("Failed to read password file %w", e3)
		}
	}

	switch {
	case dc.KafkaBroker == "" && dc.KafkaTopic == "":
		// Kafka ingest disabled
	case dc.KafkaBroker == "" || dc.KafkaTopic == "":
		e4 = errors.New("-kafka-broker and -kafka-topic must be given together")
	case dc.SpoolDir == "":
		e4 = errors.New("Kafka ingest requires -spool-dir")
	default:
		dc.SpoolDir = path.Clean(dc.SpoolDir)
	}

	return errors.Join(e1, e2, e3, e4)
}

func (dc *DaemonCommand) kafkaEnabled() bool {
	return dc.KafkaBroker != "" && dc.KafkaTopic != ""
}
