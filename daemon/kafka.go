// Kafka ingest: each message carries the raw darshan-parser text of one log, with the original
// file name as the message key when the producer has one.  Derived output lands in the spool
// directory.  Offsets are committed only after the fetched batch has been handled, so a crash
// redelivers rather than drops; redelivery just rewrites the same spool file.

package daemon

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"

	. "darsig/common"
	"darsig/darlog"
	"darsig/extract"
	"darsig/signal"
)

// This runs on a goroutine and stays up for the life of the process.

func (dc *DaemonCommand) runKafka() {
	cl, err := kgo.NewClient(
		kgo.SeedBrokers(dc.KafkaBroker),
		kgo.ConsumerGroup(dc.KafkaGroup),
		kgo.ConsumeTopics(dc.KafkaTopic),
		kgo.DisableAutoCommit(),
	)
	if err != nil {
		// Back off and let the crash barrier restart us, the broker could be down.
		Log.Errorf("Failed to create Kafka client: %v", err)
		time.Sleep(time.Minute)
		return
	}
	defer cl.Close()
	if dc.Verbose {
		Log.Infof("Connected to %s", dc.KafkaBroker)
	}

	ctx := context.Background()
	for {
		fetches := cl.PollFetches(ctx)
		if errs := fetches.Errors(); len(errs) > 0 {
			// All errors are retried internally when fetching, but non-retriable errors are
			// returned from polls so that users can notice and take action.
			Log.Warningf("SOFT ERROR: Failed to fetch data: %v", errs)
		}

		iter := fetches.RecordIter()
		for !iter.Done() {
			record := iter.Next()
			if err := dc.spoolMessage(record); err != nil {
				dc.stats.failed.Add(1)
				Log.Warningf("SOFT ERROR: Message handler failed: %v", err)
			} else {
				dc.stats.processed.Add(1)
			}
		}
		if err := cl.CommitUncommittedOffsets(ctx); err != nil {
			Log.Warningf("SOFT ERROR: Commit records failed: %v", err)
		}
	}
}

func (dc *DaemonCommand) spoolMessage(record *kgo.Record) error {
	label := spoolLabel(record)
	lf, err := darlog.ParseDarshanLog(label, bytes.NewReader(record.Value), darlog.NewSymFacade())
	if err != nil {
		return fmt.Errorf("%s: %w", label, err)
	}
	if lf.SoftErrors > 0 {
		Log.Warningf("%d soft errors in %s", lf.SoftErrors, label)
	}
	tree := signal.Derive(lf, signal.Options{})

	output := filepath.Join(dc.SpoolDir, label+"_signals.txt")
	if err := os.MkdirAll(dc.SpoolDir, 0755); err != nil {
		return err
	}
	f, err := os.Create(output)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)
	extract.WriteSignals(w, tree)
	if err := w.Flush(); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	if dc.Verbose {
		Log.Infof("%s -> %s", label, output)
	}
	return nil
}

// The spool file base name comes from the message key when there is one, with any directory
// part and extension dropped; keyless messages fall back to the partition and offset, which are
// stable across redelivery.

func spoolLabel(record *kgo.Record) string {
	key := strings.TrimSpace(string(record.Key))
	if key != "" {
		base := path.Base(key)
		if base != "." && base != "/" {
			return strings.TrimSuffix(base, path.Ext(base))
		}
	}
	return fmt.Sprintf("kafka-%d-%d", record.Partition, record.Offset)
}
