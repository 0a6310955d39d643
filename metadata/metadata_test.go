package metadata

import (
	"bytes"
	"strings"
	"testing"

	"darsig/darlog"
)

const logA = "# darshan log version: 3.41\n" +
	"# exe: /usr/bin/sim -x\n" +
	"# uid: 5002\n" +
	"# jobid: 4478544\n" +
	"# start_time: 1700000000\n" +
	"# end_time: 1700000500\n" +
	"# nprocs: 512\n" +
	"# run time: 500.321\n" +
	"# mount table:\n" +
	"# mount[0] = lustre:///scratch\n" +
	"# mount[1] = ext4:///home\n" +
	"# description of columns:\n" +
	"POSIX\t0\tr1\tPOSIX_READS\t5\n"

const logB = "# jobid: 7\n" +
	"# description of columns:\n" +
	"POSIX\t0\tr1\tPOSIX_READS\t5\n" +
	"POSIX\tnotarank\tr1\tPOSIX_READS\t5\n"

func parsedLogs(t *testing.T) []*darlog.LogFile {
	a, err := darlog.ParseDarshanLog("a.txt", strings.NewReader(logA), darlog.NewSymFacade())
	if err != nil {
		t.Fatal(err)
	}
	b, err := darlog.ParseDarshanLog("b.txt", strings.NewReader(logB), darlog.NewSymFacade())
	if err != nil {
		t.Fatal(err)
	}
	// Deliberately out of order; Perform sorts by path
	return []*darlog.LogFile{b, a}
}

func performMetadata(t *testing.T, mc *MetadataCommand, logs []*darlog.LogFile) string {
	if err := mc.Validate(); err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err := mc.Perform(&buf, logs); err != nil {
		t.Fatal(err)
	}
	return buf.String()
}

func TestMetadataCsv(t *testing.T) {
	logs := parsedLogs(t)
	var mc MetadataCommand
	mc.LogFiles = []string{"irrelevant"}
	mc.Fmt = "csv,header,jobid,nprocs,records,soft_errors,mounts"

	got := performMetadata(t, &mc, logs)
	want := "jobid,nprocs,records,soft_errors,mounts\n" +
		"4478544,512,1,0,\"ext4:///home,lustre:///scratch\"\n" +
		"7,,1,1,\n"
	if got != want {
		t.Fatalf("Expected %q, got %q", want, got)
	}
}

func TestMetadataFieldNameForms(t *testing.T) {
	logs := parsedLogs(t)
	for _, fields := range []string{"jobid", "JobID"} {
		var mc MetadataCommand
		mc.LogFiles = []string{"irrelevant"}
		mc.Fmt = "fixed,header," + fields

		got := performMetadata(t, &mc, logs)
		want := fields + "\n4478544\n7\n"
		if got != want {
			t.Fatalf("Expected %q, got %q", want, got)
		}
	}
}

func TestMetadataMounts(t *testing.T) {
	logs := parsedLogs(t)
	var mc MetadataCommand
	mc.LogFiles = []string{"irrelevant"}
	mc.Mounts = true
	mc.Fmt = "csv,log,index,fs,path"

	got := performMetadata(t, &mc, logs)
	want := "a.txt,0,lustre,/scratch\n" +
		"a.txt,1,ext4,/home\n"
	if got != want {
		t.Fatalf("Expected %q, got %q", want, got)
	}
}

func TestMetadataHelp(t *testing.T) {
	var mc MetadataCommand
	mc.Fmt = "help"
	h := mc.MaybeFormatHelp()
	if h == nil {
		t.Fatal("Expected format help")
	}
	if _, found := h.Helps["mounts"]; !found {
		t.Fatal("Expected help for the mounts field")
	}
}
