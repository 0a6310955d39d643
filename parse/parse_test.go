package parse

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"darsig/darlog"
)

const parseLog = "# jobid: 11\n" +
	"# description of columns:\n" +
	"POSIX\t0\tr9\tPOSIX_READS\t5\t/a/f.dat\t/a\text4\n" +
	"POSIX\t0\tr9\tPOSIX_READS\t9\n" +
	"STDIO\t-1\tr2\tSTDIO_WRITES\t3\n"

func setup(t *testing.T) (string, []*darlog.LogFile) {
	dir, err := os.MkdirTemp("", "parsetest")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.RemoveAll(dir) })
	p := filepath.Join(dir, "a.txt")
	if err := os.WriteFile(p, []byte(parseLog), 0o644); err != nil {
		t.Fatal(err)
	}
	logs, _, err := darlog.ParseFiles([]string{p}, false)
	if err != nil {
		t.Fatal(err)
	}
	return p, logs
}

func performParse(t *testing.T, pc *ParseCommand, logs []*darlog.LogFile) string {
	if err := pc.Validate(); err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err := pc.Perform(&buf, logs); err != nil {
		t.Fatal(err)
	}
	return buf.String()
}

func TestParseRaw(t *testing.T) {
	_, logs := setup(t)
	var pc ParseCommand
	pc.LogFiles = []string{logs[0].Path}

	got := performParse(t, &pc, logs)
	want := "POSIX,0,r9,POSIX_READS,5\n" +
		"POSIX,0,r9,POSIX_READS,9\n" +
		"STDIO,-1,r2,STDIO_WRITES,3\n"
	if got != want {
		t.Fatalf("Expected %q, got %q", want, got)
	}
}

func TestParseMerged(t *testing.T) {
	_, logs := setup(t)
	var pc ParseCommand
	pc.LogFiles = []string{logs[0].Path}
	pc.Merge = true

	got := performParse(t, &pc, logs)
	want := "POSIX,0,r9,POSIX_READS,9\n" +
		"STDIO,-1,r2,STDIO_WRITES,3\n"
	if got != want {
		t.Fatalf("Expected %q, got %q", want, got)
	}
}

func TestParseFieldSelection(t *testing.T) {
	_, logs := setup(t)
	var pc ParseCommand
	pc.LogFiles = []string{logs[0].Path}
	pc.Merge = true
	pc.Fmt = "csvnamed,counter,file,fs"

	got := performParse(t, &pc, logs)
	want := "counter=POSIX_READS,file=/a/f.dat,fs=ext4\n" +
		"counter=STDIO_WRITES,file=,fs=\n"
	if got != want {
		t.Fatalf("Expected %q, got %q", want, got)
	}
}

func TestParseAllAlias(t *testing.T) {
	p, logs := setup(t)
	var pc ParseCommand
	pc.LogFiles = []string{p}
	pc.Fmt = "all"

	got := performParse(t, &pc, logs)
	lines := strings.Split(strings.TrimRight(got, "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("Expected 3 rows, got %d", len(lines))
	}
	if !strings.HasPrefix(lines[0], p+",POSIX,0,r9,POSIX_READS,5,/a/f.dat,/a,ext4") {
		t.Fatalf("Bad first row %q", lines[0])
	}
}

func TestParseFormatHelp(t *testing.T) {
	var pc ParseCommand
	pc.Fmt = "help"
	h := pc.MaybeFormatHelp()
	if h == nil {
		t.Fatal("Expected format help")
	}
	if _, found := h.Helps["counter"]; !found {
		t.Fatal("Expected help for the counter field")
	}
	if h.Defaults != parseDefaultFields {
		t.Fatalf("Expected defaults %q, got %q", parseDefaultFields, h.Defaults)
	}
}
