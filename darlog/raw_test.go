package darlog

import (
	"strings"
	"testing"
)

func TestScanRawRows(t *testing.T) {
	text := "# jobid: 7\n" +
		"# description of columns:\n" +
		"POSIX\t0\tr1\tPOSIX_READS\t5\t/a\t/\text4\n" +
		"POSIX\t0\tr1\tPOSIX_READS\t9\n" +
		"# a comment\n" +
		"\n" +
		"short\trow\n" +
		"STDIO\t-1\tr2\tSTDIO_WRITES\t[1, 2]\n"
	rows, soft, err := ScanRawRows(strings.NewReader(text))
	if err != nil {
		t.Fatal(err)
	}
	if soft != 1 {
		t.Fatalf("Expected 1 soft error, got %d", soft)
	}
	if len(rows) != 3 {
		t.Fatalf("Expected 3 rows, got %d", len(rows))
	}
	if rows[0].Counter != "POSIX_READS" || rows[0].Value != "5" || rows[0].FsType != "ext4" {
		t.Fatalf("Bad first row %+v", rows[0])
	}
	// Duplicates survive in the raw view
	if rows[1].Value != "9" || rows[1].File != "" {
		t.Fatalf("Bad second row %+v", rows[1])
	}
	if rows[2].Rank != SharedRank || rows[2].Value != "[1, 2]" {
		t.Fatalf("Bad third row %+v", rows[2])
	}
}
