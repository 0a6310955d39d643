package command

import (
	"testing"
)

func TestSourceArgsExplicitFiles(t *testing.T) {
	var s SourceArgs
	s.SetRestArguments([]string{"a//b.txt", "./c.txt"})
	if err := s.Validate(); err != nil {
		t.Fatal(err)
	}
	if s.LogFiles[0] != "a/b.txt" || s.LogFiles[1] != "c.txt" {
		t.Fatalf("Paths not cleaned: %v", s.LogFiles)
	}
	files, err := s.InputFiles()
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 2 || files[0] != "a/b.txt" {
		t.Fatalf("Bad input files %v", files)
	}
}

func TestSourceArgsDataDir(t *testing.T) {
	var s SourceArgs
	s.DataDir = "x/../y/"
	if err := s.Validate(); err != nil {
		t.Fatal(err)
	}
	if s.DataDir != "y" {
		t.Fatalf("Expected y, got %q", s.DataDir)
	}
}

func TestRepeatableString(t *testing.T) {
	var xs []string
	r := NewRepeatableString(&xs)
	if err := r.Set("POSIX"); err != nil {
		t.Fatal(err)
	}
	if err := r.Set("ST,DIO"); err != nil {
		t.Fatal(err)
	}
	// No comma splitting
	if len(xs) != 2 || xs[0] != "POSIX" || xs[1] != "ST,DIO" {
		t.Fatalf("Bad list %v", xs)
	}
	if r.String() != "POSIX,ST,DIO" {
		t.Fatalf("Bad String %q", r.String())
	}
}
