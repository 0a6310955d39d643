package signal

import "testing"

func TestValueZero(t *testing.T) {
	var v Value
	if v.IsNA() {
		t.Fatal("Zero Value should be a number")
	}
	f, ok := v.Float()
	if !ok || f != 0 {
		t.Fatalf("Expected 0, got %v", f)
	}
	if v.String() != "0" {
		t.Fatalf("Expected \"0\", got %q", v.String())
	}
}

func TestValueRendering(t *testing.T) {
	if Num(1048576).String() != "1048576" {
		t.Fatalf("Expected 1048576, got %s", Num(1048576))
	}
	if Num(0.5).String() != "0.5" {
		t.Fatalf("Expected 0.5, got %s", Num(0.5))
	}
	if Num(-3).String() != "-3" {
		t.Fatalf("Expected -3, got %s", Num(-3))
	}
	if NA(NoReads).String() != "NA(no_reads)" {
		t.Fatalf("Expected NA(no_reads), got %s", NA(NoReads))
	}
	if NA(NotSharedFile).String() != "NA(not_shared_file)" {
		t.Fatalf("Expected NA(not_shared_file), got %s", NA(NotSharedFile))
	}
}

func TestReasonNames(t *testing.T) {
	for r := NoReadTime; r <= DivByZero; r++ {
		if r.String() == "" {
			t.Fatalf("Reason %d has no name", r)
		}
	}
}

func TestDiv(t *testing.T) {
	v := Div(6, 2, DivByZero)
	f, ok := v.Float()
	if !ok || f != 3 {
		t.Fatalf("Expected 3, got %s", v)
	}
	v = Div(1, 0, NoReads)
	if !v.IsNA() || v.Reason() != NoReads {
		t.Fatalf("Expected NA(no_reads), got %s", v)
	}
	// Negative denominators divide normally.
	v = Div(1, -2, NoReads)
	f, ok = v.Float()
	if !ok || f != -0.5 {
		t.Fatalf("Expected -0.5, got %s", v)
	}
}
