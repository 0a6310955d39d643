package command

import (
	"bytes"
	"reflect"
	"strconv"
	"testing"
)

type testRow struct {
	name string
	n    int
}

// MT: Constant after initialization; immutable
var testFormatters = map[string]Formatter[testRow, bool]{
	"name": {
		func(d testRow, _ bool) string { return d.name },
		"The name",
	},
	"n": {
		func(d testRow, nodefaults bool) string {
			if nodefaults && d.n == 0 {
				return "*skip*"
			}
			return strconv.Itoa(d.n)
		},
		"The count",
	},
}

// MT: Constant after initialization; immutable
var testAliases = map[string][]string{
	"all": {"name", "n"},
}

var testData = []testRow{{"x", 1}, {"longer", 0}}

func TestParseFormatSpec(t *testing.T) {
	fields, others, err := ParseFormatSpec("name", "all,json", testFormatters, testAliases)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(fields, []string{"name", "n"}) {
		t.Fatalf("Bad fields %v", fields)
	}
	if !others["json"] || len(others) != 1 {
		t.Fatalf("Bad others %v", others)
	}

	// Empty spec falls back to the defaults
	fields, others, err = ParseFormatSpec("n", "", testFormatters, testAliases)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(fields, []string{"n"}) {
		t.Fatalf("Bad fields %v", fields)
	}
	if len(others) != 0 {
		t.Fatalf("Bad others %v", others)
	}

	// "help" gives the defaults plus the help marker
	fields, others, _ = ParseFormatSpec("n", "help", testFormatters, testAliases)
	if !reflect.DeepEqual(fields, []string{"n"}) || !others["help"] {
		t.Fatalf("Bad help parse %v %v", fields, others)
	}
}

func TestStandardFormatOptions(t *testing.T) {
	opts := StandardFormatOptions(map[string]bool{"csvnamed": true}, DefaultFixed)
	if !opts.Csv || !opts.Named || opts.Fixed || opts.Header {
		t.Fatalf("Bad options %+v", opts)
	}
	opts = StandardFormatOptions(map[string]bool{}, DefaultFixed)
	if !opts.Fixed || !opts.Header {
		t.Fatalf("Bad options %+v", opts)
	}
	opts = StandardFormatOptions(map[string]bool{"noheader": true}, DefaultFixed)
	if !opts.Fixed || opts.Header {
		t.Fatalf("Bad options %+v", opts)
	}
	opts = StandardFormatOptions(map[string]bool{"csv": true, "header": true}, DefaultFixed)
	if !opts.Csv || !opts.Header {
		t.Fatalf("Bad options %+v", opts)
	}
	opts = StandardFormatOptions(map[string]bool{"json": true, "tag:cluster9": true}, DefaultCsv)
	if !opts.Json || opts.Csv || opts.Tag != "cluster9" {
		t.Fatalf("Bad options %+v", opts)
	}
}

func TestFormatFixed(t *testing.T) {
	var buf bytes.Buffer
	opts := StandardFormatOptions(map[string]bool{}, DefaultFixed)
	FormatData(&buf, []string{"name", "n"}, testFormatters, opts, testData, false)
	expect := "name    n\nx       1\nlonger  0\n"
	if buf.String() != expect {
		t.Fatalf("Expected %q, got %q", expect, buf.String())
	}
}

func TestFormatCsv(t *testing.T) {
	var buf bytes.Buffer
	opts := StandardFormatOptions(map[string]bool{"csv": true}, DefaultFixed)
	FormatData(&buf, []string{"name", "n"}, testFormatters, opts, testData, false)
	expect := "x,1\nlonger,0\n"
	if buf.String() != expect {
		t.Fatalf("Expected %q, got %q", expect, buf.String())
	}
}

func TestFormatCsvNamed(t *testing.T) {
	var buf bytes.Buffer
	opts := StandardFormatOptions(map[string]bool{"csvnamed": true}, DefaultFixed)
	FormatData(&buf, []string{"name", "n"}, testFormatters, opts, testData, false)
	expect := "name=x,n=1\nname=longer,n=0\n"
	if buf.String() != expect {
		t.Fatalf("Expected %q, got %q", expect, buf.String())
	}
}

func TestFormatCsvNoDefaults(t *testing.T) {
	var buf bytes.Buffer
	opts := StandardFormatOptions(map[string]bool{"csv": true, "nodefaults": true}, DefaultFixed)
	FormatData(&buf, []string{"name", "n"}, testFormatters, opts, testData, true)
	expect := "x,1\nlonger\n"
	if buf.String() != expect {
		t.Fatalf("Expected %q, got %q", expect, buf.String())
	}
}

func TestFormatJson(t *testing.T) {
	var buf bytes.Buffer
	opts := StandardFormatOptions(map[string]bool{"json": true}, DefaultFixed)
	FormatData(&buf, []string{"name", "n"}, testFormatters, opts, testData, false)
	expect := `[{"name":"x","n":"1"},{"name":"longer","n":"0"}]`
	if buf.String() != expect {
		t.Fatalf("Expected %q, got %q", expect, buf.String())
	}
}

func TestFormatAwk(t *testing.T) {
	var buf bytes.Buffer
	opts := StandardFormatOptions(map[string]bool{"awk": true}, DefaultFixed)
	FormatData(&buf, []string{"name", "n"}, testFormatters, opts,
		[]testRow{{"has space", 3}}, false)
	expect := "has_space 3\n"
	if buf.String() != expect {
		t.Fatalf("Expected %q, got %q", expect, buf.String())
	}
}

func TestQuoteJson(t *testing.T) {
	if s := QuoteJson("plain"); s != "plain" {
		t.Fatalf("Expected plain, got %q", s)
	}
	if s := QuoteJson(`he"llo`); s != `he\"llo` {
		t.Fatalf("Bad quoting %q", s)
	}
	if s := QuoteJson("a\tb"); s != "a b" {
		t.Fatalf("Bad control char handling %q", s)
	}
}
