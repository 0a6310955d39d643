// Parser for darshan-parser text output.
//
// The format is not a single well-defined thing.  Here is what we're parsing:
//
//  - the input is UTF-8 / ASCII text, one log per file
//  - the file opens with a header of `#`-prefixed comment lines carrying job-level fields
//    ("# nprocs: 512") and the mount table ("# mount[0] = lustre://scratch")
//  - the header ends at a line containing the literal marker "description of columns:"
//  - after the marker, blank lines and `#` comments are discarded and every other line is a
//    tab-delimited data row: MODULE RANK RECORD_ID COUNTER VALUE, optionally followed by
//    FILE_PATH MOUNT_PT FS_TYPE (newer logs)
//  - rank is an integer, -1 meaning shared across all ranks
//  - values are almost always numeric but can be bracketed arrays or arbitrary text
//  - module sections can interleave; rows for one record need not be contiguous
//
// Malformed data rows (short rows, non-integer rank) are dropped and counted, never fatal: one
// bad line must not take down the file.  Header fields are each independently optional and a
// numeric field that fails to parse keeps its raw text.
//
// The whole file is read into memory and parsed in one pass; derivation happens in a second pass
// elsewhere, once every row has been demultiplexed.

package darlog

import (
	"bytes"
	"encoding/json"
	"io"
	"math"
	"regexp"
	"strconv"
	"strings"
)

var descriptionMarker = []byte("description of columns:")

// Header field patterns, one per field, first match wins.  These follow the shapes darshan has
// used across log versions; matching is case-insensitive and unanchored like the reference
// extraction.

var (
	jobIDRe      = regexp.MustCompile(`(?i)#\s*jobid:\s*(\S+)`)
	uidRe        = regexp.MustCompile(`(?i)#\s*uid:\s*(\d+)`)
	startTimeRe  = regexp.MustCompile(`(?i)#\s*start_time:\s*(\d+)`)
	startASCIRe  = regexp.MustCompile(`(?i)#\s*start_time_asci:\s*(.+)`)
	endTimeRe    = regexp.MustCompile(`(?i)#\s*end_time:\s*(\d+)`)
	endASCIRe    = regexp.MustCompile(`(?i)#\s*end_time_asci:\s*(.+)`)
	nprocsRe     = regexp.MustCompile(`(?i)#\s*nprocs:\s*(\d+)`)
	runTimeRe    = regexp.MustCompile(`(?i)#\s*run time:\s*([\d.]+)`)
	exeRe        = regexp.MustCompile(`(?i)#\s*exe:\s*(.+)`)
	versionRe    = regexp.MustCompile(`(?i)#\s*darshan log version:\s*(\S+)`)
	logVersionRe = regexp.MustCompile(`(?i)#\s*log_ver:\s*(\S+)`)

	mountTableRe = regexp.MustCompile(`(?i)#\s*mount\s+table:`)
	mountEntryRe = regexp.MustCompile(`^mount\[(\d+)\]\s*=\s*(\S+)://(\S+)`)
	headerKeyRe  = regexp.MustCompile(`^#\s*\w+:`)
)

// ParseDarshanLog reads the input fully, classifies lines, extracts the header and
// demultiplexes the data rows into per-(module,rank,record) counter maps.  path is carried
// through to the result for reporting only.
func ParseDarshanLog(path string, input io.Reader, syms SymAllocator) (*LogFile, error) {
	data, err := io.ReadAll(input)
	if err != nil {
		return nil, err
	}
	lf := &LogFile{
		Path:    path,
		Records: make(map[RecordKey]*Record),
	}

	inHeader := true
	inMounts := false
	pos := 0
	for pos < len(data) {
		eol := pos
		for eol < len(data) && data[eol] != '\n' {
			eol++
		}
		raw := data[pos:eol]
		pos = eol + 1

		line := bytes.TrimSpace(raw)

		if inHeader {
			if bytes.Contains(line, descriptionMarker) {
				inHeader = false
				continue
			}
			lf.Header.Lines = append(lf.Header.Lines, strings.TrimRight(string(raw), "\r"))
			inMounts = scanHeaderLine(string(line), &lf.Header, inMounts)
			continue
		}

		if len(line) == 0 || line[0] == '#' {
			continue
		}

		lf.parseDataRow(line, syms)
	}

	return lf, nil
}

// Extract header fields and mount entries from one header line.  The mount table is a bounded
// block: it starts at the "mount table:" marker and runs until the next "# <word>:" field line.
// Returns the updated in-mount-table state.
func scanHeaderLine(line string, h *Header, inMounts bool) bool {
	if mountTableRe.MatchString(line) {
		return true
	}
	if inMounts {
		entry := strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(line), "#"))
		if entry == "" {
			return true
		}
		if m := mountEntryRe.FindStringSubmatch(entry); m != nil {
			ix, err := strconv.Atoi(m[1])
			if err == nil {
				h.Mounts = append(h.Mounts, Mount{Index: ix, FsType: m[2], Path: m[3]})
			}
			return true
		}
		if !headerKeyRe.MatchString(line) {
			// Malformed mount entry, skip it without leaving the table
			return true
		}
		// A new header field ends the mount table; fall through to match it
	}

	switch {
	case h.JobID == "" && jobIDRe.MatchString(line):
		h.JobID = jobIDRe.FindStringSubmatch(line)[1]
	case h.UID == "" && uidRe.MatchString(line):
		h.UID = uidRe.FindStringSubmatch(line)[1]
	case !h.StartTime.Present() && startTimeRe.MatchString(line):
		h.StartTime = intScalar(startTimeRe.FindStringSubmatch(line)[1])
	case h.StartASCI == "" && startASCIRe.MatchString(line):
		h.StartASCI = strings.TrimSpace(startASCIRe.FindStringSubmatch(line)[1])
	case !h.EndTime.Present() && endTimeRe.MatchString(line):
		h.EndTime = intScalar(endTimeRe.FindStringSubmatch(line)[1])
	case h.EndASCI == "" && endASCIRe.MatchString(line):
		h.EndASCI = strings.TrimSpace(endASCIRe.FindStringSubmatch(line)[1])
	case !h.Nprocs.Present() && nprocsRe.MatchString(line):
		h.Nprocs = intScalar(nprocsRe.FindStringSubmatch(line)[1])
	case !h.RunTime.Present() && runTimeRe.MatchString(line):
		h.RunTime = floatScalar(runTimeRe.FindStringSubmatch(line)[1])
	case h.Exe == "" && exeRe.MatchString(line):
		h.Exe = strings.TrimSpace(exeRe.FindStringSubmatch(line)[1])
	case h.Version == "" && versionRe.MatchString(line):
		h.Version = versionRe.FindStringSubmatch(line)[1]
	case h.LogVersion == "" && logVersionRe.MatchString(line):
		h.LogVersion = logVersionRe.FindStringSubmatch(line)[1]
	}
	return false
}

func intScalar(raw string) Scalar {
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return Scalar{Raw: raw}
	}
	return Scalar{Raw: raw, Num: float64(n), IsNum: true}
}

func floatScalar(raw string) Scalar {
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return Scalar{Raw: raw}
	}
	return Scalar{Raw: raw, Num: f, IsNum: true}
}

// Demultiplex one tab-delimited data row into its record's counter map.  The row has been
// trimmed.  Short rows and rows with a non-integer rank are counted as soft errors.
func (lf *LogFile) parseDataRow(line []byte, syms SymAllocator) {
	var fields [8][]byte
	nfields := 0
	start := 0
	for i := 0; i <= len(line); i++ {
		if i == len(line) || line[i] == '\t' {
			if nfields < len(fields) {
				fields[nfields] = line[start:i]
				nfields++
			}
			start = i + 1
		}
	}

	if nfields < 5 {
		lf.SoftErrors++
		return
	}

	rank, ok := parseRank(fields[1])
	if !ok {
		lf.SoftErrors++
		return
	}

	key := RecordKey{
		Module: syms.AllocBytes(fields[0]),
		Record: syms.AllocBytes(fields[2]),
		Rank:   rank,
	}
	rec := lf.Records[key]
	if rec == nil {
		rec = &Record{
			Key:      key,
			Counters: make(map[Sym]CounterValue),
		}
		lf.Records[key] = rec
	}

	if nfields >= 8 && !rec.metaSet {
		rec.File = string(fields[5])
		rec.MountPt = string(fields[6])
		rec.FsType = string(fields[7])
		rec.metaSet = true
	}

	rec.Counters[syms.AllocBytes(fields[3])] = parseCounterValue(fields[4])
}

func parseRank(bs []byte) (int32, bool) {
	if len(bs) == 0 {
		return 0, false
	}
	neg := false
	i := 0
	if bs[0] == '-' {
		neg = true
		i++
	}
	if i == len(bs) {
		return 0, false
	}
	var n int64
	for ; i < len(bs); i++ {
		c := bs[i]
		if c < '0' || c > '9' {
			return 0, false
		}
		n = n*10 + int64(c-'0')
		if n > math.MaxInt32 {
			return 0, false
		}
	}
	if neg {
		n = -n
	}
	return int32(n), true
}

// Parse the value field.  Plain integers take the fast path and keep their intness for faithful
// reformatting; fractions, exponents and big values go through the library parser; bracketed
// arrays are decoded as JSON; everything else is kept as verbatim text.  Inf and NaN are refused
// so they can never leak into derived arithmetic.
func parseCounterValue(bs []byte) CounterValue {
	if f, integral, ok := parseNumber(bs); ok {
		if integral {
			return CounterValue{Kind: KindInt, Num: f}
		}
		return CounterValue{Kind: KindFloat, Num: f}
	}
	if len(bs) > 0 && bs[0] == '[' {
		var arr []float64
		if json.Unmarshal(bs, &arr) == nil {
			return CounterValue{Kind: KindArray, Str: string(bs), Arr: arr}
		}
	}
	return CounterValue{Kind: KindString, Str: string(bs)}
}

func parseNumber(bs []byte) (f float64, integral bool, ok bool) {
	if len(bs) == 0 {
		return 0, false, false
	}
	i := 0
	neg := false
	switch bs[0] {
	case '-':
		neg = true
		i++
	case '+':
		i++
	}
	if i == len(bs) {
		return 0, false, false
	}
	var n uint64
	simple := true
	for ; i < len(bs); i++ {
		c := bs[i]
		if c < '0' || c > '9' {
			simple = false
			break
		}
		m := n*10 + uint64(c-'0')
		if m < n || m > math.MaxInt64 {
			simple = false
			break
		}
		n = m
	}
	if simple {
		f = float64(n)
		if neg {
			f = -f
		}
		return f, true, true
	}
	// Fraction, exponent or a huge value: punt to the library parser.
	f, err := strconv.ParseFloat(string(bs), 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, false, false
	}
	return f, false, true
}
