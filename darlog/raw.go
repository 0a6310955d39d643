// Raw row scanning, for consumers that want the counter lines as written rather than the
// demultiplexed record view: no interning, no value parsing, no last-write-wins collapsing.

package darlog

import (
	"bytes"
	"io"
	"os"
)

type RawRow struct {
	Module  string
	Record  string
	Counter string
	Value   string
	File    string
	MountPt string
	FsType  string
	Rank    int32
}

// ScanRawRows reads darshan-parser text and returns its data rows in file order.  Malformed rows
// are dropped and counted, as in ParseDarshanLog.
func ScanRawRows(input io.Reader) (rows []RawRow, softErrors int, err error) {
	data, err := io.ReadAll(input)
	if err != nil {
		return nil, 0, err
	}

	inHeader := true
	pos := 0
	for pos < len(data) {
		eol := pos
		for eol < len(data) && data[eol] != '\n' {
			eol++
		}
		line := bytes.TrimSpace(data[pos:eol])
		pos = eol + 1

		if inHeader {
			if bytes.Contains(line, descriptionMarker) {
				inHeader = false
			}
			continue
		}
		if len(line) == 0 || line[0] == '#' {
			continue
		}

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
			softErrors++
			continue
		}
		rank, ok := parseRank(fields[1])
		if !ok {
			softErrors++
			continue
		}
		row := RawRow{
			Module:  string(fields[0]),
			Rank:    rank,
			Record:  string(fields[2]),
			Counter: string(fields[3]),
			Value:   string(fields[4]),
		}
		if nfields >= 8 {
			row.File = string(fields[5])
			row.MountPt = string(fields[6])
			row.FsType = string(fields[7])
		}
		rows = append(rows, row)
	}
	return rows, softErrors, nil
}

// ReadRawRows scans the named file.
func ReadRawRows(path string) ([]RawRow, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()
	return ScanRawRows(f)
}
