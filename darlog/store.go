// Concurrent parsing of sets of log files.
//
// Files are independent of each other: each parse builds a file-local record map and shares
// nothing mutable, so cross-file parallelism needs no locks.  A fixed pool of workers owns the
// parsing; callers push file names at the pool and collect results as they become ready, in
// arbitrary order.

package darlog

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"darsig/common"
)

type parseRequest struct {
	path    string
	results chan parseResult
}

type parseResult struct {
	path string
	lf   *LogFile
	err  error
}

// MT: Constant after initialization; thread-safe
var parseRequests = make(chan parseRequest, 100)

// Fork off the shared parser workers.  NumCPU is a decent default for this workload: the parse
// is CPU-bound once the file is in memory, with some early blocking on the Sym table.  Each
// worker gets its own SymCache so the global table is mostly left alone after warmup.

func init() {
	workers := runtime.NumCPU()
	for i := 0; i < workers; i++ {
		uf := NewSymCache()
		go common.Forever(
			func() {
				for {
					request := <-parseRequests
					var result parseResult
					result.path = request.path
					result.lf, result.err = parseOne(request.path, uf)
					request.results <- result
				}
			},
			os.Stderr,
		)
	}
}

func parseOne(path string, syms SymAllocator) (*LogFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ParseDarshanLog(path, f, syms)
}

// ProcessFiles parses the named files on the shared worker pool and hands each outcome to
// consume as it arrives, in arbitrary order.  consume runs on the calling goroutine, so it needs
// no synchronization of its own.  A failed file is reported to consume with lf == nil; it never
// aborts the batch.
func ProcessFiles(files []string, consume func(path string, lf *LogFile, err error)) {
	results := make(chan parseResult, 100)

	toSend := 0
	toReceive := len(files)
	for toSend < len(files) && toReceive > 0 {
		select {
		case parseRequests <- parseRequest{path: files[toSend], results: results}:
			toSend++
		case res := <-results:
			consume(res.path, res.lf, res.err)
			toReceive--
		}
	}
	for toReceive > 0 {
		res := <-results
		consume(res.path, res.lf, res.err)
		toReceive--
	}
}

// ParseFiles parses the named files on the shared worker pool and returns the parsed logs in
// arbitrary order, along with the total number of soft errors.  Unlike ProcessFiles this fails
// wholesale: err is non-nil if any file could not be read, and then carries information about
// every file that failed.
func ParseFiles(files []string, verbose bool) (logs []*LogFile, softErrors int, err error) {
	if verbose {
		common.Log.Infof("%d files", len(files))
	}

	logs = make([]*LogFile, 0, len(files))
	bad := ""
	ProcessFiles(files, func(path string, lf *LogFile, e error) {
		if e != nil {
			bad += "  " + path + ": " + e.Error() + "\n"
			return
		}
		logs = append(logs, lf)
		softErrors += lf.SoftErrors
	})

	if bad != "" {
		return nil, 0, fmt.Errorf("Failed to process one or more files:\n%s", bad)
	}
	return
}

// EnumerateLogFiles walks the directory tree rooted at dir and returns the paths of the .txt
// files in it, lexical order, skipping derived signal files from earlier runs.
func EnumerateLogFiles(dir string) ([]string, error) {
	files := make([]string, 0)
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		name := d.Name()
		if !strings.HasSuffix(name, ".txt") || strings.Contains(name, "_signals") {
			return nil
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}
