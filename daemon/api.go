// The HTTP API.  Routes are registered through huma so the service carries an OpenAPI
// description at /openapi.json for free; the handlers themselves are plain functions from
// request structs to response structs and the tests call them directly.

package daemon

import (
	"bytes"
	"context"
	"fmt"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"

	. "darsig/common"
	"darsig/darlog"
	"darsig/signal"
)

func (dc *DaemonCommand) newAPIHandler() http.Handler {
	mux := http.NewServeMux()
	api := humago.New(mux, huma.DefaultConfig("darsig", DarsigVersion))
	huma.Register(api, huma.Operation{
		OperationID: "extract-signals",
		Method:      http.MethodPost,
		Path:        "/api/extract",
		Summary:     "Derive I/O signals from darshan-parser text",
	}, dc.handleExtract)
	huma.Register(api, huma.Operation{
		OperationID: "health",
		Method:      http.MethodGet,
		Path:        "/api/health",
		Summary:     "Liveness and processing counts",
	}, dc.handleHealth)
	if dc.authenticator == nil {
		return mux
	}
	return dc.requireAuth(mux)
}

// The health endpoint stays open so that liveness probes work without credentials.

func (dc *DaemonCommand) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/health" {
			next.ServeHTTP(w, r)
			return
		}
		user, pass, ok := r.BasicAuth()
		if !ok || !dc.authenticator.authenticate(user, pass) {
			w.Header().Add("WWW-Authenticate", "Basic realm=\""+authRealm+"\", charset=\"utf-8\"")
			w.WriteHeader(401)
			fmt.Fprintf(w, "Unauthorized")
			if dc.Verbose {
				Log.Warningf("Authorization failed for %s", r.RemoteAddr)
			}
			return
		}
		next.ServeHTTP(w, r)
	})
}

type extractRequest struct {
	RawBody []byte `contentType:"text/plain"`
}

type extractResponse struct {
	Body treePayload
}

func (dc *DaemonCommand) handleExtract(_ context.Context, in *extractRequest) (*extractResponse, error) {
	lf, err := darlog.ParseDarshanLog("<request>", bytes.NewReader(in.RawBody), darlog.NewSymFacade())
	if err != nil {
		dc.stats.failed.Add(1)
		return nil, huma.Error400BadRequest("Cannot parse log text", err)
	}
	if lf.SoftErrors > 0 {
		Log.Warningf("%d soft errors in uploaded log", lf.SoftErrors)
	}
	tree := signal.Derive(lf, signal.Options{})
	dc.stats.processed.Add(1)
	return &extractResponse{Body: newTreePayload(tree)}, nil
}

type healthResponse struct {
	Body healthPayload
}

type healthPayload struct {
	Status    string `json:"status"`
	Processed uint64 `json:"processed"`
	Failed    uint64 `json:"failed"`
}

func (dc *DaemonCommand) handleHealth(_ context.Context, _ *struct{}) (*healthResponse, error) {
	return &healthResponse{
		Body: healthPayload{
			Status:    "up",
			Processed: dc.stats.processed.Load(),
			Failed:    dc.stats.failed.Load(),
		},
	}, nil
}

// JSON rendering of the signal tree.  Signal values are one-field objects, {"value": n} for
// numbers and {"na": reason} for absent ones, so clients never confuse a reason string with a
// measurement.

type treePayload struct {
	Header     headerPayload   `json:"header"`
	Job        jobPayload      `json:"job"`
	Modules    []modulePayload `json:"modules"`
	SoftErrors int             `json:"soft_errors"`
}

type headerPayload struct {
	JobID      string   `json:"jobid,omitempty"`
	UID        string   `json:"uid,omitempty"`
	Nprocs     string   `json:"nprocs,omitempty"`
	RunTime    string   `json:"run_time,omitempty"`
	StartTime  string   `json:"start_time,omitempty"`
	EndTime    string   `json:"end_time,omitempty"`
	Exe        string   `json:"exe,omitempty"`
	Version    string   `json:"darshan_version,omitempty"`
	LogVersion string   `json:"log_version,omitempty"`
	Mounts     []string `json:"mounts,omitempty"`
}

type jobPayload struct {
	TotalBytesRead    float64 `json:"total_bytes_read"`
	TotalBytesWritten float64 `json:"total_bytes_written"`
	TotalReads        float64 `json:"total_reads"`
	TotalWrites       float64 `json:"total_writes"`
}

type modulePayload struct {
	Module      string                   `json:"module"`
	Aggregate   *aggregatePayload        `json:"aggregate,omitempty"`
	Performance map[string]signalPayload `json:"performance,omitempty"`
	Records     []recordPayload          `json:"records"`
}

type aggregatePayload struct {
	TotalBytesRead    float64 `json:"total_bytes_read"`
	TotalBytesWritten float64 `json:"total_bytes_written"`
	TotalReads        float64 `json:"total_reads"`
	TotalWrites       float64 `json:"total_writes"`
	TotalReadTime     float64 `json:"total_read_time"`
	TotalWriteTime    float64 `json:"total_write_time"`
}

type recordPayload struct {
	Rank    int32                    `json:"rank"`
	Record  string                   `json:"record"`
	File    string                   `json:"file,omitempty"`
	Mount   string                   `json:"mount,omitempty"`
	Fs      string                   `json:"fs,omitempty"`
	Signals map[string]signalPayload `json:"signals"`
}

type signalPayload struct {
	Value *float64 `json:"value,omitempty"`
	NA    string   `json:"na,omitempty"`
}

func newSignalPayload(v signal.Value) signalPayload {
	if f, ok := v.Float(); ok {
		return signalPayload{Value: &f}
	}
	return signalPayload{NA: v.Reason().String()}
}

func newTreePayload(tree *signal.Tree) treePayload {
	h := &tree.Log.Header
	hdr := headerPayload{
		JobID:      h.JobID,
		UID:        h.UID,
		Nprocs:     h.Nprocs.Raw,
		RunTime:    h.RunTime.Raw,
		StartTime:  h.StartTime.Raw,
		EndTime:    h.EndTime.Raw,
		Exe:        h.Exe,
		Version:    h.Version,
		LogVersion: h.LogVersion,
	}
	for _, m := range h.Mounts {
		hdr.Mounts = append(hdr.Mounts, m.FsType+"://"+m.Path)
	}

	modules := make([]modulePayload, 0, len(tree.Modules))
	for _, ms := range tree.Modules {
		mp := modulePayload{
			Module:  ms.Name,
			Records: make([]recordPayload, 0, len(ms.Records)),
		}
		if !ms.Heatmap {
			mp.Aggregate = &aggregatePayload{
				TotalBytesRead:    ms.Agg.BytesRead,
				TotalBytesWritten: ms.Agg.BytesWritten,
				TotalReads:        ms.Agg.Reads,
				TotalWrites:       ms.Agg.Writes,
				TotalReadTime:     ms.Agg.ReadTime,
				TotalWriteTime:    ms.Agg.WriteTime,
			}
			mp.Performance = map[string]signalPayload{
				"read_bw":        newSignalPayload(ms.Perf.ReadBW),
				"write_bw":       newSignalPayload(ms.Perf.WriteBW),
				"read_iops":      newSignalPayload(ms.Perf.ReadIOPS),
				"write_iops":     newSignalPayload(ms.Perf.WriteIOPS),
				"avg_read_size":  newSignalPayload(ms.Perf.AvgReadSize),
				"avg_write_size": newSignalPayload(ms.Perf.AvgWriteSize),
			}
		}
		for _, rs := range ms.Records {
			rp := recordPayload{
				Rank:    rs.Rank,
				Record:  rs.Record,
				File:    rs.File,
				Mount:   rs.MountPt,
				Fs:      rs.FsType,
				Signals: make(map[string]signalPayload, len(rs.Values)),
			}
			for name, v := range rs.Values {
				rp.Signals[name] = newSignalPayload(v)
			}
			mp.Records = append(mp.Records, rp)
		}
		modules = append(modules, mp)
	}

	return treePayload{
		Header: hdr,
		Job: jobPayload{
			TotalBytesRead:    tree.Job.BytesRead,
			TotalBytesWritten: tree.Job.BytesWritten,
			TotalReads:        tree.Job.Reads,
			TotalWrites:       tree.Job.Writes,
		},
		Modules:    modules,
		SoftErrors: tree.Log.SoftErrors,
	}
}
