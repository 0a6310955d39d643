// A thin wrapper around http.Server with orderly shutdown.

package daemon

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"time"

	. "darsig/common"
)

const serverShutdownTimeoutSec = 10

type server struct {
	verbose bool
	port    uint
	failed  func(error)
	stopped chan bool
	srv     *http.Server
}

// Create a server for `handler` that will be listening on `port`.  It will call `failed` if the
// server returns a failure code.  The server is not started by this.

func newServer(verbose bool, port uint, handler http.Handler, failed func(error)) *server {
	return &server{
		verbose: verbose,
		port:    port,
		failed:  failed,
		stopped: make(chan bool),
		srv:     &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: handler},
	}
}

// Start the server.  This blocks the current goroutine until the server exits, so typical usage
// would be `go s.start()`.  To force the server to shut down, call s.stop().

func (s *server) start() {
	if s.verbose {
		Log.Infof("Listening on port %d", s.port)
	}
	err := s.srv.ListenAndServe()
	if err != nil {
		if err != http.ErrServerClosed {
			Log.Error(err.Error())
			Log.Error("SERVER NOT RUNNING")
			if s.failed != nil {
				s.failed(err)
			}
		} else {
			Log.Info(err.Error())
		}
	}
	s.stopped <- true
}

// Cause the server to shut down and stop.

func (s *server) stop() {
	ctx, cancel := context.WithTimeout(context.Background(), serverShutdownTimeoutSec*time.Second)
	defer cancel()
	if err := s.srv.Shutdown(ctx); err != nil {
		Log.Warning(err.Error())
	}
	<-s.stopped
}

func waitForSignal(signals ...os.Signal) {
	stopSignal := make(chan os.Signal, 1)
	signal.Notify(stopSignal, signals...)
	<-stopSignal
}
