package common

import (
	"fmt"
	"io"
)

// Run thunk in an eternal loop, catching and logging any panic it raises.  This is the crash
// barrier for long-lived worker goroutines: a panic while handling one request must not take the
// worker down with it.  If printing the panic value itself panics we give up and re-panic with a
// recognizable tag.

func Forever(thunk func(), log io.Writer) {
	run := func() {
		defer func() {
			if msg := recover(); msg != nil {
				fmt.Fprintln(log, msg)
			}
		}()
		thunk()
	}
	defer func() {
		recover()
		panic("PANIC WHILE REPORTING PANIC; GIVING UP!")
	}()
	for {
		run()
	}
}
