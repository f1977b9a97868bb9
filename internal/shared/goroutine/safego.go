// Package goroutine launches goroutines that log panics instead of crashing the process.
package goroutine

import (
	"fmt"
	"runtime/debug"
	"sync"

	"github.com/fitdesk/accessgate/internal/shared/logger"
)

// SafeGo runs fn in a new goroutine and recovers any panic it raises.
func SafeGo(log logger.Interface, name string, fn func()) {
	go run(log, name, fn)
}

// SafeGoWG is SafeGo tied to a WaitGroup; Done is called even when fn panics.
func SafeGoWG(log logger.Interface, name string, wg *sync.WaitGroup, fn func()) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		run(log, name, fn)
	}()
}

func run(log logger.Interface, name string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			log.Errorw("goroutine panicked",
				"goroutine", name,
				"panic", fmt.Sprintf("%v", r),
				"stack", string(debug.Stack()),
			)
		}
	}()
	fn()
}
