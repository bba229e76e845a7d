// Package goroutine provides panic recovery for background work.
package goroutine

import (
	"fmt"
	"runtime/debug"

	"github.com/orris-inc/trafficstat/internal/shared/logger"
)

// RunSafe executes fn synchronously and converts a panic into an error.
func RunSafe(log logger.Interface, name string, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Errorw("job panicked",
				"job", name,
				"panic", fmt.Sprintf("%v", r),
				"stack", string(debug.Stack()),
			)
			err = fmt.Errorf("%s panicked: %v", name, r)
		}
	}()
	return fn()
}
