package safe

import (
	"CookTalk/logger"
)

// Go starts a goroutine that recovers from panics, so a failing pump or
// handler never takes the whole gateway down.
func Go(f func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				logger.Errorf("[safe.Go] panic recovered: %v", r)
			}
		}()
		f()
	}()
}
