package utils

import (
	"context"
	"time"
)

// RunEvery ejecuta fn cada interval hasta que ctx se cancele.
// Con immediate=true también la ejecuta una vez al arrancar.
func RunEvery(ctx context.Context, interval time.Duration, immediate bool, fn func(ctx context.Context)) {
	if interval <= 0 {
		return
	}
	if immediate {
		fn(ctx)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fn(ctx)
		}
	}
}
