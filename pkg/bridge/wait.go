package bridge

import (
	"context"
	"time"
)

// DefaultWaitInterval is the polling interval used by WaitForState when
// interval is not positive.
const DefaultWaitInterval = 3 * time.Second

// WaitForState polls CheckPackageInstalled until it reports installed or
// ctx is done.
func (a *App) WaitForState(ctx context.Context, name string, installed bool, interval time.Duration) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	if interval <= 0 {
		interval = DefaultWaitInterval
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if a.CheckPackageInstalled(name) == installed {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
