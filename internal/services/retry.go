package services

import (
	"context"
	"fmt"
	"log"
	"time"
)

// retry executes f up to attempts times with exponential backoff.
// It stops early when ctx is done.
func retry(ctx context.Context, attempts int, sleep time.Duration, f func() error) error {
	var err error
	for i := 0; i < attempts; i++ {
		if err = f(); err == nil {
			return nil
		}
		if ctx.Err() != nil || i == attempts-1 {
			break
		}

		log.Printf("⚠️ Text generation attempt %d/%d failed: %v. Retrying in %v...", i+1, attempts, err, sleep)
		select {
		case <-ctx.Done():
			return fmt.Errorf("retry aborted: %w", ctx.Err())
		case <-time.After(sleep):
		}
		sleep *= 2
	}
	if attempts > 1 {
		return fmt.Errorf("failed after %d attempts: %w", attempts, err)
	}
	return err
}
