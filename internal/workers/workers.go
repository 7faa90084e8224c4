package workers

import (
	"context"
	"log"
	"time"
)

const runTimeout = 10 * time.Minute

// StartDaily runs fn once a day at the given wall-clock time in loc,
// in a background goroutine. The scheduler does not try to guarantee
// exactly-once; the jobs themselves are safe to re-run within a day.
func StartDaily(name string, hour, min int, loc *time.Location, fn func(ctx context.Context)) {
	go func() {
		for {
			next := nextRun(time.Now().In(loc), hour, min)
			log.Printf("Worker %s: next run at %s", name, next.Format(time.RFC3339))
			time.Sleep(time.Until(next))

			ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
			run(ctx, name, fn)
			cancel()
		}
	}()
}

func run(ctx context.Context, name string, fn func(ctx context.Context)) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Worker %s: recovered from panic: %v", name, r)
		}
	}()

	start := time.Now()
	fn(ctx)
	log.Printf("Worker %s: run finished in %s", name, time.Since(start))
}

// nextRun returns the next occurrence of hour:min strictly after now,
// in now's location.
func nextRun(now time.Time, hour, min int) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, min, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}
