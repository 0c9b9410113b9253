// Package jobs holds background work scheduled with robfig/cron.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/lalith-99/safebytes/internal/repository"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// ThreadReconciler marks a parent message "replied" wherever a reply for
// it exists but the parent status says otherwise. Running it is always
// safe: a consistent thread is left untouched.
type ThreadReconciler struct {
	store   repository.ThreadReconciler
	logger  *zap.Logger
	timeout time.Duration
}

func NewThreadReconciler(store repository.ThreadReconciler, logger *zap.Logger) *ThreadReconciler {
	return &ThreadReconciler{store: store, logger: logger, timeout: time.Minute}
}

// Result counts threads fixed by one run.
type Result struct {
	ContactThreads    int64
	RestaurantThreads int64
}

// RunOnce reconciles both thread families. It stops at the first error;
// whatever was fixed before it stays fixed.
func (r *ThreadReconciler) RunOnce(ctx context.Context) (Result, error) {
	var res Result

	n, err := r.store.ReconcileContactThreads(ctx)
	if err != nil {
		return res, fmt.Errorf("reconcile contact threads: %w", err)
	}
	res.ContactThreads = n

	n, err = r.store.ReconcileRestaurantThreads(ctx)
	if err != nil {
		return res, fmt.Errorf("reconcile restaurant threads: %w", err)
	}
	res.RestaurantThreads = n

	return res, nil
}

// run is the cron entry point.
func (r *ThreadReconciler) run() {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	res, err := r.RunOnce(ctx)
	if err != nil {
		r.logger.Error("thread reconcile failed", zap.Error(err))
		return
	}
	if res.ContactThreads > 0 || res.RestaurantThreads > 0 {
		r.logger.Warn("thread reconcile repaired parents",
			zap.Int64("contact_threads", res.ContactThreads),
			zap.Int64("restaurant_threads", res.RestaurantThreads),
		)
	}
}

// Schedule registers the reconciler on a new cron scheduler and starts
// it. The caller stops it with Stop() on shutdown. Overlapping runs are
// skipped rather than queued.
func (r *ThreadReconciler) Schedule(spec string) (*cron.Cron, error) {
	c := cron.New(cron.WithChain(
		cron.Recover(cron.DefaultLogger),
		cron.SkipIfStillRunning(cron.DefaultLogger),
	))
	if _, err := c.AddFunc(spec, r.run); err != nil {
		return nil, fmt.Errorf("schedule reconciler %q: %w", spec, err)
	}
	c.Start()
	r.logger.Info("thread reconciler scheduled", zap.String("schedule", spec))
	return c, nil
}
