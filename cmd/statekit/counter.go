package main

import (
	"log/slog"

	"github.com/vango-dev/statekit/pkg/reactive"
)

// Counter is the demo service: a single observable count with lifecycle
// logging.
type Counter struct {
	Count  *reactive.Observable[int]
	logger *slog.Logger
}

func newCounter(tracker *reactive.Tracker, logger *slog.Logger) *Counter {
	return &Counter{
		Count:  reactive.NewObservable(tracker, 0),
		logger: logger,
	}
}

// Increment adds one to the count.
func (c *Counter) Increment() {
	c.Count.Update(func(n int) int { return n + 1 })
}

func (c *Counter) OnInit() {
	c.logger.Debug("counter initialized")
}

func (c *Counter) OnDispose() {
	c.Count.Dispose()
	c.logger.Debug("counter disposed", "count", c.Count.Peek())
}
