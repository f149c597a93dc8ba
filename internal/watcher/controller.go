package watcher

import (
	"context"
	"sync"
	"time"
)

// watchEntry is the per-worktree runtime state. Entries are created and
// destroyed only by reconciliation (and Dispose); all fields are guarded by
// the controller mutex.
type watchEntry struct {
	path         string
	cancelWatch  func()        // nil when the fs watch could not be started
	deferred     *time.Timer   // nil when no deferred poll is scheduled
	stopPeriodic chan struct{} // nil when periodic polling is disabled
	lastPoll     time.Time
	polling      bool
	queued       bool            // a trigger arrived while a poll was in flight
	queuedForce  bool            // the queued trigger bypasses the throttle
	waiters      []chan struct{} // closed when the entry's pipeline goes quiescent
}

// Options configures a Controller.
type Options struct {
	// Throttle is the minimum spacing between event-triggered polls for one
	// worktree.
	Throttle time.Duration
	// Interval is the periodic fallback polling cadence; 0 disables it.
	Interval time.Duration
	// Logf receives debug output.
	Logf func(string, ...any)
}

// Controller owns the watch entries and reconciles them against the
// registry. At most one status poll is in flight per worktree.
type Controller struct {
	registry ResourceRegistry
	provider StatusProvider
	source   WatchSource
	sink     StatusSink
	throttle time.Duration
	interval time.Duration
	logf     func(string, ...any)
	now      func() time.Time

	mu        sync.Mutex
	entries   map[string]*watchEntry
	ctx       context.Context
	cancelSub func()
	disposed  bool
}

// New creates a Controller. Call Start to begin watching.
func New(registry ResourceRegistry, provider StatusProvider, source WatchSource, sink StatusSink, opts Options) *Controller {
	return &Controller{
		registry: registry,
		provider: provider,
		source:   source,
		sink:     sink,
		throttle: opts.Throttle,
		interval: opts.Interval,
		logf:     opts.Logf,
		now:      time.Now,
		entries:  make(map[string]*watchEntry),
	}
}

// Start subscribes to registry changes and runs the first reconciliation.
// ctx is used for all status queries; cancelling it does not abort in-flight
// polls' write-back guard, only the underlying commands.
func (c *Controller) Start(ctx context.Context) {
	c.mu.Lock()
	if c.disposed || c.cancelSub != nil {
		c.mu.Unlock()
		return
	}
	c.ctx = ctx
	c.cancelSub = c.registry.Subscribe(c.Reconcile)
	c.mu.Unlock()

	c.Reconcile()
}

// Reconcile aligns the watch entries with the registry's worktree set.
// Removals process before additions; unchanged worktrees are untouched.
func (c *Controller) Reconcile() {
	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		return
	}
	ctx := c.ctx
	c.mu.Unlock()
	if ctx == nil {
		ctx = context.Background()
	}

	desired, err := c.registry.Resources(ctx)
	if err != nil {
		c.debugf("reconcile: registry read failed: %v", err)
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.disposed {
		return
	}

	want := make(map[string]struct{}, len(desired))
	for _, path := range desired {
		want[path] = struct{}{}
	}

	for path, e := range c.entries {
		if _, ok := want[path]; !ok {
			c.removeEntryLocked(e)
		}
	}
	for _, path := range desired {
		if _, ok := c.entries[path]; !ok {
			c.addEntryLocked(path)
		}
	}
}

// ForceRefresh polls one worktree immediately, bypassing the throttle.
// Unknown paths are a no-op.
func (c *Controller) ForceRefresh(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[path]; ok {
		c.triggerLocked(e, true)
	}
}

// ForceRefreshAll polls every watched worktree concurrently and returns when
// all refreshes have completed. Per-worktree failures are swallowed.
func (c *Controller) ForceRefreshAll() {
	c.mu.Lock()
	waiters := make([]chan struct{}, 0, len(c.entries))
	for _, e := range c.entries {
		ch := make(chan struct{})
		e.waiters = append(e.waiters, ch)
		waiters = append(waiters, ch)
		c.triggerLocked(e, true)
	}
	c.mu.Unlock()

	for _, ch := range waiters {
		<-ch
	}
}

// Dispose stops reconciling and releases all watches and timers. In-flight
// polls finish but their results are discarded. Idempotent.
func (c *Controller) Dispose() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.disposed {
		return
	}
	c.disposed = true
	if c.cancelSub != nil {
		c.cancelSub()
		c.cancelSub = nil
	}
	for _, e := range c.entries {
		c.removeEntryLocked(e)
	}
}

// Watched returns the paths currently under watch, for inspection.
func (c *Controller) Watched() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	paths := make([]string, 0, len(c.entries))
	for path := range c.entries {
		paths = append(paths, path)
	}
	return paths
}

func (c *Controller) addEntryLocked(path string) {
	e := &watchEntry{path: path}
	c.entries[path] = e

	cancel, err := c.source.Watch(path, func() { c.onFsEvent(path) })
	if err != nil {
		// Degrade to periodic-only polling, never fail the controller.
		c.debugf("fs watch unavailable for %s: %v", path, err)
	} else {
		e.cancelWatch = cancel
	}

	if c.interval > 0 {
		stop := make(chan struct{})
		e.stopPeriodic = stop
		go c.runPeriodic(path, stop)
	}

	c.startPollLocked(e)
}

func (c *Controller) removeEntryLocked(e *watchEntry) {
	delete(c.entries, e.path)
	c.sink.Remove(e.path)
	if e.cancelWatch != nil {
		e.cancelWatch()
		e.cancelWatch = nil
	}
	if e.deferred != nil {
		e.deferred.Stop()
		e.deferred = nil
	}
	if e.stopPeriodic != nil {
		close(e.stopPeriodic)
		e.stopPeriodic = nil
	}
	e.queued = false
	e.queuedForce = false
	c.releaseWaitersLocked(e)
}

func (c *Controller) runPeriodic(path string, stop chan struct{}) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			c.onPeriodic(path)
		}
	}
}

func (c *Controller) onFsEvent(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[path]; ok {
		c.triggerLocked(e, false)
	}
}

func (c *Controller) onPeriodic(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[path]; ok {
		// The periodic backstop bypasses the throttle entirely.
		c.triggerLocked(e, true)
	}
}

func (c *Controller) onDeferred(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[path]
	if !ok {
		return
	}
	e.deferred = nil
	if e.polling {
		e.queued = true
		return
	}
	c.startPollLocked(e)
}

// triggerLocked runs one trigger through the throttle state machine. While a
// poll is in flight, triggers only coalesce; a second concurrent poll for
// the same path never starts.
func (c *Controller) triggerLocked(e *watchEntry, force bool) {
	if force && e.deferred != nil {
		e.deferred.Stop()
		e.deferred = nil
	}
	if e.polling {
		e.queued = true
		if force {
			e.queuedForce = true
		}
		return
	}
	if force {
		c.startPollLocked(e)
		return
	}

	elapsed := c.now().Sub(e.lastPoll)
	if e.lastPoll.IsZero() || elapsed >= c.throttle {
		c.startPollLocked(e)
		return
	}
	if e.deferred != nil {
		return
	}
	path := e.path
	e.deferred = time.AfterFunc(c.throttle-elapsed, func() { c.onDeferred(path) })
}

func (c *Controller) startPollLocked(e *watchEntry) {
	e.polling = true
	e.lastPoll = c.now()
	ctx := c.ctx
	if ctx == nil {
		ctx = context.Background()
	}
	go func() {
		err := c.refresh(ctx, e)
		c.pollDone(e, err)
	}()
}

func (c *Controller) pollDone(e *watchEntry, err error) {
	if err != nil {
		// Query failures skip the cycle; the next trigger retries.
		c.debugf("refresh %s failed: %v", e.path, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.entries[e.path] != e {
		return
	}
	e.polling = false
	if e.queued {
		e.queued = false
		force := e.queuedForce
		e.queuedForce = false
		c.triggerLocked(e, force)
	}
	if !e.polling {
		c.releaseWaitersLocked(e)
	}
}

func (c *Controller) releaseWaitersLocked(e *watchEntry) {
	for _, ch := range e.waiters {
		close(ch)
	}
	e.waiters = nil
}

func (c *Controller) debugf(format string, args ...any) {
	if c.logf == nil {
		return
	}
	c.logf(format, args...)
}
