package scheduler

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/robfig/cron/v3"
	"github.com/saulo-duarte/chronos-autopilot/internal/calendar"
	"github.com/saulo-duarte/chronos-autopilot/internal/config"
	"github.com/sirupsen/logrus"
)

const (
	DefaultRefreshInterval = 30 * time.Minute
	DefaultWatchDebounce   = 2 * time.Second
)

// Armer is the part of the Scheduler the refresh loop feeds.
type Armer interface {
	Arm(ctx context.Context, event calendar.Event) bool
}

type RefreshOptions struct {
	Interval time.Duration
	// Cron replaces Interval when set (standard 5-field spec).
	Cron     string
	Location *time.Location
	// WatchPath is a local calendar file whose changes trigger a refresh.
	WatchPath string
	Debounce  time.Duration
}

type RefreshResult struct {
	Fetched int       `json:"fetched"`
	Armed   int       `json:"armed"`
	At      time.Time `json:"at"`
}

type Refresher struct {
	source  calendar.Source
	armer   Armer
	opts    RefreshOptions
	trigger chan struct{}

	mu   sync.Mutex
	last RefreshResult
}

func NewRefresher(source calendar.Source, armer Armer, opts RefreshOptions) *Refresher {
	if opts.Interval <= 0 {
		opts.Interval = DefaultRefreshInterval
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultWatchDebounce
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	return &Refresher{
		source:  source,
		armer:   armer,
		opts:    opts,
		trigger: make(chan struct{}, 1),
	}
}

// Refresh pulls today's events and arms each of them. A source failure is
// returned but leaves the scheduler untouched.
func (r *Refresher) Refresh(ctx context.Context) (RefreshResult, error) {
	log := config.WithContext(ctx)
	result := RefreshResult{At: time.Now()}

	events, err := r.source.FetchTodaysEvents(ctx)
	if err != nil {
		log.WithError(err).Warn("[REFRESH] Calendar fetch failed, keeping current schedule")
		return result, err
	}
	result.Fetched = len(events)
	for _, ev := range events {
		if r.armer.Arm(ctx, ev) {
			result.Armed++
		}
	}

	r.mu.Lock()
	r.last = result
	r.mu.Unlock()

	log.WithFields(logrus.Fields{
		"fetched": result.Fetched,
		"armed":   result.Armed,
	}).Info("[REFRESH] Calendar refreshed")
	return result, nil
}

func (r *Refresher) Last() RefreshResult {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.last
}

// Trigger asks Run for a refresh without blocking; requests made while one
// is already pending are merged.
func (r *Refresher) Trigger() {
	select {
	case r.trigger <- struct{}{}:
	default:
	}
}

// Run refreshes once, then on every tick, cron entry, watched-file change or
// Trigger call, until ctx is done.
func (r *Refresher) Run(ctx context.Context) error {
	log := config.WithContext(ctx)
	_, _ = r.Refresh(ctx)

	var tick <-chan time.Time
	if r.opts.Cron != "" {
		c := cron.New(cron.WithLocation(r.opts.Location))
		if _, err := c.AddFunc(r.opts.Cron, r.Trigger); err != nil {
			return fmt.Errorf("invalid refresh cron %q: %w", r.opts.Cron, err)
		}
		c.Start()
		defer c.Stop()
		log.WithField("cron", r.opts.Cron).Info("[REFRESH] Cron schedule started")
	} else {
		ticker := time.NewTicker(r.opts.Interval)
		defer ticker.Stop()
		tick = ticker.C
		log.WithField("interval", r.opts.Interval.String()).Info("[REFRESH] Interval schedule started")
	}

	var fileEvents <-chan fsnotify.Event
	var fileErrors <-chan error
	var debounce *time.Timer
	if r.opts.WatchPath != "" {
		watcher, err := r.watch()
		if err != nil {
			log.WithError(err).Warn("[REFRESH] Calendar file watch unavailable")
		} else {
			defer watcher.Close()
			fileEvents = watcher.Events
			fileErrors = watcher.Errors
		}
	}
	defer func() {
		if debounce != nil {
			debounce.Stop()
		}
	}()

	target := filepath.Clean(r.opts.WatchPath)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-tick:
			_, _ = r.Refresh(ctx)
		case <-r.trigger:
			_, _ = r.Refresh(ctx)
		case ev, ok := <-fileEvents:
			if !ok {
				fileEvents = nil
				continue
			}
			if filepath.Clean(ev.Name) != target || !ev.Has(fsnotify.Write|fsnotify.Create|fsnotify.Rename) {
				continue
			}
			if debounce == nil {
				debounce = time.AfterFunc(r.opts.Debounce, r.Trigger)
			} else {
				debounce.Reset(r.opts.Debounce)
			}
		case err, ok := <-fileErrors:
			if !ok {
				fileErrors = nil
				continue
			}
			log.WithError(err).Warn("[REFRESH] Calendar file watch error")
		}
	}
}

// watch follows the directory rather than the file, so editors that replace
// the file on save keep triggering refreshes.
func (r *Refresher) watch() (*fsnotify.Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := watcher.Add(filepath.Dir(r.opts.WatchPath)); err != nil {
		watcher.Close()
		return nil, err
	}
	return watcher, nil
}
