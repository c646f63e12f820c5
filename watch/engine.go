// Package watch implements the poll-and-diff core. The Engine owns the
// in-memory set of streamers currently believed live; each tick it fetches a
// fresh status snapshot per tracked streamer, compares against that set, and
// emits a transition event for every change. Delivery is the Notifier's job;
// the Engine never talks to Discord itself.
package watch

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/onnwee/stream-herald/telemetry"
)

// Snapshot is one fetch's view of a streamer's live status and metadata.
// The zero value means "not live". FetchedAt feeds deterministic cache-busting
// of the thumbnail URL downstream.
type Snapshot struct {
	Live            bool
	Title           string
	GameName        string
	Viewers         int
	ThumbnailURL    string
	ProfileImageURL string
	DisplayName     string
	Login           string
	FetchedAt       time.Time
}

// EventKind tags a transition event.
type EventKind int

const (
	WentLive EventKind = iota
	WentOffline
)

func (k EventKind) String() string {
	if k == WentLive {
		return "went_live"
	}
	return "went_offline"
}

// Event is a detected transition for one streamer. Snapshot is populated for
// WentLive events only.
type Event struct {
	Kind     EventKind
	Account  string
	Snapshot Snapshot
}

// StatusFetcher resolves the current live status for a single login.
type StatusFetcher interface {
	FetchStatus(ctx context.Context, login string) (Snapshot, error)
}

// Notifier consumes transition events.
type Notifier interface {
	Notify(ctx context.Context, ev Event)
}

// AccountLister supplies the tracked streamer list, read fresh each tick so
// runtime add/remove takes effect without a restart.
type AccountLister interface {
	ListAccounts() []string
}

// Engine owns the live set. Construct with NewEngine; the zero value is not usable.
//
// The live set starts empty on every process start: the first tick after a
// restart may re-announce a streamer who was already live (at-least-once,
// deliberate) and can never emit an offline event for a streamer it has not
// seen live.
type Engine struct {
	fetcher  StatusFetcher
	accounts AccountLister
	notifier Notifier

	// FetchTimeout bounds each per-streamer fetch. Zero means no extra bound
	// beyond the tick context.
	FetchTimeout time.Duration

	// MaxConcurrentFetches limits tick fan-out. Zero or negative means
	// unbounded.
	MaxConcurrentFetches int

	tickMu sync.Mutex // serializes whole ticks

	mu       sync.Mutex // guards live and lastTick
	live     map[string]struct{}
	lastTick time.Time
}

func NewEngine(fetcher StatusFetcher, accounts AccountLister, notifier Notifier) *Engine {
	return &Engine{
		fetcher:  fetcher,
		accounts: accounts,
		notifier: notifier,
		live:     make(map[string]struct{}),
	}
}

// RunTick performs one poll-and-diff cycle and returns the transitions it
// detected. Ticks are serialized: a slow tick delays the next rather than
// running concurrently with it.
//
// A failed fetch counts as "not live" for this tick only. It never aborts the
// tick, never touches the live set by itself, and never affects other
// streamers in the same tick; the next tick retries naturally.
func (e *Engine) RunTick(ctx context.Context) []Event {
	e.tickMu.Lock()
	defer e.tickMu.Unlock()

	accounts := e.accounts.ListAccounts()

	type result struct {
		name string
		snap Snapshot
	}
	results := make([]result, len(accounts))

	g, gctx := errgroup.WithContext(ctx)
	if e.MaxConcurrentFetches > 0 {
		g.SetLimit(e.MaxConcurrentFetches)
	}
	for i, name := range accounts {
		g.Go(func() error {
			fctx := gctx
			if e.FetchTimeout > 0 {
				var cancel context.CancelFunc
				fctx, cancel = context.WithTimeout(gctx, e.FetchTimeout)
				defer cancel()
			}
			snap, err := e.fetcher.FetchStatus(fctx, name)
			if err != nil {
				telemetry.CountFetchFailure()
				telemetry.LoggerWithCorr(ctx).Debug("status fetch failed; treating as offline this tick",
					slog.String("streamer", name), slog.Any("err", err))
				snap = Snapshot{Login: strings.ToLower(name)}
			}
			results[i] = result{name: name, snap: snap}
			return nil
		})
	}
	// Fetch closures swallow their own errors, so Wait only collects.
	_ = g.Wait()

	// All snapshots are in hand before any diff decision, and the live-set
	// mutation for a streamer is applied before its event is handed out.
	e.mu.Lock()
	var events []Event
	for _, r := range results {
		key := strings.ToLower(r.name)
		_, was := e.live[key]
		switch {
		case r.snap.Live && !was:
			e.live[key] = struct{}{}
			events = append(events, Event{Kind: WentLive, Account: r.name, Snapshot: r.snap})
		case !r.snap.Live && was:
			delete(e.live, key)
			events = append(events, Event{Kind: WentOffline, Account: r.name})
		}
	}
	e.lastTick = time.Now().UTC()
	liveCount := len(e.live)
	e.mu.Unlock()

	telemetry.SetTracked(len(accounts))
	telemetry.SetLive(liveCount)
	for _, ev := range events {
		telemetry.CountTransition(ev.Kind == WentLive)
		if e.notifier != nil {
			e.notifier.Notify(ctx, ev)
		}
	}
	return events
}

// LiveLogins returns the lowercased logins currently believed live, sorted.
func (e *Engine) LiveLogins() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]string, 0, len(e.live))
	for k := range e.live {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// LastTick returns the completion time of the most recent tick, zero if none.
func (e *Engine) LastTick() time.Time {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastTick
}

// TrackedCount returns the current size of the tracked list.
func (e *Engine) TrackedCount() int {
	return len(e.accounts.ListAccounts())
}
