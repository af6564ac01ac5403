// Package events delivers committed ledger and market events to
// subscribers and keeps a bounded window of recent events per asset.
package events

import (
	"sync"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog"

	"github.com/setlabs/serpd/internal/core/types"
)

// Publisher fans committed events out to registered subscribers and
// retains the most recent events per asset in an LRU window.
type Publisher struct {
	mu          sync.RWMutex
	subscribers []func(types.Event)

	// recent caches the last events per asset for cheap inspection
	// (RPC, diagnostics) without replaying storage.
	recent *lru.Cache[types.AssetID, []types.Event]

	// perAssetWindow bounds the slice kept per asset.
	perAssetWindow int

	published atomic.Uint64
}

// NewPublisher creates a publisher retaining events for up to
// maxAssets assets, window events each.
func NewPublisher(maxAssets, window int) (*Publisher, error) {
	if maxAssets <= 0 {
		maxAssets = 64
	}
	if window <= 0 {
		window = 32
	}
	cache, err := lru.New[types.AssetID, []types.Event](maxAssets)
	if err != nil {
		return nil, err
	}
	return &Publisher{recent: cache, perAssetWindow: window}, nil
}

// Subscribe registers a callback invoked for every published event.
// Callbacks run synchronously on the publishing goroutine.
func (p *Publisher) Subscribe(fn func(types.Event)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.subscribers = append(p.subscribers, fn)
}

// Publish implements types.EventSink.
func (p *Publisher) Publish(ev types.Event) {
	p.published.Add(1)

	p.mu.RLock()
	subs := p.subscribers
	p.mu.RUnlock()

	for _, fn := range subs {
		fn(ev)
	}

	window, _ := p.recent.Get(ev.Asset)
	window = append(window, ev)
	if len(window) > p.perAssetWindow {
		window = window[len(window)-p.perAssetWindow:]
	}
	p.recent.Add(ev.Asset, window)
}

// Recent returns the retained events for an asset, oldest first.
func (p *Publisher) Recent(asset types.AssetID) []types.Event {
	window, ok := p.recent.Get(asset)
	if !ok {
		return nil
	}
	out := make([]types.Event, len(window))
	copy(out, window)
	return out
}

// Published returns the total number of events published.
func (p *Publisher) Published() uint64 {
	return p.published.Load()
}

// LogSink writes events to a structured log.
type LogSink struct {
	log zerolog.Logger
}

// NewLogSink creates a sink logging at info level.
func NewLogSink(log zerolog.Logger) *LogSink {
	return &LogSink{log: log}
}

// Publish implements types.EventSink.
func (s *LogSink) Publish(ev types.Event) {
	e := s.log.Info().
		Str("event", string(ev.Kind)).
		Str("asset", string(ev.Asset)).
		Uint64("amount", ev.Amount)
	if ev.From != "" {
		e = e.Str("from", string(ev.From))
	}
	if ev.To != "" {
		e = e.Str("to", string(ev.To))
	}
	if ev.Who != "" {
		e = e.Str("who", string(ev.Who))
	}
	e.Msg("ledger event")
}

// Tee duplicates events to multiple sinks.
type Tee []types.EventSink

// Publish implements types.EventSink.
func (t Tee) Publish(ev types.Event) {
	for _, s := range t {
		s.Publish(ev)
	}
}
