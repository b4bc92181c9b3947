// Package router binds exactly one active sensor source to the filter chain
// and fans the output into two parallel streams: the raw readings as they
// arrived, and the readings after filtering. Status events from the source
// and data quality warnings go to a third stream.
package router

import (
	"fmt"
	"math"
	"sync"

	"github.com/google/uuid"

	"github.com/banshee-data/sonar.sweep/internal/monitoring"
	"github.com/banshee-data/sonar.sweep/internal/sonar"
	"github.com/banshee-data/sonar.sweep/internal/sonar/filter"
)

// DefaultSpikeThreshold is the per-angle jump, in centimeters, beyond which
// a reading is flagged as a quality warning.
const DefaultSpikeThreshold = 50.0

// Options configures a Router.
type Options struct {
	// Bounds is the measurement envelope applied to every incoming sample.
	// Out-of-range distances are clipped to the nearest bound, never
	// dropped. Defaults to sonar.DefaultBounds.
	Bounds sonar.Bounds

	// Chain is the initial filter chain. Defaults to the standard preset.
	Chain *filter.Chain

	// SpikeThreshold overrides DefaultSpikeThreshold.
	SpikeThreshold float64
}

// Stats counts the router's processing activity since the last reset.
type Stats struct {
	ReadingsProcessed uint64
	SpikesDetected    uint64
	// NoiseFiltered accumulates |raw - filtered| across all readings, a
	// rough measure of how much the chain is doing.
	NoiseFiltered float64
}

// session is the binding between the router and one running source.
type session struct {
	src  sonar.Source
	stop chan struct{}
	done chan struct{}
}

// Router is the central data hub between sensor sources and stream
// subscribers. All sample processing, including the filter chain, runs
// serialized on one goroutine per session; subscriber handlers are invoked on
// that goroutine, in producer order, raw always before filtered for the same
// sample.
type Router struct {
	bounds         sonar.Bounds
	spikeThreshold float64

	// switchMu serializes source switches so stop/reset/start never
	// interleave.
	switchMu sync.Mutex
	session  *session

	// procMu guards the chain and per-angle processing state.
	procMu           sync.Mutex
	chain            *filter.Chain
	lastByAngle      map[int]float64
	rawSnapshot      map[int]float64
	filteredSnapshot map[int]float64
	stats            Stats

	subMu        sync.RWMutex
	rawSubs      map[string]func(sonar.Sample)
	filteredSubs map[string]func(sonar.Sample)
	statusSubs   map[string]func(sonar.StatusEvent)
}

// New builds a Router. The zero Options value gives default bounds, the
// standard filter preset, and the default spike threshold.
func New(opts Options) *Router {
	if opts.Bounds.Range() <= 0 {
		opts.Bounds = sonar.DefaultBounds()
	}
	if opts.Chain == nil {
		// the standard preset cannot fail to construct
		opts.Chain, _ = filter.Preset(filter.PresetStandard, filter.PresetOptions{})
	}
	if opts.SpikeThreshold <= 0 {
		opts.SpikeThreshold = DefaultSpikeThreshold
	}

	return &Router{
		bounds:           opts.Bounds,
		spikeThreshold:   opts.SpikeThreshold,
		chain:            opts.Chain,
		lastByAngle:      make(map[int]float64),
		rawSnapshot:      make(map[int]float64),
		filteredSnapshot: make(map[int]float64),
		rawSubs:          make(map[string]func(sonar.Sample)),
		filteredSubs:     make(map[string]func(sonar.Sample)),
		statusSubs:       make(map[string]func(sonar.StatusEvent)),
	}
}

// SubscribeRaw registers a handler for the unfiltered stream and returns the
// subscription ID. Handlers run on the router's processing goroutine and
// should return quickly.
func (r *Router) SubscribeRaw(handler func(sonar.Sample)) string {
	id := uuid.NewString()
	r.subMu.Lock()
	defer r.subMu.Unlock()
	r.rawSubs[id] = handler
	return id
}

// SubscribeFiltered registers a handler for the filtered stream.
func (r *Router) SubscribeFiltered(handler func(sonar.Sample)) string {
	id := uuid.NewString()
	r.subMu.Lock()
	defer r.subMu.Unlock()
	r.filteredSubs[id] = handler
	return id
}

// SubscribeStatus registers a handler for connection, error, and quality
// events.
func (r *Router) SubscribeStatus(handler func(sonar.StatusEvent)) string {
	id := uuid.NewString()
	r.subMu.Lock()
	defer r.subMu.Unlock()
	r.statusSubs[id] = handler
	return id
}

// Unsubscribe removes a subscription from whichever stream holds it.
func (r *Router) Unsubscribe(id string) {
	r.subMu.Lock()
	defer r.subMu.Unlock()
	delete(r.rawSubs, id)
	delete(r.filteredSubs, id)
	delete(r.statusSubs, id)
}

// SetSource switches the active sensor. The old source is stopped, the
// filter chain and all per-angle state are reset, and only then is the new
// source started; the call blocks until the switch is complete. No sample
// from the old source is delivered after the switch begins, and nothing the
// new source produces carries state derived from the old one. A nil source
// just stops the current one.
func (r *Router) SetSource(src sonar.Source) error {
	r.switchMu.Lock()
	defer r.switchMu.Unlock()

	if r.session != nil {
		close(r.session.stop)
		<-r.session.done
		r.session.src.Stop()
		r.session = nil
		monitoring.Logf("[router] stopped previous sensor source")
	}

	r.procMu.Lock()
	r.chain.Reset()
	r.lastByAngle = make(map[int]float64)
	r.rawSnapshot = make(map[int]float64)
	r.filteredSnapshot = make(map[int]float64)
	r.procMu.Unlock()

	if src == nil {
		return nil
	}

	if err := src.Start(); err != nil {
		return fmt.Errorf("failed to start sensor source: %w", err)
	}

	sess := &session{
		src:  src,
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
	r.session = sess
	go r.consume(sess)
	return nil
}

// ActiveSource returns the currently bound source, or nil.
func (r *Router) ActiveSource() sonar.Source {
	r.switchMu.Lock()
	defer r.switchMu.Unlock()
	if r.session == nil {
		return nil
	}
	return r.session.src
}

// SetChain swaps the filter chain. A nil chain means no filtering. The new
// chain starts with whatever state it already carries; pass a freshly built
// chain for a clean slate.
func (r *Router) SetChain(chain *filter.Chain) {
	if chain == nil {
		chain = filter.NewChain()
	}
	r.procMu.Lock()
	defer r.procMu.Unlock()
	r.chain = chain
}

// Reset clears filter state, per-angle history, snapshots, and statistics
// without touching the active source.
func (r *Router) Reset() {
	r.procMu.Lock()
	defer r.procMu.Unlock()
	r.chain.Reset()
	r.lastByAngle = make(map[int]float64)
	r.rawSnapshot = make(map[int]float64)
	r.filteredSnapshot = make(map[int]float64)
	r.stats = Stats{}
}

// Stats returns a copy of the processing counters.
func (r *Router) Stats() Stats {
	r.procMu.Lock()
	defer r.procMu.Unlock()
	return r.stats
}

// RawSnapshot returns the latest raw distance per angle.
func (r *Router) RawSnapshot() map[int]float64 {
	r.procMu.Lock()
	defer r.procMu.Unlock()
	return copyMap(r.rawSnapshot)
}

// FilteredSnapshot returns the latest filtered distance per angle.
func (r *Router) FilteredSnapshot() map[int]float64 {
	r.procMu.Lock()
	defer r.procMu.Unlock()
	return copyMap(r.filteredSnapshot)
}

// Close stops the active source and releases the router.
func (r *Router) Close() error {
	return r.SetSource(nil)
}

// consume drains one session's sample and status streams until the session
// is stopped. It is the only goroutine that touches the filter chain while
// the session lives, which keeps processing strictly serialized.
func (r *Router) consume(sess *session) {
	defer close(sess.done)

	for {
		select {
		case <-sess.stop:
			return
		case sample := <-sess.src.Samples():
			r.process(sample)
		case ev := <-sess.src.Status():
			r.publishStatus(ev)
		}
	}
}

// process clamps, publishes, filters, and publishes again, in that order.
func (r *Router) process(in sonar.Sample) {
	r.procMu.Lock()

	sample := r.bounds.Clamp(in)
	r.stats.ReadingsProcessed++

	var warning *sonar.StatusEvent
	if last, ok := r.lastByAngle[sample.Angle]; ok {
		if delta := math.Abs(sample.Distance - last); delta > r.spikeThreshold {
			r.stats.SpikesDetected++
			warning = &sonar.StatusEvent{
				Kind:    sonar.StatusWarning,
				Message: fmt.Sprintf("spike detected at %d degrees: %.1fcm change", sample.Angle, delta),
			}
		}
	}
	r.lastByAngle[sample.Angle] = sample.Distance
	r.rawSnapshot[sample.Angle] = sample.Distance

	filtered := sonar.Sample{
		Angle:    sample.Angle,
		Distance: r.chain.Process(sample.Angle, sample.Distance),
		Seq:      sample.Seq,
	}
	r.filteredSnapshot[filtered.Angle] = filtered.Distance
	r.stats.NoiseFiltered += math.Abs(sample.Distance - filtered.Distance)

	r.procMu.Unlock()

	// Raw publication happens before the corresponding filtered one, and
	// both run on this goroutine so every subscriber observes producer
	// order.
	r.publishRaw(sample)
	r.publishFiltered(filtered)
	if warning != nil {
		r.publishStatus(*warning)
	}
}

func (r *Router) publishRaw(sample sonar.Sample) {
	r.subMu.RLock()
	defer r.subMu.RUnlock()
	for _, handler := range r.rawSubs {
		handler(sample)
	}
}

func (r *Router) publishFiltered(sample sonar.Sample) {
	r.subMu.RLock()
	defer r.subMu.RUnlock()
	for _, handler := range r.filteredSubs {
		handler(sample)
	}
}

func (r *Router) publishStatus(ev sonar.StatusEvent) {
	r.subMu.RLock()
	defer r.subMu.RUnlock()
	for _, handler := range r.statusSubs {
		handler(ev)
	}
}

func copyMap(m map[int]float64) map[int]float64 {
	out := make(map[int]float64, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
