package poller

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"headshotlab/internal/domain"
	"headshotlab/internal/telemetry"
)

// DefaultInterval matches the cadence the dashboard used for result polling.
const DefaultInterval = 5 * time.Second

const reconcileTimeout = 30 * time.Second

// ReconcileFunc resolves one prediction's current status, persisting it as a
// side effect.
type ReconcileFunc func(ctx context.Context, predictionID string) (domain.PredictionStatus, error)

// Poller drives periodic reconciliation for predictions that are still
// processing. Each tick issues one reconciliation call per tracked prediction,
// concurrently; a prediction leaves the set as soon as a call reports a
// non-processing status and is never re-added for the poller's lifetime.
// The ticker goroutine exits when the set drains and is restarted by the next
// Track call.
type Poller struct {
	interval  time.Duration
	reconcile ReconcileFunc
	logger    zerolog.Logger

	mu      sync.Mutex
	active  map[string]struct{}
	done    map[string]struct{}
	running bool
	closed  bool
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

// New builds a Poller. A non-positive interval falls back to DefaultInterval.
func New(interval time.Duration, reconcile ReconcileFunc, logger zerolog.Logger) *Poller {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Poller{
		interval:  interval,
		reconcile: reconcile,
		logger:    logger,
		active:    make(map[string]struct{}),
		done:      make(map[string]struct{}),
		stopCh:    make(chan struct{}),
	}
}

// Track adds a prediction to the polling set and reports whether it was
// accepted. Predictions that already finished a polling cycle are refused.
func (p *Poller) Track(predictionID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return false
	}
	if _, ok := p.done[predictionID]; ok {
		return false
	}
	if _, ok := p.active[predictionID]; ok {
		return false
	}
	p.active[predictionID] = struct{}{}
	telemetry.PollingActiveJobs.Set(float64(len(p.active)))
	if !p.running {
		p.running = true
		p.wg.Add(1)
		go p.loop()
	}
	return true
}

// ActiveCount returns the number of predictions currently being polled.
func (p *Poller) ActiveCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.active)
}

// Close stops the polling loop and waits for in-flight reconciliations.
func (p *Poller) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.stopCh)
	p.mu.Unlock()
	p.wg.Wait()
}

func (p *Poller) loop() {
	defer p.wg.Done()
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-p.stopCh:
			return
		case <-ticker.C:
			ids := p.snapshot()
			if len(ids) == 0 {
				p.mu.Lock()
				if len(p.active) == 0 {
					p.running = false
					p.mu.Unlock()
					return
				}
				p.mu.Unlock()
				continue
			}

			var tick sync.WaitGroup
			for _, id := range ids {
				tick.Add(1)
				go func(id string) {
					defer tick.Done()
					p.poll(id)
				}(id)
			}
			tick.Wait()
		}
	}
}

func (p *Poller) poll(predictionID string) {
	ctx, cancel := context.WithTimeout(context.Background(), reconcileTimeout)
	defer cancel()

	status, err := p.reconcile(ctx, predictionID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			// Row vanished; nothing left to poll.
			p.remove(predictionID)
			return
		}
		// Transient upstream failures keep the prediction in the set.
		p.logger.Warn().Err(err).Str("prediction_id", predictionID).Msg("poll reconciliation failed")
		return
	}
	if status != domain.PredictionStatusProcessing && status != domain.PredictionStatusPending {
		p.remove(predictionID)
	}
}

func (p *Poller) remove(predictionID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.active, predictionID)
	p.done[predictionID] = struct{}{}
	telemetry.PollingActiveJobs.Set(float64(len(p.active)))
}

func (p *Poller) snapshot() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	ids := make([]string, 0, len(p.active))
	for id := range p.active {
		ids = append(ids, id)
	}
	return ids
}
