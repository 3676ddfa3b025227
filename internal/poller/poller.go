// Package poller keeps a receipts list fresh in the background. Refresh
// failures are logged and otherwise ignored; the previous list stays.
package poller

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"receipts/internal/logger"
	"receipts/pkg/models"
)

// DefaultSchedule refreshes every 30 seconds.
const DefaultSchedule = "@every 30s"

// Lister fetches the receipts list.
type Lister interface {
	ListReceipts(ctx context.Context) ([]models.ReceiptSummary, error)
}

// Poller refreshes a receipts list on a cron schedule.
type Poller struct {
	lister   Lister
	schedule string
	timeout  time.Duration
	onUpdate func([]models.ReceiptSummary)
	log      zerolog.Logger

	cron *cron.Cron

	mu        sync.RWMutex
	receipts  []models.ReceiptSummary
	refreshed time.Time
	lastErr   error

	refreshMu sync.Mutex
}

// Option configures a Poller.
type Option func(*Poller)

// WithSchedule sets a cron spec such as "@every 1m" or "*/5 * * * *".
func WithSchedule(spec string) Option {
	return func(p *Poller) {
		if spec != "" {
			p.schedule = spec
		}
	}
}

// WithTimeout bounds a single refresh.
func WithTimeout(d time.Duration) Option {
	return func(p *Poller) { p.timeout = d }
}

// WithOnUpdate registers a callback run after every successful refresh.
func WithOnUpdate(fn func([]models.ReceiptSummary)) Option {
	return func(p *Poller) { p.onUpdate = fn }
}

// New creates a stopped poller.
func New(lister Lister, opts ...Option) *Poller {
	p := &Poller{
		lister:   lister,
		schedule: DefaultSchedule,
		timeout:  30 * time.Second,
		log:      logger.WithComponent("poller"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Start schedules refreshes. The first refresh happens on the first tick;
// call Refresh for an immediate one.
func (p *Poller) Start() error {
	const op = "Start"

	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	if _, err := c.AddFunc(p.schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
		defer cancel()
		p.Refresh(ctx)
	}); err != nil {
		return fmt.Errorf("%s: unable to schedule refresh %q: %w", op, p.schedule, err)
	}

	c.Start()
	p.cron = c
	p.log.Info().Str("schedule", p.schedule).Msg("Receipts poller started")
	return nil
}

// Stop halts the schedule and waits for a running refresh to finish.
func (p *Poller) Stop() {
	if p.cron == nil {
		return
	}
	<-p.cron.Stop().Done()
	p.cron = nil
	p.log.Info().Msg("Receipts poller stopped")
}

// Refresh fetches the list once. A failure leaves the previous list in
// place and is only logged. It reports whether the list was replaced.
func (p *Poller) Refresh(ctx context.Context) bool {
	p.refreshMu.Lock()
	defer p.refreshMu.Unlock()

	receipts, err := p.lister.ListReceipts(ctx)
	if err != nil {
		p.mu.Lock()
		p.lastErr = err
		p.mu.Unlock()
		p.log.Warn().Err(err).Msg("Background refresh failed")
		return false
	}

	p.mu.Lock()
	p.receipts = receipts
	p.refreshed = time.Now()
	p.lastErr = nil
	p.mu.Unlock()

	p.log.Debug().Int("receipts", len(receipts)).Msg("Receipts refreshed")

	if p.onUpdate != nil {
		p.onUpdate(p.Receipts())
	}
	return true
}

// Remove drops a receipt from the current list, e.g. after it was
// deleted elsewhere.
func (p *Poller) Remove(receiptID string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	kept := p.receipts[:0:0]
	for _, r := range p.receipts {
		if r.ID != receiptID {
			kept = append(kept, r)
		}
	}
	p.receipts = kept
}

// Receipts returns a copy of the current list.
func (p *Poller) Receipts() []models.ReceiptSummary {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([]models.ReceiptSummary(nil), p.receipts...)
}

// LastRefresh returns when the list was last replaced and the error of
// the most recent attempt.
func (p *Poller) LastRefresh() (time.Time, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.refreshed, p.lastErr
}
