// Package jobs runs periodic maintenance on the credential store.
package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/storefront/storefront-api/internal/pkg/metrics"
)

// DefaultSchedule runs the sweep every minute, on the minute.
const DefaultSchedule = "0 * * * * *"

// LoginCodeStore is the part of the credential store the sweeper needs.
type LoginCodeStore interface {
	ClearExpiredLoginCodes(ctx context.Context, now time.Time) (int64, error)
}

// Sweeper clears login codes whose expiry has passed. Expired codes are
// already rejected at verification; sweeping keeps them out of the store.
type Sweeper struct {
	cron  *cron.Cron
	store LoginCodeStore
	log   zerolog.Logger
	now   func() time.Time
}

// NewSweeper schedules the sweep on a seconds-resolution cron spec. An empty
// schedule uses DefaultSchedule.
func NewSweeper(store LoginCodeStore, schedule string, log zerolog.Logger) (*Sweeper, error) {
	if schedule == "" {
		schedule = DefaultSchedule
	}
	s := &Sweeper{
		cron:  cron.New(cron.WithSeconds()),
		store: store,
		log:   log,
		now:   time.Now,
	}
	if _, err := s.cron.AddFunc(schedule, func() { s.Sweep(context.Background()) }); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Sweeper) Start() {
	s.cron.Start()
	s.log.Info().Msg("login code sweeper started")
}

// Stop halts scheduling and waits for a running sweep to finish or ctx to end.
func (s *Sweeper) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
	}
}

// Sweep runs one pass.
func (s *Sweeper) Sweep(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	n, err := s.store.ClearExpiredLoginCodes(ctx, s.now())
	if err != nil {
		s.log.Error().Err(err).Msg("login code sweep failed")
		return
	}
	if n > 0 {
		metrics.ExpiredLoginCodesCleared.Add(float64(n))
		s.log.Debug().Int64("cleared", n).Msg("expired login codes cleared")
	}
}
