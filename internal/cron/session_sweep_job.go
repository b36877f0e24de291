package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/reclaimtech/buyback-backend/pkg/enums"
	"github.com/reclaimtech/buyback-backend/pkg/logger"
	"github.com/reclaimtech/buyback-backend/pkg/outbox"
	"github.com/reclaimtech/buyback-backend/pkg/outbox/payloads"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type sessionSweeper interface {
	SweepExpired(ctx context.Context) (int64, error)
}

// SessionSweepJobParams configure the expired session sweep.
type SessionSweepJobParams struct {
	Logger   *logger.Logger
	DB       txRunner
	Sessions sessionSweeper
	Outbox   outboxEmitter
}

// NewSessionSweepJob builds the cron job that purges expired offer sessions.
// Expiry is otherwise enforced lazily at read time; the sweep keeps the
// table from accumulating dead rows.
func NewSessionSweepJob(params SessionSweepJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("db runner required")
	}
	if params.Sessions == nil {
		return nil, fmt.Errorf("sessions sweeper required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	return &sessionSweepJob{
		logg:     params.Logger,
		db:       params.DB,
		sessions: params.Sessions,
		outbox:   params.Outbox,
		now:      time.Now,
	}, nil
}

type sessionSweepJob struct {
	logg     *logger.Logger
	db       txRunner
	sessions sessionSweeper
	outbox   outboxEmitter
	now      func() time.Time
}

func (j *sessionSweepJob) Name() string { return "session-sweep" }

func (j *sessionSweepJob) Run(ctx context.Context) error {
	count, err := j.sessions.SweepExpired(ctx)
	if err != nil {
		return fmt.Errorf("session sweep: %w", err)
	}
	if count == 0 {
		return nil
	}

	sweepID := uuid.New()
	err = j.db.WithTx(ctx, func(tx *gorm.DB) error {
		return j.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventSessionSweepCleaned,
			AggregateType: enums.AggregateOfferSession,
			AggregateID:   sweepID,
			Version:       1,
			Data: payloads.SessionSweepEvent{
				SweepID:      sweepID,
				ExpiredCount: count,
				SweptAt:      j.now().UTC(),
			},
		})
	})
	if err != nil {
		return fmt.Errorf("session sweep event: %w", err)
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{"expired_count": count})
	j.logg.Info(logCtx, "expired offer sessions swept")
	return nil
}
