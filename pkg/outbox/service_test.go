package outbox

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/reclaimtech/buyback-backend/pkg/db/models"
	"github.com/reclaimtech/buyback-backend/pkg/enums"
	"github.com/reclaimtech/buyback-backend/pkg/logger"
)

func setupOutboxTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.Exec(`
CREATE TABLE IF NOT EXISTS outbox_events (
  id TEXT PRIMARY KEY DEFAULT (lower(hex(randomblob(16)))),
  event_type TEXT NOT NULL,
  aggregate_type TEXT NOT NULL,
  aggregate_id TEXT NOT NULL,
  payload TEXT NOT NULL,
  created_at DATETIME,
  published_at DATETIME,
  attempt_count INTEGER NOT NULL DEFAULT 0,
  last_error TEXT
);`).Error)
	return db
}

func newOutboxTestService(db *gorm.DB) *Service {
	logg := logger.New(logger.Options{ServiceName: "test", Level: zerolog.ErrorLevel})
	return NewService(NewRepository(db), logg)
}

func TestEmitStoresActorInEnvelope(t *testing.T) {
	db := setupOutboxTestDB(t)
	svc := newOutboxTestService(db)

	partnerID := uuid.New()
	actor := ActorRef{
		UserID:    uuid.New(),
		PartnerID: &partnerID,
		Role:      "partner",
	}
	orderID := uuid.New()

	err := db.Transaction(func(tx *gorm.DB) error {
		return svc.Emit(context.Background(), tx, DomainEvent{
			EventType:     enums.EventOrderClaimed,
			AggregateType: enums.AggregatePickupOrder,
			AggregateID:   orderID,
			Version:       1,
			Actor:         actor,
			Data:          map[string]string{"orderId": orderID.String()},
		})
	})
	require.NoError(t, err)

	var row models.OutboxEvent
	require.NoError(t, db.Where("event_type = ?", enums.EventOrderClaimed).First(&row).Error)
	assert.Equal(t, enums.AggregatePickupOrder, row.AggregateType)
	assert.Equal(t, orderID, row.AggregateID)

	var envelope PayloadEnvelope
	require.NoError(t, json.Unmarshal(row.Payload, &envelope))
	require.NotNil(t, envelope.Actor)
	assert.Equal(t, actor.UserID, envelope.Actor.UserID)
	require.NotNil(t, envelope.Actor.PartnerID)
	assert.Equal(t, partnerID, *envelope.Actor.PartnerID)
	assert.Equal(t, "partner", envelope.Actor.Role)
	assert.NotEmpty(t, envelope.EventID)
	assert.False(t, envelope.OccurredAt.IsZero())
}

func TestEmitOmitsEmptyActor(t *testing.T) {
	db := setupOutboxTestDB(t)
	svc := newOutboxTestService(db)

	err := db.Transaction(func(tx *gorm.DB) error {
		return svc.Emit(context.Background(), tx, DomainEvent{
			EventType:     enums.EventSessionSweepCleaned,
			AggregateType: enums.AggregateOfferSession,
			AggregateID:   uuid.New(),
			Version:       1,
			Data:          map[string]int{"cleaned": 3},
		})
	})
	require.NoError(t, err)

	var row models.OutboxEvent
	require.NoError(t, db.Where("event_type = ?", enums.EventSessionSweepCleaned).First(&row).Error)

	var envelope PayloadEnvelope
	require.NoError(t, json.Unmarshal(row.Payload, &envelope))
	assert.Nil(t, envelope.Actor)
}
