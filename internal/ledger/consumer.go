package ledger

import (
	"context"
	"encoding/json"
	"fmt"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/reclaimtech/buyback-backend/pkg/enums"
	"github.com/reclaimtech/buyback-backend/pkg/logger"
	"github.com/reclaimtech/buyback-backend/pkg/outbox"
	"github.com/reclaimtech/buyback-backend/pkg/outbox/payloads"
	"github.com/reclaimtech/buyback-backend/pkg/outbox/registry"
)

const reconciliationConsumerName = "ledger-reconciliation"

type balanceRecomputer interface {
	Recompute(ctx context.Context, partnerID uuid.UUID) (int64, error)
}

type idempotencyGuard interface {
	CheckAndMarkProcessed(ctx context.Context, consumer string, eventID uuid.UUID) (bool, error)
	Delete(ctx context.Context, consumer string, eventID uuid.UUID) error
}

// Consumer watches commission events on the domain subscription and re-derives
// the affected wallet balance from the transaction log. Stored balances drift
// only on bugs or manual intervention, so each event is a cheap audit point.
type Consumer struct {
	svc          balanceRecomputer
	subscription *gcppubsub.Subscriber
	idempotency  idempotencyGuard
	decoders     *registry.DecoderRegistry
	logg         *logger.Logger
}

// NewConsumer builds a wallet reconciliation consumer.
func NewConsumer(svc balanceRecomputer, subscription *gcppubsub.Subscriber, guard idempotencyGuard, logg *logger.Logger) (*Consumer, error) {
	if svc == nil {
		return nil, fmt.Errorf("ledger service required")
	}
	if subscription == nil {
		return nil, fmt.Errorf("domain subscription required")
	}
	if guard == nil {
		return nil, fmt.Errorf("idempotency guard required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Consumer{
		svc:          svc,
		subscription: subscription,
		idempotency:  guard,
		decoders:     newCommissionDecoders(),
		logg:         logg,
	}, nil
}

func newCommissionDecoders() *registry.DecoderRegistry {
	decoders := registry.NewDecoderRegistry()
	decoders.Register(enums.EventCommissionApplied, 1, func(payload json.RawMessage) (interface{}, error) {
		var event payloads.CommissionAppliedEvent
		if err := json.Unmarshal(payload, &event); err != nil {
			return nil, err
		}
		return &event, nil
	})
	decoders.Register(enums.EventCommissionReversed, 1, func(payload json.RawMessage) (interface{}, error) {
		var event payloads.CommissionReversedEvent
		if err := json.Unmarshal(payload, &event); err != nil {
			return nil, err
		}
		return &event, nil
	})
	return decoders
}

// Run starts the consumer loop until the context is canceled.
func (c *Consumer) Run(ctx context.Context) error {
	return c.subscription.Receive(ctx, func(ctx context.Context, msg *gcppubsub.Message) {
		result := c.process(ctx, msg)
		if result.nack {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

type processResult struct {
	ack  bool
	nack bool
}

func (c *Consumer) process(ctx context.Context, msg *gcppubsub.Message) processResult {
	eventType := enums.OutboxEventType(msg.Attributes["event_type"])
	logCtx := c.logg.WithFields(ctx, map[string]any{
		"message_id": msg.ID,
		"event_type": eventType,
	})

	if eventType != enums.EventCommissionApplied && eventType != enums.EventCommissionReversed {
		return processResult{ack: true}
	}

	var envelope outbox.PayloadEnvelope
	if err := json.Unmarshal(msg.Data, &envelope); err != nil {
		c.logg.Error(logCtx, "failed to decode envelope", err)
		return processResult{ack: true}
	}

	eventID, err := uuid.Parse(envelope.EventID)
	if err != nil {
		c.logg.Error(logCtx, "invalid event id", err)
		return processResult{ack: true}
	}

	already, err := c.idempotency.CheckAndMarkProcessed(ctx, reconciliationConsumerName, eventID)
	if err != nil {
		c.logg.Error(logCtx, "idempotency check failed", err)
		return processResult{nack: true}
	}
	if already {
		c.logg.Info(logCtx, "event already processed")
		return processResult{ack: true}
	}

	decoded, err := c.decoders.Decode(eventType, envelope.Version, envelope.Data)
	if err != nil {
		c.logg.Error(logCtx, "failed to decode payload", err)
		_ = c.idempotency.Delete(ctx, reconciliationConsumerName, eventID)
		return processResult{nack: true}
	}

	partnerID, err := partnerFromPayload(decoded)
	if err != nil {
		c.logg.Error(logCtx, "payload missing partner", err)
		_ = c.idempotency.Delete(ctx, reconciliationConsumerName, eventID)
		return processResult{nack: true}
	}

	balance, err := c.svc.Recompute(ctx, partnerID)
	if err != nil {
		c.logg.Error(logCtx, "wallet reconciliation failed", err)
		_ = c.idempotency.Delete(ctx, reconciliationConsumerName, eventID)
		return processResult{nack: true}
	}

	logCtx = c.logg.WithFields(logCtx, map[string]any{
		"partner_id": partnerID.String(),
		"balance":    balance,
	})
	c.logg.Info(logCtx, "wallet balance reconciled")
	return processResult{ack: true}
}

func partnerFromPayload(decoded interface{}) (uuid.UUID, error) {
	switch payload := decoded.(type) {
	case *payloads.CommissionAppliedEvent:
		if payload.PartnerID == uuid.Nil {
			return uuid.Nil, fmt.Errorf("partner id missing")
		}
		return payload.PartnerID, nil
	case *payloads.CommissionReversedEvent:
		if payload.PartnerID == uuid.Nil {
			return uuid.Nil, fmt.Errorf("partner id missing")
		}
		return payload.PartnerID, nil
	default:
		return uuid.Nil, fmt.Errorf("unexpected payload type %T", decoded)
	}
}
