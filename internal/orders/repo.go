package orders

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/reclaimtech/buyback-backend/pkg/db/models"
	"github.com/reclaimtech/buyback-backend/pkg/enums"
	"github.com/reclaimtech/buyback-backend/pkg/types"
)

// Repository manages pickup order persistence. Claim and the other state
// transitions are conditional updates so concurrent writers resolve at the
// database instead of in process memory.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.PickupOrder) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.PickupOrder, error)
	FindByNumber(ctx context.Context, orderNumber string) (*models.PickupOrder, error)
	Claim(ctx context.Context, orderID, partnerID uuid.UUID, at time.Time) (int64, error)
	TransitionStatus(ctx context.Context, orderID uuid.UUID, from []enums.OrderStatus, updates map[string]any) (int64, error)
	Update(ctx context.Context, orderID uuid.UUID, updates map[string]any) error
	UpdateCommission(ctx context.Context, orderID uuid.UUID, snapshot *types.CommissionSnapshot) error
	NextSequence(ctx context.Context, dayKey string) (int64, error)
	ListByPartner(ctx context.Context, partnerID uuid.UUID, limit int) ([]models.PickupOrder, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds an orders repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, order *models.PickupOrder) error {
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.PickupOrder, error) {
	var order models.PickupOrder
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) FindByNumber(ctx context.Context, orderNumber string) (*models.PickupOrder, error) {
	var order models.PickupOrder
	err := r.db.WithContext(ctx).
		Where("order_number = ?", orderNumber).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// Claim assigns the partner iff the order is still open and unassigned. One
// conditional update, one round trip; losers see zero rows affected.
func (r *repository) Claim(ctx context.Context, orderID, partnerID uuid.UUID, at time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.PickupOrder{}).
		Where("id = ? AND status = ? AND partner_id IS NULL", orderID, enums.OrderStatusOpen).
		Updates(map[string]any{
			"partner_id": partnerID,
			"status":     enums.OrderStatusPendingAcceptance,
			"claimed_at": at,
		})
	return result.RowsAffected, result.Error
}

// TransitionStatus applies updates only when the current status is one of
// from. Callers decide what zero rows affected means.
func (r *repository) TransitionStatus(ctx context.Context, orderID uuid.UUID, from []enums.OrderStatus, updates map[string]any) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.PickupOrder{}).
		Where("id = ? AND status IN ?", orderID, from).
		Updates(updates)
	return result.RowsAffected, result.Error
}

func (r *repository) Update(ctx context.Context, orderID uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.PickupOrder{}).
		Where("id = ?", orderID).
		Updates(updates).Error
}

// UpdateCommission writes the commission snapshot column. Map-based updates
// skip the json serializer, so the snapshot is marshalled here.
func (r *repository) UpdateCommission(ctx context.Context, orderID uuid.UUID, snapshot *types.CommissionSnapshot) error {
	raw, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).
		Model(&models.PickupOrder{}).
		Where("id = ?", orderID).
		Update("commission", string(raw)).Error
}

// NextSequence increments and returns the per-day order counter in one
// round trip via an upsert.
func (r *repository) NextSequence(ctx context.Context, dayKey string) (int64, error) {
	var counter int64
	err := r.db.WithContext(ctx).Raw(`
INSERT INTO order_sequences (day_key, counter)
VALUES (?, 1)
ON CONFLICT (day_key) DO UPDATE SET counter = order_sequences.counter + 1
RETURNING counter`, dayKey).Scan(&counter).Error
	return counter, err
}

func (r *repository) ListByPartner(ctx context.Context, partnerID uuid.UUID, limit int) ([]models.PickupOrder, error) {
	var orders []models.PickupOrder
	query := r.db.WithContext(ctx).
		Where("partner_id = ?", partnerID).
		Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}
