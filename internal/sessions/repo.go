package sessions

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/reclaimtech/buyback-backend/pkg/db/models"
)

// Repository manages persistence for offer sessions.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, session *models.OfferSession) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.OfferSession, error)
	FindByToken(ctx context.Context, token string) (*models.OfferSession, error)
	Update(ctx context.Context, id uuid.UUID, updates map[string]any) error
	MarkConsumed(ctx context.Context, id uuid.UUID, at time.Time) (int64, error)
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a sessions repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, session *models.OfferSession) error {
	return r.db.WithContext(ctx).Create(session).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.OfferSession, error) {
	var session models.OfferSession
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&session).Error
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *repository) FindByToken(ctx context.Context, token string) (*models.OfferSession, error) {
	var session models.OfferSession
	err := r.db.WithContext(ctx).
		Where("token = ?", token).
		First(&session).Error
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *repository) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.OfferSession{}).
		Where("id = ?", id).
		Updates(updates).Error
}

// MarkConsumed flips consumed_at exactly once. The conditional update makes
// double consumption a clean zero-row failure instead of a race.
func (r *repository) MarkConsumed(ctx context.Context, id uuid.UUID, at time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.OfferSession{}).
		Where("id = ? AND consumed_at IS NULL", id).
		Update("consumed_at", at)
	return result.RowsAffected, result.Error
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.OfferSession{}, "id = ?", id).Error
}

func (r *repository) DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("expires_at < ?", cutoff).
		Delete(&models.OfferSession{})
	return result.RowsAffected, result.Error
}
