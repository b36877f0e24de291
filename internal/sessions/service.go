package sessions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/reclaimtech/buyback-backend/internal/catalog"
	"github.com/reclaimtech/buyback-backend/internal/pricing"
	"github.com/reclaimtech/buyback-backend/pkg/config"
	"github.com/reclaimtech/buyback-backend/pkg/db/models"
	pkgerrors "github.com/reclaimtech/buyback-backend/pkg/errors"
	"github.com/reclaimtech/buyback-backend/pkg/logger"
	"github.com/reclaimtech/buyback-backend/pkg/security"
	"github.com/reclaimtech/buyback-backend/pkg/types"
)

// Updatable session input fields accepted by UpdateField.
const (
	FieldAnswers     = "answers"
	FieldDefects     = "defects"
	FieldAccessories = "accessories"
)

// CreateInput carries the questionnaire submission that opens a session.
type CreateInput struct {
	UserID      *uuid.UUID
	ProductID   uuid.UUID
	VariantID   uuid.UUID
	Answers     types.JSONMap
	Defects     []string
	Accessories []string
}

// Service owns the offer session lifecycle: create with a computed quote,
// token or id lookup with expiry enforcement, recomputing field updates,
// explicit extension, and the expiry sweep.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.OfferSession, error)
	Get(ctx context.Context, ref string) (*models.OfferSession, error)
	Extend(ctx context.Context, id uuid.UUID, hours int) (*models.OfferSession, error)
	UpdateField(ctx context.Context, id uuid.UUID, field string, value any) (*models.OfferSession, error)
	Delete(ctx context.Context, id uuid.UUID) error
	SweepExpired(ctx context.Context) (int64, error)
}

type service struct {
	repo     Repository
	catalog  catalog.Service
	cfg      config.SessionConfig
	logg     *logger.Logger
	now      func() time.Time
	newToken func() (string, error)
}

// NewService wires a session service with the required dependencies.
func NewService(repo Repository, catalogSvc catalog.Service, cfg config.SessionConfig, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("sessions repository required")
	}
	if catalogSvc == nil {
		return nil, fmt.Errorf("catalog service required")
	}
	if cfg.TTL <= 0 {
		return nil, fmt.Errorf("session ttl must be positive")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:     repo,
		catalog:  catalogSvc,
		cfg:      cfg,
		logg:     logg,
		now:      time.Now,
		newToken: security.NewSessionToken,
	}, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*models.OfferSession, error) {
	profile, err := s.catalog.ResolvePricingProfile(ctx, input.ProductID, input.VariantID)
	if err != nil {
		return nil, err
	}

	adjustments, err := pricing.BuildAdjustments(profile.Config, input.Answers, input.Defects, input.Accessories)
	if err != nil {
		return nil, err
	}
	result := pricing.ComputePrice(profile.BasePrice, adjustments, profile.Rules)

	token, err := s.newToken()
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate session token")
	}

	now := s.now()
	session := &models.OfferSession{
		Token:       token,
		UserID:      input.UserID,
		ProductID:   input.ProductID,
		VariantID:   input.VariantID,
		Answers:     input.Answers,
		Defects:     input.Defects,
		Accessories: input.Accessories,
		BasePrice:   profile.BasePrice,
		RawPrice:    result.RawPrice,
		FinalPrice:  result.FinalPrice,
		Breakdown:   result.Breakdown,
		ComputedAt:  now,
		ExpiresAt:   now.Add(s.cfg.TTL),
	}
	if err := s.repo.Create(ctx, session); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist offer session")
	}

	logCtx := s.logg.WithFields(ctx, map[string]any{
		"session_id":  session.ID.String(),
		"final_price": session.FinalPrice,
	})
	s.logg.Info(logCtx, "offer session created")
	return session, nil
}

// Get resolves a session by UUID or bearer token. Sessions past expiry are
// rejected as expired, not missing, even before the sweep purges the row.
func (s *service) Get(ctx context.Context, ref string) (*models.OfferSession, error) {
	session, err := s.lookup(ctx, ref)
	if err != nil {
		return nil, err
	}
	if session.Expired(s.now()) {
		return nil, pkgerrors.New(pkgerrors.CodeExpired, "offer session expired")
	}
	return session, nil
}

func (s *service) Extend(ctx context.Context, id uuid.UUID, hours int) (*models.OfferSession, error) {
	if hours <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "extension hours must be positive")
	}

	session, err := s.findByID(ctx, id)
	if err != nil {
		return nil, err
	}
	now := s.now()
	if session.Expired(now) {
		return nil, pkgerrors.New(pkgerrors.CodeExpired, "offer session expired")
	}
	if session.Consumed() {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "offer session already consumed")
	}

	extended := session.ExpiresAt.Add(time.Duration(hours) * time.Hour)
	if horizon := now.Add(s.cfg.MaxExtension); extended.After(horizon) {
		extended = horizon
	}

	if err := s.repo.Update(ctx, session.ID, map[string]any{"expires_at": extended}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "extend offer session")
	}
	session.ExpiresAt = extended
	return session, nil
}

// UpdateField replaces one input field and recomputes the quote. Inputs are
// otherwise immutable once the session exists.
func (s *service) UpdateField(ctx context.Context, id uuid.UUID, field string, value any) (*models.OfferSession, error) {
	session, err := s.findByID(ctx, id)
	if err != nil {
		return nil, err
	}
	now := s.now()
	if session.Expired(now) {
		return nil, pkgerrors.New(pkgerrors.CodeExpired, "offer session expired")
	}
	if session.Consumed() {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "offer session already consumed")
	}

	answers := session.Answers
	defects := session.Defects
	accessories := session.Accessories

	switch field {
	case FieldAnswers:
		replacement, ok := toJSONMap(value)
		if !ok {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "answers must be an object of question keys")
		}
		answers = replacement
	case FieldDefects:
		replacement, ok := toStringSlice(value)
		if !ok {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "defects must be a list of keys")
		}
		defects = replacement
	case FieldAccessories:
		replacement, ok := toStringSlice(value)
		if !ok {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "accessories must be a list of keys")
		}
		accessories = replacement
	default:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("field %q is not updatable", field))
	}

	profile, err := s.catalog.ResolvePricingProfile(ctx, session.ProductID, session.VariantID)
	if err != nil {
		return nil, err
	}
	adjustments, err := pricing.BuildAdjustments(profile.Config, answers, defects, accessories)
	if err != nil {
		return nil, err
	}
	result := pricing.ComputePrice(profile.BasePrice, adjustments, profile.Rules)

	updates := map[string]any{
		"base_price":  profile.BasePrice,
		"raw_price":   result.RawPrice,
		"final_price": result.FinalPrice,
		"computed_at": now,
	}
	// Map updates skip the json serializer on the model, so the jsonb
	// columns are marshalled explicitly.
	for column, value := range map[string]any{
		"answers":     answers,
		"defects":     defects,
		"accessories": accessories,
		"breakdown":   result.Breakdown,
	} {
		raw, err := json.Marshal(value)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode session field")
		}
		updates[column] = string(raw)
	}
	if err := s.repo.Update(ctx, session.ID, updates); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update offer session")
	}

	session.Answers = answers
	session.Defects = defects
	session.Accessories = accessories
	session.BasePrice = profile.BasePrice
	session.RawPrice = result.RawPrice
	session.FinalPrice = result.FinalPrice
	session.Breakdown = result.Breakdown
	session.ComputedAt = now
	return session, nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "session id required")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete offer session")
	}
	return nil
}

// SweepExpired purges sessions past their horizon. Reads stay correct without
// it because Get checks expiry, so a late sweep only costs storage.
func (s *service) SweepExpired(ctx context.Context) (int64, error) {
	count, err := s.repo.DeleteExpiredBefore(ctx, s.now())
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sweep expired sessions")
	}
	if count > 0 {
		logCtx := s.logg.WithFields(ctx, map[string]any{"expired_count": count})
		s.logg.Info(logCtx, "expired offer sessions purged")
	}
	return count, nil
}

func (s *service) lookup(ctx context.Context, ref string) (*models.OfferSession, error) {
	if ref == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session reference required")
	}
	if id, err := uuid.Parse(ref); err == nil {
		return s.findByID(ctx, id)
	}
	session, err := s.repo.FindByToken(ctx, ref)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "offer session not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load offer session")
	}
	return session, nil
}

func (s *service) findByID(ctx context.Context, id uuid.UUID) (*models.OfferSession, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session id required")
	}
	session, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "offer session not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load offer session")
	}
	return session, nil
}

func toJSONMap(value any) (types.JSONMap, bool) {
	switch v := value.(type) {
	case types.JSONMap:
		return v, true
	case map[string]any:
		return types.JSONMap(v), true
	default:
		return nil, false
	}
}

func toStringSlice(value any) ([]string, bool) {
	switch v := value.(type) {
	case []string:
		return v, true
	case []any:
		keys := make([]string, 0, len(v))
		for _, item := range v {
			key, ok := item.(string)
			if !ok {
				return nil, false
			}
			keys = append(keys, key)
		}
		return keys, true
	default:
		return nil, false
	}
}
