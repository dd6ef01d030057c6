package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"portal-billing/internal/model"
)

type SubscriptionRepository interface {
	Create(ctx context.Context, tx *gorm.DB, sub *model.Subscription) error
	GetByID(ctx context.Context, id string) (*model.Subscription, error)
	GetByUser(ctx context.Context, userID string) (*model.Subscription, error)
	FindPendingByUserPlan(ctx context.Context, userID, planID string) (*model.Subscription, error)
	FindByAsaasSubscription(ctx context.Context, asaasSubscriptionID string) (*model.Subscription, error)
	UpdateStatus(ctx context.Context, tx *gorm.DB, id string, status model.SubscriptionStatus, periodEnd *time.Time) error
	SetContractAccepted(ctx context.Context, userID string, at time.Time) error
}

type subscriptionRepoImpl struct {
	db *gorm.DB
}

func NewSubscriptionRepository(db *gorm.DB) SubscriptionRepository {
	return &subscriptionRepoImpl{
		db: db,
	}
}

func (r *subscriptionRepoImpl) Create(ctx context.Context, tx *gorm.DB, sub *model.Subscription) error {
	if tx == nil {
		tx = r.db
	}
	return tx.WithContext(ctx).Create(sub).Error
}

func (r *subscriptionRepoImpl) GetByID(ctx context.Context, id string) (*model.Subscription, error) {
	var sub model.Subscription
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&sub).Error

	if err != nil {
		return nil, err
	}

	return &sub, nil
}

func (r *subscriptionRepoImpl) GetByUser(ctx context.Context, userID string) (*model.Subscription, error) {
	var sub model.Subscription
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		First(&sub).Error

	if err != nil {
		return nil, err
	}

	return &sub, nil
}

func (r *subscriptionRepoImpl) FindPendingByUserPlan(ctx context.Context, userID, planID string) (*model.Subscription, error) {
	var sub model.Subscription
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND plan_id = ? AND status = ?", userID, planID, model.SubscriptionPending).
		Order("created_at DESC").
		First(&sub).Error

	if err != nil {
		return nil, err
	}

	return &sub, nil
}

func (r *subscriptionRepoImpl) FindByAsaasSubscription(ctx context.Context, asaasSubscriptionID string) (*model.Subscription, error) {
	var sub model.Subscription
	err := r.db.WithContext(ctx).
		Where("asaas_subscription_id = ?", asaasSubscriptionID).
		First(&sub).Error

	if err != nil {
		return nil, err
	}

	return &sub, nil
}

func (r *subscriptionRepoImpl) UpdateStatus(ctx context.Context, tx *gorm.DB, id string, status model.SubscriptionStatus, periodEnd *time.Time) error {
	if tx == nil {
		tx = r.db
	}
	updates := map[string]interface{}{
		"status":     status,
		"updated_at": time.Now(),
	}
	if periodEnd != nil {
		updates["period_end"] = periodEnd
	}
	return tx.WithContext(ctx).
		Model(&model.Subscription{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *subscriptionRepoImpl) SetContractAccepted(ctx context.Context, userID string, at time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&model.Subscription{}).
		Where("user_id = ?", userID).
		Updates(map[string]interface{}{
			"contract_accepted":    true,
			"contract_accepted_at": at,
			"updated_at":           time.Now(),
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
