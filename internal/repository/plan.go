package repository

import (
	"context"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"portal-billing/internal/model"
)

type PlanRepository interface {
	Seed(ctx context.Context) error
	FindByID(ctx context.Context, planID string) (*model.Plan, error)
	ListActive(ctx context.Context) ([]*model.Plan, error)
}

type planRepoImpl struct {
	db *gorm.DB
}

func NewPlanRepository(db *gorm.DB) PlanRepository {
	return &planRepoImpl{
		db: db,
	}
}

func (r *planRepoImpl) Seed(ctx context.Context) error {
	plans := []model.Plan{
		{ID: "consultoria_start", Name: "Consultoria Start", MonthlyPrice: decimal.NewFromFloat(297.00), MaxInstallments: 1, Active: true},
		{ID: "consultoria_pro", Name: "Consultoria Pro", MonthlyPrice: decimal.NewFromFloat(597.00), MaxInstallments: 6, Active: true},
		{ID: "consultoria_master", Name: "Consultoria Master", MonthlyPrice: decimal.NewFromFloat(1197.00), MaxInstallments: 12, Active: true},
	}

	return r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&plans).Error
}

func (r *planRepoImpl) FindByID(ctx context.Context, planID string) (*model.Plan, error) {
	var plan model.Plan
	err := r.db.WithContext(ctx).
		Where("id = ?", planID).
		First(&plan).Error

	if err != nil {
		return nil, err
	}

	return &plan, nil
}

func (r *planRepoImpl) ListActive(ctx context.Context) ([]*model.Plan, error) {
	var plans []*model.Plan
	err := r.db.WithContext(ctx).
		Where("active = ?", true).
		Find(&plans).Error

	if err != nil {
		return nil, err
	}

	return plans, nil
}
