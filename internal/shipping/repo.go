package shipping

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mountemart/backend/pkg/db/models"
)

// Repository defines persistence operations for shipping zones and rates.
// Lookups match on lowercased district/city values; writes normalize before
// insert so the unique indexes hold across casings.
type Repository interface {
	FreeDeliveryZoneExists(ctx context.Context, district, city string) (bool, error)
	FindStandardRate(ctx context.Context, district, city string) (*models.StandardShippingRate, error)
	ExpressZoneExists(ctx context.Context, district string) (bool, error)
	FindExpressCharge(ctx context.Context, city string) (*models.ExpressCharge, error)
	FindForbiddenDeliveries(ctx context.Context, district string, productIDs []uuid.UUID) ([]models.ForbiddenDelivery, error)

	UpsertFreeDeliveryZone(ctx context.Context, zone *models.FreeDeliveryZone) error
	UpsertStandardRate(ctx context.Context, rate *models.StandardShippingRate) error
	UpsertExpressZone(ctx context.Context, zone *models.ExpressZone) error
	UpsertExpressCharge(ctx context.Context, charge *models.ExpressCharge) error
	UpsertForbiddenDelivery(ctx context.Context, ban *models.ForbiddenDelivery) error

	ListFreeDeliveryZones(ctx context.Context) ([]models.FreeDeliveryZone, error)
	ListStandardRates(ctx context.Context) ([]models.StandardShippingRate, error)
	ListExpressZones(ctx context.Context) ([]models.ExpressZone, error)
	ListExpressCharges(ctx context.Context) ([]models.ExpressCharge, error)
	ListForbiddenDeliveries(ctx context.Context) ([]models.ForbiddenDelivery, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a shipping repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) FreeDeliveryZoneExists(ctx context.Context, district, city string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.FreeDeliveryZone{}).
		Where("district = ? AND city = ?", district, city).
		Count(&count).Error
	return count > 0, err
}

func (r *repository) FindStandardRate(ctx context.Context, district, city string) (*models.StandardShippingRate, error) {
	var rate models.StandardShippingRate
	err := r.db.WithContext(ctx).
		Where("district = ? AND city = ?", district, city).
		First(&rate).Error
	if err != nil {
		return nil, err
	}
	return &rate, nil
}

func (r *repository) ExpressZoneExists(ctx context.Context, district string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.ExpressZone{}).
		Where("district = ?", district).
		Count(&count).Error
	return count > 0, err
}

func (r *repository) FindExpressCharge(ctx context.Context, city string) (*models.ExpressCharge, error) {
	var charge models.ExpressCharge
	err := r.db.WithContext(ctx).
		Where("city = ?", city).
		First(&charge).Error
	if err != nil {
		return nil, err
	}
	return &charge, nil
}

func (r *repository) FindForbiddenDeliveries(ctx context.Context, district string, productIDs []uuid.UUID) ([]models.ForbiddenDelivery, error) {
	if len(productIDs) == 0 {
		return nil, nil
	}
	var bans []models.ForbiddenDelivery
	err := r.db.WithContext(ctx).
		Where("district = ? AND product_id IN ?", district, productIDs).
		Find(&bans).Error
	return bans, err
}

func (r *repository) UpsertFreeDeliveryZone(ctx context.Context, zone *models.FreeDeliveryZone) error {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "district"}, {Name: "city"}},
			DoNothing: true,
		}).
		Create(zone).Error
	return ignoreDuplicate(err)
}

func (r *repository) UpsertStandardRate(ctx context.Context, rate *models.StandardShippingRate) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "district"}, {Name: "city"}},
			DoUpdates: clause.AssignmentColumns([]string{"base_charge", "per_kg_charge", "updated_at"}),
		}).
		Create(rate).Error
}

func (r *repository) UpsertExpressZone(ctx context.Context, zone *models.ExpressZone) error {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "district"}},
			DoNothing: true,
		}).
		Create(zone).Error
	return ignoreDuplicate(err)
}

func (r *repository) UpsertExpressCharge(ctx context.Context, charge *models.ExpressCharge) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "city"}},
			DoUpdates: clause.AssignmentColumns([]string{"charge", "updated_at"}),
		}).
		Create(charge).Error
}

func (r *repository) UpsertForbiddenDelivery(ctx context.Context, ban *models.ForbiddenDelivery) error {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "product_id"}, {Name: "district"}},
			DoNothing: true,
		}).
		Create(ban).Error
	return ignoreDuplicate(err)
}

func (r *repository) ListFreeDeliveryZones(ctx context.Context) ([]models.FreeDeliveryZone, error) {
	var zones []models.FreeDeliveryZone
	err := r.db.WithContext(ctx).Order("district ASC, city ASC").Find(&zones).Error
	return zones, err
}

func (r *repository) ListStandardRates(ctx context.Context) ([]models.StandardShippingRate, error) {
	var rates []models.StandardShippingRate
	err := r.db.WithContext(ctx).Order("district ASC, city ASC").Find(&rates).Error
	return rates, err
}

func (r *repository) ListExpressZones(ctx context.Context) ([]models.ExpressZone, error) {
	var zones []models.ExpressZone
	err := r.db.WithContext(ctx).Order("district ASC").Find(&zones).Error
	return zones, err
}

func (r *repository) ListExpressCharges(ctx context.Context) ([]models.ExpressCharge, error) {
	var charges []models.ExpressCharge
	err := r.db.WithContext(ctx).Order("city ASC").Find(&charges).Error
	return charges, err
}

func (r *repository) ListForbiddenDeliveries(ctx context.Context) ([]models.ForbiddenDelivery, error) {
	var bans []models.ForbiddenDelivery
	err := r.db.WithContext(ctx).Order("district ASC, product_id ASC").Find(&bans).Error
	return bans, err
}

// ignoreDuplicate keeps DoNothing upserts idempotent on drivers that still
// surface the conflict as an error.
func ignoreDuplicate(err error) error {
	if err == nil || errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil
	}
	return err
}
