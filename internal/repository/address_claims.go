package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"claimgate/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AddressClaimRepository persists one claim record per network address.
type AddressClaimRepository struct {
	db *gorm.DB
}

func NewAddressClaimRepository(db *gorm.DB) *AddressClaimRepository {
	return &AddressClaimRepository{db: db}
}

// CommitIfWindowOpen inserts the record, or replaces an existing one for the same
// address whose last claim is older than cutoff, in a single statement. It returns
// false without modifying anything when the address claimed at or after cutoff.
//
// The conflict check and the write happen inside the store, so two concurrent
// calls for one address cannot both commit.
func (r *AddressClaimRepository) CommitIfWindowOpen(ctx context.Context, claim models.AddressClaim, cutoff time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "address"}},
		DoUpdates: clause.AssignmentColumns([]string{"claimed_option", "last_claimed_at", "caller_agent"}),
		Where: clause.Where{Exprs: []clause.Expression{
			clause.Lt{
				Column: clause.Column{Table: models.AddressClaim{}.TableName(), Name: "last_claimed_at"},
				Value:  cutoff,
			},
		}},
	}).Create(&claim)
	if res.Error != nil {
		return false, fmt.Errorf("upsert address claim: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

// FindActive returns the record for address when it was claimed at or after
// cutoff, or nil.
func (r *AddressClaimRepository) FindActive(ctx context.Context, address string, cutoff time.Time) (*models.AddressClaim, error) {
	var claim models.AddressClaim
	err := r.db.WithContext(ctx).
		Where("address = ? AND last_claimed_at >= ?", address, cutoff).
		First(&claim).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query address claim: %w", err)
	}
	return &claim, nil
}

// Get returns the record for address regardless of age, or nil.
func (r *AddressClaimRepository) Get(ctx context.Context, address string) (*models.AddressClaim, error) {
	var claim models.AddressClaim
	err := r.db.WithContext(ctx).Where("address = ?", address).First(&claim).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get address claim: %w", err)
	}
	return &claim, nil
}

// DeleteOlderThan removes records whose last claim is before cutoff.
func (r *AddressClaimRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Where("last_claimed_at < ?", cutoff).Delete(&models.AddressClaim{})
	if res.Error != nil {
		return 0, fmt.Errorf("delete expired address claims: %w", res.Error)
	}
	return res.RowsAffected, nil
}
