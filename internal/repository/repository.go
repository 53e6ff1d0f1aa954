package repository

import (
	"context"

	"creator-insurance/internal/models"

	"gorm.io/gorm"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// DB exposes the underlying handle for transactional service code
func (r *Repository) DB() *gorm.DB {
	return r.db
}

// GetUserByID retrieves a user by ID
func (r *Repository) GetUserByID(ctx context.Context, userID uint) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Where("id = ?", userID).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetUserByWallet retrieves a user by wallet address
func (r *Repository) GetUserByWallet(ctx context.Context, walletAddress string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Where("wallet_address = ?", walletAddress).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// CreateUser creates a new user
func (r *Repository) CreateUser(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

// UpdateUser updates a user
func (r *Repository) UpdateUser(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Save(user).Error
}

// CreatePass creates a creator's pass
func (r *Repository) CreatePass(ctx context.Context, pass *models.Pass) error {
	return r.db.WithContext(ctx).Create(pass).Error
}

// GetPassByID retrieves a pass by ID
func (r *Repository) GetPassByID(ctx context.Context, passID uint) (*models.Pass, error) {
	var pass models.Pass
	err := r.db.WithContext(ctx).Where("id = ?", passID).First(&pass).Error
	if err != nil {
		return nil, err
	}
	return &pass, nil
}

// GetPassByCreator retrieves a creator's pass
func (r *Repository) GetPassByCreator(ctx context.Context, creatorID uint) (*models.Pass, error) {
	var pass models.Pass
	err := r.db.WithContext(ctx).Where("creator_id = ?", creatorID).First(&pass).Error
	if err != nil {
		return nil, err
	}
	return &pass, nil
}

// ListPasses retrieves all passes
func (r *Repository) ListPasses(ctx context.Context, limit, offset int) ([]*models.Pass, int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&models.Pass{}).Count(&total).Error
	if err != nil {
		return nil, 0, err
	}

	var passes []*models.Pass
	err = r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&passes).Error
	if err != nil {
		return nil, 0, err
	}

	return passes, total, nil
}

// UpdatePass updates a pass
func (r *Repository) UpdatePass(ctx context.Context, pass *models.Pass) error {
	return r.db.WithContext(ctx).Save(pass).Error
}

// CreateOwnership records that a user holds a pass
func (r *Repository) CreateOwnership(ctx context.Context, ownership *models.Ownership) error {
	return r.db.WithContext(ctx).Create(ownership).Error
}

// HasOwnership reports whether a user holds the given creator's pass
func (r *Repository) HasOwnership(ctx context.Context, userID, creatorID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Ownership{}).
		Where("user_id = ? AND creator_id = ?", userID, creatorID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// GetHolders retrieves the distribution roster for a creator's pass
func (r *Repository) GetHolders(ctx context.Context, creatorID uint) ([]*models.Holder, error) {
	var holders []*models.Holder
	err := r.db.WithContext(ctx).Model(&models.Ownership{}).
		Select("ownerships.user_id, users.wallet_address, users.nickname").
		Joins("JOIN users ON users.id = ownerships.user_id").
		Where("ownerships.creator_id = ?", creatorID).
		Order("ownerships.created_at ASC").
		Scan(&holders).Error
	if err != nil {
		return nil, err
	}
	return holders, nil
}

// GetOwnedCreatorIDs retrieves the creators whose passes a user holds
func (r *Repository) GetOwnedCreatorIDs(ctx context.Context, userID uint) ([]uint, error) {
	var creatorIDs []uint
	err := r.db.WithContext(ctx).Model(&models.Ownership{}).
		Where("user_id = ?", userID).
		Pluck("creator_id", &creatorIDs).Error
	if err != nil {
		return nil, err
	}
	return creatorIDs, nil
}
