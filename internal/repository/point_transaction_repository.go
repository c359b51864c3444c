package repository

import (
	"fitcoach_backend/internal/model"

	"gorm.io/gorm"
)

type PointTransactionRepository struct {
	DB *gorm.DB
}

func NewPointTransactionRepository(db *gorm.DB) *PointTransactionRepository {
	return &PointTransactionRepository{DB: db}
}

// ListByUser 按时间倒序分页查询用户积分流水
func (r *PointTransactionRepository) ListByUser(userID uint, page, limit int) ([]model.PointTransaction, int64, error) {
	var transactions []model.PointTransaction
	var total int64

	query := r.DB.Model(&model.PointTransaction{}).Where("user_id = ?", userID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	err := query.Order("created_at DESC").Offset(offset).Limit(limit).Find(&transactions).Error
	return transactions, total, err
}

// FindBySource 按来源精确查找流水
func (r *PointTransactionRepository) FindBySource(sourceType model.PointSourceType, sourceID string) (*model.PointTransaction, error) {
	var transaction model.PointTransaction
	err := r.DB.Where("source_type = ? AND source_id = ?", sourceType, sourceID).First(&transaction).Error
	if err != nil {
		return nil, err
	}
	return &transaction, nil
}
