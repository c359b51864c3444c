package repository

import (
	"fitcoach_backend/internal/model"
	"time"

	"gorm.io/gorm"
)

type WorkoutRepository struct {
	DB *gorm.DB
}

// NewWorkoutRepository 创建训练记录仓库实例
func NewWorkoutRepository(db *gorm.DB) *WorkoutRepository {
	return &WorkoutRepository{DB: db}
}

// Create 写入训练记录（主事务，与奖励引擎的事务相互独立）
func (r *WorkoutRepository) Create(session *model.WorkoutSession) error {
	return r.DB.Create(session).Error
}

func (r *WorkoutRepository) FindByID(id uint) (*model.WorkoutSession, error) {
	var session model.WorkoutSession
	err := r.DB.First(&session, id).Error
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// ListByUser 按业务日期倒序分页查询用户的训练历史
func (r *WorkoutRepository) ListByUser(userID uint, page, limit int) ([]model.WorkoutSession, int64, error) {
	var sessions []model.WorkoutSession
	var total int64

	query := r.DB.Model(&model.WorkoutSession{}).Where("user_id = ?", userID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	err := query.Order("workout_date DESC").Offset(offset).Limit(limit).Find(&sessions).Error
	return sessions, total, err
}

// FindByUserAndDate 查询用户指定业务日当天的训练记录（半开区间）
func (r *WorkoutRepository) FindByUserAndDate(userID uint, date time.Time) ([]model.WorkoutSession, error) {
	var sessions []model.WorkoutSession
	startOfDay := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	endOfDay := startOfDay.Add(24 * time.Hour)

	err := r.DB.Where("user_id = ? AND workout_date >= ? AND workout_date < ?", userID, startOfDay, endOfDay).
		Find(&sessions).Error
	return sessions, err
}
