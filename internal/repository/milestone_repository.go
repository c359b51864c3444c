package repository

import (
	"errors"

	"fitcoach_backend/internal/model"

	"gorm.io/gorm"
)

type MilestoneRepository struct {
	DB *gorm.DB
}

func NewMilestoneRepository(db *gorm.DB) *MilestoneRepository {
	return &MilestoneRepository{DB: db}
}

func (r *MilestoneRepository) GetAll() ([]model.Milestone, error) {
	var milestones []model.Milestone
	err := r.DB.Order("target_points ASC").Find(&milestones).Error
	return milestones, err
}

func (r *MilestoneRepository) FindByID(id uint) (*model.Milestone, error) {
	var milestone model.Milestone
	err := r.DB.First(&milestone, id).Error
	if err != nil {
		return nil, err
	}
	return &milestone, nil
}

func (r *MilestoneRepository) Create(milestone *model.Milestone) error {
	return r.DB.Create(milestone).Error
}

func (r *MilestoneRepository) Update(milestone *model.Milestone) error {
	return r.DB.Save(milestone).Error
}

func (r *MilestoneRepository) Delete(id uint) error {
	return r.DB.Delete(&model.Milestone{}, id).Error
}

// ListEarnedByUser 用户已达成的里程碑（含目录信息）
func (r *MilestoneRepository) ListEarnedByUser(userID uint) ([]model.UserMilestone, error) {
	var earned []model.UserMilestone
	err := r.DB.Preload("Milestone").
		Where("user_id = ?", userID).
		Order("awarded_at ASC").
		Find(&earned).Error
	return earned, err
}

// NextForUser 用户下一个未达成的启用里程碑，已全部达成时返回 nil
func (r *MilestoneRepository) NextForUser(totalPoints int) (*model.Milestone, error) {
	var milestone model.Milestone
	err := r.DB.Where("is_active = ? AND target_points > ?", true, totalPoints).
		Order("target_points ASC").
		First(&milestone).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &milestone, nil
}
