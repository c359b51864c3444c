package service

import (
	"errors"
	"fmt"

	"fitcoach_backend/internal/model"
	"fitcoach_backend/internal/repository"
	"fitcoach_backend/internal/util"

	"gorm.io/gorm"
)

// MilestoneService 里程碑的管理入口，写操作仅限管理员路由使用
type MilestoneService struct {
	MilestoneRepo *repository.MilestoneRepository
}

func NewMilestoneService(milestoneRepo *repository.MilestoneRepository) *MilestoneService {
	return &MilestoneService{MilestoneRepo: milestoneRepo}
}

func (s *MilestoneService) List() ([]model.Milestone, error) {
	return s.MilestoneRepo.GetAll()
}

func (s *MilestoneService) Get(id uint) (*model.Milestone, error) {
	milestone, err := s.MilestoneRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrMilestoneNotFound
		}
		return nil, err
	}
	return milestone, nil
}

func (s *MilestoneService) Create(milestone *model.Milestone) error {
	if err := validateMilestone(milestone); err != nil {
		return err
	}
	return s.MilestoneRepo.Create(milestone)
}

func (s *MilestoneService) Update(id uint, updates *model.Milestone) (*model.Milestone, error) {
	milestone, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	milestone.Name = updates.Name
	milestone.Icon = updates.Icon
	milestone.TargetPoints = updates.TargetPoints
	milestone.IsActive = updates.IsActive
	if err := validateMilestone(milestone); err != nil {
		return nil, err
	}

	if err := s.MilestoneRepo.Update(milestone); err != nil {
		return nil, err
	}
	return milestone, nil
}

// Delete 软删除里程碑，已发放的用户记录保留不动
func (s *MilestoneService) Delete(id uint) error {
	if _, err := s.Get(id); err != nil {
		return err
	}
	return s.MilestoneRepo.Delete(id)
}

func validateMilestone(m *model.Milestone) error {
	if m.Name == "" {
		return fmt.Errorf("milestone name is required")
	}
	if m.TargetPoints <= 0 {
		return fmt.Errorf("milestone target points must be positive, got %d", m.TargetPoints)
	}
	return nil
}
