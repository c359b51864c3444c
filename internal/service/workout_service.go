package service

import (
	"fitcoach_backend/internal/config"
	"fitcoach_backend/internal/model"
	"fitcoach_backend/internal/repository"
	"fitcoach_backend/pkg/logger"
	"time"

	"go.uber.org/zap"
)

// WorkoutRewarder 奖励引擎的调用契约，由 RewardService 实现
type WorkoutRewarder interface {
	AwardWorkoutXP(userID, workoutEventID uint, workoutDate time.Time, basePoints int) (*AwardResult, error)
}

// LogWorkoutInput 记录一次训练的输入
type LogWorkoutInput struct {
	UserID             uint
	TrainerID          *uint
	WorkoutDate        time.Time
	DurationMinutes    int
	ExercisesCompleted int
	CaloriesBurned     int
	Notes              string
}

// WorkoutService 训练记录的业务入口，也是奖励引擎的调用方
type WorkoutService struct {
	WorkoutRepo *repository.WorkoutRepository
	Rewarder    WorkoutRewarder
	Cfg         *config.Config
}

func NewWorkoutService(workoutRepo *repository.WorkoutRepository, rewarder WorkoutRewarder, cfg *config.Config) *WorkoutService {
	return &WorkoutService{
		WorkoutRepo: workoutRepo,
		Rewarder:    rewarder,
		Cfg:         cfg,
	}
}

// LogWorkout 先在独立事务落训练记录，提交后再调用奖励引擎
//
// 奖励是尽力而为的副作用：引擎报错只记日志并按"无奖励"返回，已提交的
// 训练记录不受影响；AlreadyAwarded / SameDay 同样按"无奖励"返回
func (s *WorkoutService) LogWorkout(input LogWorkoutInput) (*model.WorkoutSession, *AwardResult, error) {
	session := &model.WorkoutSession{
		UserID:             input.UserID,
		TrainerID:          input.TrainerID,
		WorkoutDate:        input.WorkoutDate,
		DurationMinutes:    input.DurationMinutes,
		ExercisesCompleted: input.ExercisesCompleted,
		CaloriesBurned:     input.CaloriesBurned,
		Notes:              input.Notes,
	}
	if err := s.WorkoutRepo.Create(session); err != nil {
		return nil, nil, err
	}

	basePoints := s.basePoints(input)
	reward, err := s.Rewarder.AwardWorkoutXP(session.UserID, session.ID, session.WorkoutDate, basePoints)
	if err != nil {
		logger.Log.Warn("workout reward not applied",
			zap.Uint("user_id", session.UserID),
			zap.Uint("session_id", session.ID),
			zap.Error(err))
		return session, nil, nil
	}

	return session, reward, nil
}

// basePoints 按配置计算本次训练的基础积分：
// 固定底分 + 每个完成动作的加分 + 超时长的阶梯加分
func (s *WorkoutService) basePoints(input LogWorkoutInput) int {
	r := s.Cfg.Rewards

	points := r.PointsPerWorkout
	points += input.ExercisesCompleted * r.PointsPerExercise
	if input.DurationMinutes > r.DurationBonusAfter {
		points += (input.DurationMinutes - r.DurationBonusAfter) / r.DurationBonusStep * r.DurationBonusPerStep
	}
	return points
}

// GetHistory 分页查询训练历史
func (s *WorkoutService) GetHistory(userID uint, page, limit int) ([]model.WorkoutSession, int64, error) {
	return s.WorkoutRepo.ListByUser(userID, page, limit)
}
