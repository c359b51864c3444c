package service

import (
	"errors"
	"fitcoach_backend/internal/model"
	"fitcoach_backend/internal/util"
	"fitcoach_backend/pkg/monitoring"
	"fmt"
	"strconv"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AwardStatus 一次奖励尝试的终态
type AwardStatus string

const (
	AwardStatusAwarded        AwardStatus = "awarded"
	AwardStatusAlreadyAwarded AwardStatus = "already_awarded" // 同一笔训练已发放过
	AwardStatusSameDay        AwardStatus = "same_day"        // 当天已有其它训练发放过
)

// AwardResult 奖励引擎的返回值
// AlreadyAwarded / SameDay 不是错误，是"本次无需再发"的正常终态
type AwardResult struct {
	Status     AwardStatus       `json:"status"`
	Points     int               `json:"points"`
	StreakDays int               `json:"streakDays"`
	Milestones []model.Milestone `json:"milestones"`
}

// 宽限日滚动窗口长度
const graceWindowDays = 30

// RewardService 训练完成奖励引擎
//
// 整个发放流程运行在独立于主训练记录的事务里，并在入口处对用户行加
// 排它锁：同一用户的并发发放串行执行，不同用户互不影响。任何一步出错
// 整个事务回滚，流水不会留下半截记录；主训练记录由调用方在此之前独立
// 提交，不受影响
type RewardService struct {
	DB *gorm.DB
}

func NewRewardService(db *gorm.DB) *RewardService {
	return &RewardService{DB: db}
}

// AwardWorkoutXP 为一笔已落库的训练发放经验积分
//
// 顺序：幂等检查 → 日级防重 → 连续天数推算 → 写流水与用户状态 → 里程碑评估，
// 任一守卫命中即短路返回对应终态
func (s *RewardService) AwardWorkoutXP(userID, workoutEventID uint, workoutDate time.Time, basePoints int) (*AwardResult, error) {
	var result *AwardResult

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		// 行级排它锁，持有到事务结束
		var user model.User
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&user, userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return util.ErrUserNotFound
			}
			return err
		}

		workoutDay := normalizeDay(workoutDate)

		// 幂等检查：同一训练只发一次，重试/重复投递安全
		rewarded, err := s.eventAlreadyRewarded(tx, workoutEventID)
		if err != nil {
			return err
		}
		if rewarded {
			result = &AwardResult{Status: AwardStatusAlreadyAwarded}
			return nil
		}

		// 日级防重：每人每个业务日最多发放一次
		sameDay, err := s.rewardedOnDay(tx, &user, workoutDay)
		if err != nil {
			return err
		}
		if sameDay {
			result = &AwardResult{Status: AwardStatusSameDay}
			return nil
		}

		streakDays, decision := resolveStreak(user.StreakDays, user.LastActivityDate, workoutDay)
		if decision == streakGraceCandidate {
			streakDays, err = s.applyGraceDay(tx, &user, workoutDay)
			if err != nil {
				return err
			}
		}

		milestones, err := s.writeReward(tx, &user, workoutEventID, workoutDay, basePoints, streakDays)
		if err != nil {
			return err
		}

		result = &AwardResult{
			Status:     AwardStatusAwarded,
			Points:     basePoints,
			StreakDays: streakDays,
			Milestones: milestones,
		}
		return nil
	})

	if err != nil {
		monitoring.RewardOutcomeCounter.WithLabelValues("error").Inc()
		return nil, err
	}

	monitoring.RewardOutcomeCounter.WithLabelValues(string(result.Status)).Inc()
	if len(result.Milestones) > 0 {
		monitoring.MilestoneAwardCounter.Add(float64(len(result.Milestones)))
	}
	return result, nil
}

// workoutSourceID 训练事件在流水表 source_id 上的表示
func workoutSourceID(eventID uint) string {
	return strconv.FormatUint(uint64(eventID), 10)
}

func (s *RewardService) eventAlreadyRewarded(tx *gorm.DB, eventID uint) (bool, error) {
	var count int64
	err := tx.Model(&model.PointTransaction{}).
		Where("source_type = ? AND source_id = ?", model.SourceWorkoutCompletion, workoutSourceID(eventID)).
		Count(&count).Error
	return count > 0, err
}

// rewardedOnDay 两个独立的日级检查，命中任何一个都视为当天已发放：
// 1. 当天（业务日期半开区间）已存在带积分标记的训练
// 2. 用户状态上的最近活动日等于本次训练的业务日
// 两个来源在时区/倒填场景下未必一致，按"任一命中即拦截"处理
func (s *RewardService) rewardedOnDay(tx *gorm.DB, user *model.User, day time.Time) (bool, error) {
	var count int64
	err := tx.Model(&model.WorkoutSession{}).
		Where("user_id = ? AND workout_date >= ? AND workout_date < ? AND experience_points > 0",
			user.ID, day, day.Add(24*time.Hour)).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	if count > 0 {
		return true, nil
	}

	if user.LastActivityDate != nil && normalizeDay(*user.LastActivityDate).Equal(day) {
		return true, nil
	}
	return false, nil
}

// applyGraceDay 宽限日裁决：滚动30天窗口内没用过则保持连续天数不变并
// 记录一枚零分宽限令牌；用过了按断签处理
// 令牌按 description 前缀匹配，不单纯依赖时间戳，写入时刻偏移不影响识别
func (s *RewardService) applyGraceDay(tx *gorm.DB, user *model.User, day time.Time) (int, error) {
	windowStart := day.AddDate(0, 0, -graceWindowDays)

	var used int64
	err := tx.Model(&model.PointTransaction{}).
		Where("user_id = ? AND source_type = ? AND description LIKE ? AND created_at >= ?",
			user.ID, model.SourceStreakGrace, util.GracePrefix+"%", windowStart).
		Count(&used).Error
	if err != nil {
		return 0, err
	}
	if used > 0 {
		return 1, nil
	}

	token := &model.PointTransaction{
		UserID:      user.ID,
		Points:      0,
		SourceType:  model.SourceStreakGrace,
		SourceID:    fmt.Sprintf("grace:%d:%s", user.ID, day.Format(util.DateFormat)),
		Description: fmt.Sprintf("%s 宽限日 %s（每%d天一次）", util.GracePrefix, day.Format(util.DateFormat), graceWindowDays),
	}
	if err := tx.Create(token).Error; err != nil {
		return 0, err
	}

	if user.StreakDays < 1 {
		return 1, nil
	}
	return user.StreakDays, nil
}

// writeReward 写主流水、更新用户状态、回填训练积分标记，然后评估里程碑
func (s *RewardService) writeReward(tx *gorm.DB, user *model.User, eventID uint, day time.Time, basePoints, streakDays int) ([]model.Milestone, error) {
	transaction := &model.PointTransaction{
		UserID:      user.ID,
		Points:      basePoints,
		SourceType:  model.SourceWorkoutCompletion,
		SourceID:    workoutSourceID(eventID),
		Description: fmt.Sprintf("训练完成 %s", day.Format(util.DateFormat)),
	}
	if err := tx.Create(transaction).Error; err != nil {
		return nil, err
	}

	newTotal := user.TotalPoints + basePoints
	updates := map[string]interface{}{
		"total_points":   newTotal,
		"streak_days":    streakDays,
		"total_workouts": user.TotalWorkouts + 1,
	}
	// 最近活动日只向前推进，倒填的历史训练不会把它往回拉
	if user.LastActivityDate == nil || day.After(normalizeDay(*user.LastActivityDate)) {
		updates["last_activity_date"] = day
	}
	if err := tx.Model(&model.User{}).Where("id = ?", user.ID).Updates(updates).Error; err != nil {
		return nil, err
	}

	// 发放成功后回填训练上的积分标记，日级防重靠它识别"当天已发放"
	if err := tx.Model(&model.WorkoutSession{}).Where("id = ?", eventID).
		Update("experience_points", basePoints).Error; err != nil {
		return nil, err
	}

	return s.evaluateMilestones(tx, user.ID, newTotal)
}

// evaluateMilestones 选出所有已达标且尚未发放的启用里程碑并逐一落记录
// 每次发放都会评估，一次训练跨过多个门槛时全部解锁
func (s *RewardService) evaluateMilestones(tx *gorm.DB, userID uint, totalPoints int) ([]model.Milestone, error) {
	earned := tx.Model(&model.UserMilestone{}).Select("milestone_id").Where("user_id = ?", userID)

	var pending []model.Milestone
	err := tx.Where("is_active = ? AND target_points <= ?", true, totalPoints).
		Where("id NOT IN (?)", earned).
		Order("target_points ASC").
		Find(&pending).Error
	if err != nil {
		return nil, err
	}

	awarded := make([]model.Milestone, 0, len(pending))
	for _, m := range pending {
		record := &model.UserMilestone{
			UserID:      userID,
			MilestoneID: m.ID,
			AwardedAt:   time.Now(),
		}
		if err := tx.Create(record).Error; err != nil {
			return nil, err
		}
		awarded = append(awarded, m)
	}
	return awarded, nil
}
