package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"fitcoach_backend/internal/config"
	"fitcoach_backend/internal/model"
	"fitcoach_backend/internal/repository"
	"fitcoach_backend/internal/util"
	"fitcoach_backend/pkg/logger"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const leaderboardCacheKey = "gamification:leaderboard"

// GamificationProfile 用户激励面板
type GamificationProfile struct {
	TotalPoints   int                   `json:"totalPoints"`
	StreakDays    int                   `json:"streakDays"`
	TotalWorkouts int                   `json:"totalWorkouts"`
	LastActivity  *string               `json:"lastActivityDate"`
	Earned        []model.UserMilestone `json:"earnedMilestones"`
	NextMilestone *model.Milestone      `json:"nextMilestone"`
}

// LeaderboardEntry 排行榜条目
type LeaderboardEntry struct {
	Rank        int    `json:"rank"`
	UserID      uint   `json:"userId"`
	Name        string `json:"name"`
	TotalPoints int    `json:"totalPoints"`
	StreakDays  int    `json:"streakDays"`
}

// GamificationService 激励系统的查询与管理入口
type GamificationService struct {
	DB            *gorm.DB
	UserRepo      *repository.UserRepository
	TxRepo        *repository.PointTransactionRepository
	MilestoneRepo *repository.MilestoneRepository
	Redis         *redis.Client
	Cfg           *config.Config
}

func NewGamificationService(db *gorm.DB, userRepo *repository.UserRepository, txRepo *repository.PointTransactionRepository, milestoneRepo *repository.MilestoneRepository, rdb *redis.Client, cfg *config.Config) *GamificationService {
	return &GamificationService{
		DB:            db,
		UserRepo:      userRepo,
		TxRepo:        txRepo,
		MilestoneRepo: milestoneRepo,
		Redis:         rdb,
		Cfg:           cfg,
	}
}

// GetProfile 查询用户的积分、连续天数、已获里程碑和下一个目标
func (s *GamificationService) GetProfile(userID uint) (*GamificationProfile, error) {
	user, err := s.UserRepo.FindByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrUserNotFound
		}
		return nil, err
	}

	earned, err := s.MilestoneRepo.ListEarnedByUser(userID)
	if err != nil {
		return nil, err
	}

	next, err := s.MilestoneRepo.NextForUser(user.TotalPoints)
	if err != nil {
		return nil, err
	}

	profile := &GamificationProfile{
		TotalPoints:   user.TotalPoints,
		StreakDays:    user.StreakDays,
		TotalWorkouts: user.TotalWorkouts,
		Earned:        earned,
		NextMilestone: next,
	}
	if user.LastActivityDate != nil {
		day := user.LastActivityDate.Format(util.DateFormat)
		profile.LastActivity = &day
	}
	return profile, nil
}

// GetTransactions 分页查询积分流水
func (s *GamificationService) GetTransactions(userID uint, page, limit int) ([]model.PointTransaction, int64, error) {
	return s.TxRepo.ListByUser(userID, page, limit)
}

// GetLeaderboard 查询排行榜，优先走 Redis 缓存
func (s *GamificationService) GetLeaderboard(ctx context.Context) ([]LeaderboardEntry, error) {
	if s.Redis != nil {
		cached, err := s.Redis.Get(ctx, leaderboardCacheKey).Result()
		if err == nil {
			var entries []LeaderboardEntry
			if jsonErr := json.Unmarshal([]byte(cached), &entries); jsonErr == nil {
				return entries, nil
			}
		} else if !errors.Is(err, redis.Nil) {
			logger.Log.Warn("leaderboard cache read failed", zap.Error(err))
		}
	}

	return s.RefreshLeaderboard(ctx)
}

// RefreshLeaderboard 重新计算排行榜并回写缓存，供定时任务与缓存未命中调用
func (s *GamificationService) RefreshLeaderboard(ctx context.Context) ([]LeaderboardEntry, error) {
	users, err := s.UserRepo.FindTopByPoints(s.Cfg.Leaderboard.Size)
	if err != nil {
		return nil, err
	}

	entries := make([]LeaderboardEntry, 0, len(users))
	for i, u := range users {
		entries = append(entries, LeaderboardEntry{
			Rank:        i + 1,
			UserID:      u.ID,
			Name:        u.Name,
			TotalPoints: u.TotalPoints,
			StreakDays:  u.StreakDays,
		})
	}

	if s.Redis != nil {
		data, _ := json.Marshal(entries)
		ttl := time.Duration(s.Cfg.Leaderboard.CacheTTLMinutes) * time.Minute
		if err := s.Redis.Set(ctx, leaderboardCacheKey, data, ttl).Err(); err != nil {
			logger.Log.Warn("leaderboard cache write failed", zap.Error(err))
		}
	}
	return entries, nil
}

// AdjustPoints 管理员手工加分，走行锁事务并落等额流水
//
// 只允许正数调整，总积分保持单调递增
func (s *GamificationService) AdjustPoints(userID uint, points int, reason string) (*model.PointTransaction, error) {
	if points <= 0 {
		return nil, fmt.Errorf("adjustment points must be positive, got %d", points)
	}

	var txRecord *model.PointTransaction
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var user model.User
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&user, userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return util.ErrUserNotFound
			}
			return err
		}

		txRecord = &model.PointTransaction{
			UserID:      userID,
			Points:      points,
			SourceType:  model.SourceAdjustment,
			SourceID:    uuid.NewString(),
			Description: reason,
		}
		if err := tx.Create(txRecord).Error; err != nil {
			return err
		}

		return tx.Model(&user).Update("total_points", user.TotalPoints+points).Error
	})
	if err != nil {
		return nil, err
	}

	logger.Log.Info("points adjusted",
		zap.Uint("user_id", userID),
		zap.Int("points", points),
		zap.String("reason", reason))
	return txRecord, nil
}
