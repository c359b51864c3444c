//go:build integration

package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	mysqlcontainer "github.com/testcontainers/testcontainers-go/modules/mysql"
	gormmysql "gorm.io/driver/mysql"
	"gorm.io/gorm"

	"fitcoach_backend/internal/model"
	"fitcoach_backend/internal/util"
	"fitcoach_backend/pkg/database"
	"fitcoach_backend/pkg/logger"
)

var (
	testDB     *gorm.DB
	testDBOnce sync.Once
	testDBErr  error
)

// sharedDB 整个包共用一个 MySQL 容器，行锁语义要求真 MySQL，sqlite 不支持 FOR UPDATE
func sharedDB(t *testing.T) *gorm.DB {
	t.Helper()

	testDBOnce.Do(func() {
		logger.InitLogger("debug")
		ctx := context.Background()

		container, err := mysqlcontainer.RunContainer(ctx,
			mysqlcontainer.WithDatabase("fitcoach"),
			mysqlcontainer.WithUsername("fitcoach"),
			mysqlcontainer.WithPassword("fitcoach"),
		)
		if err != nil {
			testDBErr = err
			return
		}

		dsn, err := container.ConnectionString(ctx, "parseTime=true")
		if err != nil {
			testDBErr = err
			return
		}

		db, err := gorm.Open(gormmysql.Open(dsn), &gorm.Config{})
		if err != nil {
			testDBErr = err
			return
		}

		if err := database.Migrate(db); err != nil {
			testDBErr = err
			return
		}
		testDB = db
	})

	require.NoError(t, testDBErr)
	return testDB
}

var userSeq int

func newUser(t *testing.T, db *gorm.DB, totalPoints, streakDays int, lastActivity *time.Time) *model.User {
	t.Helper()
	userSeq++
	user := &model.User{
		Name:             fmt.Sprintf("athlete-%d", userSeq),
		Email:            fmt.Sprintf("athlete-%d-%d@example.com", userSeq, time.Now().UnixNano()),
		Password:         "hashed",
		Role:             model.Client,
		TotalPoints:      totalPoints,
		StreakDays:       streakDays,
		LastActivityDate: lastActivity,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func newSession(t *testing.T, db *gorm.DB, userID uint, workoutDate time.Time) *model.WorkoutSession {
	t.Helper()
	session := &model.WorkoutSession{
		UserID:          userID,
		WorkoutDate:     workoutDate,
		DurationMinutes: 45,
	}
	require.NoError(t, db.Create(session).Error)
	return session
}

func reloadUser(t *testing.T, db *gorm.DB, id uint) *model.User {
	t.Helper()
	var user model.User
	require.NoError(t, db.First(&user, id).Error)
	return &user
}

func utcDay(value string) time.Time {
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		panic(err)
	}
	return t
}

func TestAwardWorkoutXPFirstWorkout(t *testing.T) {
	db := sharedDB(t)
	svc := NewRewardService(db)

	user := newUser(t, db, 0, 0, nil)
	session := newSession(t, db, user.ID, utcDay("2024-03-01"))

	result, err := svc.AwardWorkoutXP(user.ID, session.ID, session.WorkoutDate, 50)
	require.NoError(t, err)
	assert.Equal(t, AwardStatusAwarded, result.Status)
	assert.Equal(t, 50, result.Points)
	assert.Equal(t, 1, result.StreakDays)
	assert.Empty(t, result.Milestones)

	stored := reloadUser(t, db, user.ID)
	assert.Equal(t, 50, stored.TotalPoints)
	assert.Equal(t, 1, stored.StreakDays)
	assert.Equal(t, 1, stored.TotalWorkouts)
	require.NotNil(t, stored.LastActivityDate)
	assert.Equal(t, "2024-03-01", stored.LastActivityDate.Format("2006-01-02"))

	var marked model.WorkoutSession
	require.NoError(t, db.First(&marked, session.ID).Error)
	assert.Equal(t, 50, marked.ExperiencePoints)
}

func TestAwardWorkoutXPIsIdempotentPerEvent(t *testing.T) {
	db := sharedDB(t)
	svc := NewRewardService(db)

	user := newUser(t, db, 0, 0, nil)
	session := newSession(t, db, user.ID, utcDay("2024-03-01"))

	first, err := svc.AwardWorkoutXP(user.ID, session.ID, session.WorkoutDate, 50)
	require.NoError(t, err)
	require.Equal(t, AwardStatusAwarded, first.Status)

	second, err := svc.AwardWorkoutXP(user.ID, session.ID, session.WorkoutDate, 50)
	require.NoError(t, err)
	assert.Equal(t, AwardStatusAlreadyAwarded, second.Status)
	assert.Zero(t, second.Points)

	stored := reloadUser(t, db, user.ID)
	assert.Equal(t, 50, stored.TotalPoints)
	assert.Equal(t, 1, stored.TotalWorkouts)

	var count int64
	db.Model(&model.PointTransaction{}).Where("user_id = ?", user.ID).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestAwardWorkoutXPOnePerDay(t *testing.T) {
	db := sharedDB(t)
	svc := NewRewardService(db)

	user := newUser(t, db, 0, 0, nil)
	morning := newSession(t, db, user.ID, utcDay("2024-03-01"))
	evening := newSession(t, db, user.ID, utcDay("2024-03-01").Add(19*time.Hour))

	first, err := svc.AwardWorkoutXP(user.ID, morning.ID, morning.WorkoutDate, 50)
	require.NoError(t, err)
	require.Equal(t, AwardStatusAwarded, first.Status)

	second, err := svc.AwardWorkoutXP(user.ID, evening.ID, evening.WorkoutDate, 50)
	require.NoError(t, err)
	assert.Equal(t, AwardStatusSameDay, second.Status)

	stored := reloadUser(t, db, user.ID)
	assert.Equal(t, 50, stored.TotalPoints)
	assert.Equal(t, 1, stored.StreakDays)
}

func TestAwardWorkoutXPExtendsStreak(t *testing.T) {
	db := sharedDB(t)
	svc := NewRewardService(db)

	last := utcDay("2024-03-01")
	user := newUser(t, db, 50, 3, &last)
	session := newSession(t, db, user.ID, utcDay("2024-03-02"))

	result, err := svc.AwardWorkoutXP(user.ID, session.ID, session.WorkoutDate, 50)
	require.NoError(t, err)
	assert.Equal(t, AwardStatusAwarded, result.Status)
	assert.Equal(t, 4, result.StreakDays)
}

func TestAwardWorkoutXPGraceDayPreservesStreak(t *testing.T) {
	db := sharedDB(t)
	svc := NewRewardService(db)

	last := utcDay("2024-03-01")
	user := newUser(t, db, 50, 5, &last)
	session := newSession(t, db, user.ID, utcDay("2024-03-03"))

	result, err := svc.AwardWorkoutXP(user.ID, session.ID, session.WorkoutDate, 50)
	require.NoError(t, err)
	assert.Equal(t, AwardStatusAwarded, result.Status)
	assert.Equal(t, 5, result.StreakDays, "one-day gap inside the grace window keeps the streak")

	// 宽限令牌：零分、带前缀、独立的 source_id
	var token model.PointTransaction
	require.NoError(t, db.Where("user_id = ? AND source_type = ?", user.ID, model.SourceStreakGrace).First(&token).Error)
	assert.Zero(t, token.Points)
	assert.Contains(t, token.Description, util.GracePrefix)
	assert.Equal(t, fmt.Sprintf("grace:%d:2024-03-03", user.ID), token.SourceID)
}

func TestAwardWorkoutXPSecondGraceInWindowResets(t *testing.T) {
	db := sharedDB(t)
	svc := NewRewardService(db)

	last := utcDay("2024-03-01")
	user := newUser(t, db, 0, 5, &last)

	first := newSession(t, db, user.ID, utcDay("2024-03-03"))
	result, err := svc.AwardWorkoutXP(user.ID, first.ID, first.WorkoutDate, 50)
	require.NoError(t, err)
	require.Equal(t, 5, result.StreakDays)

	// 两天后又隔了一天，窗口内宽限已用过，按断签处理
	second := newSession(t, db, user.ID, utcDay("2024-03-05"))
	result, err = svc.AwardWorkoutXP(user.ID, second.ID, second.WorkoutDate, 50)
	require.NoError(t, err)
	assert.Equal(t, AwardStatusAwarded, result.Status)
	assert.Equal(t, 1, result.StreakDays, "second grace inside the rolling window must not be granted")
}

func TestAwardWorkoutXPGraceAvailableAgainAfterWindow(t *testing.T) {
	db := sharedDB(t)
	svc := NewRewardService(db)

	last := utcDay("2024-03-01")
	user := newUser(t, db, 0, 5, &last)

	// 把一枚旧宽限令牌的 created_at 挪到窗口之外
	expired := &model.PointTransaction{
		UserID:      user.ID,
		Points:      0,
		SourceType:  model.SourceStreakGrace,
		SourceID:    fmt.Sprintf("grace:%d:2024-01-10", user.ID),
		Description: util.GracePrefix + " 宽限日 2024-01-10",
	}
	require.NoError(t, db.Create(expired).Error)
	require.NoError(t, db.Model(expired).Update("created_at", utcDay("2024-01-10")).Error)

	session := newSession(t, db, user.ID, utcDay("2024-03-03"))
	result, err := svc.AwardWorkoutXP(user.ID, session.ID, session.WorkoutDate, 50)
	require.NoError(t, err)
	assert.Equal(t, 5, result.StreakDays, "a token older than the window must not block a new grace day")
}

func TestAwardWorkoutXPBackfillDoesNotRegressActivityDate(t *testing.T) {
	db := sharedDB(t)
	svc := NewRewardService(db)

	last := utcDay("2024-03-10")
	user := newUser(t, db, 100, 4, &last)

	// 补录一周前的训练
	session := newSession(t, db, user.ID, utcDay("2024-03-03"))
	result, err := svc.AwardWorkoutXP(user.ID, session.ID, session.WorkoutDate, 50)
	require.NoError(t, err)
	assert.Equal(t, AwardStatusAwarded, result.Status)
	assert.Equal(t, 4, result.StreakDays, "backfilled history keeps the current streak")

	stored := reloadUser(t, db, user.ID)
	assert.Equal(t, 150, stored.TotalPoints)
	require.NotNil(t, stored.LastActivityDate)
	assert.Equal(t, "2024-03-10", stored.LastActivityDate.Format("2006-01-02"))
}

func TestAwardWorkoutXPMilestones(t *testing.T) {
	db := sharedDB(t)
	svc := NewRewardService(db)

	// 默认目录最低档 100 分，一次跨过 100 和 500 两档
	user := newUser(t, db, 480, 0, nil)
	session := newSession(t, db, user.ID, utcDay("2024-03-01"))

	result, err := svc.AwardWorkoutXP(user.ID, session.ID, session.WorkoutDate, 50)
	require.NoError(t, err)
	require.Equal(t, AwardStatusAwarded, result.Status)
	require.Len(t, result.Milestones, 2)
	assert.Equal(t, 100, result.Milestones[0].TargetPoints)
	assert.Equal(t, 500, result.Milestones[1].TargetPoints)

	// 里程碑不叠加积分
	stored := reloadUser(t, db, user.ID)
	assert.Equal(t, 530, stored.TotalPoints)

	// 再次发放不重复解锁
	next := newSession(t, db, user.ID, utcDay("2024-03-02"))
	result, err = svc.AwardWorkoutXP(user.ID, next.ID, next.WorkoutDate, 50)
	require.NoError(t, err)
	assert.Empty(t, result.Milestones)

	var count int64
	db.Model(&model.UserMilestone{}).Where("user_id = ?", user.ID).Count(&count)
	assert.Equal(t, int64(2), count)
}

func TestAwardWorkoutXPGraceAndMilestoneTogether(t *testing.T) {
	db := sharedDB(t)
	svc := NewRewardService(db)

	// 最近活动 3月1日、连续5天、480分；3月3日训练：宽限保持5天，
	// 530分跨过500档解锁里程碑
	last := utcDay("2024-03-01")
	user := newUser(t, db, 480, 5, &last)
	// 100 档此前已解锁
	require.NoError(t, db.Create(&model.UserMilestone{UserID: user.ID, MilestoneID: firstMilestoneID(t, db, 100), AwardedAt: time.Now()}).Error)

	session := newSession(t, db, user.ID, utcDay("2024-03-03"))
	result, err := svc.AwardWorkoutXP(user.ID, session.ID, session.WorkoutDate, 50)
	require.NoError(t, err)

	assert.Equal(t, AwardStatusAwarded, result.Status)
	assert.Equal(t, 5, result.StreakDays)
	require.Len(t, result.Milestones, 1)
	assert.Equal(t, 500, result.Milestones[0].TargetPoints)

	stored := reloadUser(t, db, user.ID)
	assert.Equal(t, 530, stored.TotalPoints)
	assert.Equal(t, "2024-03-03", stored.LastActivityDate.Format("2006-01-02"))
}

func firstMilestoneID(t *testing.T, db *gorm.DB, targetPoints int) uint {
	t.Helper()
	var m model.Milestone
	require.NoError(t, db.Where("target_points = ?", targetPoints).First(&m).Error)
	return m.ID
}

func TestAwardWorkoutXPUnknownUser(t *testing.T) {
	db := sharedDB(t)
	svc := NewRewardService(db)

	_, err := svc.AwardWorkoutXP(99999999, 1, utcDay("2024-03-01"), 50)
	assert.ErrorIs(t, err, util.ErrUserNotFound)
}

func TestAwardWorkoutXPRollsBackAtomically(t *testing.T) {
	db := sharedDB(t)
	svc := NewRewardService(db)

	user := newUser(t, db, 90, 2, nil)
	session := newSession(t, db, user.ID, utcDay("2024-03-01"))

	// 让里程碑写入失败，整个发放必须回滚
	require.NoError(t, db.Exec("RENAME TABLE user_milestones TO user_milestones_backup").Error)
	defer func() {
		require.NoError(t, db.Exec("RENAME TABLE user_milestones_backup TO user_milestones").Error)
	}()

	_, err := svc.AwardWorkoutXP(user.ID, session.ID, session.WorkoutDate, 50)
	require.Error(t, err)

	stored := reloadUser(t, db, user.ID)
	assert.Equal(t, 90, stored.TotalPoints, "failed award must not leave partial state")
	assert.Equal(t, 0, stored.TotalWorkouts)

	var count int64
	db.Model(&model.PointTransaction{}).Where("user_id = ?", user.ID).Count(&count)
	assert.Equal(t, int64(0), count)

	var marked model.WorkoutSession
	require.NoError(t, db.First(&marked, session.ID).Error)
	assert.Zero(t, marked.ExperiencePoints)
}

func TestAwardWorkoutXPSerializesConcurrentAwards(t *testing.T) {
	db := sharedDB(t)
	svc := NewRewardService(db)

	user := newUser(t, db, 0, 0, nil)
	a := newSession(t, db, user.ID, utcDay("2024-03-01"))
	b := newSession(t, db, user.ID, utcDay("2024-03-01"))

	results := make([]*AwardResult, 2)
	errs := make([]error, 2)
	var wg sync.WaitGroup
	for i, session := range []*model.WorkoutSession{a, b} {
		wg.Add(1)
		go func(i int, s *model.WorkoutSession) {
			defer wg.Done()
			results[i], errs[i] = svc.AwardWorkoutXP(user.ID, s.ID, s.WorkoutDate, 50)
		}(i, session)
	}
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])

	statuses := []AwardStatus{results[0].Status, results[1].Status}
	assert.Contains(t, statuses, AwardStatusAwarded)
	assert.Contains(t, statuses, AwardStatusSameDay, "row lock must serialize same-user awards")

	stored := reloadUser(t, db, user.ID)
	assert.Equal(t, 50, stored.TotalPoints)
	assert.Equal(t, 1, stored.TotalWorkouts)
}
