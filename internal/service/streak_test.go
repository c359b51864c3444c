package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func day(value string) time.Time {
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		panic(err)
	}
	return t
}

func dayPtr(value string) *time.Time {
	t := day(value)
	return &t
}

func TestResolveStreakFirstWorkout(t *testing.T) {
	streak, decision := resolveStreak(0, nil, day("2024-01-10"))
	assert.Equal(t, 1, streak)
	assert.Equal(t, streakStart, decision)
}

func TestResolveStreakConsecutiveDay(t *testing.T) {
	streak, decision := resolveStreak(5, dayPtr("2024-01-09"), day("2024-01-10"))
	assert.Equal(t, 6, streak)
	assert.Equal(t, streakExtend, decision)
}

func TestResolveStreakOneDayGapIsGraceCandidate(t *testing.T) {
	streak, decision := resolveStreak(5, dayPtr("2024-01-08"), day("2024-01-10"))
	assert.Equal(t, 5, streak)
	assert.Equal(t, streakGraceCandidate, decision)
}

func TestResolveStreakLongGapResets(t *testing.T) {
	for _, gap := range []string{"2024-01-13", "2024-01-20", "2024-06-01"} {
		streak, decision := resolveStreak(12, dayPtr("2024-01-10"), day(gap))
		assert.Equal(t, 1, streak)
		assert.Equal(t, streakStart, decision)
	}
}

func TestResolveStreakBackfilledWorkoutHolds(t *testing.T) {
	// 倒填早于最近活动日的历史训练不改变连续天数
	streak, decision := resolveStreak(7, dayPtr("2024-01-10"), day("2024-01-05"))
	assert.Equal(t, 7, streak)
	assert.Equal(t, streakHold, decision)
}

func TestResolveStreakHoldFloorsAtOne(t *testing.T) {
	streak, decision := resolveStreak(0, dayPtr("2024-01-10"), day("2024-01-10"))
	assert.Equal(t, 1, streak)
	assert.Equal(t, streakHold, decision)
}

func TestDaysBetweenIgnoresTimeOfDay(t *testing.T) {
	from := time.Date(2024, 1, 9, 23, 59, 0, 0, time.UTC)
	to := time.Date(2024, 1, 10, 0, 1, 0, 0, time.UTC)
	assert.Equal(t, 1, daysBetween(from, to))
}

func TestDaysBetweenAcrossDSTTransition(t *testing.T) {
	loc, err := time.LoadLocation("Europe/Berlin")
	if err != nil {
		t.Skip("tzdata unavailable")
	}
	// 2024-03-31 夏令时切换，当天只有23小时
	from := time.Date(2024, 3, 30, 12, 0, 0, 0, loc)
	to := time.Date(2024, 3, 31, 12, 0, 0, 0, loc)
	assert.Equal(t, 1, daysBetween(from, to))
}

func TestNormalizeDayKeepsLocation(t *testing.T) {
	ts := time.Date(2024, 5, 1, 18, 30, 0, 0, time.UTC)
	normalized := normalizeDay(ts)
	assert.Equal(t, time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), normalized)
}
