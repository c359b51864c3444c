package service

import (
	"math"
	"time"
)

// streakDecision 连续训练天数的判定分支
type streakDecision int

const (
	streakStart          streakDecision = iota // 首次训练，或中断后重新开始
	streakExtend                               // 连续日，+1
	streakGraceCandidate                       // 隔了一天，是否宽限取决于窗口内是否已用过
	streakHold                                 // 同日或倒填历史日期，保持现状
)

// normalizeDay 归一化到当天零点，所有日级比较都基于业务日期而非写库时间
func normalizeDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// daysBetween 两个日期相差的整天数，先对齐午夜再取整，跨夏令时也不会偏差
func daysBetween(from, to time.Time) int {
	return int(math.Round(normalizeDay(to).Sub(normalizeDay(from)).Hours() / 24))
}

// resolveStreak 根据上次活动日推算新的连续天数
// 纯函数：不查库不写库。返回 streakGraceCandidate 时最终天数取决于
// 宽限窗口查询，由奖励引擎在同一事务内裁决
func resolveStreak(prevStreak int, lastActivity *time.Time, workoutDay time.Time) (int, streakDecision) {
	if lastActivity == nil {
		return 1, streakStart
	}

	switch days := daysBetween(*lastActivity, workoutDay); {
	case days == 1:
		return prevStreak + 1, streakExtend
	case days == 2:
		return prevStreak, streakGraceCandidate
	case days > 2:
		// 断签，重新开始
		return 1, streakStart
	default:
		// days <= 0：同日已被日级防重拦截，这里只剩倒填的历史训练
		if prevStreak < 1 {
			return 1, streakHold
		}
		return prevStreak, streakHold
	}
}
