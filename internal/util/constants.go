package util

const (
	DateFormat = "2006-01-02"
	TimeFormat = "2006-01-02 15:04:05"
)

// GracePrefix 宽限日流水在 description 上的标记前缀
// 宽限窗口检测按前缀匹配而不是单纯按时间戳，见 service.RewardService
const GracePrefix = "[STREAK_GRACE]"
