package model

import (
	"time"
)

// WorkoutSession 教练为学员记录的一次训练
// 业务日期 WorkoutDate 与写库时间无关：跨零点补录昨天的训练仍算昨天
// swagger:model WorkoutSession
type WorkoutSession struct {
	BaseModel
	UserID             uint      `gorm:"index;type:bigint unsigned;not null" json:"UserID"`
	TrainerID          *uint     `gorm:"type:bigint unsigned" json:"TrainerID"`
	WorkoutDate        time.Time `gorm:"index;not null" json:"WorkoutDate"`
	DurationMinutes    int       `gorm:"default:0" json:"DurationMinutes"`
	ExercisesCompleted int       `gorm:"default:0" json:"ExercisesCompleted"`
	CaloriesBurned     int       `gorm:"default:0" json:"CaloriesBurned"`
	Notes              string    `gorm:"size:500" json:"Notes"`

	// 奖励引擎发放成功后回填，非零即表示该训练已触发过奖励
	ExperiencePoints int `gorm:"default:0" json:"ExperiencePoints"`
}

func (WorkoutSession) TableName() string {
	return "workout_sessions"
}
