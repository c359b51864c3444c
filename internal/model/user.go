package model

import (
	"time"
)

type UserRole string

const (
	Client  UserRole = "client"
	Trainer UserRole = "trainer"
	Admin   UserRole = "admin"
)

// swagger:model User
type User struct {
	BaseModel
	Name     string   `gorm:"size:100;not null" json:"Name"`
	Email    string   `gorm:"size:100;unique;not null" json:"Email"`
	Password string   `gorm:"size:100;not null" json:"-"`
	Role     UserRole `gorm:"size:20;default:'client'" json:"Role"`

	// 激励系统状态：只由奖励引擎在行锁事务内修改
	TotalPoints      int        `gorm:"default:0" json:"TotalPoints"`           // 累计积分，只增不减
	StreakDays       int        `gorm:"default:0" json:"StreakDays"`            // 连续训练天数
	LastActivityDate *time.Time `gorm:"type:date" json:"LastActivityDate"`      // 最近训练日（业务日期），只向前推进
	TotalWorkouts    int        `gorm:"default:0" json:"TotalWorkouts"`         // 累计完成训练次数

	Language  string    `gorm:"size:10;default:'en'" json:"Language"`
	Disabled  bool      `gorm:"default:false" json:"Disabled"`
	LastLogin time.Time `json:"LastLogin"`
}

func (User) TableName() string {
	return "users"
}
