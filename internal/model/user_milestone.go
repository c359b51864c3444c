package model

import (
	"time"
)

// UserMilestone 里程碑达成记录，每个 (user, milestone) 最多一条
// swagger:model UserMilestone
type UserMilestone struct {
	BaseModel
	UserID      uint      `gorm:"type:bigint unsigned;not null;uniqueIndex:uk_user_milestone" json:"UserID"`
	MilestoneID uint      `gorm:"type:bigint unsigned;not null;uniqueIndex:uk_user_milestone" json:"MilestoneID"`
	AwardedAt   time.Time `gorm:"not null" json:"AwardedAt"`

	Milestone Milestone `gorm:"foreignKey:MilestoneID" json:"Milestone"`
}

func (UserMilestone) TableName() string {
	return "user_milestones"
}
