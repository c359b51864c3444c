package model

// Milestone 积分里程碑目录，管理员维护
// swagger:model Milestone
type Milestone struct {
	BaseModel
	Name         string `gorm:"size:100;not null" json:"Name"`
	Icon         string `gorm:"size:50" json:"Icon"`
	TargetPoints int    `gorm:"not null;index" json:"TargetPoints"`
	IsActive     bool   `gorm:"default:true" json:"IsActive"`
}

func (Milestone) TableName() string {
	return "milestones"
}
