package model

type PointSourceType string

const (
	SourceWorkoutCompletion PointSourceType = "workout_completion"
	SourceStreakGrace       PointSourceType = "streak_grace"
	SourceAdjustment        PointSourceType = "adjustment"
)

// PointTransaction 积分流水，只追加不修改不删除
// (source_type, source_id) 唯一索引保证同一来源最多发放一次
// swagger:model PointTransaction
type PointTransaction struct {
	BaseModel
	UserID      uint            `gorm:"index;type:bigint unsigned;not null" json:"UserID"`
	Points      int             `gorm:"not null" json:"Points"`
	SourceType  PointSourceType `gorm:"size:32;not null;uniqueIndex:uk_point_source" json:"SourceType"`
	SourceID    string          `gorm:"size:64;not null;uniqueIndex:uk_point_source" json:"SourceID"`
	Description string          `gorm:"size:255" json:"Description"`
}

func (PointTransaction) TableName() string {
	return "point_transactions"
}
