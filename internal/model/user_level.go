package model

// UserLevel 学习者等级，仅由交付流程修改，等级只升不降
// swagger:model UserLevel
type UserLevel struct {
	BaseModel
	UserID uint `gorm:"uniqueIndex;not null" json:"userId"`
	Level  int  `gorm:"default:1" json:"level"`
	// 当前等级内累计的经验值（刚升级时归零后累计）
	CurrentExp int `gorm:"default:0" json:"currentExp"`
	// 升到下一级所需的总经验值
	NextLevelThreshold int `gorm:"default:100" json:"nextLevelThreshold"`
}

func (UserLevel) TableName() string {
	return "user_levels"
}
