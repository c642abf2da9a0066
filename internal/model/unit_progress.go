package model

// UnitProgress 学习进度记录，键为 (user, course, unit)。
// ProgressPercent 只增不减（重看不会抹掉已获得的进度），
// LastPositionSeconds 表示“现在看到哪”，总是覆盖写。
// Delivered 为真蕴含 Completed 为真。
// swagger:model UnitProgress
type UnitProgress struct {
	BaseModel
	UserID   uint   `gorm:"uniqueIndex:idx_user_course_unit;not null" json:"-"`
	CourseID uint   `gorm:"uniqueIndex:idx_user_course_unit;not null" json:"courseId"`
	UnitID   string `gorm:"uniqueIndex:idx_user_course_unit;size:64;not null" json:"unitId"`

	ProgressPercent     int  `gorm:"default:0" json:"progressPercent"`
	LastPositionSeconds int  `gorm:"default:0" json:"lastPositionSeconds"`
	Completed           bool `gorm:"default:false" json:"completed"`
	Delivered           bool `gorm:"default:false" json:"delivered"`
}

func (UnitProgress) TableName() string {
	return "unit_progress"
}

// SyncEvent 一次播放进度上报：周期心跳、暂停、自然播完三种时机
type SyncEvent struct {
	PositionSeconds float64
	DurationSeconds float64
	EndOfMedia      bool
}

// ObservedPercent 本次事件观测到的进度百分比。
// 播完事件强制 100，吸收片尾的取整/编码误差。
func (e SyncEvent) ObservedPercent() int {
	if e.EndOfMedia {
		return 100
	}
	if e.DurationSeconds <= 0 {
		return 0
	}
	p := int(e.PositionSeconds / e.DurationSeconds * 100)
	if p > 100 {
		p = 100
	}
	if p < 0 {
		p = 0
	}
	return p
}

// Merge 把一次观测合并进记录。percent 取最大值、completed 取或，
// 两者均可交换可重入，乱序/重复事件不会破坏状态；
// position 为最后写入者生效。
func (p *UnitProgress) Merge(e SyncEvent) {
	observed := e.ObservedPercent()

	if e.PositionSeconds >= 0 {
		p.LastPositionSeconds = int(e.PositionSeconds)
	}
	if observed > p.ProgressPercent {
		p.ProgressPercent = observed
	}
	if observed >= 100 || e.EndOfMedia {
		p.Completed = true
	}
}
