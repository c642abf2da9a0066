package model

import (
	"encoding/json"
	"errors"
	"strings"
)

// Course 已发布的课程，大纲以 JSON 形式整体存储（发布后不可变，编辑属于内容后台）
// swagger:model Course
type Course struct {
	BaseModel
	Title           string `gorm:"size:255;not null" json:"title"`
	Author          string `gorm:"size:100" json:"author"`
	Description     string `gorm:"type:text" json:"description"`
	LongDescription string `gorm:"type:text" json:"longDescription"`
	Image           string `gorm:"size:255" json:"image"`
	Price           int    `gorm:"default:0" json:"price"`
	OriginalPrice   int    `gorm:"default:0" json:"originalPrice"`
	Tags            string `gorm:"size:255" json:"tags"` // 逗号分隔
	Highlight       bool   `gorm:"default:false" json:"highlight"`
	PromoText       string `gorm:"size:255" json:"promoText"`
	Recommended     bool   `gorm:"default:false" json:"recommended"`
	HasTrial        bool   `gorm:"default:false" json:"hasTrial"` // 开放试听：未购买可看第一章第一节
	SyllabusJSON    string `gorm:"type:text" json:"syllabusJson"`
}

func (Course) TableName() string {
	return "courses"
}

// Chapter 章节，顺序有意义：第一章第一节决定试听单元
type Chapter struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Units []Unit `json:"units"`
}

// Unit 最小可学习单位（一个视频）。VideoID 为空表示视频尚未制作，
// 这是一种长期有效的内容状态，与加载失败无关。
type Unit struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	VideoID string `json:"videoId,omitempty"`
	Exp     int    `json:"exp,omitempty"`
}

// HasMedia 单元视频是否已经制作
func (u *Unit) HasMedia() bool {
	return u.VideoID != ""
}

var (
	ErrEmptySyllabus   = errors.New("syllabus is empty")
	ErrInvalidSyllabus = errors.New("invalid syllabus structure")
)

// ParseSyllabus 解析并校验课程大纲 JSON
// 校验规则：章节/单元必须有非空 id，单元 id 不可重复
func ParseSyllabus(raw string) ([]Chapter, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, ErrEmptySyllabus
	}

	var chapters []Chapter
	if err := json.Unmarshal([]byte(raw), &chapters); err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	for _, ch := range chapters {
		if ch.ID == "" {
			return nil, ErrInvalidSyllabus
		}
		for _, u := range ch.Units {
			if u.ID == "" || seen[u.ID] {
				return nil, ErrInvalidSyllabus
			}
			seen[u.ID] = true
		}
	}

	return chapters, nil
}

// ParsedSyllabus 便捷方法：解析课程自身的大纲
func (c *Course) ParsedSyllabus() ([]Chapter, error) {
	return ParseSyllabus(c.SyllabusJSON)
}

// FindUnit 按 id 在大纲中查找单元
func FindUnit(chapters []Chapter, unitID string) (*Unit, bool) {
	for ci := range chapters {
		for ui := range chapters[ci].Units {
			if chapters[ci].Units[ui].ID == unitID {
				return &chapters[ci].Units[ui], true
			}
		}
	}
	return nil, false
}

// FirstTrialUnitID 试听解锁的唯一单元：第一章的第一节。
// 第一章不存在或没有单元时返回空串，调用方按无试听处理。
func FirstTrialUnitID(chapters []Chapter) string {
	if len(chapters) == 0 || len(chapters[0].Units) == 0 {
		return ""
	}
	return chapters[0].Units[0].ID
}
