package model

import "time"

// SystemConfig 系统配置表 — 对应 system_config（单行强类型）
type SystemConfig struct {
	Singleton            bool       `gorm:"primaryKey;default:true"  json:"-"`
	MaxChoicesPerStudent int        `gorm:"not null;default:5"       json:"max_choices_per_student"`
	ChoiceDeadline       *time.Time `gorm:"column:choice_deadline"   json:"choice_deadline,omitempty"` // 为空表示不限制
	NotifyOnAssignment   bool       `gorm:"not null;default:true"    json:"notify_on_assignment"`
	BaseModel
}

// TableName 指定表名
func (SystemConfig) TableName() string { return "system_config" }

// ChoicesClosed 志愿填报是否已截止
func (c *SystemConfig) ChoicesClosed(now time.Time) bool {
	return c.ChoiceDeadline != nil && now.After(*c.ChoiceDeadline)
}
