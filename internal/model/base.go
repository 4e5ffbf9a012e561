package model

import (
	"time"

	"gorm.io/gorm"
)

// 用户角色（JWT Role 取值）
const (
	RoleStudent = "student"
	RoleTeacher = "teacher"
	RoleAdmin   = "admin"
)

// BaseModel 通用审计字段（所有业务模型嵌入）
type BaseModel struct {
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	CreatedBy *string   `gorm:"type:uuid"                          json:"created_by,omitempty"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
	UpdatedBy *string   `gorm:"type:uuid"                          json:"updated_by,omitempty"`
}

// StampCreated 记录创建人；callerID 为空时保持 NULL
func (b *BaseModel) StampCreated(callerID string) {
	if callerID != "" {
		b.CreatedBy = &callerID
		b.UpdatedBy = &callerID
	}
}

// StampUpdated 记录最后修改人
func (b *BaseModel) StampUpdated(callerID string) {
	if callerID != "" {
		b.UpdatedBy = &callerID
	}
}

// SoftDeleteModel 支持软删除的审计字段
type SoftDeleteModel struct {
	BaseModel
	DeletedAt gorm.DeletedAt `gorm:"index"    json:"deleted_at,omitempty"`
	DeletedBy *string        `gorm:"type:uuid" json:"deleted_by,omitempty"`
}

// VersionedModel 支持乐观锁的软删除模型
type VersionedModel struct {
	SoftDeleteModel
	Version int `gorm:"not null;default:1" json:"version"`
}
