package model

import "time"

// MemberRole 分配成员角色
type MemberRole string

const (
	MemberPrimary MemberRole = "primary"
	MemberPartner MemberRole = "partner"
)

// Assignment 选题分配表 — 对应 assignments
// subject_id 唯一：一个选题至多一条分配
type Assignment struct {
	AssignmentID string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"assignment_id"`
	SubjectID    string    `gorm:"type:uuid;not null;uniqueIndex"                 json:"subject_id"`
	StudentID    string    `gorm:"type:uuid;not null"                             json:"student_id"`
	PartnerID    *string   `gorm:"type:uuid"                                      json:"partner_id,omitempty"`
	SupervisorID *string   `gorm:"type:uuid"                                      json:"supervisor_id,omitempty"`
	AssignedAt   time.Time `gorm:"type:date;not null;default:CURRENT_DATE"        json:"assigned_at"`
	BaseModel

	// 关联
	Subject    *Subject           `gorm:"foreignKey:SubjectID;references:SubjectID"       json:"subject,omitempty"`
	Student    *Student           `gorm:"foreignKey:StudentID;references:StudentID"       json:"student,omitempty"`
	Partner    *Student           `gorm:"foreignKey:PartnerID;references:StudentID"       json:"partner,omitempty"`
	Supervisor *Teacher           `gorm:"foreignKey:SupervisorID;references:TeacherID"    json:"supervisor,omitempty"`
	Members    []AssignmentMember `gorm:"foreignKey:AssignmentID;references:AssignmentID" json:"-"`
}

// TableName 指定表名
func (Assignment) TableName() string { return "assignments" }

// StudentIDs 本分配涉及的全部学生（主学生在前）
func (a *Assignment) StudentIDs() []string {
	ids := []string{a.StudentID}
	if a.PartnerID != nil && *a.PartnerID != "" {
		ids = append(ids, *a.PartnerID)
	}
	return ids
}

// AssignmentMember 分配成员表 — 对应 assignment_members
// student_id 为主键：一名学生（无论主学生或搭档）至多出现在一条分配中
type AssignmentMember struct {
	StudentID    string     `gorm:"type:uuid;primaryKey"      json:"student_id"`
	AssignmentID string     `gorm:"type:uuid;not null;index"  json:"assignment_id"`
	Role         MemberRole `gorm:"type:varchar(10);not null" json:"role"`
}

// TableName 指定表名
func (AssignmentMember) TableName() string { return "assignment_members" }
