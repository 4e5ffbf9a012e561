package model

import (
	"time"

	"github.com/lib/pq"
)

// SubjectStatus 选题审核状态
type SubjectStatus string

const (
	SubjectPending  SubjectStatus = "pending"
	SubjectApproved SubjectStatus = "approved"
	SubjectRejected SubjectStatus = "rejected"
)

// Valid 是否为合法状态值
func (s SubjectStatus) Valid() bool {
	switch s {
	case SubjectPending, SubjectApproved, SubjectRejected:
		return true
	}
	return false
}

// Subject 选题表 — 对应 subjects
// 分配关系由 assignments.subject_id 反查，本表不保存反向引用
type Subject struct {
	SubjectID         string         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"subject_id"`
	Title             string         `gorm:"type:varchar(200);not null"                     json:"title"`
	Description       string         `gorm:"type:text"                                      json:"description"`
	Domain            string         `gorm:"type:varchar(100)"                              json:"domain"`
	Difficulty        string         `gorm:"type:varchar(20)"                               json:"difficulty"`
	Technologies      pq.StringArray `gorm:"type:text[];not null;default:'{}'"              json:"technologies"`
	ProposedAt        time.Time      `gorm:"type:date;not null;default:CURRENT_DATE"        json:"proposed_at"`
	Status            SubjectStatus  `gorm:"type:varchar(20);not null;default:'pending'"    json:"status"`
	IsStudentProposal bool           `gorm:"not null;default:false"                         json:"is_student_proposal"`
	SupervisorID      *string        `gorm:"type:uuid"                                      json:"supervisor_id,omitempty"`
	BaseModel

	// 关联
	Supervisor *Teacher `gorm:"foreignKey:SupervisorID;references:TeacherID" json:"supervisor,omitempty"`
}

// TableName 指定表名
func (Subject) TableName() string { return "subjects" }

// Choice 学生志愿 / 自拟选题申报表 — 对应 choices
type Choice struct {
	ChoiceID       string  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"choice_id"`
	StudentID      string  `gorm:"type:uuid;not null"                             json:"student_id"`
	SubjectID      string  `gorm:"type:uuid;not null"                             json:"subject_id"`
	PreferenceRank int     `gorm:"type:smallint;not null"                         json:"preference_rank"` // 1 ~ 5，1 为第一志愿
	PartnerID      *string `gorm:"type:uuid"                                      json:"partner_id,omitempty"`
	IsProposal     bool    `gorm:"not null;default:false"                         json:"is_proposal"`
	BaseModel

	// 关联
	Student *Student `gorm:"foreignKey:StudentID;references:StudentID" json:"student,omitempty"`
	Subject *Subject `gorm:"foreignKey:SubjectID;references:SubjectID" json:"subject,omitempty"`
	Partner *Student `gorm:"foreignKey:PartnerID;references:StudentID" json:"partner,omitempty"`
}

// TableName 指定表名
func (Choice) TableName() string { return "choices" }
