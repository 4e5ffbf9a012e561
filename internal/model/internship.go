package model

import "time"

// InternshipStatus 实习状态
type InternshipStatus string

const (
	InternshipPending    InternshipStatus = "pending"
	InternshipInProgress InternshipStatus = "in_progress"
	InternshipValidated  InternshipStatus = "validated"
	InternshipCancelled  InternshipStatus = "cancelled"
)

// Valid 是否为合法实习状态
func (s InternshipStatus) Valid() bool {
	switch s {
	case InternshipPending, InternshipInProgress, InternshipValidated, InternshipCancelled:
		return true
	}
	return false
}

// Internship 企业实习（stage）表 — 对应 internships
type Internship struct {
	InternshipID            string           `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"internship_id"`
	Company                 string           `gorm:"type:varchar(200);not null"                     json:"company"`
	Project                 string           `gorm:"type:varchar(200);not null"                     json:"project"`
	StartDate               time.Time        `gorm:"type:date;not null"                             json:"start_date"`
	EndDate                 time.Time        `gorm:"type:date;not null"                             json:"end_date"`
	Location                string           `gorm:"type:varchar(200)"                              json:"location"`
	ExternalSupervisor      string           `gorm:"type:varchar(100)"                              json:"external_supervisor"`
	ExternalSupervisorEmail string           `gorm:"type:varchar(255)"                              json:"external_supervisor_email"`
	Description             string           `gorm:"type:text"                                      json:"description"`
	Status                  InternshipStatus `gorm:"type:varchar(20);not null;default:'pending'"    json:"status"`
	StudentID               string           `gorm:"type:uuid;not null;index"                       json:"student_id"`
	VersionedModel

	// 关联
	Student   *Student   `gorm:"foreignKey:StudentID;references:StudentID"       json:"student,omitempty"`
	Documents []Document `gorm:"foreignKey:InternshipID;references:InternshipID" json:"documents,omitempty"`
}

// TableName 指定表名
func (Internship) TableName() string { return "internships" }
