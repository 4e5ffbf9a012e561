package model

import "time"

// Feedback 指导老师对选题的反馈 — 对应 feedbacks
type Feedback struct {
	FeedbackID string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"feedback_id"`
	SubjectID  string `gorm:"type:uuid;not null;index"                       json:"subject_id"`
	TeacherID  string `gorm:"type:uuid;not null"                             json:"teacher_id"`
	Content    string `gorm:"type:text;not null"                             json:"content"`
	BaseModel

	Teacher *Teacher `gorm:"foreignKey:TeacherID;references:TeacherID" json:"teacher,omitempty"`
}

// TableName 指定表名
func (Feedback) TableName() string { return "feedbacks" }

// Meeting 指导会议 — 对应 meetings
type Meeting struct {
	MeetingID   string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"meeting_id"`
	SubjectID   string    `gorm:"type:uuid;not null;index"                       json:"subject_id"`
	TeacherID   string    `gorm:"type:uuid;not null"                             json:"teacher_id"`
	ScheduledAt time.Time `gorm:"not null"                                       json:"scheduled_at"`
	Location    string    `gorm:"type:varchar(200)"                              json:"location"`
	Agenda      string    `gorm:"type:text"                                      json:"agenda"`
	BaseModel
}

// TableName 指定表名
func (Meeting) TableName() string { return "meetings" }
