package model

import "time"

// DocumentType 文档类型
type DocumentType string

const (
	DocumentReport      DocumentType = "report"
	DocumentPoster      DocumentType = "poster"
	DocumentAttestation DocumentType = "attestation"
	DocumentOther       DocumentType = "other"
)

// Valid 是否为合法文档类型
func (t DocumentType) Valid() bool {
	switch t {
	case DocumentReport, DocumentPoster, DocumentAttestation, DocumentOther:
		return true
	}
	return false
}

// DocumentStatus 文档审核状态
type DocumentStatus string

const (
	DocumentPending   DocumentStatus = "pending"
	DocumentValidated DocumentStatus = "validated"
	DocumentRejected  DocumentStatus = "rejected"
)

// Document 学生提交文档表 — 对应 documents
type Document struct {
	DocumentID   string         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"document_id"`
	FileName     string         `gorm:"type:varchar(255);not null"                     json:"file_name"`
	StorageKey   string         `gorm:"type:varchar(500);not null"                     json:"-"`
	ContentType  string         `gorm:"type:varchar(100);not null"                     json:"content_type"`
	Size         int64          `gorm:"not null;default:0"                             json:"size"`
	Type         DocumentType   `gorm:"type:varchar(20);not null"                      json:"type"`
	Status       DocumentStatus `gorm:"type:varchar(20);not null;default:'pending'"    json:"status"`
	RejectReason *string        `gorm:"type:text"                                      json:"reject_reason,omitempty"`
	UploadedAt   time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"uploaded_at"`
	StudentID    string         `gorm:"type:uuid;not null;index"                       json:"student_id"`
	InternshipID *string        `gorm:"type:uuid;index"                                json:"internship_id,omitempty"`
	BaseModel

	// 关联
	Student    *Student    `gorm:"foreignKey:StudentID;references:StudentID"       json:"student,omitempty"`
	Internship *Internship `gorm:"foreignKey:InternshipID;references:InternshipID" json:"internship,omitempty"`
}

// TableName 指定表名
func (Document) TableName() string { return "documents" }

// CountsForInternship 验证后是否可推动实习进入"已验证"
func (d *Document) CountsForInternship() bool {
	switch d.Type {
	case DocumentReport, DocumentPoster, DocumentAttestation:
		return true
	}
	return false
}
