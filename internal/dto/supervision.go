package dto

// CreateFeedbackRequest 指导老师反馈
type CreateFeedbackRequest struct {
	Content string `json:"content" binding:"required,min=1,max=5000"`
}

// FeedbackResponse 反馈信息
type FeedbackResponse struct {
	ID          string `json:"id"`
	SubjectID   string `json:"subject_id"`
	TeacherID   string `json:"teacher_id"`
	TeacherName string `json:"teacher_name,omitempty"`
	Content     string `json:"content"`
	CreatedAt   string `json:"created_at"`
}

// CreateMeetingRequest 安排指导会议
type CreateMeetingRequest struct {
	ScheduledAt string `json:"scheduled_at" binding:"required,datetime=2006-01-02T15:04:05Z07:00"`
	Location    string `json:"location"     binding:"omitempty,max=200"`
	Agenda      string `json:"agenda"       binding:"omitempty,max=5000"`
}

// MeetingResponse 会议信息
type MeetingResponse struct {
	ID          string `json:"id"`
	SubjectID   string `json:"subject_id"`
	TeacherID   string `json:"teacher_id"`
	ScheduledAt string `json:"scheduled_at"`
	Location    string `json:"location"`
	Agenda      string `json:"agenda"`
}
