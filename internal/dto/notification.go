package dto

// NotificationResponse 站内通知
type NotificationResponse struct {
	ID        string  `json:"id"`
	Type      string  `json:"type"`
	Title     string  `json:"title"`
	Content   string  `json:"content"`
	Link      *string `json:"link,omitempty"`
	IsRead    bool    `json:"is_read"`
	CreatedAt string  `json:"created_at"`
}

// UnreadCountResponse 未读数量
type UnreadCountResponse struct {
	Unread int64 `json:"unread"`
}
