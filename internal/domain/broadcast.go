package domain

// BroadcastRequest is the inbound body of POST /notifications/send.
type BroadcastRequest struct {
	ParishID string           `json:"parishId" validate:"required"`
	Title    string           `json:"title" validate:"required"`
	Body     string           `json:"body" validate:"required"`
	Type     NotificationType `json:"type,omitempty"`
	Image    string           `json:"image,omitempty"`
	URL      string           `json:"url,omitempty"`
	UserIDs  []string         `json:"userIds,omitempty"`
}

// BroadcastReport aggregates one broadcast. Total counts recipients considered;
// Sent and Failed count device deliveries.
type BroadcastReport struct {
	Sent    int `json:"sent"`
	Failed  int `json:"failed"`
	Total   int `json:"total"`
	Skipped int `json:"-"`
}
