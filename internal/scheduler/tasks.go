package scheduler

const TaskTypeDeliverPost = "delivery:post"

// DeliveryTaskPayload is the queue-internal task payload. Destination
// is the fixed per-platform callback URL chosen at registration time,
// never taken from user input.
type DeliveryTaskPayload struct {
	Destination string `json:"destination"`
	UserID      string `json:"user_id"`
	Content     string `json:"content"`
}
