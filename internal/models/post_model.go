package models

import "time"

type Post struct {
	ID        int64          `db:"id" json:"id"`
	AuthorID  string         `db:"author_id" json:"author_id"`
	Content   string         `db:"content" json:"content"`
	PostDate  time.Time      `db:"post_date" json:"post_date"`
	Platforms []PostPlatform `db:"-" json:"platforms"`
	CreatedAt time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt time.Time      `db:"updated_at" json:"updated_at"`
}

type PostPlatform struct {
	PostID    int64    `db:"post_id" json:"post_id"`
	Platform  Platform `db:"platform" json:"platform"`
	MessageID string   `db:"message_id" json:"message_id"`
	JobStatus string   `db:"job_status" json:"job_status"`
}

const (
	JobStatusPending    = "pending"
	JobStatusRegistered = "registered"
	JobStatusFailed     = "failed"
)

// DeliveryJob is a (post, platform) pair joined with the fields needed
// to register its delivery with the queue.
type DeliveryJob struct {
	PostID   int64     `db:"post_id"`
	Platform Platform  `db:"platform"`
	AuthorID string    `db:"author_id"`
	Content  string    `db:"content"`
	PostDate time.Time `db:"post_date"`
}
