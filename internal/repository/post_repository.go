package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/lib/pq"
	"github.com/socialmatic/socialmatic/internal/models"
)

const feedPageSize = 100

type PostRepository interface {
	Create(ctx context.Context, tx *sql.Tx, post *models.Post) (int64, error)
	AddPlatform(ctx context.Context, tx *sql.Tx, postID int64, platform models.Platform) error
	ListAll(ctx context.Context, authorID string) ([]*models.Post, error)
	ListScheduled(ctx context.Context, authorID string, now time.Time) ([]*models.Post, error)
	ListArchived(ctx context.Context, authorID string, now time.Time) ([]*models.Post, error)
	SetPlatformJob(ctx context.Context, postID int64, platform models.Platform, messageID, status string) error
	ListPlatformJobsByStatus(ctx context.Context, status string, olderThan time.Time) ([]*models.DeliveryJob, error)
}

type postRepository struct {
	db *sql.DB
}

func NewPostRepository(db *sql.DB) PostRepository {
	return &postRepository{db: db}
}

func (r *postRepository) Create(ctx context.Context, tx *sql.Tx, post *models.Post) (int64, error) {
	query := `
		INSERT INTO posts (author_id, content, post_date)
		VALUES ($1, $2, $3)
		RETURNING id
	`

	var id int64
	var err error

	if tx != nil {
		err = tx.QueryRowContext(ctx, query, post.AuthorID, post.Content, post.PostDate).Scan(&id)
	} else {
		err = r.db.QueryRowContext(ctx, query, post.AuthorID, post.Content, post.PostDate).Scan(&id)
	}
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	return id, nil
}

func (r *postRepository) AddPlatform(ctx context.Context, tx *sql.Tx, postID int64, platform models.Platform) error {
	query := `
		INSERT INTO post_platforms (post_id, platform, job_status)
		VALUES ($1, $2, $3)
	`

	var err error
	if tx != nil {
		_, err = tx.ExecContext(ctx, query, postID, string(platform), models.JobStatusPending)
	} else {
		_, err = r.db.ExecContext(ctx, query, postID, string(platform), models.JobStatusPending)
	}
	if err != nil {
		slog.Info(err.Error())
		return err
	}

	return nil
}

func (r *postRepository) ListAll(ctx context.Context, authorID string) ([]*models.Post, error) {
	query := `
		SELECT id, author_id, content, post_date, created_at, updated_at
		FROM posts
		WHERE author_id = $1
		ORDER BY post_date ASC
		LIMIT $2
	`
	return r.list(ctx, query, authorID, feedPageSize)
}

func (r *postRepository) ListScheduled(ctx context.Context, authorID string, now time.Time) ([]*models.Post, error) {
	query := `
		SELECT id, author_id, content, post_date, created_at, updated_at
		FROM posts
		WHERE author_id = $1 AND post_date > $3
		ORDER BY post_date ASC
		LIMIT $2
	`
	return r.list(ctx, query, authorID, feedPageSize, now)
}

func (r *postRepository) ListArchived(ctx context.Context, authorID string, now time.Time) ([]*models.Post, error) {
	query := `
		SELECT id, author_id, content, post_date, created_at, updated_at
		FROM posts
		WHERE author_id = $1 AND post_date <= $3
		ORDER BY post_date ASC
		LIMIT $2
	`
	return r.list(ctx, query, authorID, feedPageSize, now)
}

func (r *postRepository) list(ctx context.Context, query string, authorID string, args ...interface{}) ([]*models.Post, error) {
	queryArgs := append([]interface{}{authorID}, args...)

	rows, err := r.db.QueryContext(ctx, query, queryArgs...)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var posts []*models.Post
	for rows.Next() {
		var post models.Post
		err := rows.Scan(&post.ID, &post.AuthorID, &post.Content, &post.PostDate, &post.CreatedAt, &post.UpdatedAt)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		posts = append(posts, &post)
	}
	if err := rows.Err(); err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	if err := r.attachPlatforms(ctx, posts); err != nil {
		return nil, err
	}

	return posts, nil
}

func (r *postRepository) attachPlatforms(ctx context.Context, posts []*models.Post) error {
	if len(posts) == 0 {
		return nil
	}

	ids := make([]int64, 0, len(posts))
	byID := make(map[int64]*models.Post, len(posts))
	for _, post := range posts {
		ids = append(ids, post.ID)
		byID[post.ID] = post
	}

	query := `SELECT post_id, platform, COALESCE(message_id, ''), job_status FROM post_platforms WHERE post_id = ANY($1)`
	rows, err := r.db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var pp models.PostPlatform
		err := rows.Scan(&pp.PostID, &pp.Platform, &pp.MessageID, &pp.JobStatus)
		if err != nil {
			slog.Info(err.Error())
			return err
		}
		if post, ok := byID[pp.PostID]; ok {
			post.Platforms = append(post.Platforms, pp)
		}
	}
	return rows.Err()
}

func (r *postRepository) SetPlatformJob(ctx context.Context, postID int64, platform models.Platform, messageID, status string) error {
	query := `
		UPDATE post_platforms
		SET message_id = $1,
			job_status = $2,
			updated_at = $3
		WHERE post_id = $4 AND platform = $5
	`
	_, err := r.db.ExecContext(ctx, query, messageID, status, time.Now(), postID, string(platform))
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *postRepository) ListPlatformJobsByStatus(ctx context.Context, status string, olderThan time.Time) ([]*models.DeliveryJob, error) {
	query := `
		SELECT pp.post_id, pp.platform, p.author_id, p.content, p.post_date
		FROM post_platforms pp
		JOIN posts p ON p.id = pp.post_id
		WHERE pp.job_status = $1 AND pp.updated_at < $2
	`
	rows, err := r.db.QueryContext(ctx, query, status, olderThan)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var jobs []*models.DeliveryJob
	for rows.Next() {
		var job models.DeliveryJob
		err := rows.Scan(&job.PostID, &job.Platform, &job.AuthorID, &job.Content, &job.PostDate)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		jobs = append(jobs, &job)
	}
	return jobs, rows.Err()
}
