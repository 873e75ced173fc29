package service

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/socialmatic/socialmatic/internal/identity"
	"github.com/socialmatic/socialmatic/internal/models"
	"github.com/socialmatic/socialmatic/internal/ratelimit"
	"github.com/socialmatic/socialmatic/internal/repository"
	"github.com/socialmatic/socialmatic/internal/scheduler"
	"github.com/socialmatic/socialmatic/internal/transfer"
)

const maxContentLength = 255

type PostService interface {
	SchedulePost(ctx context.Context, authorID string, pc *transfer.PostCreation) (*models.Post, error)
	Feed(ctx context.Context, authorID, filter string) ([]*models.FeedItem, error)
}

type postService struct {
	db      *sql.DB
	pr      repository.PostRepository
	limiter ratelimit.Limiter
	sc      scheduler.Client
	users   identity.UserDirectory
}

func NewPostService(
	db *sql.DB,
	pr repository.PostRepository,
	limiter ratelimit.Limiter,
	sc scheduler.Client,
	users identity.UserDirectory) PostService {
	return &postService{
		db:      db,
		pr:      pr,
		limiter: limiter,
		sc:      sc,
		users:   users,
	}
}

// SchedulePost validates and rate-limits the submission, persists the
// post with its platform associations, then registers one delivery job
// per platform. The post row is the durability point: registration
// failures leave it in place with the affected platforms marked failed.
func (s *postService) SchedulePost(ctx context.Context, authorID string, pc *transfer.PostCreation) (*models.Post, error) {
	platforms, err := validateSubmission(pc)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	allowed, err := s.limiter.Allow(ctx, authorID)
	if err != nil {
		return nil, fmt.Errorf("rate limit check failed: %w", err)
	}
	if !allowed {
		slog.Info("rate limited", "author_id", authorID)
		return nil, ErrRateLimited
	}

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		} else if err != nil {
			tx.Rollback()
		}
	}()

	post := models.Post{
		AuthorID: authorID,
		Content:  pc.Content,
		PostDate: pc.PostDate,
	}

	postID, err := s.pr.Create(ctx, tx, &post)
	if err != nil {
		return nil, fmt.Errorf("error creating post: %w", err)
	}
	post.ID = postID

	for _, platform := range platforms {
		if err = s.pr.AddPlatform(ctx, tx, postID, platform); err != nil {
			return nil, fmt.Errorf("error saving platform association: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	if err := s.registerDeliveries(ctx, &post, platforms); err != nil {
		return nil, err
	}

	return &post, nil
}

// registerDeliveries fans out one job registration per platform. All
// registrations are attempted; errors are collected, not short-circuited,
// so one failing platform does not block the others.
func (s *postService) registerDeliveries(ctx context.Context, post *models.Post, platforms []models.Platform) error {
	var wg sync.WaitGroup
	errs := make([]error, len(platforms))
	associations := make([]models.PostPlatform, len(platforms))

	for i, platform := range platforms {
		wg.Add(1)
		go func(i int, platform models.Platform) {
			defer wg.Done()

			association := models.PostPlatform{
				PostID:   post.ID,
				Platform: platform,
			}

			messageID, err := s.sc.Register(ctx, platform, post.AuthorID, post.Content, post.PostDate)
			if err != nil {
				errs[i] = err
				association.JobStatus = models.JobStatusFailed
			} else {
				association.MessageID = messageID
				association.JobStatus = models.JobStatusRegistered
			}

			if err := s.pr.SetPlatformJob(ctx, post.ID, platform, association.MessageID, association.JobStatus); err != nil {
				slog.Info("failed to record job status", "post_id", post.ID, "platform", string(platform), "error", err.Error())
			}

			associations[i] = association
		}(i, platform)
	}
	wg.Wait()

	post.Platforms = associations

	for _, err := range errs {
		if err != nil {
			return fmt.Errorf("failed to register delivery jobs: %w", err)
		}
	}
	return nil
}

func validateSubmission(pc *transfer.PostCreation) ([]models.Platform, error) {
	if pc == nil {
		return nil, &ValidationError{Reason: "submission is empty"}
	}

	length := utf8.RuneCountInString(pc.Content)
	if length < 1 || length > maxContentLength {
		return nil, &ValidationError{Reason: fmt.Sprintf("content must be between 1 and %d characters", maxContentLength)}
	}

	if pc.PostDate.IsZero() {
		return nil, &ValidationError{Reason: "post date is required"}
	}

	if len(pc.Platforms) == 0 {
		return nil, &ValidationError{Reason: "at least one platform is required"}
	}

	platforms := make([]models.Platform, 0, len(pc.Platforms))
	seen := make(map[models.Platform]struct{}, len(pc.Platforms))
	for _, raw := range pc.Platforms {
		platform, err := models.ParsePlatform(raw)
		if err != nil {
			return nil, &ValidationError{Reason: err.Error()}
		}
		if _, ok := seen[platform]; ok {
			return nil, &ValidationError{Reason: fmt.Sprintf("platform %s selected twice", platform)}
		}
		seen[platform] = struct{}{}
		platforms = append(platforms, platform)
	}

	return platforms, nil
}

// Feed lists the owner's posts: all, scheduled (post_date in the
// future) or archived, ordered by post date ascending, with authors
// resolved through the identity provider.
func (s *postService) Feed(ctx context.Context, authorID, filter string) ([]*models.FeedItem, error) {
	var posts []*models.Post
	var err error

	switch filter {
	case "scheduled":
		posts, err = s.pr.ListScheduled(ctx, authorID, time.Now())
	case "archived":
		posts, err = s.pr.ListArchived(ctx, authorID, time.Now())
	default:
		posts, err = s.pr.ListAll(ctx, authorID)
	}
	if err != nil {
		return nil, fmt.Errorf("error listing posts: %w", err)
	}

	if len(posts) == 0 {
		return []*models.FeedItem{}, nil
	}

	authorIDs := make([]string, 0, 1)
	seen := make(map[string]struct{})
	for _, post := range posts {
		if _, ok := seen[post.AuthorID]; !ok {
			seen[post.AuthorID] = struct{}{}
			authorIDs = append(authorIDs, post.AuthorID)
		}
	}

	profiles, err := s.users.GetUsers(ctx, authorIDs)
	if err != nil {
		return nil, fmt.Errorf("error resolving authors: %w", err)
	}

	byID := make(map[string]*models.UserProfile, len(profiles))
	for _, profile := range profiles {
		byID[profile.ID] = profile
	}

	items := make([]*models.FeedItem, 0, len(posts))
	for _, post := range posts {
		profile, ok := byID[post.AuthorID]
		if !ok {
			return nil, fmt.Errorf("author %s not found", post.AuthorID)
		}
		items = append(items, &models.FeedItem{Post: post, Author: *profile})
	}

	return items, nil
}
