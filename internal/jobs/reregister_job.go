package job

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/socialmatic/socialmatic/internal/models"
	"github.com/socialmatic/socialmatic/internal/repository"
	"github.com/socialmatic/socialmatic/internal/scheduler"
)

// gracePeriod keeps the reconciler from racing a registration that is
// still in flight.
const gracePeriod = 5 * time.Minute

// ReRegisterJob retries delivery-job registration for platform
// associations that never made it into the queue: rows marked failed,
// or rows stuck pending past the grace period.
type ReRegisterJob struct {
	pr repository.PostRepository
	sc scheduler.Client
}

func NewReRegisterJob(pr repository.PostRepository, sc scheduler.Client) *ReRegisterJob {
	return &ReRegisterJob{
		pr: pr,
		sc: sc,
	}
}

func (j *ReRegisterJob) ReRegister() {
	ctx := context.Background()
	cutoff := time.Now().Add(-gracePeriod)

	var stale []*models.DeliveryJob
	for _, status := range []string{models.JobStatusFailed, models.JobStatusPending} {
		jobs, err := j.pr.ListPlatformJobsByStatus(ctx, status, cutoff)
		if err != nil {
			slog.Info(err.Error())
			return
		}
		stale = append(stale, jobs...)
	}

	var wg sync.WaitGroup

	concurrencyLimit := 10
	semaphore := make(chan struct{}, concurrencyLimit)

	for _, delivery := range stale {
		wg.Add(1)
		semaphore <- struct{}{}

		go func(delivery *models.DeliveryJob) {
			defer wg.Done()
			defer func() { <-semaphore }()

			messageID, err := j.sc.Register(ctx, delivery.Platform, delivery.AuthorID, delivery.Content, delivery.PostDate)
			if err != nil {
				slog.Info("re-registration failed", "post_id", delivery.PostID, "platform", string(delivery.Platform))
				return
			}

			if err := j.pr.SetPlatformJob(ctx, delivery.PostID, delivery.Platform, messageID, models.JobStatusRegistered); err != nil {
				slog.Info(err.Error())
			}
		}(delivery)
	}

	wg.Wait()
}
