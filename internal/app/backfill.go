package app

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"smartstay/internal/domain"
)

// UserLister pages through every user known to the identity provider.
type UserLister interface {
	ListUsers(ctx context.Context, limit, offset int) ([]domain.Profile, error)
}

// BackfillService provisions users that exist at the identity provider but
// were never seen by the webhook.
type BackfillService struct {
	lister   UserLister
	users    *UserService
	pageSize int
}

func NewBackfillService(l UserLister, u *UserService, pageSize int) *BackfillService {
	if pageSize <= 0 {
		pageSize = 100
	}
	return &BackfillService{lister: l, users: u, pageSize: pageSize}
}

type BackfillResult struct {
	Synced int64
	Failed int64
}

func (s *BackfillService) Run(ctx context.Context, workers int) (BackfillResult, error) {
	if workers <= 0 {
		workers = 1
	}
	sem := semaphore.NewWeighted(int64(workers))
	var wg sync.WaitGroup
	var res BackfillResult

	for offset := 0; ; offset += s.pageSize {
		page, err := s.lister.ListUsers(ctx, s.pageSize, offset)
		if err != nil {
			wg.Wait()
			return res, err
		}
		for _, p := range page {
			p := p
			// acquire before launching the goroutine; release inside it
			if err := sem.Acquire(ctx, 1); err != nil {
				wg.Wait()
				return res, err
			}
			wg.Add(1)
			go func() {
				defer wg.Done()
				defer sem.Release(1)
				if err := s.users.Sync(ctx, p); err != nil {
					atomic.AddInt64(&res.Failed, 1)
					log.Warn().Str("user", p.ID).Err(err).Msg("backfill failed")
					return
				}
				atomic.AddInt64(&res.Synced, 1)
			}()
		}
		if len(page) < s.pageSize {
			break
		}
	}
	wg.Wait()
	return res, nil
}
