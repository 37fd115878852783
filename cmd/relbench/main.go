package main

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/d60-Lab/thread-graph/config"
	"github.com/d60-Lab/thread-graph/internal/model"
	"github.com/d60-Lab/thread-graph/internal/repository"
	"github.com/d60-Lab/thread-graph/internal/service"
	"github.com/d60-Lab/thread-graph/pkg/database"
)

func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}

func envInt(key string, def int) int {
	if s := os.Getenv(key); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return def
}

// noopNotifier 基准测试不走实时推送
type noopNotifier struct{}

func (noopNotifier) PushNotification(ctx context.Context, userID string, payload interface{}) error {
	return nil
}
func (noopNotifier) PushUnreadCount(ctx context.Context, userID string, count int64) error {
	return nil
}

func percentile(ds []time.Duration, p float64) time.Duration {
	if len(ds) == 0 {
		return 0
	}
	idx := int(float64(len(ds)-1) * p)
	return ds[idx]
}

func main() {
	cfg := must(config.Load())
	db := must(database.InitDB(cfg))

	userRepo := repository.NewUserRepository(db)
	followRepo := repository.NewFollowRepository(db)
	settingsRepo := repository.NewSettingsRepository(db)
	notifRepo := repository.NewNotificationRepository(db)
	threadRepo := repository.NewThreadRepository(db)

	settingsSvc := service.NewSettingsService(settingsRepo, userRepo, followRepo)
	notifSvc := service.NewNotificationService(notifRepo, userRepo, threadRepo, settingsSvc, noopNotifier{})
	followSvc := service.NewFollowService(followRepo, userRepo, settingsSvc, notifSvc)

	ctx := context.Background()

	N := envInt("N", 10000)
	CONC := envInt("CONC", 1)

	// seed: u0 是大 V，其余用户全部关注 u0
	celeb := model.User{ID: "u0", Username: "u0", Email: "u0@example.com", Password: "p"}
	_ = db.Where("id = ?", celeb.ID).FirstOrCreate(&celeb).Error
	users := make([]model.User, N)
	batch := 1000
	for i := 0; i < N; i++ {
		id := uuid.New().String()
		users[i] = model.User{ID: id, Username: "u" + id[:8], Email: id[:8] + "@example.com", Password: "p"}
		if (i+1)%batch == 0 {
			sub := users[i+1-batch : i+1]
			_ = db.Create(&sub).Error
		}
	}
	if N%batch != 0 {
		sub := users[N-N%batch:]
		_ = db.Create(&sub).Error
	}

	recs := make([]time.Duration, 0, N)
	ch := make(chan time.Duration, N)
	var wg sync.WaitGroup
	sem := make(chan struct{}, CONC)

	start := time.Now()
	for i := 0; i < N; i++ {
		wg.Add(1)
		sem <- struct{}{}
		go func(follower string) {
			defer wg.Done()
			defer func() { <-sem }()
			t0 := time.Now()
			_, _ = followSvc.Follow(ctx, follower, celeb.ID)
			ch <- time.Since(t0)
		}(users[i].ID)
	}
	wg.Wait()
	close(ch)
	for d := range ch {
		recs = append(recs, d)
	}
	elapsed := time.Since(start)

	sort.Slice(recs, func(i, j int) bool { return recs[i] < recs[j] })
	fmt.Printf("follow: n=%d conc=%d total=%v qps=%.0f\n", N, CONC, elapsed, float64(N)/elapsed.Seconds())
	fmt.Printf("  p50=%v p95=%v p99=%v max=%v\n",
		percentile(recs, 0.50), percentile(recs, 0.95), percentile(recs, 0.99), percentile(recs, 1.0))

	// followers 列表读路径
	t0 := time.Now()
	list := must(followSvc.Followers(ctx, celeb.ID, celeb.ID))
	fmt.Printf("followers: count=%d in %v\n", len(list), time.Since(t0))

	fresh := must(userRepo.ByID(ctx, celeb.ID))
	fmt.Printf("celeb counters: followers=%d\n", fresh.FollowersCount)
}
