package checkout

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/logger"
	"github.com/angelmondragon/storefront/pkg/redis"
)

// CommitGuard makes order placement a critical section per shopper.
type CommitGuard interface {
	// Acquire returns a release func, or a COMMIT_IN_PROGRESS error when a commit is already running.
	Acquire(ctx context.Context, userID uuid.UUID) (func(), error)
}

func errCommitInProgress() error {
	return pkgerrors.New(pkgerrors.CodeCommitInProgress, "order placement already in progress")
}

// LocalGuard tracks in-flight commits inside this process.
type LocalGuard struct {
	mu       sync.Mutex
	inFlight map[uuid.UUID]struct{}
}

// NewLocalGuard returns an empty in-process guard.
func NewLocalGuard() *LocalGuard {
	return &LocalGuard{inFlight: map[uuid.UUID]struct{}{}}
}

// Acquire marks userID in flight until the returned func runs.
func (g *LocalGuard) Acquire(_ context.Context, userID uuid.UUID) (func(), error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, busy := g.inFlight[userID]; busy {
		return nil, errCommitInProgress()
	}
	g.inFlight[userID] = struct{}{}
	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			delete(g.inFlight, userID)
			g.mu.Unlock()
		})
	}, nil
}

type lockClient interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
	CommitLockKey(userID string) string
}

// RedisGuard holds a Redis lease per shopper so concurrent submits on other instances are refused.
type RedisGuard struct {
	client lockClient
	ttl    time.Duration
	logg   *logger.Logger
}

// NewRedisGuard builds a guard whose leases expire after ttl.
func NewRedisGuard(client lockClient, ttl time.Duration, logg *logger.Logger) *RedisGuard {
	if logg == nil {
		logg = logger.Nop()
	}
	return &RedisGuard{client: client, ttl: ttl, logg: logg}
}

// Acquire takes the shopper's commit lease; the returned func releases it.
func (g *RedisGuard) Acquire(ctx context.Context, userID uuid.UUID) (func(), error) {
	lock, err := redis.NewLock(g.client, g.client.CommitLockKey(userID.String()), g.ttl)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build commit lock")
	}
	ok, err := lock.Acquire(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "acquire commit lock")
	}
	if !ok {
		return nil, errCommitInProgress()
	}
	return func() {
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := lock.Release(releaseCtx); err != nil {
			g.logg.Error(ctx, "checkout.commit_lock.release_failed", err)
		}
	}, nil
}

// ChainGuard acquires every guard in order and releases them in reverse.
type ChainGuard []CommitGuard

// Acquire takes every guard in the chain, undoing partial acquisition on failure.
func (c ChainGuard) Acquire(ctx context.Context, userID uuid.UUID) (func(), error) {
	releases := make([]func(), 0, len(c))
	releaseAll := func() {
		for i := len(releases) - 1; i >= 0; i-- {
			releases[i]()
		}
	}
	for _, guard := range c {
		if guard == nil {
			continue
		}
		release, err := guard.Acquire(ctx, userID)
		if err != nil {
			releaseAll()
			return nil, err
		}
		releases = append(releases, release)
	}
	return releaseAll, nil
}
