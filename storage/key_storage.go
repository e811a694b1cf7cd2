package storage

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/alekLukanen/errs"
	"github.com/go-redsync/redsync/v4"
	redsyncredis "github.com/go-redsync/redsync/v4/redis"
	"github.com/go-redsync/redsync/v4/redis/goredis/v9"
	goredislib "github.com/redis/go-redis/v9"
)

type ILock interface {
	TryLockContext(context.Context) error
	UnlockContext(context.Context) (bool, error)
	Name() string
}

type IKeyStorage interface {
	ClaimPrefix(context.Context, string, time.Duration) (ILock, error)
	ReleaseLock(context.Context, ILock) (bool, error)

	RecordRun(context.Context, string, map[string]string) error
	GetRun(context.Context, string) (map[string]string, error)
}

type KeyStorageOptions struct {
	Address   string
	Password  string
	KeyPrefix string
}

// KeyStorage keeps publish locks and the record of published runs in redis.
type KeyStorage struct {
	logger *slog.Logger
	client *goredislib.Client
	pool   redsyncredis.Pool
	sync   *redsync.Redsync

	KeyPrefix string
}

func NewKeyStorage(
	ctx context.Context,
	logger *slog.Logger,
	options KeyStorageOptions,
) (*KeyStorage, error) {
	client := goredislib.NewClient(&goredislib.Options{
		Addr:     options.Address,
		Password: options.Password,
		DB:       0,
	})

	redisPool := goredis.NewPool(client)
	mutexSync := redsync.New(redisPool)

	keyStorage := KeyStorage{
		logger:    logger,
		client:    client,
		pool:      redisPool,
		sync:      mutexSync,
		KeyPrefix: options.KeyPrefix,
	}
	return &keyStorage, nil
}

func (obj *KeyStorage) Key(key string) string {
	return fmt.Sprintf("%s-%s", obj.KeyPrefix, key)
}

func (obj *KeyStorage) DerCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	derivedCtx, cancelFunc := context.WithTimeout(ctx, time.Second*15)
	return derivedCtx, cancelFunc
}

func (obj *KeyStorage) Close() error {
	return obj.client.Close()
}

func (obj *KeyStorage) AcquireLock(ctx context.Context, key string, duration time.Duration) (ILock, error) {
	mutex := obj.sync.NewMutex(obj.Key(key), redsync.WithExpiry(duration))
	if err := mutex.TryLockContext(ctx); err != nil {
		return nil, err
	}
	return mutex, nil
}

func (obj *KeyStorage) ReleaseLock(ctx context.Context, lock ILock) (bool, error) {
	ok, err := lock.UnlockContext(ctx)
	return ok, err
}

// ClaimPrefix locks an artifact prefix so only one run publishes into it at
// a time.
func (obj *KeyStorage) ClaimPrefix(ctx context.Context, prefix string, duration time.Duration) (ILock, error) {
	key := fmt.Sprintf("publish-lock/%s", prefix)
	obj.logger.Debug("claiming artifact prefix", slog.String("prefix", prefix), slog.Duration("duration", duration))
	return obj.AcquireLock(ctx, key, duration)
}

// RecordRun stores the published artifact keys of a run as a redis hash.
func (obj *KeyStorage) RecordRun(ctx context.Context, runID string, fields map[string]string) error {
	ctx, cancelFunc := obj.DerCtx(ctx)
	defer cancelFunc()

	values := make([]interface{}, 0, len(fields)*2)
	for field, value := range fields {
		values = append(values, field, value)
	}
	resp := obj.client.HSet(ctx, obj.Key(fmt.Sprintf("runs/%s", runID)), values...)
	if resp.Err() != nil {
		return errs.Wrap(resp.Err(), fmt.Errorf("failed recording run %s", runID))
	}
	return nil
}

func (obj *KeyStorage) GetRun(ctx context.Context, runID string) (map[string]string, error) {
	ctx, cancelFunc := obj.DerCtx(ctx)
	defer cancelFunc()

	resp := obj.client.HGetAll(ctx, obj.Key(fmt.Sprintf("runs/%s", runID)))
	if resp.Err() != nil {
		return nil, errs.Wrap(resp.Err(), fmt.Errorf("failed reading run %s", runID))
	}
	return resp.Val(), nil
}
