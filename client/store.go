package client

import (
	"bytes"
	"context"
	"errors"
	"os"

	"github.com/natefinch/atomic"
	"github.com/redis/go-redis/v9"
)

// StateKey is the fixed namespace the task list is persisted under.
const StateKey = "kanban:tasks"

// ErrNoState is returned by Load when nothing has been persisted yet.
var ErrNoState = errors.New("no persisted state")

// StateStore persists the client's last-known task list so a restart can
// show the board before the transport reconnects.
type StateStore interface {
	Load(ctx context.Context) ([]byte, error)
	Save(ctx context.Context, data []byte) error
}

// FileStore keeps the task list in a single file, replaced atomically on
// every save so a crash mid-write never corrupts it.
type FileStore struct {
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (f *FileStore) Load(_ context.Context) ([]byte, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNoState
	}
	return data, err
}

func (f *FileStore) Save(_ context.Context, data []byte) error {
	return atomic.WriteFile(f.path, bytes.NewReader(data))
}

// RedisStore keeps the task list in Redis, for headless clients that have
// no local filesystem to lean on.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (r *RedisStore) Load(ctx context.Context) ([]byte, error) {
	data, err := r.client.Get(ctx, StateKey).Bytes()
	if err == redis.Nil {
		return nil, ErrNoState
	}
	return data, err
}

func (r *RedisStore) Save(ctx context.Context, data []byte) error {
	return r.client.Set(ctx, StateKey, data, 0).Err()
}
