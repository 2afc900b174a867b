package store

import (
	"context"
	"encoding/json"
	"sort"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"mindmesh/backend/internal/model"
	"mindmesh/backend/pkg/errors"
	"mindmesh/backend/pkg/logger"
)

const (
	projectKeyPrefix = "mindmesh:project:"
	projectIndexKey  = "mindmesh:projects"
)

// RedisStore is the durable networked document store: one JSON document per
// project plus a set index of ids. Redis serializes commands per key, which
// gives the document-level write serialization the mutation contract assumes.
type RedisStore struct {
	client *redis.Client
	logger *zap.Logger
}

// NewRedisStore connects to Redis and verifies the connection
func NewRedisStore(ctx context.Context, addr, password string, db int) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, errors.NewStore("connect", err)
	}

	return &RedisStore{
		client: client,
		logger: logger.Get(),
	}, nil
}

// Close releases the underlying connection pool
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// Save writes the project document and indexes its id
func (s *RedisStore) Save(ctx context.Context, project *model.Project) error {
	data, err := json.Marshal(project)
	if err != nil {
		return errors.NewStore("save", err)
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, projectKeyPrefix+project.ID, data, 0)
	pipe.SAdd(ctx, projectIndexKey, project.ID)
	if _, err := pipe.Exec(ctx); err != nil {
		return errors.NewStore("save", err)
	}

	s.logger.Debug("project saved to redis", zap.String("project_id", project.ID))
	return nil
}

// Get fetches and decodes one project document
func (s *RedisStore) Get(ctx context.Context, id string) (*model.Project, error) {
	data, err := s.client.Get(ctx, projectKeyPrefix+id).Bytes()
	if err == redis.Nil {
		return nil, errors.NewProjectNotFound(id)
	}
	if err != nil {
		return nil, errors.NewStore("get", err)
	}

	var project model.Project
	if err := json.Unmarshal(data, &project); err != nil {
		return nil, errors.NewStore("get", err)
	}
	return &project, nil
}

// List fetches every indexed project, most recently updated first. Index
// entries whose document has vanished are skipped.
func (s *RedisStore) List(ctx context.Context) ([]*model.Project, error) {
	ids, err := s.client.SMembers(ctx, projectIndexKey).Result()
	if err != nil {
		return nil, errors.NewStore("list", err)
	}
	if len(ids) == 0 {
		return []*model.Project{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = projectKeyPrefix + id
	}
	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, errors.NewStore("list", err)
	}

	projects := make([]*model.Project, 0, len(values))
	for _, v := range values {
		raw, ok := v.(string)
		if !ok {
			continue
		}
		var project model.Project
		if err := json.Unmarshal([]byte(raw), &project); err != nil {
			s.logger.Warn("skipping undecodable project document", zap.Error(err))
			continue
		}
		projects = append(projects, &project)
	}

	sort.Slice(projects, func(i, j int) bool {
		return projects[i].UpdatedAt.After(projects[j].UpdatedAt)
	})
	return projects, nil
}

// Delete removes the project document and its index entry
func (s *RedisStore) Delete(ctx context.Context, id string) error {
	deleted, err := s.client.Del(ctx, projectKeyPrefix+id).Result()
	if err != nil {
		return errors.NewStore("delete", err)
	}
	if deleted == 0 {
		return errors.NewProjectNotFound(id)
	}
	if err := s.client.SRem(ctx, projectIndexKey, id).Err(); err != nil {
		return errors.NewStore("delete", err)
	}
	return nil
}

// Mutate applies fn through a read-modify-write. No optimistic-concurrency
// check: racing writers resolve last-write-wins at the document level, per
// the documented contract.
func (s *RedisStore) Mutate(ctx context.Context, id string, fn func(*model.Project) error) error {
	project, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := fn(project); err != nil {
		return err
	}
	return s.Save(ctx, project)
}
