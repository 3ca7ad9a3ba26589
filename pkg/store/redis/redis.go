package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
	"github.com/rmax-ai/schedgraph/pkg/domain"
	"github.com/rmax-ai/schedgraph/pkg/ledger"
)

const resourcesSet = "schedgraph:resources"

var _ ledger.ResourceStore = (*RedisResourceStore)(nil)

// RedisResourceStore keeps capacity entries as JSON values, one key per
// period and technician, indexed by a set of keys.
type RedisResourceStore struct {
	client *redis.Client
	logger *slog.Logger
}

func NewRedisResourceStore(client *redis.Client, logger *slog.Logger) *RedisResourceStore {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &RedisResourceStore{client: client, logger: logger}
}

func (s *RedisResourceStore) makeKey(period domain.Period, id domain.TechnicianID) string {
	return fmt.Sprintf("schedgraph:resource:%s:%d", period, id)
}

func (s *RedisResourceStore) Set(period domain.Period, resource ledger.OperationalResource) {
	key := s.makeKey(period, resource.ID)
	data, err := json.Marshal(ledger.PeriodResource{Period: period, Resource: resource})
	if err != nil {
		s.logger.Error("resource_marshal_failed", "key", key, "error", err)
		return
	}
	ctx := context.Background()
	if err := s.client.Set(ctx, key, data, 0).Err(); err != nil {
		s.logger.Error("redis_set_failed", "key", key, "error", err)
		return
	}
	if err := s.client.SAdd(ctx, resourcesSet, key).Err(); err != nil {
		s.logger.Error("redis_sadd_failed", "key", key, "error", err)
	}
}

func (s *RedisResourceStore) Get(period domain.Period, id domain.TechnicianID) (ledger.OperationalResource, bool) {
	key := s.makeKey(period, id)
	data, err := s.client.Get(context.Background(), key).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.logger.Error("redis_get_failed", "key", key, "error", err)
		}
		return ledger.OperationalResource{}, false
	}
	var pr ledger.PeriodResource
	if err := json.Unmarshal([]byte(data), &pr); err != nil {
		s.logger.Error("resource_unmarshal_failed", "key", key, "error", err)
		return ledger.OperationalResource{}, false
	}
	return pr.Resource, true
}

func (s *RedisResourceStore) GetAll() []ledger.PeriodResource {
	ctx := context.Background()
	keys, err := s.client.SMembers(ctx, resourcesSet).Result()
	if err != nil {
		s.logger.Error("redis_smembers_failed", "set", resourcesSet, "error", err)
		return nil
	}
	if len(keys) == 0 {
		return []ledger.PeriodResource{}
	}
	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		s.logger.Error("redis_mget_failed", "error", err)
		return nil
	}
	list := make([]ledger.PeriodResource, 0, len(values))
	for i, val := range values {
		if val == nil {
			continue
		}
		str, ok := val.(string)
		if !ok {
			s.logger.Error("redis_mget_non_string", "key", keys[i])
			continue
		}
		var pr ledger.PeriodResource
		if err := json.Unmarshal([]byte(str), &pr); err != nil {
			s.logger.Error("resource_unmarshal_failed", "key", keys[i], "error", err)
			continue
		}
		if pr.Resource.SkillHours == nil {
			pr.Resource.SkillHours = make(map[domain.Skill]domain.Work)
		}
		list = append(list, pr)
	}
	return list
}

func (s *RedisResourceStore) Clear() {
	ctx := context.Background()
	keys, err := s.client.SMembers(ctx, resourcesSet).Result()
	if err != nil {
		s.logger.Error("redis_smembers_failed", "set", resourcesSet, "error", err)
		return
	}
	if len(keys) > 0 {
		if err := s.client.Del(ctx, keys...).Err(); err != nil {
			s.logger.Error("redis_del_failed", "error", err)
		}
	}
	if err := s.client.Del(ctx, resourcesSet).Err(); err != nil {
		s.logger.Error("redis_del_failed", "set", resourcesSet, "error", err)
	}
}
