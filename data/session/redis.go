package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/KotFed0t/fund_portfolio_tracker/internal/model"
	"github.com/KotFed0t/fund_portfolio_tracker/utils"
	"github.com/redis/go-redis/v9"
)

var ErrNotFound = errors.New("session not found")

const keyPrefix = "session:"

type RedisSession struct {
	redis      *redis.Client
	expiration time.Duration
}

func NewRedisSession(redisClient *redis.Client, expiration time.Duration) *RedisSession {
	return &RedisSession{redis: redisClient, expiration: expiration}
}

func (r *RedisSession) GetSession(ctx context.Context, key string) (model.Session, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	slog.Debug("GetSession start", slog.String("rqID", rqID), slog.String("key", key))

	res, err := r.redis.Get(ctx, keyPrefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return model.Session{}, ErrNotFound
		}
		slog.Error("failed on redis.Get", slog.String("rqID", rqID), slog.String("err", err.Error()), slog.String("key", key))
		return model.Session{}, err
	}

	chatSession := model.Session{}
	if err = json.Unmarshal(res, &chatSession); err != nil {
		slog.Error("can't unmarshal session", slog.String("rqID", rqID), slog.String("err", err.Error()), slog.String("key", key))
		return model.Session{}, fmt.Errorf("unmarshal session: %w", err)
	}

	slog.Debug("GetSession completed", slog.String("rqID", rqID), slog.String("key", key))
	return chatSession, nil
}

// SetSession stores the session and restarts its expiration.
func (r *RedisSession) SetSession(ctx context.Context, key string, chatSession model.Session) error {
	rqID := utils.GetRequestIDFromCtx(ctx)
	slog.Debug("SetSession start", slog.String("rqID", rqID), slog.String("key", key))

	raw, err := json.Marshal(chatSession)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	if err = r.redis.Set(ctx, keyPrefix+key, raw, r.expiration).Err(); err != nil {
		slog.Error("failed on redis.Set", slog.String("rqID", rqID), slog.String("err", err.Error()), slog.String("key", key))
		return err
	}

	slog.Debug("SetSession completed", slog.String("rqID", rqID), slog.String("key", key))
	return nil
}
