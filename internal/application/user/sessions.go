package user

import (
	"context"

	"greenpulse-backend/internal/middleware"

	"github.com/redis/go-redis/v9"
)

// UserSessionsPrefix keys the set of live session ids per user.
const UserSessionsPrefix = "user_sessions:"

// TrackSession remembers that sessionID belongs to userID.
func TrackSession(ctx context.Context, rdb *redis.Client, userID, sessionID string) {
	if rdb == nil || userID == "" || sessionID == "" {
		return
	}
	key := UserSessionsPrefix + userID
	rdb.SAdd(ctx, key, sessionID)
	rdb.Expire(ctx, key, middleware.SessionMaxAge)
}

// DestroyUserSessions deletes every session of userID from Redis.
func DestroyUserSessions(ctx context.Context, rdb *redis.Client, userID string) {
	if rdb == nil || userID == "" {
		return
	}
	key := UserSessionsPrefix + userID
	sessionIDs, err := rdb.SMembers(ctx, key).Result()
	if err == nil {
		for _, sid := range sessionIDs {
			rdb.Del(ctx, middleware.SessionRedisPrefix+sid)
		}
	}
	rdb.Del(ctx, key)
}
