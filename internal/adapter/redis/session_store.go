package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/pscheid92/pageswitch/internal/domain"
	goredis "github.com/redis/go-redis/v9"
)

const (
	sessionIndexKey = "gate:sessions"

	fieldPage         = "page"
	fieldIP           = "ip"
	fieldActivatedAt  = "activated_at"
	fieldExpiresAt    = "expires_at"
	fieldRequestSize  = "request_size"
	fieldResponseSize = "response_size"
)

func sessionKey(sessionID string) string {
	return "gate:session:" + sessionID
}

type SessionStore struct {
	rdb *goredis.Client
}

func NewSessionStore(rdb *goredis.Client) *SessionStore {
	return &SessionStore{rdb: rdb}
}

func (s *SessionStore) Put(ctx context.Context, session domain.Session, ttl time.Duration) error {
	key := sessionKey(session.SessionID)

	_, err := s.rdb.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.Del(ctx, key)
		pipe.HSet(ctx, key, map[string]any{
			fieldPage:         session.Page,
			fieldIP:           session.IP,
			fieldActivatedAt:  session.ActivatedAt.UnixMilli(),
			fieldExpiresAt:    session.ExpiresAt.UnixMilli(),
			fieldRequestSize:  0,
			fieldResponseSize: 0,
		})
		pipe.PExpire(ctx, key, ttl)
		pipe.SAdd(ctx, sessionIndexKey, session.SessionID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to put session %s: %w", session.SessionID, err)
	}
	return nil
}

func (s *SessionStore) Delete(ctx context.Context, sessionID string) error {
	_, err := s.rdb.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.Del(ctx, sessionKey(sessionID))
		pipe.SRem(ctx, sessionIndexKey, sessionID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete session %s: %w", sessionID, err)
	}
	return nil
}

func (s *SessionStore) List(ctx context.Context) ([]domain.Session, error) {
	ids, err := s.rdb.SMembers(ctx, sessionIndexKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read session index: %w", err)
	}
	if len(ids) == 0 {
		return []domain.Session{}, nil
	}

	pipe := s.rdb.Pipeline()
	cmds := make([]*goredis.MapStringStringCmd, len(ids))
	for i, id := range ids {
		cmds[i] = pipe.HGetAll(ctx, sessionKey(id))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("failed to read sessions: %w", err)
	}

	sessions := make([]domain.Session, 0, len(ids))
	var stale []string
	for i, cmd := range cmds {
		fields := cmd.Val()
		if len(fields) == 0 {
			stale = append(stale, ids[i])
			continue
		}
		sessions = append(sessions, parseSession(ids[i], fields))
	}

	if err := s.pruneIndex(ctx, stale); err != nil {
		return nil, err
	}
	return sessions, nil
}

// pruneIndexScript removes index members whose hash is still missing when
// the script runs. KEYS[1] is the index, KEYS[i+1] the hash of ARGV[i].
var pruneIndexScript = goredis.NewScript(`
local removed = 0
for i, id in ipairs(ARGV) do
  if redis.call('EXISTS', KEYS[i + 1]) == 0 then
    removed = removed + redis.call('SREM', KEYS[1], id)
  end
end
return removed
`)

// pruneIndex drops stale index entries. A session re-activated after List
// read it as missing keeps its entry.
func (s *SessionStore) pruneIndex(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	keys := make([]string, 0, len(ids)+1)
	keys = append(keys, sessionIndexKey)
	args := make([]any, len(ids))
	for i, id := range ids {
		keys = append(keys, sessionKey(id))
		args[i] = id
	}

	if err := pruneIndexScript.Run(ctx, s.rdb, keys, args...).Err(); err != nil {
		return fmt.Errorf("failed to prune session index: %w", err)
	}
	return nil
}

// addTrafficScript increments the counters only while the hash exists, so
// traffic cannot resurrect an expired session as a TTL-less key.
var addTrafficScript = goredis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
  return 0
end
redis.call('HINCRBY', KEYS[1], 'request_size', ARGV[1])
redis.call('HINCRBY', KEYS[1], 'response_size', ARGV[2])
return 1
`)

func (s *SessionStore) AddTraffic(ctx context.Context, sessionID string, requestBytes, responseBytes int64) (bool, error) {
	n, err := addTrafficScript.Run(ctx, s.rdb, []string{sessionKey(sessionID)}, requestBytes, responseBytes).Int()
	if err != nil {
		return false, fmt.Errorf("failed to add traffic for session %s: %w", sessionID, err)
	}
	return n == 1, nil
}

func parseSession(id string, fields map[string]string) domain.Session {
	return domain.Session{
		SessionID:    id,
		Page:         fields[fieldPage],
		IP:           fields[fieldIP],
		ActivatedAt:  parseMillis(fields[fieldActivatedAt]),
		ExpiresAt:    parseMillis(fields[fieldExpiresAt]),
		RequestSize:  parseInt(fields[fieldRequestSize]),
		ResponseSize: parseInt(fields[fieldResponseSize]),
	}
}

func parseInt(s string) int64 {
	n, _ := strconv.ParseInt(s, 10, 64)
	return n
}

func parseMillis(s string) time.Time {
	ms := parseInt(s)
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms)
}
