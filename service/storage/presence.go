package storage

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// Mirror keeps a cross-node copy of the presence table in Redis so other
// gateway nodes (and the CRUD application) can answer "is this user
// online, and where". The in-process table in service/chat stays the
// source of truth for this node; the mirror is best effort.
//
// presence key: ct:presence:<user>
// value: gateway id; TTL bounds staleness if a node dies without cleanup.
type Mirror struct {
	rdb       *redis.Client
	gatewayID string
	ttl       time.Duration
}

func NewMirror(rdb *redis.Client, gatewayID string, ttl time.Duration) *Mirror {
	if ttl <= 0 {
		ttl = 2 * time.Minute
	}
	return &Mirror{rdb: rdb, gatewayID: gatewayID, ttl: ttl}
}

func presenceKey(user string) string { return "ct:presence:" + user }

// Online marks the user online on this gateway and renews the TTL.
func (m *Mirror) Online(ctx context.Context, user string) error {
	if m == nil || m.rdb == nil {
		return nil
	}
	return m.rdb.Set(ctx, presenceKey(user), m.gatewayID, m.ttl).Err()
}

// Offline deletes the key only while it still names this gateway, so a
// user who reconnected through another node is not knocked offline.
func (m *Mirror) Offline(ctx context.Context, user string) error {
	if m == nil || m.rdb == nil {
		return nil
	}
	const del = `if redis.call("GET", KEYS[1]) == ARGV[1] then return redis.call("DEL", KEYS[1]) end return 0`
	return m.rdb.Eval(ctx, del, []string{presenceKey(user)}, m.gatewayID).Err()
}

// Lookup reports whether the user is online anywhere and on which gateway.
func (m *Mirror) Lookup(ctx context.Context, user string) (gatewayID string, online bool, err error) {
	if m == nil || m.rdb == nil {
		return "", false, nil
	}
	val, err := m.rdb.Get(ctx, presenceKey(user)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}
