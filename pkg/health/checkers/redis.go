package checkers

import (
	"context"
	"time"
)

// Pinger is satisfied by cache backends that can report liveness.
type Pinger interface {
	Ping(ctx context.Context) error
}

type RedisChecker struct {
	pinger Pinger
}

func NewRedisChecker(pinger Pinger) *RedisChecker {
	return &RedisChecker{pinger: pinger}
}

func (c *RedisChecker) Name() string { return "redis" }

func (c *RedisChecker) Check(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	return c.pinger.Ping(ctx)
}
