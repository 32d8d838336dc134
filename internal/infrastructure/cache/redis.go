package cache

import (
	"context"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

func OpenRedis(addr string, db int) (*redis.Client, error) {
	r := redis.NewClient(&redis.Options{Addr: addr, DB: db})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := r.Ping(ctx).Err(); err != nil {
		return nil, err
	}
	return r, nil
}

// Key joins parts under the service namespace, e.g. microlend:idem:<account>:<id>.
func Key(parts ...string) string {
	return "microlend:" + strings.Join(parts, ":")
}
