package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/BerniceZTT/smartcrm/utils"
	"github.com/redis/go-redis/v9"
)

// ConnectRedis 连接 Redis，用于多实例间的提醒任务锁
func ConnectRedis(ctx context.Context, redisURI string) (*redis.Client, error) {
	opt, err := redis.ParseURL(redisURI)
	if err != nil {
		return nil, fmt.Errorf("解析Redis地址失败: %w", err)
	}

	opt.PoolSize = 10
	opt.MinIdleConns = 2
	opt.MaxRetries = 3
	opt.DialTimeout = 5 * time.Second
	opt.ReadTimeout = 3 * time.Second
	opt.WriteTimeout = 3 * time.Second
	opt.PoolTimeout = 4 * time.Second
	opt.ConnMaxIdleTime = 5 * time.Minute

	client := redis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping Redis失败: %w", err)
	}

	utils.Logger.Info().Str("addr", opt.Addr).Msg("已连接到Redis")
	return client, nil
}
