package naming

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisGenerator 基于Redis按日序列的命名服务。
// 尽力而为：Redis不可用时返回错误，由调用方兜底，不得阻塞业务。
type RedisGenerator struct {
	rdb    *redis.Client
	prefix string
}

func NewRedisGenerator(rdb *redis.Client, prefix string) *RedisGenerator {
	if prefix == "" {
		prefix = "B"
	}
	return &RedisGenerator{rdb: rdb, prefix: prefix}
}

// GenerateName 生成 <prefix>-YYYYMMDD-NNNN 形式的名称
func (g *RedisGenerator) GenerateName(ctx context.Context, entityType string) (string, error) {
	if g.rdb == nil {
		return "", fmt.Errorf("命名服务未配置")
	}

	day := time.Now().Format("20060102")
	key := fmt.Sprintf("lims:seq:%s:%s", entityType, day)

	seq, err := g.rdb.Incr(ctx, key).Result()
	if err != nil {
		return "", fmt.Errorf("生成序列号失败: %w", err)
	}
	// 序列键跨日后自动过期
	g.rdb.Expire(ctx, key, 48*time.Hour)

	return fmt.Sprintf("%s-%s-%04d", g.prefix, day, seq), nil
}
