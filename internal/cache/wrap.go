package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/nirmalpratheep/CommunityHealthAdvisor-A4I/tools"
)

// toolKey derives a cache key from the tool name and its raw arguments.
func toolKey(name string, args json.RawMessage) string {
	sum := sha256.Sum256(append([]byte(name+":"), args...))
	return "tool:" + name + ":" + hex.EncodeToString(sum[:16])
}

// WrapTool returns a ToolFunc that serves repeated calls with identical
// arguments from the cache. Zip-code-scoped statistics change slowly,
// so data-source tools are safe to cache for minutes. Cache failures
// fall through to the underlying tool.
func WrapTool(m *Manager, name string, ttl time.Duration, fn tools.ToolFunc, logger *zap.Logger) tools.ToolFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(ctx context.Context, args json.RawMessage) (json.RawMessage, error) {
		key := toolKey(name, args)

		if cached, err := m.Get(ctx, key); err == nil {
			logger.Debug("tool cache hit", zap.String("tool", name))
			return json.RawMessage(cached), nil
		} else if !IsCacheMiss(err) {
			logger.Warn("tool cache read failed", zap.String("tool", name), zap.Error(err))
		}

		result, err := fn(ctx, args)
		if err != nil {
			return nil, err
		}
		if err := m.Set(ctx, key, result, ttl); err != nil {
			logger.Warn("tool cache write failed", zap.String("tool", name), zap.Error(err))
		}
		return result, nil
	}
}
