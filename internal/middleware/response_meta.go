package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/attendance-tracker-api/pkg/middleware/requestid"
)

const (
	responseMetaKey = "response_meta"
	cacheHitKey     = "cache_hit"
)

type responseMeta struct {
	started time.Time
	values  map[string]interface{}
}

// WithResponseMeta starts the per-request meta block that handlers attach to
// the response envelope.
func WithResponseMeta() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(responseMetaKey, &responseMeta{started: time.Now(), values: map[string]interface{}{}})
		c.Next()
	}
}

// SetCacheHit records whether the payload was served from Redis.
func SetCacheHit(c *gin.Context, hit bool) {
	SetMeta(c, cacheHitKey, hit)
}

// SetMeta stores an arbitrary meta value for the current response.
func SetMeta(c *gin.Context, key string, value interface{}) {
	if meta := metaFrom(c); meta != nil {
		meta.values[key] = value
	}
}

// ExtractMeta returns a snapshot of the meta block, including the elapsed
// processing time and the request id. Nil when the middleware is not installed.
func ExtractMeta(c *gin.Context) map[string]interface{} {
	meta := metaFrom(c)
	if meta == nil {
		return nil
	}
	out := make(map[string]interface{}, len(meta.values)+2)
	for k, v := range meta.values {
		out[k] = v
	}
	if _, ok := out["processing_time_ms"]; !ok {
		out["processing_time_ms"] = time.Since(meta.started).Milliseconds()
	}
	if id := requestid.Value(c); id != "" {
		out["request_id"] = id
	}
	return out
}

func metaFrom(c *gin.Context) *responseMeta {
	if c == nil {
		return nil
	}
	raw, exists := c.Get(responseMetaKey)
	if !exists {
		return nil
	}
	meta, _ := raw.(*responseMeta)
	return meta
}
