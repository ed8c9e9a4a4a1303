package mw

import (
	"bytes"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
)

type cacheEntry struct {
	status  int
	headers http.Header
	body    []byte
}

// teeWriter duplicates the response body into a buffer so a successful
// response can be stored after the handler ran.
type teeWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w teeWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w teeWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// Cache is a middleware for in-memory caching of GET responses, keyed on the
// full request URI. Writes are never cached; reads of recently changed
// schedules may be up to one TTL stale.
func Cache(store *cache.Cache, duration time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet {
			c.Next()
			return
		}

		key := c.Request.RequestURI
		if hit, found := store.Get(key); found {
			entry := hit.(cacheEntry)
			for k, v := range entry.headers {
				c.Writer.Header()[k] = v
			}
			c.Writer.Header().Set("X-Cache", "HIT")
			c.Writer.WriteHeader(entry.status)
			c.Writer.Write(entry.body)
			c.Abort()
			return
		}

		tw := &teeWriter{body: bytes.NewBuffer(nil), ResponseWriter: c.Writer}
		c.Writer = tw

		c.Next()

		// Only successful responses are worth replaying.
		if tw.Status() >= 200 && tw.Status() < 300 {
			store.Set(key, cacheEntry{
				status:  tw.Status(),
				headers: tw.Header().Clone(),
				body:    tw.body.Bytes(),
			}, duration)
		}
	}
}
