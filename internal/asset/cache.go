package asset

import (
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// DefaultUpstreamWait bounds how long a CachedSource waits for its upstream.
const DefaultUpstreamWait = 60 * time.Second

// CachedSource remembers successful payloads and shares one upstream request
// among concurrent callers asking for the same texture. Failures are not cached,
// so the next compositor pass tries again. An upstream that never answers is
// given up on after the wait limit, freeing the texture for a new request.
type CachedSource struct {
	upstream Source
	wait     time.Duration
	group    singleflight.Group

	mu   sync.RWMutex
	data map[TextureID][]byte
}

// NewCachedSource wraps upstream. A non-positive wait uses DefaultUpstreamWait.
func NewCachedSource(upstream Source, wait time.Duration) *CachedSource {
	if wait <= 0 {
		wait = DefaultUpstreamWait
	}
	return &CachedSource{
		upstream: upstream,
		wait:     wait,
		data:     make(map[TextureID][]byte),
	}
}

// RequestImage serves from the cache or joins the in-flight request for id.
func (c *CachedSource) RequestImage(id TextureID, done Done) {
	c.mu.RLock()
	data, ok := c.data[id]
	c.mu.RUnlock()
	if ok {
		go done(data, nil)
		return
	}

	go func() {
		v, err, _ := c.group.Do(id.String(), func() (interface{}, error) {
			result := make(chan fetchResult, 1)
			c.upstream.RequestImage(id, func(data []byte, err error) {
				result <- fetchResult{data: data, err: err}
			})
			timer := time.NewTimer(c.wait)
			defer timer.Stop()

			var r fetchResult
			select {
			case r = <-result:
			case <-timer.C:
				return nil, fmt.Errorf("asset: upstream did not answer for %s within %v", id, c.wait)
			}
			if r.err != nil {
				return nil, r.err
			}
			c.mu.Lock()
			c.data[id] = r.data
			c.mu.Unlock()
			return r.data, nil
		})
		if err != nil {
			done(nil, err)
			return
		}
		done(v.([]byte), nil)
	}()
}

// Len returns the number of cached textures.
func (c *CachedSource) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.data)
}

type fetchResult struct {
	data []byte
	err  error
}
