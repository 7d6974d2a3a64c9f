package asset

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/Faultbox/midgard-terrain/internal/logger"
)

// maxTextureBytes bounds a single download.
const maxTextureBytes = 16 << 20

// HTTPSource downloads textures from <BaseURL>/<uuid>.
// Requests are paced by a token bucket so a burst of region changes does
// not hammer the asset server.
type HTTPSource struct {
	BaseURL string
	Client  *http.Client
	Limiter *rate.Limiter
	Timeout time.Duration
}

// NewHTTPSource creates a source allowing perSecond requests with a burst of 4.
// A non-positive perSecond disables pacing.
func NewHTTPSource(baseURL string, perSecond float64, timeout time.Duration) *HTTPSource {
	limit := rate.Inf
	if perSecond > 0 {
		limit = rate.Limit(perSecond)
	}
	return &HTTPSource{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Client:  &http.Client{},
		Limiter: rate.NewLimiter(limit, 4),
		Timeout: timeout,
	}
}

// RequestImage downloads the texture on a new goroutine.
func (s *HTTPSource) RequestImage(id TextureID, done Done) {
	go func() {
		ctx := context.Background()
		if s.Timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, s.Timeout)
			defer cancel()
		}
		data, err := s.fetch(ctx, id)
		if err != nil {
			logger.Debug("texture download failed", zap.Stringer("texture", id), zap.Error(err))
		}
		done(data, err)
	}()
}

func (s *HTTPSource) fetch(ctx context.Context, id TextureID) ([]byte, error) {
	if err := s.Limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("waiting for download slot: %w", err)
	}

	url := s.BaseURL + "/" + id.String()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("building request for %s: %w", url, err)
	}
	resp, err := s.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("requesting %s: %w", url, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s", ErrNotFound, url)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("requesting %s: unexpected status %s", url, resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxTextureBytes+1))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", url, err)
	}
	if len(data) > maxTextureBytes {
		return nil, fmt.Errorf("texture %s larger than %d bytes", id, maxTextureBytes)
	}
	return data, nil
}
