package viewer

import (
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-terrain/internal/asset"
	"github.com/Faultbox/midgard-terrain/internal/config"
	"github.com/Faultbox/midgard-terrain/internal/logger"
)

// NewTextureSource builds the detail texture source described by cfg: the
// local directory first, then the asset server, behind a shared cache. With
// neither configured every request reports ErrNotFound and layers fall back
// to their default colours. An upstream that stays silent past the HTTP
// timeout releases the texture for a fresh request.
func NewTextureSource(cfg config.TexturesConfig) *asset.CachedSource {
	var chain asset.Chain
	if cfg.Dir != "" {
		chain = append(chain, asset.NewDirSource(cfg.Dir))
	}
	if cfg.BaseURL != "" {
		chain = append(chain, asset.NewHTTPSource(cfg.BaseURL, cfg.RequestsPerSecond, cfg.HTTPTimeout))
	}
	logger.Named("viewer").Debug("texture sources",
		zap.String("dir", cfg.Dir),
		zap.String("base_url", cfg.BaseURL),
		zap.Int("sources", len(chain)))
	return asset.NewCachedSource(chain, cfg.HTTPTimeout)
}
