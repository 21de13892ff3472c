package archive

import (
	"log/slog"
	"net/http"

	"glowficdl/internal/config"
	"glowficdl/internal/glowfic"
	"glowficdl/internal/services"
)

// NewClient builds an origin client from configuration. store may be nil.
func NewClient(cfg *config.Config, logger *slog.Logger, store glowfic.ChapterStore, httpClient *http.Client) (*glowfic.Client, error) {
	loc, err := cfg.OriginLocation()
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "", "origin timezone", "", err)
	}
	cookie, err := glowfic.LoadCookie(cfg.Paths.CookieFile)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "", "load cookie", cfg.Paths.CookieFile, err)
	}
	client, err := glowfic.New(glowfic.Config{
		BaseURL:    cfg.Origin.BaseURL,
		APIURL:     cfg.Origin.APIURL,
		UserAgent:  cfg.Origin.UserAgent,
		Location:   loc,
		Cookie:     cookie,
		Limiter:    glowfic.NewLimiter(cfg.RequestInterval()),
		HTTPClient: httpClient,
		Store:      store,
		Logger:     logger,
	})
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "", "origin client", "", err)
	}
	return client, nil
}
