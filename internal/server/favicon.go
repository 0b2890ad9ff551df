package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Gbollysearch7/Hallucination-Agent/internal/metrics"
	"github.com/Gbollysearch7/Hallucination-Agent/internal/storage"
)

const faviconTTL = 24 * time.Hour

// DuckDuckGo first, then Google.
var defaultFaviconSources = []string{
	"https://icons.duckduckgo.com/ip3/%s.ico",
	"https://www.google.com/s2/favicons?domain=%s&sz=64",
}

var errFaviconNotFound = errors.New("favicon not found")

type Cache interface {
	Get(ctx context.Context, key string, dst any) error
	Set(ctx context.Context, key string, v any, ttl time.Duration) error
}

type favicon struct {
	ContentType string `json:"content_type"`
	Data        []byte `json:"data"`
}

// FaviconProxy fetches site icons for the evidence list and caches them.
type FaviconProxy struct {
	client  *http.Client
	cache   Cache
	sources []string
	logger  *zap.Logger
}

// NewFaviconProxy uses the given source URL templates, each with one %s for
// the domain, or the default sources when none are given. cache may be nil.
func NewFaviconProxy(cache Cache, logger *zap.Logger, sources ...string) *FaviconProxy {
	if len(sources) == 0 {
		sources = defaultFaviconSources
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FaviconProxy{
		client:  &http.Client{Timeout: 10 * time.Second},
		cache:   cache,
		sources: sources,
		logger:  logger,
	}
}

func (p *FaviconProxy) fetch(ctx context.Context, domain string) (*favicon, error) {
	key := "favicon:" + domain
	if p.cache != nil {
		var cached favicon
		err := p.cache.Get(ctx, key, &cached)
		if err == nil && len(cached.Data) > 0 {
			metrics.CacheHitsTotal.WithLabelValues("favicon").Inc()
			return &cached, nil
		}
		if err != nil && !errors.Is(err, storage.ErrCacheMiss) {
			p.logger.Warn("favicon cache read failed", zap.Error(err))
		}
		metrics.CacheMissesTotal.WithLabelValues("favicon").Inc()
	}

	for _, tpl := range p.sources {
		icon, err := p.download(ctx, fmt.Sprintf(tpl, domain))
		if err != nil {
			p.logger.Debug("favicon source failed", zap.String("domain", domain), zap.Error(err))
			continue
		}
		if p.cache != nil {
			if err := p.cache.Set(ctx, key, icon, faviconTTL); err != nil {
				p.logger.Warn("failed to cache favicon", zap.Error(err))
			}
		}
		return icon, nil
	}
	return nil, errFaviconNotFound
}

func (p *FaviconProxy) download(ctx context.Context, url string) (*favicon, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %s", resp.Status)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, errors.New("empty body")
	}
	ct := resp.Header.Get("Content-Type")
	if ct == "" {
		ct = "image/x-icon"
	}
	return &favicon{ContentType: ct, Data: data}, nil
}

func (s *Server) handleFavicon(w http.ResponseWriter, r *http.Request) {
	domain := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("d")))
	if domain == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Missing domain"})
		return
	}
	if err := s.validate.Var(domain, "hostname_rfc1123"); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid domain"})
		return
	}
	if s.deps.Favicons == nil {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "Not found"})
		return
	}

	icon, err := s.deps.Favicons.fetch(r.Context(), domain)
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "Not found"})
		return
	}

	maxAge := strconv.Itoa(int(faviconTTL.Seconds()))
	w.Header().Set("Content-Type", icon.ContentType)
	w.Header().Set("Cache-Control", "public, s-maxage="+maxAge+", stale-while-revalidate="+maxAge)
	w.WriteHeader(http.StatusOK)
	w.Write(icon.Data)
}
