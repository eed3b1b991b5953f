package proxy

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Proxy forwards requests that are not served locally to the backend API.
type Proxy struct {
	target *url.URL
	prefix string
	proxy  *httputil.ReverseProxy
	logger zerolog.Logger
}

type Option func(*Proxy)

// WithTransport replaces the default pooled transport.
func WithTransport(rt http.RoundTripper) Option {
	return func(p *Proxy) {
		p.proxy.Transport = rt
	}
}

// NewProxy builds a reverse proxy to targetURL. prefix is stripped from the
// incoming path before it is joined to the target path, so with a target of
// http://backend/api and prefix /api, /api/upload/recent maps to
// http://backend/api/upload/recent.
func NewProxy(targetURL, prefix string, logger zerolog.Logger, options ...Option) (*Proxy, error) {
	target, err := url.Parse(targetURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse proxy target: %w", err)
	}
	if target.Scheme == "" || target.Host == "" {
		return nil, fmt.Errorf("proxy target %q must be an absolute URL", targetURL)
	}

	p := &Proxy{
		target: target,
		prefix: strings.TrimRight(prefix, "/"),
		logger: logger,
	}

	p.proxy = &httputil.ReverseProxy{
		Rewrite:        p.rewrite,
		ErrorHandler:   p.errorHandler,
		ModifyResponse: p.modifyResponse,
		Transport: &http.Transport{
			Proxy:                 http.ProxyFromEnvironment,
			MaxIdleConns:          100,
			IdleConnTimeout:       90 * time.Second,
			TLSHandshakeTimeout:   10 * time.Second,
			ExpectContinueTimeout: 1 * time.Second,
		},
	}

	for _, option := range options {
		option(p)
	}

	return p, nil
}

func (p *Proxy) rewrite(pr *httputil.ProxyRequest) {
	originalPath := pr.In.URL.Path

	pr.Out.URL.Path = strings.TrimPrefix(pr.Out.URL.Path, p.prefix)
	pr.Out.URL.RawPath = ""
	pr.SetURL(p.target)
	pr.SetXForwarded()

	p.logger.Debug().
		Str("method", pr.In.Method).
		Str("original_path", originalPath).
		Str("target_path", pr.Out.URL.Path).
		Str("target", p.target.String()).
		Msg("Proxying request")
}

func (p *Proxy) errorHandler(w http.ResponseWriter, r *http.Request, err error) {
	p.logger.Error().
		Err(err).
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Str("target", p.target.String()).
		Msg("Proxy error")

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadGateway)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"error":   "BACKEND_UNAVAILABLE",
		"message": "The study assistant backend is unavailable. Please try again later.",
	})
}

func (p *Proxy) modifyResponse(resp *http.Response) error {
	p.logger.Debug().
		Str("method", resp.Request.Method).
		Str("path", resp.Request.URL.Path).
		Int("status", resp.StatusCode).
		Msg("Proxy response")
	return nil
}

func (p *Proxy) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	p.proxy.ServeHTTP(w, r)
}
