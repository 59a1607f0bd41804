package gateway

import (
	"context"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi"

	"github.com/frahmantamala/practice-gateway/internal"
	"github.com/frahmantamala/practice-gateway/internal/transport"
)

// ProxyPrefix is where pass-through routes are mounted.
const ProxyPrefix = "/api/v1/proxy"

// Proxy forwards /api/v1/proxy/{service}/* to the service's /api/v1/*,
// swapping the session token for the upstream bearer token. A 401 from the
// upstream ends the local session as well.
func (c *Client) Proxy() http.Handler {
	base := transport.NewBaseHandler(c.logger)
	proxies := make(map[string]*httputil.ReverseProxy, len(c.endpoints))

	for name, ep := range c.endpoints {
		target, err := url.Parse(ep.BaseURL)
		if err != nil {
			c.logger.Error("skipping proxy for service with bad url", "service", name, "error", err)
			continue
		}
		service := name
		rp := &httputil.ReverseProxy{
			Rewrite: func(pr *httputil.ProxyRequest) {
				pr.SetURL(target)
				pr.Out.URL.Path = singleJoin(target.Path, "/api/v1/"+chi.URLParam(pr.In, "*"))
				pr.Out.URL.RawPath = ""
				pr.Out.Host = target.Host
				pr.Out.Header.Del("Cookie")
				ApplyCredentials(pr.In.Context(), pr.Out.Header)
			},
			ModifyResponse: func(resp *http.Response) error {
				c.observe(service, resp.StatusCode, startFrom(resp.Request))
				if resp.StatusCode == http.StatusUnauthorized && c.onUnauthorized != nil {
					c.logger.WarnContext(resp.Request.Context(), "upstream rejected session", "service", service)
					c.onUnauthorized(resp.Request.Context())
				}
				return nil
			},
			ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
				c.observe(service, 0, startFrom(r))
				base.WriteAppError(w, r, internal.NewExternalError(service+" service is unavailable", err))
			},
		}
		proxies[name] = rp
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rp, ok := proxies[chi.URLParam(r, "service")]
		if !ok {
			base.WriteAppError(w, r, internal.NewNotFoundError("unknown service", "SERVICE_NOT_FOUND"))
			return
		}
		ctx, cancel := context.WithTimeout(r.Context(), c.endpoints[chi.URLParam(r, "service")].Timeout)
		defer cancel()
		rp.ServeHTTP(w, r.WithContext(withStart(ctx, time.Now())))
	})
}

type startKey struct{}

func withStart(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, startKey{}, t)
}

func startFrom(r *http.Request) time.Time {
	if r != nil {
		if t, ok := r.Context().Value(startKey{}).(time.Time); ok {
			return t
		}
	}
	return time.Now()
}

func singleJoin(a, b string) string {
	a = strings.TrimRight(a, "/")
	if !strings.HasPrefix(b, "/") {
		b = "/" + b
	}
	return a + b
}
