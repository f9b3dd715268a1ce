package gateway

import (
	"log/slog"
	"net/http"
	"net/http/httputil"
)

// newProxy builds the reverse proxy for the /api mount. The session cookie
// is promoted to an Authorization header so the backend never sees browser
// cookies, and an explicit bearer header from the caller wins.
func (s *Server) newProxy() *httputil.ReverseProxy {
	proxy := httputil.NewSingleHostReverseProxy(s.target)

	director := proxy.Director
	proxy.Director = func(r *http.Request) {
		director(r)
		if r.Header.Get("Authorization") == "" {
			if token := sessionToken(r); token != "" {
				r.Header.Set("Authorization", "Bearer "+token)
			}
		}
		r.Header.Del("Cookie")
		r.Host = s.target.Host
	}

	proxy.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		s.logger.Error("proxy request failed",
			slog.String("path", r.URL.Path), slog.String("error", err.Error()))
		s.writeError(w, http.StatusBadGateway, "backend unreachable")
	}

	return proxy
}
