// Package proxy serves a local CORS proxy so browsers can load media files
// from hosts that do not send CORS headers.
//
// A request for http://localhost:<port>/<absolute url> is forwarded to the
// absolute url and the response is returned with
// Access-Control-Allow-Origin set to "*".
package proxy

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/callumgare/media-finder-cli/mediafinder"
)

type targetKey struct{}

// Handler returns the proxy handler.
func Handler() http.Handler {
	rp := &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			target := pr.In.Context().Value(targetKey{}).(*url.URL)
			pr.Out.URL = &url.URL{
				Scheme:   target.Scheme,
				Host:     target.Host,
				Path:     target.Path,
				RawPath:  target.RawPath,
				RawQuery: target.RawQuery,
			}
			pr.Out.Host = target.Host
		},
		ModifyResponse: func(resp *http.Response) error {
			resp.Header.Set("Access-Control-Allow-Origin", "*")
			return nil
		},
		Transport: otelhttp.NewTransport(http.DefaultTransport),
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			slog.Warn("proxy request failed", "url", r.URL.RequestURI(), "error", err)
			w.Header().Set("Access-Control-Allow-Origin", "*")
			http.Error(w, "Bad gateway", http.StatusBadGateway)
		},
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := strings.TrimPrefix(r.URL.RequestURI(), "/")
		target, err := url.Parse(raw)
		if err != nil || (target.Scheme != "http" && target.Scheme != "https") || target.Host == "" {
			http.Error(w, fmt.Sprintf("Invalid url %q", raw), http.StatusBadRequest)
			return
		}
		rp.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), targetKey{}, target)))
	})
}

// Server is a running proxy.
type Server struct {
	// Origin is the proxy's base URL, without a trailing slash.
	Origin string
	srv    *http.Server
	done   chan error
}

// Start listens on a free loopback port and serves the proxy until Close.
func Start() (*Server, error) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, fmt.Errorf("could not create proxy server: %w", err)
	}
	s := &Server{
		Origin: fmt.Sprintf("http://localhost:%d", ln.Addr().(*net.TCPAddr).Port),
		srv:    &http.Server{Handler: Handler(), ReadHeaderTimeout: 10 * time.Second},
		done:   make(chan error, 1),
	}
	go func() {
		err := s.srv.Serve(ln)
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		s.done <- err
	}()
	return s, nil
}

// Wait blocks until the server stops.
func (s *Server) Wait() error {
	return <-s.done
}

func (s *Server) Close(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

// URL returns the proxied form of target.
func (s *Server) URL(target string) string {
	return s.Origin + "/" + target
}

// RewriteFiles points every file URL of resp at the proxy.
func (s *Server) RewriteFiles(resp *mediafinder.Response) {
	for i := range resp.Media {
		for j := range resp.Media[i].Files {
			f := &resp.Media[i].Files[j]
			f.URL = s.URL(f.URL)
		}
	}
}
