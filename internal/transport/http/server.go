// Package http serves the web UI: a static page that builds requests and
// the JSON endpoints it talks to.
package http

import (
	"context"
	"errors"
	"fmt"
	"html"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"
	json "github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/callumgare/media-finder-cli/internal/app"
	"github.com/callumgare/media-finder-cli/internal/pkg/logger"
	"github.com/callumgare/media-finder-cli/mediafinder"
	"github.com/callumgare/media-finder-cli/schema"
)

const maxBodyBytes = 1 << 20

var validate = validator.New()

// QueryRunner fetches one page for a web UI request.
type QueryRunner interface {
	RunQuery(ctx context.Context, finder *mediafinder.Finder, in app.QueryInput) (*mediafinder.Response, error)
}

// SecretsLister lists the available secrets sets.
type SecretsLister interface {
	Names() ([]string, error)
}

type Server struct {
	finder  *mediafinder.Finder
	runner  QueryRunner
	secrets SecretsLister
	buildID string
	static  fs.FS

	upgrader websocket.Upgrader
}

func NewServer(finder *mediafinder.Finder, runner QueryRunner, secrets SecretsLister) *Server {
	static, err := fs.Sub(staticFiles, "static")
	if err != nil {
		panic(err)
	}
	return &Server{
		finder:  finder,
		runner:  runner,
		secrets: secrets,
		buildID: strconv.FormatInt(time.Now().UnixMilli(), 10),
		static:  static,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// BuildID identifies this server process. The page reloads when it changes.
func (s *Server) BuildID() string { return s.buildID }

func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(MetricsMiddleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"*"},
	}))

	r.Get("/build-id", s.handleBuildID)
	r.Get("/ws", s.handleWebsocket)
	r.Get("/secrets-sets", s.handleSecretsSets)
	r.Get("/sources", s.handleSources)
	r.Post("/", s.handleQuery)
	r.Handle(metricsPath, promhttp.Handler())

	files := http.FileServerFS(s.static)
	r.Get("/", files.ServeHTTP)
	r.Handle("/*", files)

	return otelhttp.NewHandler(r, "web-ui")
}

func (s *Server) handleBuildID(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, s.buildID)
}

// handleWebsocket sends the build id once and holds the connection open
// until the client goes away.
func (s *Server) handleWebsocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()
	reloadSockets.Inc()
	defer reloadSockets.Dec()
	if err := conn.WriteMessage(websocket.TextMessage, []byte(s.buildID)); err != nil {
		return
	}
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (s *Server) handleSecretsSets(w http.ResponseWriter, r *http.Request) {
	names, err := s.secrets.Names()
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, names)
}

type sourceView struct {
	ID              string        `json:"id"`
	DisplayName     string        `json:"displayName"`
	Description     string        `json:"description,omitempty"`
	RequestHandlers []handlerView `json:"requestHandlers"`
}

type handlerView struct {
	ID            string         `json:"id"`
	DisplayName   string         `json:"displayName"`
	Description   string         `json:"description,omitempty"`
	RequestSchema *schema.Simple `json:"requestSchema"`
}

func (s *Server) handleSources(w http.ResponseWriter, r *http.Request) {
	sources := s.finder.Sources()
	out := make([]sourceView, 0, len(sources))
	for _, src := range sources {
		sv := sourceView{ID: src.ID, DisplayName: src.DisplayName, Description: src.Description}
		for _, h := range src.RequestHandlers {
			sv.RequestHandlers = append(sv.RequestHandlers, handlerView{
				ID:            h.ID,
				DisplayName:   h.DisplayName,
				Description:   h.Description,
				RequestSchema: schema.Simplify(h.RequestSchema),
			})
		}
		out = append(out, sv)
	}
	writeJSON(w, http.StatusOK, out)
}

type queryBody struct {
	MediaFinderRequest   map[string]any `json:"mediaFinderRequest" validate:"required"`
	SecretsSet           string         `json:"secretsSet"`
	CacheNetworkRequests string         `json:"cacheNetworkRequests" validate:"omitempty,oneof=never auto always"`
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var body queryBody
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&body); err != nil {
		writeError(w, r, fmt.Errorf("invalid request body: %w", err))
		return
	}
	if err := validate.Struct(body); err != nil {
		writeError(w, r, err)
		return
	}
	mode, err := mediafinder.ParseCacheMode(body.CacheNetworkRequests)
	if err != nil {
		writeError(w, r, err)
		return
	}

	resp, err := s.runner.RunQuery(r.Context(), s.finder, app.QueryInput{
		Request:    body.MediaFinderRequest,
		SecretsSet: body.SecretsSet,
		CacheMode:  mode,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError reports every failure as 400 with an HTML-escaped message.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	logger.From(r.Context()).Warn("web ui request failed", "path", r.URL.Path, "error", err)
	writeJSON(w, http.StatusBadRequest, map[string]string{"error": html.EscapeString(err.Error())})
}

// Serve runs h on addr until ctx is cancelled, then shuts down gracefully.
func Serve(ctx context.Context, addr string, h http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		slog.Info("web ui listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
