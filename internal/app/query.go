package app

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"maps"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/callumgare/media-finder-cli/internal/domain"
	"github.com/callumgare/media-finder-cli/internal/pkg/logger"
	"github.com/callumgare/media-finder-cli/mediafinder"
)

var (
	ErrNoResponse      = errors.New("no response received")
	ErrArchiveDisabled = errors.New("archive bucket is not configured")
)

var (
	queriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "media_finder_queries_total",
		Help: "Total number of media finder queries.",
	}, []string{"source", "handler", "status"})

	queryDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "media_finder_query_duration_seconds",
		Help:    "Duration of media finder page fetches.",
		Buckets: prometheus.DefBuckets,
	}, []string{"source", "handler"})
)

// QueryInput is one page request.
type QueryInput struct {
	// Request holds source, requestHandler (or queryType) and the handler's
	// request fields.
	Request    map[string]any
	SecretsSet string
	CacheMode  mediafinder.CacheMode
}

// NormalizeRequest copies req, renaming requestHandler to queryType.
func NormalizeRequest(req map[string]any) map[string]any {
	out := maps.Clone(req)
	if out == nil {
		out = map[string]any{}
	}
	if h, ok := out["requestHandler"]; ok {
		if h != nil && h != "" {
			out["queryType"] = h
		}
		delete(out, "requestHandler")
	}
	return out
}

// RunQuery fetches the first page of in.Request from finder.
func (c *Container) RunQuery(ctx context.Context, finder *mediafinder.Finder, in QueryInput) (*mediafinder.Response, error) {
	request := NormalizeRequest(in.Request)
	sourceID, _ := request["source"].(string)
	handlerID, _ := request["queryType"].(string)
	log := logger.From(ctx).With("source", sourceID, "handler", handlerID)

	start := time.Now()
	resp, err := c.query(ctx, finder, request, in)
	elapsed := time.Since(start)

	status := domain.StatusOK
	event := domain.QueryCompleted{
		EventID:        uuid.NewString(),
		Source:         sourceID,
		RequestHandler: handlerID,
		DurationMS:     elapsed.Milliseconds(),
		OccurredAt:     start.UTC(),
	}
	if err != nil {
		status = domain.StatusError
		event.Error = err.Error()
		log.Warn("query failed", "error", err)
	} else {
		event.Page = resp.Page.Number
		event.MediaCount = len(resp.Media)
		log.Info("query completed", "media", len(resp.Media), "duration", elapsed)
	}
	event.Status = status
	queriesTotal.WithLabelValues(sourceID, handlerID, status).Inc()
	queryDuration.WithLabelValues(sourceID, handlerID).Observe(elapsed.Seconds())

	if perr := c.Publisher.PublishQueryCompleted(ctx, event); perr != nil {
		log.Warn("publish query event failed", "error", perr)
	}
	return resp, err
}

func (c *Container) query(ctx context.Context, finder *mediafinder.Finder, request map[string]any, in QueryInput) (*mediafinder.Response, error) {
	secretValues, err := c.Secrets.Get(in.SecretsSet)
	if err != nil {
		return nil, err
	}
	q, err := mediafinder.NewQuery(finder, request, mediafinder.QueryOptions{
		Secrets:   secretValues,
		CacheMode: in.CacheMode,
		Cache:     c.Cache,
		Timeout:   c.Config.HTTPTimeout,
		Transport: c.Transport,
	})
	if err != nil {
		return nil, err
	}
	resp, err := q.GetNext(ctx)
	if err != nil {
		return nil, err
	}
	if resp == nil {
		return nil, ErrNoResponse
	}
	return resp, nil
}

// ArchiveResponse uploads resp as JSON and returns a presigned link to it.
func (c *Container) ArchiveResponse(ctx context.Context, sourceID, handlerID string, resp *mediafinder.Response) (string, error) {
	if c.Archive == nil {
		return "", ErrArchiveDisabled
	}
	body, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		return "", err
	}
	key := fmt.Sprintf("responses/%s/%s/%s.json", sourceID, handlerID, uuid.NewString())
	if _, err := c.Archive.Upload(ctx, key, bytes.NewReader(body), "application/json"); err != nil {
		return "", err
	}
	return c.Archive.PresignGet(ctx, key, c.Config.ArchivePresignTTL)
}
