package mediafinder

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"path"
	"strings"
	"sync"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cuejson "cuelang.org/go/encoding/json"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/callumgare/media-finder-cli/internal/pkg/templaterender"
	"github.com/callumgare/media-finder-cli/schema"
)

const maxResponseBytes = 32 << 20

var tracer = otel.Tracer("github.com/callumgare/media-finder-cli/mediafinder")

// Response is one page of results.
type Response struct {
	Request map[string]any `json:"request"`
	Page    Page           `json:"page"`
	Media   []Media        `json:"media"`
}

// Page describes where a response sits in the result set.
type Page struct {
	Number int    `json:"number"`
	Cursor string `json:"cursor,omitempty"`
	IsLast bool   `json:"isLast"`
}

// Media is one item found by a query.
type Media struct {
	ID          string `json:"id"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	URL         string `json:"url,omitempty"`
	Files       []File `json:"files"`
}

// File is a downloadable representation of a media item.
type File struct {
	URL      string `json:"url"`
	Type     string `json:"type,omitempty"`
	MimeType string `json:"mimeType,omitempty"`
}

// ResponseSchema describes Response.
func ResponseSchema() *schema.Node {
	file := schema.Object(
		schema.F("url", schema.String().Describe("Direct link to the file")),
		schema.F("type", schema.Optional(schema.Enum("image", "video", "audio", "text", "application"))),
		schema.F("mimeType", schema.Optional(schema.String())),
	)
	media := schema.Object(
		schema.F("id", schema.String()),
		schema.F("title", schema.Optional(schema.String())),
		schema.F("description", schema.Optional(schema.String())),
		schema.F("url", schema.Optional(schema.String().Describe("Page the media was found on"))),
		schema.F("files", schema.Array(file)),
	)
	return schema.Object(
		schema.F("request", schema.Other(schema.KindRecord).Describe("The request that produced this page")),
		schema.F("page", schema.Object(
			schema.F("number", schema.Number()),
			schema.F("cursor", schema.Optional(schema.String())),
			schema.F("isLast", schema.Boolean()),
		)),
		schema.F("media", schema.Array(media)),
	)
}

// QueryOptions configures how a query reaches upstream APIs.
type QueryOptions struct {
	Secrets   map[string]any
	CacheMode CacheMode
	Cache     Cache
	Timeout   time.Duration
	// Transport replaces the default network transport.
	Transport http.RoundTripper
}

// Query pages through the results of one request.
type Query struct {
	source  *Source
	handler *RequestHandler
	request map[string]any
	secrets map[string]any
	client  *http.Client

	mu     sync.Mutex
	page   int
	cursor string
	done   bool
}

// NewQuery validates request against its handler and prepares a query.
// The request selects the handler with its "source" and "queryType" keys.
func NewQuery(f *Finder, request map[string]any, opts QueryOptions) (*Query, error) {
	sourceID, _ := request["source"].(string)
	handlerID, _ := request["queryType"].(string)
	src, h, err := f.Lookup(sourceID, handlerID)
	if err != nil {
		return nil, err
	}

	validated := request
	if h.Validate != nil {
		if validated, err = h.Validate(request); err != nil {
			return nil, err
		}
	}

	secrets := opts.Secrets
	if secrets == nil {
		secrets = map[string]any{}
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Query{
		source:  src,
		handler: h,
		request: validated,
		secrets: secrets,
		client: &http.Client{
			Timeout:   timeout,
			Transport: newTransport(opts, f.breakers),
		},
	}, nil
}

// Source returns the queried source.
func (q *Query) Source() *Source { return q.source }

// RequestHandler returns the handler answering the query.
func (q *Query) RequestHandler() *RequestHandler { return q.handler }

// Request returns the validated request.
func (q *Query) Request() map[string]any { return q.request }

// GetNext fetches the next page. It returns nil once the last page has
// been returned.
func (q *Query) GetNext(ctx context.Context) (*Response, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.done {
		return nil, nil
	}

	ctx, span := tracer.Start(ctx, "mediafinder.GetNext", trace.WithAttributes(
		attribute.String("mediafinder.source", q.source.ID),
		attribute.String("mediafinder.request_handler", q.handler.ID),
		attribute.Int("mediafinder.page", q.page+1),
	))
	defer span.End()

	resp, next, err := q.fetchPage(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.Int("mediafinder.media_count", len(resp.Media)))

	q.page++
	resp.Page = Page{Number: q.page, Cursor: q.cursor, IsLast: next == ""}
	q.cursor = next
	q.done = next == ""
	return resp, nil
}

func (q *Query) fetchPage(ctx context.Context) (*Response, string, error) {
	data := map[string]any{
		"Request": q.request,
		"Secrets": q.secrets,
		"Cursor":  q.cursor,
		"Page":    q.page + 1,
	}
	target, err := templaterender.RenderString(q.handler.Endpoint.URL, data)
	if err != nil {
		return nil, "", fmt.Errorf("render endpoint url: %w", err)
	}
	headers, err := templaterender.RenderMap(q.handler.Endpoint.Headers, data)
	if err != nil {
		return nil, "", fmt.Errorf("render endpoint headers: %w", err)
	}
	method := q.handler.Endpoint.Method
	if method == "" {
		method = http.MethodGet
	}

	req, err := http.NewRequestWithContext(ctx, method, target, nil)
	if err != nil {
		return nil, "", err
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	req.Header.Set("Accept", "application/json")

	res, err := q.client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %w", ErrUpstream, err)
	}
	defer res.Body.Close()
	body, err := io.ReadAll(io.LimitReader(res.Body, maxResponseBytes))
	if err != nil {
		return nil, "", fmt.Errorf("%w: read body: %w", ErrUpstream, err)
	}
	if res.StatusCode < 200 || res.StatusCode > 299 {
		return nil, "", fmt.Errorf("%w: %s %s returned %d", ErrUpstream, method, req.URL.Host, res.StatusCode)
	}

	media, next, err := extractMedia(body, q.handler.Media)
	if err != nil {
		return nil, "", err
	}
	return &Response{Request: q.request, Media: media}, next, nil
}

func extractMedia(body []byte, m MediaMapping) ([]Media, string, error) {
	expr, err := cuejson.Extract("response.json", body)
	if err != nil {
		return nil, "", fmt.Errorf("%w: decode response: %w", ErrUpstream, err)
	}
	root := cuecontext.New().BuildExpr(expr)
	if err := root.Err(); err != nil {
		return nil, "", fmt.Errorf("%w: decode response: %w", ErrUpstream, err)
	}

	items := lookup(root, m.Items)
	iter, err := items.List()
	if err != nil {
		return nil, "", fmt.Errorf("%w: items at %q are not a list", ErrUpstream, m.Items)
	}

	media := []Media{}
	for iter.Next() {
		item := iter.Value()
		md := Media{
			ID:          lookupString(item, m.ID),
			Title:       lookupString(item, m.Title),
			Description: lookupString(item, m.Description),
			URL:         lookupString(item, m.URL),
			Files:       []File{},
		}
		if fileURL := lookupString(item, m.FileURL); fileURL != "" {
			md.Files = append(md.Files, newFile(fileURL, m.FileType, lookupString(item, m.MimeType)))
		}
		media = append(media, md)
	}
	return media, lookupString(root, m.Cursor), nil
}

func newFile(fileURL, fileType, mimeType string) File {
	if mimeType == "" {
		if u, err := url.Parse(fileURL); err == nil {
			mimeType, _, _ = strings.Cut(mime.TypeByExtension(path.Ext(u.Path)), ";")
		}
	}
	if fileType == "" && mimeType != "" {
		fileType, _, _ = strings.Cut(mimeType, "/")
	}
	return File{URL: fileURL, Type: fileType, MimeType: mimeType}
}

func lookup(v cue.Value, p string) cue.Value {
	if p == "" {
		return v
	}
	return v.LookupPath(cue.ParsePath(p))
}

func lookupString(v cue.Value, p string) string {
	if p == "" {
		return ""
	}
	f := lookup(v, p)
	if !f.Exists() {
		return ""
	}
	switch f.Kind() {
	case cue.StringKind:
		s, _ := f.String()
		return s
	case cue.IntKind, cue.FloatKind, cue.BoolKind:
		return fmt.Sprint(f)
	}
	return ""
}
