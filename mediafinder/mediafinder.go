// Package mediafinder finds media through sources described in CUE.
//
// A Source groups request handlers. A request handler declares the request
// it accepts, the secrets it needs, an HTTP endpoint to call and how media
// is extracted from the JSON that endpoint returns. Sources are shipped as
// plugins: CUE files with a top-level sources struct.
package mediafinder

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/callumgare/media-finder-cli/internal/pkg/circuitbreaker"
	"github.com/callumgare/media-finder-cli/schema"
)

var (
	ErrUnknownSource         = errors.New("unknown source")
	ErrUnknownRequestHandler = errors.New("unknown request handler")
	ErrInvalidRequest        = errors.New("invalid request")
	ErrUpstream              = errors.New("upstream request failed")
)

// Source is a site or API media can be found on.
type Source struct {
	ID              string
	DisplayName     string
	Description     string
	SecretsSchema   *schema.Node
	RequestHandlers []*RequestHandler
}

// RequestHandler returns the handler with the given id.
func (s *Source) RequestHandler(id string) (*RequestHandler, bool) {
	for _, h := range s.RequestHandlers {
		if h.ID == id {
			return h, true
		}
	}
	return nil, false
}

// RequestHandlerIDs lists handler ids in declaration order.
func (s *Source) RequestHandlerIDs() []string {
	ids := make([]string, 0, len(s.RequestHandlers))
	for _, h := range s.RequestHandlers {
		ids = append(ids, h.ID)
	}
	return ids
}

// RequestHandler is one kind of query a source answers.
type RequestHandler struct {
	ID            string
	DisplayName   string
	Description   string
	RequestSchema *schema.Node
	SecretsSchema *schema.Node
	Endpoint      Endpoint
	Media         MediaMapping

	// Validate checks a request and returns it with defaults filled in.
	// A nil Validate accepts any request unchanged.
	Validate func(request map[string]any) (map[string]any, error)
}

// Endpoint is the HTTP call made for each page. URL and header values are
// text/template sources rendered with Request, Secrets, Cursor and Page.
type Endpoint struct {
	URL     string            `json:"url"`
	Method  string            `json:"method,omitempty"`
	Headers map[string]string `json:"headers,omitempty"`
}

// MediaMapping holds dotted CUE paths into the endpoint's JSON response.
// Items is relative to the response root; the remaining item paths are
// relative to each item. Cursor is relative to the response root.
type MediaMapping struct {
	Items       string `json:"items,omitempty"`
	ID          string `json:"id"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	URL         string `json:"url,omitempty"`
	FileURL     string `json:"fileURL,omitempty"`
	MimeType    string `json:"mimeType,omitempty"`
	// FileType is a fixed type such as "image" or "video".
	FileType string `json:"fileType,omitempty"`
	Cursor   string `json:"cursor,omitempty"`
}

// Plugin is a named set of sources loaded from one file or directory.
type Plugin struct {
	Name    string
	Path    string
	Sources []*Source
}

// Finder is the registry of known sources.
type Finder struct {
	sources  []*Source
	breakers *circuitbreaker.Group
}

type finderOptions struct {
	plugins  []Plugin
	builtins bool
}

// Option configures New.
type Option func(*finderOptions)

// WithPlugins adds the sources of plugins. A plugin source replaces a
// previously registered source with the same id.
func WithPlugins(plugins ...Plugin) Option {
	return func(o *finderOptions) { o.plugins = append(o.plugins, plugins...) }
}

// WithoutBuiltins leaves out the embedded sources.
func WithoutBuiltins() Option {
	return func(o *finderOptions) { o.builtins = false }
}

// New builds a Finder from the built-in sources and the given plugins.
func New(opts ...Option) (*Finder, error) {
	o := finderOptions{builtins: true}
	for _, opt := range opts {
		opt(&o)
	}

	plugins := o.plugins
	if o.builtins {
		builtins, err := BuiltinPlugins()
		if err != nil {
			return nil, err
		}
		plugins = append(slices.Clone(builtins), plugins...)
	}

	f := &Finder{breakers: circuitbreaker.NewGroup(5, 30*time.Second, 1)}
	for _, p := range plugins {
		for _, src := range p.Sources {
			if src.ID == "" {
				return nil, fmt.Errorf("plugin %s: source without id", p.Name)
			}
			if i := slices.IndexFunc(f.sources, func(s *Source) bool { return s.ID == src.ID }); i >= 0 {
				f.sources[i] = src
				continue
			}
			f.sources = append(f.sources, src)
		}
	}
	return f, nil
}

// Sources returns the registered sources in registration order.
func (f *Finder) Sources() []*Source {
	return slices.Clone(f.sources)
}

// Source returns the source with the given id.
func (f *Finder) Source(id string) (*Source, bool) {
	for _, s := range f.sources {
		if s.ID == id {
			return s, true
		}
	}
	return nil, false
}

// SourceIDs lists source ids in registration order.
func (f *Finder) SourceIDs() []string {
	ids := make([]string, 0, len(f.sources))
	for _, s := range f.sources {
		ids = append(ids, s.ID)
	}
	return ids
}

// Lookup resolves a source and handler pair.
func (f *Finder) Lookup(sourceID, handlerID string) (*Source, *RequestHandler, error) {
	src, ok := f.Source(sourceID)
	if !ok {
		return nil, nil, fmt.Errorf("%w %q", ErrUnknownSource, sourceID)
	}
	h, ok := src.RequestHandler(handlerID)
	if !ok {
		return nil, nil, fmt.Errorf("%w %q for source %q", ErrUnknownRequestHandler, handlerID, sourceID)
	}
	return src, h, nil
}

// SecretsSchemaFor returns the handler's secrets schema, falling back to
// the source's.
func SecretsSchemaFor(src *Source, h *RequestHandler) *schema.Node {
	if h != nil && h.SecretsSchema != nil {
		return h.SecretsSchema
	}
	if src != nil && src.SecretsSchema != nil {
		return src.SecretsSchema
	}
	return schema.Object()
}
