package mediafinder

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/load"

	"github.com/callumgare/media-finder-cli/mediafinder/builtin"
	"github.com/callumgare/media-finder-cli/schema/cueschema"
)

// reservedRequestKeys select the source and handler and are not part of a
// handler's request schema.
var reservedRequestKeys = []string{"source", "queryType"}

// LoadPlugin loads a plugin from a .cue file or a directory holding one
// CUE package.
func LoadPlugin(ctx context.Context, path string) (Plugin, error) {
	if err := ctx.Err(); err != nil {
		return Plugin{}, err
	}
	info, err := os.Stat(path)
	if err != nil {
		return Plugin{}, fmt.Errorf("load plugin: %w", err)
	}

	cctx := cuecontext.New()
	var v cue.Value
	if info.IsDir() {
		v, err = loadDir(cctx, path)
		if err != nil {
			return Plugin{}, fmt.Errorf("load plugin %s: %w", path, err)
		}
	} else {
		data, err := os.ReadFile(path)
		if err != nil {
			return Plugin{}, fmt.Errorf("load plugin: %w", err)
		}
		v = cctx.CompileBytes(data, cue.Filename(path))
	}
	return pluginFromValue(path, v)
}

// ParsePlugin compiles a single-file plugin held in memory.
func ParsePlugin(name string, data []byte) (Plugin, error) {
	v := cuecontext.New().CompileBytes(data, cue.Filename(name))
	return pluginFromValue(name, v)
}

func loadDir(cctx *cue.Context, path string) (cue.Value, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return cue.Value{}, err
	}
	bis := load.Instances([]string{"."}, &load.Config{Dir: absPath})
	if len(bis) == 0 {
		return cue.Value{}, fmt.Errorf("no CUE files found in %s", path)
	}
	if bis[0].Err != nil {
		return cue.Value{}, bis[0].Err
	}
	return cctx.BuildInstance(bis[0]), nil
}

// BuiltinPlugins returns the plugins embedded in the binary.
var BuiltinPlugins = sync.OnceValues(func() ([]Plugin, error) {
	files, err := builtin.Files()
	if err != nil {
		return nil, err
	}
	plugins := make([]Plugin, 0, len(files))
	for _, f := range files {
		p, err := ParsePlugin(f.Name, f.Data)
		if err != nil {
			return nil, fmt.Errorf("builtin %s: %w", f.Name, err)
		}
		plugins = append(plugins, p)
	}
	return plugins, nil
})

// FormatCUEError renders every error in err with its source positions.
func FormatCUEError(err error) string {
	if err == nil {
		return ""
	}
	var msg strings.Builder
	for _, e := range errors.Errors(err) {
		msg.WriteString(e.Error())
		for _, p := range errors.Positions(e) {
			fmt.Fprintf(&msg, "\n    %s", p.String())
		}
		msg.WriteString("\n")
	}
	if msg.Len() == 0 {
		return err.Error()
	}
	return strings.TrimSuffix(msg.String(), "\n")
}

func pluginFromValue(path string, v cue.Value) (Plugin, error) {
	if err := v.Err(); err != nil {
		return Plugin{}, fmt.Errorf("plugin %s: %s", path, FormatCUEError(err))
	}

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	if n, err := v.LookupPath(cue.ParsePath("name")).String(); err == nil && n != "" {
		name = n
	}
	p := Plugin{Name: name, Path: path}

	sources := v.LookupPath(cue.ParsePath("sources"))
	if !sources.Exists() {
		return Plugin{}, fmt.Errorf("plugin %s: missing sources", path)
	}
	iter, err := sources.Fields()
	if err != nil {
		return Plugin{}, fmt.Errorf("plugin %s: %w", path, err)
	}
	mu := &sync.Mutex{}
	for iter.Next() {
		src, err := sourceFromValue(labelName(iter.Selector()), iter.Value(), mu)
		if err != nil {
			return Plugin{}, fmt.Errorf("plugin %s: %w", path, err)
		}
		p.Sources = append(p.Sources, src)
	}
	return p, nil
}

func sourceFromValue(id string, v cue.Value, mu *sync.Mutex) (*Source, error) {
	src := &Source{
		ID:          id,
		DisplayName: stringAt(v, "displayName", id),
		Description: stringAt(v, "description", ""),
	}
	if secrets := v.LookupPath(cue.ParsePath("secrets")); secrets.Exists() {
		src.SecretsSchema = cueschema.FromValue(secrets)
	}

	handlers := v.LookupPath(cue.ParsePath("requestHandlers"))
	if !handlers.Exists() {
		return nil, fmt.Errorf("source %s: missing requestHandlers", id)
	}
	iter, err := handlers.Fields()
	if err != nil {
		return nil, fmt.Errorf("source %s: %w", id, err)
	}
	for iter.Next() {
		h, err := handlerFromValue(labelName(iter.Selector()), iter.Value(), mu)
		if err != nil {
			return nil, fmt.Errorf("source %s: %w", id, err)
		}
		src.RequestHandlers = append(src.RequestHandlers, h)
	}
	return src, nil
}

func handlerFromValue(id string, v cue.Value, mu *sync.Mutex) (*RequestHandler, error) {
	h := &RequestHandler{
		ID:          id,
		DisplayName: stringAt(v, "displayName", id),
		Description: stringAt(v, "description", ""),
	}

	request := v.LookupPath(cue.ParsePath("request"))
	if !request.Exists() {
		return nil, fmt.Errorf("request handler %s: missing request", id)
	}
	h.RequestSchema = cueschema.FromValue(request)
	h.Validate = cueValidator(request, mu)

	if secrets := v.LookupPath(cue.ParsePath("secrets")); secrets.Exists() {
		h.SecretsSchema = cueschema.FromValue(secrets)
	}
	if err := v.LookupPath(cue.ParsePath("endpoint")).Decode(&h.Endpoint); err != nil {
		return nil, fmt.Errorf("request handler %s: endpoint: %w", id, err)
	}
	if h.Endpoint.URL == "" {
		return nil, fmt.Errorf("request handler %s: endpoint url is required", id)
	}
	if err := v.LookupPath(cue.ParsePath("media")).Decode(&h.Media); err != nil {
		return nil, fmt.Errorf("request handler %s: media: %w", id, err)
	}
	return h, nil
}

// cueValidator unifies requests with the handler's request schema. Values
// from one CUE context are not safe for concurrent use, so every handler
// of a plugin shares mu.
func cueValidator(request cue.Value, mu *sync.Mutex) func(map[string]any) (map[string]any, error) {
	return func(in map[string]any) (map[string]any, error) {
		body := make(map[string]any, len(in))
		for k, v := range in {
			if !isReserved(k) {
				body[k] = integral(v)
			}
		}

		mu.Lock()
		defer mu.Unlock()
		unified := request.Unify(request.Context().Encode(body))
		if err := unified.Validate(cue.Concrete(true)); err != nil {
			return nil, fmt.Errorf("%w: %s", ErrInvalidRequest, FormatCUEError(err))
		}
		out := map[string]any{}
		if err := unified.Decode(&out); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
		}
		for _, k := range reservedRequestKeys {
			if v, ok := in[k]; ok {
				out[k] = v
			}
		}
		return out, nil
	}
}

func isReserved(key string) bool {
	for _, k := range reservedRequestKeys {
		if k == key {
			return true
		}
	}
	return false
}

// integral turns whole float64 values into int64 so they unify with int.
// Numeric flags always parse as float64.
func integral(v any) any {
	f, ok := v.(float64)
	if !ok || f != math.Trunc(f) || math.IsInf(f, 0) || math.Abs(f) > 1<<53 {
		return v
	}
	return int64(f)
}

func stringAt(v cue.Value, path, def string) string {
	s, err := v.LookupPath(cue.ParsePath(path)).String()
	if err != nil || s == "" {
		return def
	}
	return s
}

func labelName(sel cue.Selector) string {
	s := strings.TrimSuffix(strings.TrimSuffix(sel.String(), "?"), "!")
	if unq, err := strconv.Unquote(s); err == nil {
		return unq
	}
	return s
}
