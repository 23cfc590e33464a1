package templaterender

import (
	"bytes"
	"fmt"
	"net/url"
	"text/template"
)

// Funcs are available to every template.
var Funcs = template.FuncMap{
	"query": func(v any) string { return url.QueryEscape(str(v)) },
	"path":  func(v any) string { return url.PathEscape(str(v)) },
	"default": func(def, v any) any {
		if v == nil || v == "" {
			return def
		}
		return v
	},
}

func str(v any) string {
	if v == nil {
		return ""
	}
	return fmt.Sprint(v)
}

// RenderString renders a Go template string with missing keys defaulting to zero values.
func RenderString(src string, data any) (string, error) {
	if src == "" {
		return "", nil
	}
	t, err := template.New("tpl").Funcs(Funcs).Option("missingkey=zero").Parse(src)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// RenderMap renders every value of m.
func RenderMap(m map[string]string, data any) (map[string]string, error) {
	out := make(map[string]string, len(m))
	for k, src := range m {
		v, err := RenderString(src, data)
		if err != nil {
			return nil, fmt.Errorf("render %s: %w", k, err)
		}
		out[k] = v
	}
	return out, nil
}
