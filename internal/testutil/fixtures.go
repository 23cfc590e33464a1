// Package testutil holds fixtures shared by package tests.
package testutil

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/callumgare/media-finder-cli/mediafinder"
)

// PluginSrc defines source "pics" with handler "search". The %s verb is the
// upstream base URL.
const PluginSrc = `
name: "fixture"

sources: pics: {
	displayName: "Pictures"
	secrets: {
		// Upstream API key
		apiKey?: string
	}
	requestHandlers: search: {
		description: "Search pictures"
		request: {
			// Search terms
			query: string
			limit: int | *10
			kind?: "photo" | "video"
			safe?: bool
		}
		endpoint: {
			url: "%s/search?q={{query .Request.query}}&limit={{.Request.limit}}{{with .Cursor}}&after={{query .}}{{end}}"
			headers: "X-Api-Key": "{{default \"\" .Secrets.apiKey}}"
		}
		media: {
			items:   "results"
			id:      "id"
			title:   "name"
			fileURL: "src"
			cursor:  "next"
		}
	}
}
`

// Plugin parses PluginSrc against baseURL.
func Plugin(t testing.TB, baseURL string) mediafinder.Plugin {
	t.Helper()
	p, err := mediafinder.ParsePlugin("fixture.cue", []byte(fmt.Sprintf(PluginSrc, baseURL)))
	require.NoError(t, err)
	return p
}

// Finder registers the fixture plugin next to the built-in sources.
func Finder(t testing.TB, baseURL string) *mediafinder.Finder {
	t.Helper()
	f, err := mediafinder.New(mediafinder.WithPlugins(Plugin(t, baseURL)))
	require.NoError(t, err)
	return f
}

// Upstream serves two pages of search results. The API key header, if
// any, is echoed as the title of the first item.
func Upstream(t testing.TB) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		title := "One"
		if key := r.Header.Get("X-Api-Key"); key != "" {
			title = key
		}
		switch r.URL.Query().Get("after") {
		case "":
			fmt.Fprintf(w, `{"results":[{"id":"1","name":%q,"src":"http://cdn.test/a.png"}],"next":"abc"}`, title)
		case "abc":
			_, _ = w.Write([]byte(`{"results":[{"id":"2","name":"Two","src":"http://cdn.test/b.mp4"}],"next":null}`))
		default:
			w.WriteHeader(http.StatusBadRequest)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}
