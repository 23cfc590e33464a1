package s3

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isolateAWS(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("AWS_CONFIG_FILE", filepath.Join(dir, "config"))
	t.Setenv("AWS_SHARED_CREDENTIALS_FILE", filepath.Join(dir, "credentials"))
	t.Setenv("AWS_ACCESS_KEY_ID", "AKIDEXAMPLE")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "secret")
	t.Setenv("AWS_PROFILE", "")
}

func TestPresignGet(t *testing.T) {
	isolateAWS(t)
	c, err := New(context.Background(), "us-east-1", "archive", "http://localhost:9000")
	require.NoError(t, err)

	url, err := c.PresignGet(context.Background(), "responses/reddit/subreddit/1.json", 15*time.Minute)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "http://localhost:9000/archive/responses/reddit/subreddit/1.json?"), url)
	assert.Contains(t, url, "X-Amz-Expires=900")
	assert.Contains(t, url, "X-Amz-Signature=")
}

func TestUpload(t *testing.T) {
	isolateAWS(t)
	var method, path, contentType string
	var body []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method, path, contentType = r.Method, r.URL.Path, r.Header.Get("Content-Type")
		body, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c, err := New(context.Background(), "us-east-1", "archive", srv.URL)
	require.NoError(t, err)

	key, err := c.Upload(context.Background(), "responses/a.json", bytes.NewReader([]byte(`{"media":[]}`)), "application/json")
	require.NoError(t, err)
	assert.Equal(t, "responses/a.json", key)
	assert.Equal(t, http.MethodPut, method)
	assert.Equal(t, "/archive/responses/a.json", path)
	assert.Equal(t, "application/json", contentType)
	assert.Contains(t, string(body), `{"media":[]}`)
}
