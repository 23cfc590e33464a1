package app

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/callumgare/media-finder-cli/internal/adapter/cache/memory"
	"github.com/callumgare/media-finder-cli/internal/config"
	"github.com/callumgare/media-finder-cli/internal/domain"
	"github.com/callumgare/media-finder-cli/internal/port"
	"github.com/callumgare/media-finder-cli/internal/secrets"
	fixtures "github.com/callumgare/media-finder-cli/internal/testutil"
	"github.com/callumgare/media-finder-cli/mediafinder"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []domain.QueryCompleted
}

func (p *recordingPublisher) PublishQueryCompleted(_ context.Context, e domain.QueryCompleted) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

type memoryArchive struct {
	key  string
	body []byte
	ttl  time.Duration
}

func (a *memoryArchive) Upload(_ context.Context, key string, r io.Reader, _ string) (string, error) {
	a.key = key
	a.body, _ = io.ReadAll(r)
	return key, nil
}

func (a *memoryArchive) PresignGet(_ context.Context, key string, ttl time.Duration) (string, error) {
	a.ttl = ttl
	return "https://archive.test/" + key, nil
}

func newTestContainer(t *testing.T) (*Container, *recordingPublisher) {
	t.Helper()
	sets := filepath.Join(t.TempDir(), "sets.json")
	require.NoError(t, os.WriteFile(sets, []byte(`{"personal": {"apiKey": "from-secrets"}}`), 0o600))

	cfg := &config.Config{SecretsSetsPath: sets, HTTPTimeout: 5 * time.Second, ArchivePresignTTL: time.Hour}
	c, err := NewContainer(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(c.Close)

	pub := &recordingPublisher{}
	c.Publisher = pub
	return c, pub
}

func TestNormalizeRequest(t *testing.T) {
	in := map[string]any{"source": "reddit", "requestHandler": "subreddit", "subreddit": "pics"}
	out := NormalizeRequest(in)
	assert.Equal(t, map[string]any{"source": "reddit", "queryType": "subreddit", "subreddit": "pics"}, out)
	assert.Contains(t, in, "requestHandler")

	assert.Equal(t, map[string]any{"queryType": "x"}, NormalizeRequest(map[string]any{"queryType": "x"}))
	assert.Equal(t, map[string]any{}, NormalizeRequest(nil))
}

func TestRunQuery(t *testing.T) {
	upstream := fixtures.Upstream(t)
	finder := fixtures.Finder(t, upstream.URL)
	c, pub := newTestContainer(t)

	before := testutil.ToFloat64(queriesTotal.WithLabelValues("pics", "search", domain.StatusOK))
	resp, err := c.RunQuery(context.Background(), finder, QueryInput{
		Request:   map[string]any{"source": "pics", "requestHandler": "search", "query": "cats"},
		CacheMode: mediafinder.CacheNever,
	})
	require.NoError(t, err)
	require.Len(t, resp.Media, 1)
	assert.Equal(t, "One", resp.Media[0].Title)
	assert.EqualValues(t, 10, resp.Request["limit"])

	assert.Equal(t, before+1, testutil.ToFloat64(queriesTotal.WithLabelValues("pics", "search", domain.StatusOK)))
	require.Len(t, pub.events, 1)
	ev := pub.events[0]
	assert.Equal(t, "pics", ev.Source)
	assert.Equal(t, "search", ev.RequestHandler)
	assert.Equal(t, domain.StatusOK, ev.Status)
	assert.Equal(t, 1, ev.MediaCount)
	assert.NotEmpty(t, ev.EventID)
}

func TestRunQuerySecretsSet(t *testing.T) {
	upstream := fixtures.Upstream(t)
	finder := fixtures.Finder(t, upstream.URL)
	c, _ := newTestContainer(t)

	resp, err := c.RunQuery(context.Background(), finder, QueryInput{
		Request:    map[string]any{"source": "pics", "queryType": "search", "query": "cats"},
		SecretsSet: "personal",
		CacheMode:  mediafinder.CacheNever,
	})
	require.NoError(t, err)
	assert.Equal(t, "from-secrets", resp.Media[0].Title)

	_, err = c.RunQuery(context.Background(), finder, QueryInput{
		Request:    map[string]any{"source": "pics", "queryType": "search", "query": "cats"},
		SecretsSet: "missing",
	})
	assert.ErrorIs(t, err, secrets.ErrUnknownSet)
}

func TestRunQueryFailure(t *testing.T) {
	finder := fixtures.Finder(t, "http://unused.test")
	c, pub := newTestContainer(t)

	_, err := c.RunQuery(context.Background(), finder, QueryInput{
		Request: map[string]any{"source": "doesnotexist", "queryType": "search"},
	})
	assert.ErrorIs(t, err, mediafinder.ErrUnknownSource)
	require.Len(t, pub.events, 1)
	assert.Equal(t, domain.StatusError, pub.events[0].Status)
	assert.NotEmpty(t, pub.events[0].Error)

	_, err = c.RunQuery(context.Background(), finder, QueryInput{
		Request: map[string]any{"source": "pics", "queryType": "search"},
	})
	assert.ErrorIs(t, err, mediafinder.ErrInvalidRequest)
}

func TestArchiveResponse(t *testing.T) {
	c, _ := newTestContainer(t)

	_, err := c.ArchiveResponse(context.Background(), "pics", "search", &mediafinder.Response{})
	assert.ErrorIs(t, err, ErrArchiveDisabled)

	archive := &memoryArchive{}
	c.Archive = archive
	link, err := c.ArchiveResponse(context.Background(), "pics", "search", &mediafinder.Response{Media: []mediafinder.Media{{ID: "1"}}})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(archive.key, "responses/pics/search/"), archive.key)
	assert.True(t, strings.HasSuffix(archive.key, ".json"), archive.key)
	assert.Equal(t, "https://archive.test/"+archive.key, link)
	assert.Equal(t, time.Hour, archive.ttl)
	assert.True(t, bytes.Contains(archive.body, []byte(`"id": "1"`)), string(archive.body))
}

func TestNewContainerFallsBack(t *testing.T) {
	cfg := &config.Config{RedisAddr: "127.0.0.1:1", NATSURL: "nats://127.0.0.1:1", NATSSubject: "q"}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	c, err := NewContainer(ctx, cfg)
	require.NoError(t, err)
	defer c.Close()
	assert.IsType(t, (*memory.Cache)(nil), c.Cache)
	assert.IsType(t, port.NopPublisher{}, c.Publisher)
	assert.Nil(t, c.Archive)
}
