package resolver

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/callumgare/media-finder-cli/mediafinder"
	"github.com/callumgare/media-finder-cli/schema"
)

func stubPlugin(name, sourceID string) mediafinder.Plugin {
	return mediafinder.Plugin{
		Name: name,
		Sources: []*mediafinder.Source{{
			ID: sourceID,
			RequestHandlers: []*mediafinder.RequestHandler{{
				ID:            "list",
				RequestSchema: schema.Object(schema.F("tag", schema.String())),
			}},
		}},
	}
}

func stubLoader(calls *atomic.Int32) PluginLoader {
	return func(ctx context.Context, path string) (mediafinder.Plugin, error) {
		calls.Add(1)
		return stubPlugin(path, "stub-"+path), nil
	}
}

func TestResolveSelectorsBuiltin(t *testing.T) {
	c := NewContext([]string{"run", "-s", "reddit", "-r", "subreddit"}, Options{})
	d, err := c.ResolveSelectors(context.Background())
	require.NoError(t, err)
	require.NotNil(t, d.Source)
	require.NotNil(t, d.RequestHandler)
	assert.Equal(t, "reddit", d.Source.ID)
	assert.Equal(t, "subreddit", d.RequestHandler.ID)
	assert.Empty(t, d.Plugins)
}

func TestResolveSelectorsWithoutHandler(t *testing.T) {
	c := NewContext([]string{"show-schema", "-s", "giphy"}, Options{})
	d, err := c.ResolveSelectors(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "giphy", d.Source.ID)
	assert.Nil(t, d.RequestHandler)
}

func TestResolveSelectorsNoSource(t *testing.T) {
	c := NewContext([]string{"run"}, Options{})
	d, err := c.ResolveSelectors(context.Background())
	require.NoError(t, err)
	assert.Nil(t, d.Source)
	assert.Contains(t, d.Finder.SourceIDs(), "reddit")
}

func TestResolveSelectorsUnknownSource(t *testing.T) {
	c := NewContext([]string{"run", "--source", "doesnotexist"}, Options{})
	_, err := c.ResolveSelectors(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownSelector)
	assert.Contains(t, err.Error(), `could not find source with id "doesnotexist"`)

	var ce *ContractError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, ErrCodeUnknownSource, ce.Code)
	assert.Equal(t, StageSelectors, ce.Stage)
}

func TestResolveSelectorsUnknownRequestHandler(t *testing.T) {
	c := NewContext([]string{"run", "-s", "reddit", "-r", "nope"}, Options{})
	_, err := c.ResolveSelectors(context.Background())
	require.Error(t, err)

	var ce *ContractError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, ErrCodeUnknownRequestHandler, ce.Code)
	assert.ErrorIs(t, err, ErrUnknownSelector)
}

func TestResolveSelectorsPlugins(t *testing.T) {
	var calls atomic.Int32
	c := NewContext([]string{"run", "-p", "one,two", "-s", "stub-two", "-r", "list"}, Options{LoadPlugin: stubLoader(&calls)})
	d, err := c.ResolveSelectors(context.Background())
	require.NoError(t, err)
	require.Len(t, d.Plugins, 2)
	assert.Equal(t, "one", d.Plugins[0].Name)
	assert.Equal(t, "two", d.Plugins[1].Name)
	assert.Equal(t, "stub-two", d.Source.ID)
	assert.Equal(t, int32(2), calls.Load())
}

func TestResolveSelectorsKeepsPluginOrder(t *testing.T) {
	load := func(ctx context.Context, path string) (mediafinder.Plugin, error) {
		if path == "slow" {
			time.Sleep(20 * time.Millisecond)
		}
		return stubPlugin(path, path), nil
	}
	c := NewContext([]string{"run", "-p", "slow,fast"}, Options{LoadPlugin: load})
	d, err := c.ResolveSelectors(context.Background())
	require.NoError(t, err)
	require.Len(t, d.Plugins, 2)
	assert.Equal(t, "slow", d.Plugins[0].Name)
	assert.Equal(t, "fast", d.Plugins[1].Name)
}

func TestResolveSelectorsPluginLoadFailure(t *testing.T) {
	boom := errors.New("boom")
	load := func(ctx context.Context, path string) (mediafinder.Plugin, error) {
		return mediafinder.Plugin{}, boom
	}
	c := NewContext([]string{"run", "-p", "broken.cue"}, Options{LoadPlugin: load})
	_, err := c.ResolveSelectors(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)

	var ce *ContractError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, ErrCodePluginLoad, ce.Code)
	assert.Contains(t, ce.Op, "broken.cue")
}

func TestResolveSelectorsRegistryFailure(t *testing.T) {
	newFinder := func([]mediafinder.Plugin) (*mediafinder.Finder, error) {
		return nil, errors.New("duplicate")
	}
	c := NewContext([]string{"run"}, Options{NewFinder: newFinder})
	_, err := c.ResolveSelectors(context.Background())

	var ce *ContractError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, ErrCodeRegistry, ce.Code)
}

func TestResolveSelectorsRunsOnce(t *testing.T) {
	var calls atomic.Int32
	c := NewContext([]string{"run", "-p", "only"}, Options{LoadPlugin: stubLoader(&calls)})

	var wg sync.WaitGroup
	results := make([]*Details, 8)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d, err := c.ResolveSelectors(context.Background())
			assert.NoError(t, err)
			results[i] = d
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	for _, d := range results {
		assert.Same(t, results[0], d)
	}
}
