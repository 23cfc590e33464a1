package resolver

import (
	"errors"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/callumgare/media-finder-cli/schema"
)

type recordingSink struct {
	names []string
	fail  error
}

func (s *recordingSink) AddOption(o Option) error {
	if s.fail != nil {
		return s.fail
	}
	s.names = append(s.names, o.Name)
	return nil
}

func requestSchema() *schema.Node {
	return schema.Object(
		schema.F("source", schema.Literal("reddit")),
		schema.F("subreddit", schema.String().Describe("Subreddit name")),
		schema.F("limit", schema.WithDefault(schema.Number(), 25)),
		schema.F("sort", schema.Optional(schema.Enum("hot", "new", "top"))),
		schema.F("includeNsfw", schema.Optional(schema.Boolean())),
	)
}

func newCommand(t *testing.T) (*cobra.Command, []Option) {
	t.Helper()
	cmd := &cobra.Command{Use: "run", RunE: func(*cobra.Command, []string) error { return nil }}
	opts, err := SynthesizeFlags(requestSchema(), CommandSink{Command: cmd})
	require.NoError(t, err)
	return cmd, opts
}

func TestSynthesizeFlagsOrder(t *testing.T) {
	sink := &recordingSink{}
	_, err := SynthesizeFlags(requestSchema(), sink)
	require.NoError(t, err)
	assert.Equal(t, []string{"subreddit", "limit", "sort", "includeNsfw"}, sink.names)
}

func TestSynthesizeFlagsSinkError(t *testing.T) {
	boom := errors.New("boom")
	_, err := SynthesizeFlags(requestSchema(), &recordingSink{fail: boom})
	assert.ErrorIs(t, err, boom)
}

func TestSynthesizeFlagsShapeMismatch(t *testing.T) {
	sink := &recordingSink{}
	_, err := SynthesizeFlags(schema.Array(schema.String()), sink)
	assert.ErrorIs(t, err, ErrSchemaShape)
	assert.Empty(t, sink.names)
}

func TestCommandSinkRequest(t *testing.T) {
	cmd, opts := newCommand(t)
	require.NoError(t, cmd.ParseFlags([]string{"--subreddit", "pics", "--sort", "new", "--includeNsfw"}))

	got := RequestFromFlags(cmd.Flags(), opts)
	assert.Equal(t, map[string]any{
		"subreddit":   "pics",
		"limit":       25,
		"sort":        "new",
		"includeNsfw": true,
	}, got)
}

func TestCommandSinkNumberParsing(t *testing.T) {
	cmd, opts := newCommand(t)
	require.NoError(t, cmd.ParseFlags([]string{"--subreddit", "pics", "--limit", "5"}))

	got := RequestFromFlags(cmd.Flags(), opts)
	assert.Equal(t, 5.0, got["limit"])
	assert.NotContains(t, got, "sort")

	err := cmd.ParseFlags([]string{"--limit", "many"})
	assert.ErrorContains(t, err, "not a number")
}

func TestCommandSinkRejectsInvalidChoice(t *testing.T) {
	cmd, _ := newCommand(t)
	err := cmd.ParseFlags([]string{"--sort", "rising"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `allowed choices are "hot", "new", "top"`)
}

func TestCommandSinkRequired(t *testing.T) {
	cmd, _ := newCommand(t)
	cmd.SetArgs([]string{"--sort", "new"})
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true
	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "subreddit")

	limit := cmd.Flags().Lookup("limit")
	require.NotNil(t, limit)
	assert.Equal(t, "25", limit.DefValue)
	assert.Empty(t, limit.Annotations[cobra.BashCompOneRequiredFlag])
}

func TestCommandSinkUsage(t *testing.T) {
	cmd, _ := newCommand(t)
	assert.Equal(t, "Subreddit name (required)", cmd.Flags().Lookup("subreddit").Usage)
	assert.Contains(t, cmd.Flags().Lookup("sort").Usage, `(choices: "hot", "new", "top")`)
	assert.Equal(t, "true", cmd.Flags().Lookup("includeNsfw").NoOptDefVal)
}

func TestCommandSinkConflict(t *testing.T) {
	cmd := &cobra.Command{Use: "run"}
	cmd.Flags().StringP("format", "f", "", "")
	sink := CommandSink{Command: cmd}

	err := sink.AddOption(Option{Name: "format", ValueType: "string"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrFlagConflict)

	err = sink.AddOption(Option{Name: "fields", Short: "f", ValueType: "string"})
	assert.ErrorIs(t, err, ErrFlagConflict)
}

func TestValueHelpers(t *testing.T) {
	cmd := &cobra.Command{Use: "run"}
	require.NoError(t, AddOptions(CommandSink{Command: cmd},
		Option{Name: "outputFormat", ValueType: "string", Default: "json", HasDefault: true},
		Option{Name: "plugins", ValueType: "string"},
	))
	require.NoError(t, cmd.ParseFlags(nil))

	assert.Equal(t, "json", StringValue(cmd.Flags(), "outputFormat"))
	assert.Equal(t, "", StringValue(cmd.Flags(), "plugins"))
	_, ok := Value(cmd.Flags(), "missing")
	assert.False(t, ok)
}
