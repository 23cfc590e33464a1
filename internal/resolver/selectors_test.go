package resolver

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseSelectors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want Selectors
	}{
		{
			name: "short flags among request flags",
			args: []string{"run", "-s", "reddit", "-r", "subreddit", "--subreddit", "pics", "--limit", "5", "-p", "a.cue, b.cue,,"},
			want: Selectors{Subcommand: "run", SourceID: "reddit", RequestHandlerID: "subreddit", PluginPaths: []string{"a.cue", "b.cue"}},
		},
		{
			name: "long flags with equals",
			args: []string{"show-schema", "--source=giphy", "--requestHandler=search"},
			want: Selectors{Subcommand: "show-schema", SourceID: "giphy", RequestHandlerID: "search"},
		},
		{
			name: "unknown shorthand takes its value",
			args: []string{"run", "-f", "json", "-s", "reddit"},
			want: Selectors{Subcommand: "run", SourceID: "reddit"},
		},
		{
			name: "help does not stop parsing",
			args: []string{"run", "--help", "-s", "reddit"},
			want: Selectors{Subcommand: "run", SourceID: "reddit"},
		},
		{
			name: "attached output format is one token",
			args: []string{"run", "-s", "giphy", "-r", "search", "-fpretty"},
			want: Selectors{Subcommand: "run", SourceID: "giphy", RequestHandlerID: "search"},
		},
		{
			name: "attached schema type is one token",
			args: []string{"show-schema", "-s", "giphy", "-r", "search", "-tsecrets"},
			want: Selectors{Subcommand: "show-schema", SourceID: "giphy", RequestHandlerID: "search"},
		},
		{
			name: "request value starting with a dash",
			args: []string{"run", "-s", "giphy", "-r", "search", "--query", "-spam"},
			want: Selectors{Subcommand: "run", SourceID: "giphy", RequestHandlerID: "search"},
		},
		{
			name: "command flag value starting with a dash",
			args: []string{"run", "--secretsSet", "-p", "-s", "giphy"},
			want: Selectors{Subcommand: "run", SourceID: "giphy"},
		},
		{
			name: "attached selectors",
			args: []string{"run", "-sgiphy", "-r=search", "-pa.cue,b.cue"},
			want: Selectors{Subcommand: "run", SourceID: "giphy", RequestHandlerID: "search", PluginPaths: []string{"a.cue", "b.cue"}},
		},
		{
			name: "unknown boolean before a selector",
			args: []string{"run", "--includeNsfw", "-s", "reddit", "--safe", "--requestHandler", "subreddit"},
			want: Selectors{Subcommand: "run", SourceID: "reddit", RequestHandlerID: "subreddit"},
		},
		{
			name: "negative number value",
			args: []string{"run", "--offset", "-5", "-s", "reddit"},
			want: Selectors{Subcommand: "run", SourceID: "reddit"},
		},
		{
			name: "last selector wins",
			args: []string{"run", "-s", "reddit", "--source", "giphy"},
			want: Selectors{Subcommand: "run", SourceID: "giphy"},
		},
		{
			name: "double dash ends flags",
			args: []string{"run", "-s", "reddit", "--", "-s", "giphy"},
			want: Selectors{Subcommand: "run", SourceID: "reddit"},
		},
		{
			name: "missing value",
			args: []string{"run", "-s"},
			want: Selectors{Subcommand: "run"},
		},
		{
			name: "unknown subcommand",
			args: []string{"other", "-s", "reddit"},
			want: Selectors{},
		},
		{
			name: "no arguments",
			args: nil,
			want: Selectors{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseSelectors(tt.args, Subcommands))
		})
	}
}

func TestSplitList(t *testing.T) {
	assert.Nil(t, SplitList(""))
	assert.Equal(t, []string{"a", "b"}, SplitList(" a ,b,"))
}
