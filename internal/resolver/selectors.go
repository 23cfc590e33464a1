package resolver

import (
	"slices"
	"strings"
)

// Subcommands are the commands whose arguments can carry selectors.
var Subcommands = []string{"run", "show-schema", "web-ui", "mcp"}

// Selectors are the arguments needed before the full flag set of a command
// can be declared.
type Selectors struct {
	Subcommand       string
	SourceID         string
	RequestHandlerID string
	PluginPaths      []string
}

type flagArity int

const (
	noValue flagArity = iota
	takesValue
)

// selectorFlags maps selector flag names, long and short, to the selector
// they set.
var selectorFlags = map[string]string{
	"source":         "source",
	"s":              "source",
	"requestHandler": "requestHandler",
	"r":              "requestHandler",
	"plugins":        "plugins",
	"p":              "plugins",
}

// commandFlags are the fixed flags of the subcommands. Their values are
// skipped even when they start with a dash.
var commandFlags = map[string]flagArity{
	"outputFormat":         takesValue,
	"f":                    takesValue,
	"schemaType":           takesValue,
	"t":                    takesValue,
	"format":               takesValue,
	"cacheNetworkRequests": takesValue,
	"secretsSet":           takesValue,
	"help":                 noValue,
	"h":                    noValue,
	"version":              noValue,
	"v":                    noValue,
}

// ParseSelectors extracts selectors from args without knowing the rest of
// the command's flags. A selector flag with no value yields empty
// selectors; the real command reports argument problems later.
//
// A single-dash token is one flag plus an optional attached value: "-spics"
// selects source "pics" while "-fpretty" is skipped whole. An unknown long
// flag without "=" takes the next argument as its value unless that
// argument is a bare "-x" shorthand or a long flag. A lone digit such as
// "-5" counts as a value.
func ParseSelectors(args []string, subcommands []string) Selectors {
	sub, rest := splitSubcommand(args)
	if sub == "" || !slices.Contains(subcommands, sub) {
		return Selectors{}
	}

	found := map[string]string{}
	for i := 0; i < len(rest); i++ {
		arg := rest[i]
		if arg == "--" {
			break
		}
		if !strings.HasPrefix(arg, "-") || arg == "-" {
			continue
		}

		name, value, attached := splitFlag(arg)
		hasNext := i+1 < len(rest)
		if selector, ok := selectorFlags[name]; ok {
			if !attached {
				if !hasNext {
					return Selectors{Subcommand: sub}
				}
				i++
				value = rest[i]
			}
			found[selector] = value
			continue
		}
		if attached {
			continue
		}
		if arity, ok := commandFlags[name]; ok {
			if arity == takesValue && hasNext {
				i++
			}
			continue
		}
		if hasNext && looksLikeValue(rest[i+1]) {
			i++
		}
	}

	return Selectors{
		Subcommand:       sub,
		SourceID:         found["source"],
		RequestHandlerID: found["requestHandler"],
		PluginPaths:      SplitList(found["plugins"]),
	}
}

// splitFlag splits "--name=value", "--name", "-x", "-xvalue" and "-x=value"
// into the flag name and its attached value.
func splitFlag(arg string) (name, value string, attached bool) {
	if strings.HasPrefix(arg, "--") {
		name, value, attached = strings.Cut(arg[2:], "=")
		return name, value, attached
	}
	name, value = arg[1:2], arg[2:]
	if value == "" {
		return name, "", false
	}
	return name, strings.TrimPrefix(value, "="), true
}

// looksLikeValue reports whether arg can be the value of an unknown flag.
// Bare shorthands and long flags are flags; "-5" and "-spam" are values.
func looksLikeValue(arg string) bool {
	switch {
	case arg == "--":
		return false
	case strings.HasPrefix(arg, "--"):
		return false
	case strings.HasPrefix(arg, "-") && len(arg) == 2:
		return arg[1] >= '0' && arg[1] <= '9'
	}
	return true
}

// splitSubcommand returns the first positional argument and the remaining
// arguments.
func splitSubcommand(args []string) (string, []string) {
	for i, a := range args {
		if a == "--" {
			return "", nil
		}
		if !strings.HasPrefix(a, "-") {
			rest := make([]string, 0, len(args)-1)
			rest = append(rest, args[:i]...)
			return a, append(rest, args[i+1:]...)
		}
	}
	return "", nil
}

// SplitList splits a comma-separated list, dropping empty entries.
func SplitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
