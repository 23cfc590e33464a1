package resolver

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/callumgare/media-finder-cli/schema"
)

// UnknownType labels options whose value shape has no flag representation.
const UnknownType = "unknown"

// ReservedFields are request keys that select the handler and never become
// request flags.
var ReservedFields = []string{"source", "queryType"}

// Option declares one command-line option.
type Option struct {
	Name        string
	Short       string
	ValueType   string
	Description string
	Required    bool
	Default     any
	HasDefault  bool
	// Parser converts the raw argument. Nil keeps the string.
	Parser  func(string) (any, error)
	Choices []string
}

// Flag renders the option's flag syntax, "--name <type>" or "--name" for
// booleans.
func (o Option) Flag() string {
	spec := "--" + o.Name
	if o.Short != "" {
		spec = "-" + o.Short + ", " + spec
	}
	if o.ValueType == string(schema.TypeBoolean) {
		return spec
	}
	return spec + " <" + o.ValueType + ">"
}

// DescribeOptions turns the top-level properties of a request schema into
// options, in property order. The schema must simplify to an object.
func DescribeOptions(requestSchema *schema.Node) ([]Option, error) {
	root := schema.Simplify(requestSchema)
	if root.Type != schema.TypeObject {
		return nil, WrapContractError(StageFlags, ErrCodeSchemaShape, "describe request options",
			fmt.Errorf("%w: request schema is %s, want object", ErrSchemaShape, root.Type))
	}
	opts := make([]Option, 0, len(root.Children))
	for _, p := range root.Children {
		if slices.Contains(ReservedFields, p.Name) {
			continue
		}
		opts = append(opts, describeProperty(p.Name, p.Schema))
	}
	return opts, nil
}

func describeProperty(name string, s *schema.Simple) Option {
	valueType, choices := valueTypeOf(s)
	o := Option{
		Name:       name,
		ValueType:  valueType,
		Required:   !s.Optional && !s.HasDefault,
		Default:    s.Default,
		HasDefault: s.HasDefault,
		Choices:    choices,
	}
	o.Description = s.Description
	if o.Required {
		o.Description = strings.TrimSpace(o.Description + " (required)")
	}
	if valueType == string(schema.TypeNumber) {
		o.Parser = parseNumber
	}
	return o
}

func valueTypeOf(s *schema.Simple) (string, []string) {
	switch s.Type {
	case schema.TypeString, schema.TypeNumber, schema.TypeBoolean, schema.TypeDate:
		return string(s.Type), nil
	case schema.TypeLiteral:
		return string(s.ValueType), []string{choiceText(s.Value)}
	case schema.TypeUnion:
		var types, choices []string
		for _, opt := range s.Options {
			if opt.IsUndefined() {
				continue
			}
			if opt.Type != schema.TypeLiteral {
				return UnknownType, nil
			}
			if t := string(opt.ValueType); !slices.Contains(types, t) {
				types = append(types, t)
			}
			choices = append(choices, choiceText(opt.Value))
		}
		if len(choices) == 0 {
			return UnknownType, nil
		}
		return strings.Join(types, " | "), choices
	}
	return UnknownType, nil
}

func choiceText(v any) string {
	if v == nil {
		return "null"
	}
	return fmt.Sprint(v)
}

func parseNumber(s string) (any, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return nil, fmt.Errorf("%q is not a number", s)
	}
	return f, nil
}

// SelectorOptions declares the options shared by every subcommand that
// takes a source. Choices come from the resolved registry.
func SelectorOptions(d *Details, handlerRequired bool) []Option {
	source := Option{
		Name:        "source",
		Short:       "s",
		ValueType:   string(schema.TypeString),
		Description: "Source to query (required)",
		Required:    true,
	}
	handler := Option{
		Name:        "requestHandler",
		Short:       "r",
		ValueType:   string(schema.TypeString),
		Description: "Request handler of the source",
		Required:    handlerRequired,
	}
	if handlerRequired {
		handler.Description += " (required)"
	}
	if d != nil && d.Finder != nil {
		source.Choices = d.Finder.SourceIDs()
	}
	if d != nil && d.Source != nil {
		handler.Choices = d.Source.RequestHandlerIDs()
	}
	return []Option{source, handler, PluginsOption()}
}

// PluginsOption declares --plugins.
func PluginsOption() Option {
	return Option{
		Name:        "plugins",
		Short:       "p",
		ValueType:   string(schema.TypeString),
		Description: "Comma-separated list of plugin files or directories to load",
	}
}
