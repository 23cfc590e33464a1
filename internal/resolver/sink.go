package resolver

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/callumgare/media-finder-cli/schema"
)

// FlagSink receives option declarations.
type FlagSink interface {
	AddOption(Option) error
}

// SynthesizeFlags declares one option per request property on sink and
// returns the declared options.
func SynthesizeFlags(requestSchema *schema.Node, sink FlagSink) ([]Option, error) {
	opts, err := DescribeOptions(requestSchema)
	if err != nil {
		return nil, err
	}
	if err := AddOptions(sink, opts...); err != nil {
		return nil, err
	}
	return opts, nil
}

// AddOptions declares opts on sink in order.
func AddOptions(sink FlagSink, opts ...Option) error {
	for _, o := range opts {
		if err := sink.AddOption(o); err != nil {
			return err
		}
	}
	return nil
}

// CommandSink declares options as local flags of a cobra command.
type CommandSink struct {
	Command *cobra.Command
}

func (s CommandSink) AddOption(o Option) error {
	flags := s.Command.Flags()
	if flags.Lookup(o.Name) != nil || (o.Short != "" && flags.ShorthandLookup(o.Short) != nil) {
		return WrapContractError(StageFlags, ErrCodeFlagConflict, "declare "+o.Flag(),
			fmt.Errorf("%w: --%s is already declared", ErrFlagConflict, o.Name))
	}

	f := flags.VarPF(&optionValue{opt: o}, o.Name, o.Short, usage(o))
	if o.ValueType == string(schema.TypeBoolean) {
		f.NoOptDefVal = "true"
	}
	if o.Required {
		return s.Command.MarkFlagRequired(o.Name)
	}
	return nil
}

func usage(o Option) string {
	if len(o.Choices) == 0 {
		return o.Description
	}
	return strings.TrimSpace(fmt.Sprintf("%s (choices: %s)", o.Description, quoteAll(o.Choices)))
}

func quoteAll(choices []string) string {
	quoted := make([]string, len(choices))
	for i, c := range choices {
		quoted[i] = strconv.Quote(c)
	}
	return strings.Join(quoted, ", ")
}

// optionValue is the pflag.Value behind every synthesized flag.
type optionValue struct {
	opt   Option
	value any
	set   bool
}

var _ pflag.Value = (*optionValue)(nil)

func (v *optionValue) String() string {
	switch {
	case v.set:
		return formatValue(v.value)
	case v.opt.HasDefault:
		return formatValue(v.opt.Default)
	}
	return ""
}

func (v *optionValue) Set(s string) error {
	if len(v.opt.Choices) > 0 && !slices.Contains(v.opt.Choices, s) {
		return fmt.Errorf("argument %q is invalid, allowed choices are %s", s, quoteAll(v.opt.Choices))
	}
	var parsed any = s
	switch {
	case v.opt.Parser != nil:
		p, err := v.opt.Parser(s)
		if err != nil {
			return err
		}
		parsed = p
	case v.opt.ValueType == string(schema.TypeBoolean):
		b, err := strconv.ParseBool(s)
		if err != nil {
			return fmt.Errorf("%q is not a boolean", s)
		}
		parsed = b
	}
	v.value, v.set = parsed, true
	return nil
}

// Type names the value placeholder in help output. pflag hides the
// placeholder of "bool" flags.
func (v *optionValue) Type() string {
	if v.opt.ValueType == string(schema.TypeBoolean) {
		return "bool"
	}
	return v.opt.ValueType
}

func (v *optionValue) IsBoolFlag() bool {
	return v.opt.ValueType == string(schema.TypeBoolean)
}

func formatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case int, int64, bool:
		return fmt.Sprint(x)
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}

// Value returns the parsed value of a synthesized flag: the argument when
// the flag was given, else its default.
func Value(flags *pflag.FlagSet, name string) (any, bool) {
	f := flags.Lookup(name)
	if f == nil {
		return nil, false
	}
	v, ok := f.Value.(*optionValue)
	if !ok {
		return nil, false
	}
	switch {
	case v.set:
		return v.value, true
	case v.opt.HasDefault:
		return v.opt.Default, true
	}
	return nil, false
}

// StringValue is Value for string options.
func StringValue(flags *pflag.FlagSet, name string) string {
	v, _ := Value(flags, name)
	s, _ := v.(string)
	return s
}

// RequestFromFlags collects the values of opts from flags.
func RequestFromFlags(flags *pflag.FlagSet, opts []Option) map[string]any {
	request := make(map[string]any, len(opts))
	for _, o := range opts {
		if v, ok := Value(flags, o.Name); ok {
			request[o.Name] = v
		}
	}
	return request
}
