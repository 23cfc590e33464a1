package main

import (
	"bytes"
	"fmt"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/callumgare/media-finder-cli/internal/resolver"
	"github.com/callumgare/media-finder-cli/mediafinder"
	"github.com/callumgare/media-finder-cli/schema"
)

const (
	schemaRequest  = "request"
	schemaSecrets  = "secrets"
	schemaResponse = "response"
)

func (c *cli) showSchemaCommand() (*cobra.Command, error) {
	cmd := &cobra.Command{
		Use:   "show-schema",
		Short: "Print the simplified schema of a request handler",
		Args:  cobra.NoArgs,
		RunE:  c.showSchema,
	}
	opts := append(resolver.SelectorOptions(c.details, true),
		resolver.Option{
			Name:        "schemaType",
			Short:       "t",
			ValueType:   string(schema.TypeString),
			Description: "Which schema to print",
			Default:     schemaResponse,
			HasDefault:  true,
			Choices:     []string{schemaRequest, schemaSecrets, schemaResponse},
		},
		resolver.Option{
			Name:        "format",
			ValueType:   string(schema.TypeString),
			Description: "Output encoding",
			Default:     "json",
			HasDefault:  true,
			Choices:     []string{"json", "yaml"},
		},
	)
	if err := resolver.AddOptions(resolver.CommandSink{Command: cmd}, opts...); err != nil {
		return nil, err
	}
	return cmd, nil
}

func (c *cli) showSchema(cmd *cobra.Command, _ []string) error {
	src, h := c.details.Source, c.details.RequestHandler
	if src == nil || h == nil {
		return errSelectorsRequired
	}

	var node *schema.Node
	switch resolver.StringValue(cmd.Flags(), "schemaType") {
	case schemaRequest:
		node = h.RequestSchema
	case schemaSecrets:
		node = mediafinder.SecretsSchemaFor(src, h)
	default:
		node = mediafinder.ResponseSchema()
	}
	simple := schema.Simplify(node)

	if resolver.StringValue(cmd.Flags(), "format") == "yaml" {
		out, err := toYAML(simple)
		if err != nil {
			return err
		}
		_, err = c.stdout.Write(out)
		return err
	}
	return writeJSON(c.stdout, simple)
}

// toYAML re-encodes the ordered JSON form of s as block-style YAML.
func toYAML(s *schema.Simple) ([]byte, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("convert schema to yaml: %w", err)
	}
	blockStyle(&doc)

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&doc); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func blockStyle(n *yaml.Node) {
	n.Style = 0
	for _, child := range n.Content {
		blockStyle(child)
	}
}
