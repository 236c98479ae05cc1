package config

import (
	"fmt"

	"github.com/dukex/voltgraph/pkg/models"
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
)

// hclProjectFile represents the top-level structure of an HCL project for decoding.
//
//	name = "Office"
//
//	node "circuit" "lighting" {
//	  rated_power = 2.2
//	}
//
//	connect {
//	  from = "utility.voltage"
//	  to   = "lighting.supply"
//	}
type hclProjectFile struct {
	Name        string        `hcl:"name,optional"`
	Description string        `hcl:"description,optional"`
	Nodes       []*hclNode    `hcl:"node,block"`
	Connections []*hclConnect `hcl:"connect,block"`
}

type hclNode struct {
	Kind string   `hcl:"kind,label"`
	Key  string   `hcl:"key,label"`
	Body hcl.Body `hcl:",remain"`
}

type hclConnect struct {
	From string `hcl:"from"`
	To   string `hcl:"to"`
}

// ParseProjectHCL decodes an HCL project document. filename is used in diagnostics.
func ParseProjectHCL(data []byte, filename string) (*ProjectFile, error) {
	parser := hclparse.NewParser()

	hclFile, diags := parser.ParseHCL(data, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file %s: %w", filename, diags)
	}

	var parsed hclProjectFile

	diags = gohcl.DecodeBody(hclFile.Body, nil, &parsed)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL file %s: %w", filename, diags)
	}

	file := &ProjectFile{
		Name:        parsed.Name,
		Description: parsed.Description,
		Nodes:       make([]NodeDecl, 0, len(parsed.Nodes)),
		Connections: make([]ConnectionDecl, 0, len(parsed.Connections)),
	}

	for _, n := range parsed.Nodes {
		params, err := attributes(n.Body)
		if err != nil {
			return nil, fmt.Errorf("node %s: %w", n.Key, err)
		}

		file.Nodes = append(file.Nodes, NodeDecl{
			Key:    n.Key,
			Kind:   models.NodeKind(n.Kind),
			Params: params,
		})
	}

	for _, c := range parsed.Connections {
		file.Connections = append(file.Connections, ConnectionDecl{From: c.From, To: c.To})
	}

	if err := file.Validate(); err != nil {
		return nil, err
	}

	return file, nil
}

// attributes evaluates every attribute of a node block into a params map.
func attributes(body hcl.Body) (map[string]any, error) {
	attrs, diags := body.JustAttributes()
	if diags.HasErrors() {
		return nil, diags
	}

	params := make(map[string]any, len(attrs))

	for name, attr := range attrs {
		val, diags := attr.Expr.Value(nil)
		if diags.HasErrors() {
			return nil, diags
		}

		v, err := ctyValueToInterface(val)
		if err != nil {
			return nil, fmt.Errorf("attribute %s: %w", name, err)
		}

		params[name] = v
	}

	return params, nil
}

// ctyValueToInterface converts a cty.Value to plain Go values.
func ctyValueToInterface(val cty.Value) (any, error) {
	if !val.IsKnown() || val.IsNull() {
		return nil, nil
	}

	ty := val.Type()

	switch {
	case ty == cty.String:
		return val.AsString(), nil
	case ty == cty.Number:
		f, _ := val.AsBigFloat().Float64()

		return f, nil
	case ty == cty.Bool:
		return val.True(), nil
	case ty.IsObjectType() || ty.IsMapType():
		out := make(map[string]any)

		for it := val.ElementIterator(); it.Next(); {
			k, v := it.Element()

			converted, err := ctyValueToInterface(v)
			if err != nil {
				return nil, err
			}

			out[k.AsString()] = converted
		}

		return out, nil
	case ty.IsListType() || ty.IsTupleType() || ty.IsSetType():
		out := make([]any, 0, val.LengthInt())

		for it := val.ElementIterator(); it.Next(); {
			_, v := it.Element()

			converted, err := ctyValueToInterface(v)
			if err != nil {
				return nil, err
			}

			out = append(out, converted)
		}

		return out, nil
	default:
		return nil, fmt.Errorf("unsupported value type: %s", ty.FriendlyName())
	}
}
