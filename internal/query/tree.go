package query

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// nodeSpec is the on-disk form of an editor tree component. Exactly one of
// the evaluation fields, Operator or Group is set.
type nodeSpec struct {
	Property   string     `yaml:"property,omitempty"`
	Comparator string     `yaml:"comparator,omitempty"`
	Value      string     `yaml:"value,omitempty"`
	Operator   string     `yaml:"operator,omitempty"`
	Group      []nodeSpec `yaml:"group,omitempty"`
}

// DecodeTree reads an editor tree from YAML (or JSON). The document is a list
// of components:
//
//	# (['IfcType' = 'IFCBEAM']) AND (['Storey' sw 'Level'])
//	- property: IfcType
//	  comparator: "="
//	  value: IFCBEAM
//	- operator: AND
//	- group:
//	    - property: Storey
//	      comparator: sw
//	      value: Level
func DecodeTree(data []byte) (*GroupNode, error) {
	var specs []nodeSpec
	if err := yaml.Unmarshal(data, &specs); err != nil {
		return nil, fmt.Errorf("failed to parse query tree: %w", err)
	}
	return buildGroup(specs, "")
}

// EncodeTree writes an editor tree as YAML.
func EncodeTree(root *GroupNode) ([]byte, error) {
	return yaml.Marshal(specsFor(root))
}

func buildGroup(specs []nodeSpec, path string) (*GroupNode, error) {
	g := &GroupNode{}
	for i, s := range specs {
		at := fmt.Sprintf("%s[%d]", path, i)
		switch {
		case s.Group != nil:
			child, err := buildGroup(s.Group, at+".group")
			if err != nil {
				return nil, err
			}
			g.Children = append(g.Children, child)
		case s.Operator != "":
			op, ok := ParseOperator(s.Operator)
			if !ok {
				return nil, fmt.Errorf("%s: unknown operator %q", at, s.Operator)
			}
			g.Children = append(g.Children, OperatorNode{Operator: op})
		case s.Property != "":
			cmp, err := ParseComparator(s.Comparator)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", at, err)
			}
			g.Children = append(g.Children, EvaluationNode{Property: s.Property, Comparator: cmp, Value: s.Value})
		default:
			return nil, fmt.Errorf("%s: expected property, operator or group", at)
		}
	}
	return g, nil
}

func specsFor(g *GroupNode) []nodeSpec {
	specs := make([]nodeSpec, 0, len(g.Children))
	for _, child := range g.Children {
		switch c := child.(type) {
		case EvaluationNode:
			specs = append(specs, nodeSpec{Property: c.Property, Comparator: string(c.Comparator), Value: c.Value})
		case *EvaluationNode:
			specs = append(specs, nodeSpec{Property: c.Property, Comparator: string(c.Comparator), Value: c.Value})
		case OperatorNode:
			specs = append(specs, nodeSpec{Operator: string(c.Operator)})
		case *OperatorNode:
			specs = append(specs, nodeSpec{Operator: string(c.Operator)})
		case *GroupNode:
			specs = append(specs, nodeSpec{Group: specsFor(c)})
		}
	}
	return specs
}
