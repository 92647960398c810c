package query

import (
	"regexp"
	"strings"
)

// Node is one component of a structured query editor: an evaluation, an
// operator, or a group of further components.
type Node interface {
	node()
}

// EvaluationNode is an editable evaluation.
type EvaluationNode struct {
	Property   string     `yaml:"property" json:"property"`
	Comparator Comparator `yaml:"comparator" json:"comparator"`
	Value      string     `yaml:"value" json:"value"`
}

// OperatorNode joins its neighbouring components.
type OperatorNode struct {
	Operator Operator `yaml:"operator" json:"operator"`
}

// GroupNode holds components in display order. The root of an editor is a
// GroupNode.
type GroupNode struct {
	Children []Node
}

func (EvaluationNode) node() {}
func (OperatorNode) node()   {}
func (*GroupNode) node()     {}

var (
	doubledOpen  = regexp.MustCompile(`\(\(+`)
	doubledClose = regexp.MustCompile(`\)\)+`)
)

// Serialize renders an editor tree as query text.
//
// The root is wrapped in parentheses, evaluations directly under the root are
// rendered as (['prop' op 'value']) and evaluations inside a nested group as
// ['prop' op 'value']. Runs of parentheses are then collapsed to one. The
// collapse only tidies the text; a tree nested deeper than the grammar allows
// still serializes to something Parse reads as flat.
//
// The collapse runs over the whole text, quoted values included: a value
// containing "((" or "))" comes back with a single parenthesis, so such a
// query does not survive Serialize(Tree(q)) unchanged. Query.String has no
// collapse and keeps the value intact.
func Serialize(root *GroupNode) string {
	if root == nil {
		return ""
	}
	var sb strings.Builder
	writeGroup(&sb, root, true)
	s := doubledOpen.ReplaceAllString(sb.String(), "(")
	return doubledClose.ReplaceAllString(s, ")")
}

func writeGroup(sb *strings.Builder, g *GroupNode, root bool) {
	sb.WriteString("(")
	for _, child := range g.Children {
		switch c := child.(type) {
		case EvaluationNode:
			writeEvaluation(sb, c, root)
		case *EvaluationNode:
			writeEvaluation(sb, *c, root)
		case OperatorNode:
			sb.WriteString(" " + string(c.Operator) + " ")
		case *OperatorNode:
			sb.WriteString(" " + string(c.Operator) + " ")
		case *GroupNode:
			writeGroup(sb, c, false)
		}
	}
	sb.WriteString(")")
}

func writeEvaluation(sb *strings.Builder, e EvaluationNode, topLevel bool) {
	body := Evaluation{Property: e.Property, Comparator: e.Comparator, Value: e.Value}.String()
	if topLevel {
		sb.WriteString("([" + body + "])")
		return
	}
	sb.WriteString("[" + body + "]")
}

// Tree converts a parsed query into an editor tree. Single-evaluation groups
// become evaluations directly under the root; larger groups become nested
// GroupNodes.
func Tree(q *Query) *GroupNode {
	root := &GroupNode{}
	if q == nil {
		return root
	}
	for i, g := range q.Groups {
		if i > 0 {
			root.Children = append(root.Children, OperatorNode{Operator: operatorBefore(q.Operators, i)})
		}
		if len(g.Evaluations) == 1 {
			root.Children = append(root.Children, evaluationNode(g.Evaluations[0]))
			continue
		}
		group := &GroupNode{}
		for j, e := range g.Evaluations {
			if j > 0 {
				group.Children = append(group.Children, OperatorNode{Operator: operatorBefore(g.Operators, j)})
			}
			group.Children = append(group.Children, evaluationNode(e))
		}
		root.Children = append(root.Children, group)
	}
	return root
}

func evaluationNode(e Evaluation) EvaluationNode {
	return EvaluationNode{Property: e.Property, Comparator: e.Comparator, Value: e.Value}
}
