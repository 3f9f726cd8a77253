package export

import (
	"fmt"
	"strings"

	"github.com/TyphonHill/go-mermaid/diagrams/flowchart"

	"github.com/tracelens/tracelens/internal/trace"
)

// GenerateMermaid creates a Mermaid flowchart of a trace's action
// timeline: one node per action, chained in begin order, with explicit
// parent links where the recording provided them. Output is markdown-
// fenced and ready for embedding.
func GenerateMermaid(t *trace.Trace) string {
	diagram := flowchart.NewFlowchart()
	diagram.EnableMarkdownFence()
	diagram.SetDirection(flowchart.FlowchartDirectionTopDown)

	nodes := make([]*flowchart.Node, len(t.Actions))
	byCallID := make(map[string]int, len(t.Actions))
	for i, a := range t.Actions {
		node := diagram.AddNode(actionLabel(a, i+1))
		applyActionShape(node, a)
		if style := actionStyle(a); style != nil {
			node.SetStyle(style)
		}
		nodes[i] = node
		byCallID[a.CallID] = i
	}

	// Parent links first; top-level actions chain sequentially.
	linked := make([]bool, len(t.Actions))
	for i, a := range t.Actions {
		if a.ParentID == "" {
			continue
		}
		if parent, ok := byCallID[a.ParentID]; ok && parent != i {
			diagram.AddLink(nodes[parent], nodes[i])
			linked[i] = true
		}
	}
	prev := -1
	for i, a := range t.Actions {
		if linked[i] && a.ParentID != "" {
			continue
		}
		if prev >= 0 {
			diagram.AddLink(nodes[prev], nodes[i])
		}
		prev = i
	}

	return diagram.String()
}

func actionLabel(a *trace.Action, index int) string {
	name := a.Name()
	if len(name) > 48 {
		name = name[:45] + "..."
	}
	label := fmt.Sprintf("%d. %s", index, name)
	if !a.Open && !a.Unpaired && a.Duration() > 0 {
		label += fmt.Sprintf("<br/>%.0fms", a.Duration())
	}
	return label
}

func applyActionShape(node *flowchart.Node, a *trace.Action) {
	switch {
	case a.HasError():
		node.SetShape(flowchart.NodeShapeDecision)
	case strings.Contains(strings.ToLower(a.Name()), "goto"),
		strings.Contains(strings.ToLower(a.Name()), "navigate"):
		node.SetShape(flowchart.NodeShapeTerminal)
	default:
		node.SetShape(flowchart.NodeShapeProcess)
	}
}

func actionStyle(a *trace.Action) *flowchart.NodeStyle {
	style := flowchart.NewNodeStyle()
	style.StrokeWidth = 1

	switch {
	case a.HasError():
		style.Fill = "#fee2e2"
		style.Stroke = "#991b1b"
	case a.Open || a.Unpaired:
		style.Fill = "#fef3c7"
		style.Stroke = "#92400e"
	default:
		return nil
	}
	return style
}
