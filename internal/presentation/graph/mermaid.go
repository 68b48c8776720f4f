package graph

import (
	"fmt"
	"strings"

	"github.com/jPabloBC/ingenit-flows/pkg/domain"
	"github.com/jPabloBC/ingenit-flows/pkg/flowgraph"
)

// Overlay contains editor state to visualize on the graph.
type Overlay struct {
	SelectedNode string
	// Highlight lists node ids with error findings.
	Highlight []string
}

// GenerateMermaid produces a Mermaid flowchart from a flow graph.
// It applies semantic styling:
// - Start: ((Circle))
// - End: ([Stadium])
// - Menu: {{Hexagon}}
// - Decision: {Rhombus}
// - Delay: [[Subroutine]]
// - Client message: [/Parallelogram/]
// - System message: [Rectangle]
// Connections are colored by their manual validation status.
func GenerateMermaid(g *flowgraph.Graph, overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	for _, node := range g.Nodes() {
		safeID := sanitizeMermaidID(node.ID)
		opener, closer := shape(node.Kind())
		text := escapeLabel(Summary(node))
		if text == "" {
			text = escapeLabel(node.ID)
		}
		sb.WriteString(fmt.Sprintf("    %s%s\"%s\"%s\n", safeID, opener, text, closer))
	}

	var styles []string
	for i, c := range g.Edges() {
		arrow := "-->"
		if label := domain.DecorateLabel(c.ValidationStatus, c.Label); label != "" {
			arrow = fmt.Sprintf("-- \"%s\" -->", escapeLabel(label))
		}
		if !g.HasNode(c.Source) || !g.HasNode(c.Target) {
			arrow = "-.->"
		}
		sb.WriteString(fmt.Sprintf("    %s %s %s\n", sanitizeMermaidID(c.Source), arrow, sanitizeMermaidID(c.Target)))
		if color, ok := statusColors[c.ValidationStatus]; ok {
			styles = append(styles, fmt.Sprintf("    linkStyle %d stroke:%s,stroke-width:2px;\n", i, color))
		}
	}
	for _, s := range styles {
		sb.WriteString(s)
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text (color:#000) for high-contrast on light backgrounds, regardless of theme (Light/Dark)
		sb.WriteString("    classDef failing fill:#ffebee,stroke:#c62828,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef selected fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		seen := make(map[string]bool)
		for _, id := range overlay.Highlight {
			safeID := sanitizeMermaidID(id)
			if !seen[safeID] && g.HasNode(id) {
				seen[safeID] = true
				sb.WriteString(fmt.Sprintf("    class %s failing;\n", safeID))
			}
		}
		if overlay.SelectedNode != "" && g.HasNode(overlay.SelectedNode) {
			sb.WriteString(fmt.Sprintf("    class %s selected;\n", sanitizeMermaidID(overlay.SelectedNode)))
		}
	}

	return sb.String()
}

var statusColors = map[domain.EdgeStatus]string{
	domain.EdgePass:  "#2e7d32",
	domain.EdgeError: "#c62828",
	domain.EdgeRetry: "#ef6c00",
}

func shape(kind domain.NodeKind) (string, string) {
	switch kind {
	case domain.KindStart:
		return "((", "))"
	case domain.KindEnd:
		return "([", "])"
	case domain.KindMenu:
		return "{{", "}}"
	case domain.KindDecision:
		return "{", "}"
	case domain.KindDelay:
		return "[[", "]]"
	case domain.KindClientMessage:
		return "[/", "/]"
	}
	return "[", "]"
}

// Summary returns the one-line text a node is displayed with.
func Summary(n *domain.Node) string {
	switch p := n.Payload.(type) {
	case *domain.Start:
		return p.Label
	case *domain.End:
		return p.Label
	case *domain.Menu:
		if p.Title != "" {
			return p.Title
		}
		return p.Message
	case *domain.SystemMessage:
		return p.Message
	case *domain.ClientMessage:
		return p.Message
	case *domain.Decision:
		return p.Question
	case *domain.Delay:
		return fmt.Sprintf("⏱️ %gs", p.Duration)
	}
	return ""
}

func escapeLabel(s string) string {
	s = strings.ReplaceAll(s, "\"", "'")
	return strings.ReplaceAll(s, "\n", " ")
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	// "end" closes subgraphs in Mermaid and cannot name a node.
	if strings.EqualFold(s, "end") {
		s += "_"
	}
	return s
}
