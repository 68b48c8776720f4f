// Package validator runs the structural rules over a flow graph and reports
// findings. It never mutates the graph and never fails: a flow is always
// representable, validity is advisory.
//
// The manual per-connection annotation (pass/error/pending/retry) is a
// separate concern owned by the editor and is ignored here.
package validator

import (
	"fmt"

	"github.com/jPabloBC/ingenit-flows/pkg/domain"
	"github.com/jPabloBC/ingenit-flows/pkg/flowgraph"
)

// Rule identifiers carried by findings.
const (
	RuleStartNode        = "start-node"
	RuleEndNodes         = "end-nodes"
	RuleMenuTitle        = "menu-title"
	RuleMenuMessage      = "menu-message"
	RuleMenuOptions      = "menu-options"
	RuleDecisionQuestion = "decision-question"
	RuleDecisionOptions  = "decision-options"
	RuleDelayDuration    = "delay-duration"
	RuleConnections      = "connections"
	RuleIsolatedNodes    = "isolated-nodes"
	RuleDanglingEdge     = "dangling-connection"
	RuleDanglingOption   = "dangling-option"
	RuleUnreachable      = "unreachable-nodes"
)

// Rule inspects a graph and returns its findings in order.
type Rule func(g *flowgraph.Graph) []domain.Finding

// DefaultRules returns the rule set applied by Validate, in order.
func DefaultRules() []Rule {
	return []Rule{
		checkStart,
		checkEnds,
		checkMenus,
		checkDecisions,
		checkDelays,
		checkConnections,
		checkIsolated,
		checkDanglingEdges,
		checkDanglingOptions,
		checkReachability,
	}
}

// Validate applies DefaultRules. The result is never nil.
func Validate(g *flowgraph.Graph) []domain.Finding {
	return Run(g, DefaultRules()...)
}

// Run applies rules in order and concatenates their findings.
func Run(g *flowgraph.Graph, rules ...Rule) []domain.Finding {
	findings := []domain.Finding{}
	if g == nil {
		g = flowgraph.New()
	}
	for _, rule := range rules {
		findings = append(findings, rule(g)...)
	}
	return findings
}

func ok(rule, msg string, args ...any) domain.Finding {
	return domain.Finding{Level: domain.LevelSuccess, Rule: rule, Message: fmt.Sprintf(msg, args...)}
}

func warn(rule, msg string, args ...any) domain.Finding {
	return domain.Finding{Level: domain.LevelWarning, Rule: rule, Message: fmt.Sprintf(msg, args...)}
}

func fail(rule, msg string, args ...any) domain.Finding {
	return domain.Finding{Level: domain.LevelError, Rule: rule, Message: fmt.Sprintf(msg, args...)}
}

// check yields a success or an error finding about one node.
func check(passed bool, rule, nodeID, good, bad string) domain.Finding {
	f := fail(rule, "%s", bad)
	if passed {
		f = ok(rule, "%s", good)
	}
	f.NodeID = nodeID
	return f
}

func checkStart(g *flowgraph.Graph) []domain.Finding {
	switch n := len(g.NodesOfKind(domain.KindStart)); n {
	case 0:
		return []domain.Finding{fail(RuleStartNode, "flow has no start node")}
	case 1:
		return []domain.Finding{ok(RuleStartNode, "start node present")}
	default:
		return []domain.Finding{fail(RuleStartNode, "flow has %d start nodes, expected exactly one", n)}
	}
}

func checkEnds(g *flowgraph.Graph) []domain.Finding {
	n := len(g.NodesOfKind(domain.KindEnd))
	if n == 0 {
		return []domain.Finding{fail(RuleEndNodes, "flow has no end nodes")}
	}
	return []domain.Finding{ok(RuleEndNodes, "%d end node(s)", n)}
}

// checkMenus emits three independent findings per menu.
func checkMenus(g *flowgraph.Graph) []domain.Finding {
	var out []domain.Finding
	for _, n := range g.NodesOfKind(domain.KindMenu) {
		m := n.Payload.(*domain.Menu)
		out = append(out,
			check(m.Title != "", RuleMenuTitle, n.ID,
				fmt.Sprintf("menu %s has a title", n.ID), fmt.Sprintf("menu %s has no title", n.ID)),
			check(m.Message != "", RuleMenuMessage, n.ID,
				fmt.Sprintf("menu %s has a message", n.ID), fmt.Sprintf("menu %s has no message", n.ID)),
			check(len(m.Options) > 0, RuleMenuOptions, n.ID,
				fmt.Sprintf("menu %s has %d option(s)", n.ID, len(m.Options)), fmt.Sprintf("menu %s has no options", n.ID)),
		)
	}
	return out
}

func checkDecisions(g *flowgraph.Graph) []domain.Finding {
	var out []domain.Finding
	for _, n := range g.NodesOfKind(domain.KindDecision) {
		d := n.Payload.(*domain.Decision)
		out = append(out,
			check(d.Question != "", RuleDecisionQuestion, n.ID,
				fmt.Sprintf("decision %s has a question", n.ID), fmt.Sprintf("decision %s has no question", n.ID)),
			check(len(d.Options) > 0, RuleDecisionOptions, n.ID,
				fmt.Sprintf("decision %s has %d option(s)", n.ID, len(d.Options)), fmt.Sprintf("decision %s has no options", n.ID)),
		)
	}
	return out
}

func checkDelays(g *flowgraph.Graph) []domain.Finding {
	var out []domain.Finding
	for _, n := range g.NodesOfKind(domain.KindDelay) {
		d := n.Payload.(*domain.Delay)
		out = append(out, check(d.Duration >= 1, RuleDelayDuration, n.ID,
			fmt.Sprintf("delay %s waits %gs", n.ID, d.Duration),
			fmt.Sprintf("delay %s must wait at least 1s, has %gs", n.ID, d.Duration)))
	}
	return out
}

func checkConnections(g *flowgraph.Graph) []domain.Finding {
	n := g.EdgeCount()
	if n == 0 {
		return []domain.Finding{warn(RuleConnections, "flow has no connections")}
	}
	return []domain.Finding{ok(RuleConnections, "%d connection(s)", n)}
}

func checkIsolated(g *flowgraph.Graph) []domain.Finding {
	n := len(g.Isolated())
	if n > 0 {
		return []domain.Finding{warn(RuleIsolatedNodes, "%d isolated node(s) without connections", n)}
	}
	return []domain.Finding{ok(RuleIsolatedNodes, "no isolated nodes")}
}

func checkDanglingEdges(g *flowgraph.Graph) []domain.Finding {
	var out []domain.Finding
	for _, c := range g.Edges() {
		for _, end := range []struct{ role, id string }{{"source", c.Source}, {"target", c.Target}} {
			if !g.HasNode(end.id) {
				f := fail(RuleDanglingEdge, "connection %s has unknown %s %q", c.ID, end.role, end.id)
				f.EdgeID = c.ID
				out = append(out, f)
			}
		}
	}
	return out
}

func checkDanglingOptions(g *flowgraph.Graph) []domain.Finding {
	var out []domain.Finding
	for _, n := range g.Nodes() {
		for _, o := range domain.OptionsOf(n.Payload) {
			if o.NextNodeID != "" && !g.HasNode(o.NextNodeID) {
				f := fail(RuleDanglingOption, "option %s of %s leads to unknown node %q", o.ID, n.ID, o.NextNodeID)
				f.NodeID = n.ID
				out = append(out, f)
			}
		}
	}
	return out
}

// checkReachability only runs with a single start node. Isolated nodes are
// already reported and are not counted again.
func checkReachability(g *flowgraph.Graph) []domain.Finding {
	starts := g.NodesOfKind(domain.KindStart)
	if len(starts) != 1 {
		return nil
	}
	reached := g.Reachable(starts[0].ID)
	touched := g.Touched()
	n := 0
	for _, node := range g.Nodes() {
		if !reached[node.ID] && touched[node.ID] {
			n++
		}
	}
	if n == 0 {
		return nil
	}
	return []domain.Finding{warn(RuleUnreachable, "%d node(s) cannot be reached from the start node", n)}
}
