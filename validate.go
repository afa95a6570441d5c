package quest

import "fmt"

// Violation codes reported by ValidateOutline.
const (
	ViolationNodeCount     = "node_count"
	ViolationDuplicateRef  = "duplicate_ref"
	ViolationNodeType      = "node_type"
	ViolationStartCount    = "start_count"
	ViolationChoiceCount   = "choice_count"
	ViolationEndingChoices = "ending_has_choices"
	ViolationUnknownTarget = "unknown_target"
	ViolationTargetsStart  = "targets_start"
	ViolationUnreachable   = "unreachable"
	ViolationCycle         = "cycle"
	ViolationDepthExceeded = "depth_exceeded"
)

// Violation is one structural invariant broken by an outline. Ref names the
// offending node where one exists.
type Violation struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Ref     string `json:"ref,omitempty"`
}

// ValidateOutline checks a proposed outline against the structural invariants
// a buildable graph must satisfy. It returns the complete list of violations;
// an empty result means the outline is accepted. Structural problems are
// reported, never raised as errors.
func ValidateOutline(o *Outline, lim Limits) []Violation {
	var out []Violation

	if n := len(o.Nodes); n < lim.MinNodes || n > lim.MaxNodes {
		out = append(out, Violation{
			Code:    ViolationNodeCount,
			Message: fmt.Sprintf("outline has %d nodes, expected between %d and %d", n, lim.MinNodes, lim.MaxNodes),
		})
	}

	byRef := make(map[string]*OutlineNode, len(o.Nodes))
	var startRef string
	startCount := 0
	for i := range o.Nodes {
		n := &o.Nodes[i]
		if _, dup := byRef[n.Ref]; dup {
			out = append(out, Violation{
				Code:    ViolationDuplicateRef,
				Message: fmt.Sprintf("symbolic ref %q is used by more than one node", n.Ref),
				Ref:     n.Ref,
			})
			continue
		}
		byRef[n.Ref] = n
		if !n.Type.Valid() {
			out = append(out, Violation{
				Code:    ViolationNodeType,
				Message: fmt.Sprintf("node %q has unknown type %q", n.Ref, n.Type),
				Ref:     n.Ref,
			})
			continue
		}
		if n.Type == NodeStart {
			startCount++
			startRef = n.Ref
		}
	}

	if startCount != 1 {
		out = append(out, Violation{
			Code:    ViolationStartCount,
			Message: fmt.Sprintf("outline has %d START nodes, exactly one is required", startCount),
		})
	}

	// Per-node cardinality and edge targets.
	for i := range o.Nodes {
		n := &o.Nodes[i]
		if n.Type == NodeEnding && len(n.Choices) > 0 {
			out = append(out, Violation{
				Code:    ViolationEndingChoices,
				Message: fmt.Sprintf("ENDING node %q has %d choices, endings are terminal", n.Ref, len(n.Choices)),
				Ref:     n.Ref,
			})
		}
		if n.Type != NodeEnding && n.Type.Valid() {
			if c := len(n.Choices); c < lim.MinChoices || c > lim.MaxChoices {
				out = append(out, Violation{
					Code:    ViolationChoiceCount,
					Message: fmt.Sprintf("node %q has %d choices, expected between %d and %d", n.Ref, c, lim.MinChoices, lim.MaxChoices),
					Ref:     n.Ref,
				})
			}
		}
		for _, ch := range n.Choices {
			if _, ok := byRef[ch.TargetRef]; !ok {
				out = append(out, Violation{
					Code:    ViolationUnknownTarget,
					Message: fmt.Sprintf("node %q has a choice targeting unknown ref %q", n.Ref, ch.TargetRef),
					Ref:     n.Ref,
				})
				continue
			}
			if startCount == 1 && ch.TargetRef == startRef {
				out = append(out, Violation{
					Code:    ViolationTargetsStart,
					Message: fmt.Sprintf("node %q has a choice targeting the START node", n.Ref),
					Ref:     n.Ref,
				})
			}
		}
	}

	// Traversal checks require a unique START and resolvable targets.
	if startCount != 1 || len(out) > 0 {
		return out
	}

	out = append(out, traverse(byRef, startRef, lim.MaxDepth)...)
	return out
}

// traverse walks the graph from the START ref and reports unreachable nodes,
// cycles, and paths that exceed maxDepth before reaching an ENDING. Uses the
// three-state DFS coloring: a back edge to an on-stack node is a cycle.
func traverse(byRef map[string]*OutlineNode, startRef string, maxDepth int) []Violation {
	const (
		unvisited = 0
		visiting  = 1
		visited   = 2
	)

	var out []Violation
	state := make(map[string]int, len(byRef))
	depth := make(map[string]int, len(byRef)) // longest path from START, edges
	cycle := false

	var dfs func(ref string, d int)
	dfs = func(ref string, d int) {
		switch state[ref] {
		case visiting:
			cycle = true
			return
		case visited:
			// Revisit only when it extends the longest known path.
			if d <= depth[ref] {
				return
			}
		}
		depth[ref] = d
		state[ref] = visiting
		for _, ch := range byRef[ref].Choices {
			dfs(ch.TargetRef, d+1)
		}
		state[ref] = visited
	}
	dfs(startRef, 0)

	if cycle {
		out = append(out, Violation{
			Code:    ViolationCycle,
			Message: "graph contains a cycle reachable from START; some path never reaches an ENDING",
		})
	}

	for ref, n := range byRef {
		if state[ref] == unvisited {
			out = append(out, Violation{
				Code:    ViolationUnreachable,
				Message: fmt.Sprintf("node %q is not reachable from START", ref),
				Ref:     ref,
			})
			continue
		}
		// Without cycles every maximal path ends at a node with no choices,
		// and cardinality checks already force those to be ENDING nodes. The
		// remaining termination invariant is the depth bound.
		if !cycle && n.Type == NodeEnding && depth[ref] > maxDepth {
			out = append(out, Violation{
				Code:    ViolationDepthExceeded,
				Message: fmt.Sprintf("ENDING node %q sits %d steps from START, maximum is %d", ref, depth[ref], maxDepth),
				Ref:     ref,
			})
		}
	}

	return out
}
