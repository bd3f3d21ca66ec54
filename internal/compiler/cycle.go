package compiler

import "sort"

// reportUnresolved turns the leftover pending definitions into errors. It
// builds the reference graph among them and finds strongly connected
// components with Tarjan's algorithm: an SCC of size > 1 (or a self-loop) is
// a reference cycle and is reported once with its path; everything else is
// blocked on a missing or unresolved name and is reported per definition.
func (b *builder) reportUnresolved() {
	graph := make(referenceGraph)
	pending := make(map[string]staged, len(b.pending))
	for _, s := range b.pending {
		pending[s.name] = s
		graph[s.name] = nil
	}
	for _, s := range b.pending {
		for _, ref := range b.references(s) {
			if _, isPending := pending[ref]; isPending {
				graph[s.name] = append(graph[s.name], ref)
			}
		}
	}

	inCycle := make(map[string]bool)
	for _, scc := range tarjanSCC(graph) {
		if len(scc) > 1 || (len(scc) == 1 && hasSelfLoop(scc[0], graph)) {
			sort.Strings(scc)
			path := reconstructCyclePath(scc, graph)
			b.errorf(&UnresolvedReferenceError{Definition: scc[0], Cycle: path})
			for _, name := range scc {
				inCycle[name] = true
			}
		}
	}

	names := make([]string, 0, len(pending))
	for name := range pending {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if inCycle[name] {
			continue
		}
		var missing []string
		for _, ref := range b.references(pending[name]) {
			if !b.schema.Registry.Has(ref) {
				missing = append(missing, ref)
			}
		}
		sort.Strings(missing)
		b.errorf(&UnresolvedReferenceError{Definition: name, Missing: missing})
	}
}

// referenceGraph maps definition name -> pending definitions it references.
type referenceGraph map[string][]string

func hasSelfLoop(node string, graph referenceGraph) bool {
	for _, neighbor := range graph[node] {
		if neighbor == node {
			return true
		}
	}
	return false
}

// tarjanSCC finds strongly connected components.
// Single-node SCCs without self-loops are NOT cycles.
func tarjanSCC(graph referenceGraph) [][]string {
	var (
		index   = 0
		stack   []string
		indices = make(map[string]int)
		lowlink = make(map[string]int)
		onStack = make(map[string]bool)
		sccs    [][]string
	)

	var strongConnect func(string)
	strongConnect = func(v string) {
		indices[v] = index
		lowlink[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range graph[v] {
			if _, visited := indices[w]; !visited {
				strongConnect(w)
				lowlink[v] = min(lowlink[v], lowlink[w])
			} else if onStack[w] {
				lowlink[v] = min(lowlink[v], indices[w])
			}
		}

		if lowlink[v] == indices[v] {
			var scc []string
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				scc = append(scc, w)
				if w == v {
					break
				}
			}
			sccs = append(sccs, scc)
		}
	}

	// Deterministic visit order keeps error output stable.
	nodes := make([]string, 0, len(graph))
	for node := range graph {
		nodes = append(nodes, node)
	}
	sort.Strings(nodes)
	for _, node := range nodes {
		if _, visited := indices[node]; !visited {
			strongConnect(node)
		}
	}

	return sccs
}

// reconstructCyclePath walks edges within an SCC from its first node until it
// returns to the start, producing a readable a -> b -> a path.
func reconstructCyclePath(scc []string, graph referenceGraph) []string {
	if len(scc) == 0 {
		return []string{}
	}

	sccSet := make(map[string]bool)
	for _, node := range scc {
		sccSet[node] = true
	}

	start := scc[0]
	current := start
	path := []string{current}
	visited := make(map[string]bool)

	for {
		visited[current] = true

		var next string
		for _, neighbor := range graph[current] {
			if sccSet[neighbor] && (!visited[neighbor] || neighbor == start) {
				next = neighbor
				break
			}
		}
		if next == "" {
			break
		}
		path = append(path, next)
		if next == start {
			break
		}
		current = next
	}

	return path
}
