package capgraph

import "github.com/filegrind/capdag-go/capdagerr"

// FindPath runs a breadth-first search over the graph, where the neighbour
// relation at each step is GetOutgoing(current), stopping as soon as an
// edge's to_spec equals to. Returns the empty edge sequence if from == to,
// or an Unreachable error if no path exists.
func (g *Graph) FindPath(from, to string) ([]Edge, error) {
	const op = "capgraph.FindPath"
	if from == to {
		return []Edge{}, nil
	}

	type step struct {
		prev    string
		edgeIdx int
	}
	backtrack := map[string]*step{from: nil}
	queue := []string{from}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		edges, err := g.GetOutgoing(current)
		if err != nil {
			return nil, err
		}
		for _, e := range edges {
			idx := edgeIndex(g, e)
			if e.ToSpec == to {
				path := []Edge{e}
				back := current
				for backtrack[back] != nil {
					s := backtrack[back]
					path = append(path, g.edges[s.edgeIdx])
					back = s.prev
				}
				reverse(path)
				return path, nil
			}
			if _, visited := backtrack[e.ToSpec]; !visited {
				backtrack[e.ToSpec] = &step{prev: current, edgeIdx: idx}
				queue = append(queue, e.ToSpec)
			}
		}
	}

	return nil, capdagerr.Unreachablef(op, "no path from %q to %q", from, to)
}

// FindAllPaths runs a depth-first search, bounded by maxDepth, with a
// per-branch visited set so parallel branches may revisit a node the other
// branch already used. Returns all discovered paths sorted ascending by
// length.
func (g *Graph) FindAllPaths(from, to string, maxDepth int) ([][]Edge, error) {
	var all [][]Edge
	var walk func(current string, depth int, path []Edge, visited map[string]struct{}) error
	walk = func(current string, depth int, path []Edge, visited map[string]struct{}) error {
		if depth >= maxDepth {
			return nil
		}
		edges, err := g.GetOutgoing(current)
		if err != nil {
			return err
		}
		for _, e := range edges {
			if e.ToSpec == to {
				found := append(append([]Edge(nil), path...), e)
				all = append(all, found)
				continue
			}
			if _, ok := visited[e.ToSpec]; ok {
				continue
			}
			visited[e.ToSpec] = struct{}{}
			if err := walk(e.ToSpec, depth+1, append(path, e), visited); err != nil {
				return err
			}
			delete(visited, e.ToSpec)
		}
		return nil
	}

	if err := walk(from, 0, nil, map[string]struct{}{from: {}}); err != nil {
		return nil, err
	}

	sortPathsByLength(all)
	return all, nil
}

// FindBestPath returns the path (among all paths up to maxDepth) maximizing
// the sum of edge specificities, breaking ties in favor of shorter paths.
func (g *Graph) FindBestPath(from, to string, maxDepth int) ([]Edge, error) {
	const op = "capgraph.FindBestPath"
	all, err := g.FindAllPaths(from, to, maxDepth)
	if err != nil {
		return nil, err
	}
	if len(all) == 0 {
		return nil, capdagerr.Unreachablef(op, "no path from %q to %q within depth %d", from, to, maxDepth)
	}

	best := all[0]
	bestScore := pathScore(best)
	for _, path := range all[1:] {
		score := pathScore(path)
		if score > bestScore || (score == bestScore && len(path) < len(best)) {
			best = path
			bestScore = score
		}
	}
	return best, nil
}

// GetReachableTargets returns the set of distinct to_spec nodes reachable
// from source within maxDepth hops, via breadth-first expansion using
// GetOutgoing at each step.
func (g *Graph) GetReachableTargets(source string, maxDepth int) ([]string, error) {
	visited := map[string]struct{}{source: {}}
	queue := []string{source}
	depth := 0

	for len(queue) > 0 && depth < maxDepth {
		var next []string
		for _, current := range queue {
			edges, err := g.GetOutgoing(current)
			if err != nil {
				return nil, err
			}
			for _, e := range edges {
				if _, ok := visited[e.ToSpec]; !ok {
					visited[e.ToSpec] = struct{}{}
					next = append(next, e.ToSpec)
				}
			}
		}
		queue = next
		depth++
	}

	delete(visited, source)
	out := make([]string, 0, len(visited))
	for spec := range visited {
		out = append(out, spec)
	}
	return out, nil
}

func pathScore(path []Edge) int {
	total := 0
	for _, e := range path {
		total += e.Specificity
	}
	return total
}

func reverse(edges []Edge) {
	for i, j := 0, len(edges)-1; i < j; i, j = i+1, j-1 {
		edges[i], edges[j] = edges[j], edges[i]
	}
}

func sortPathsByLength(paths [][]Edge) {
	for i := 0; i < len(paths)-1; i++ {
		minIdx := i
		for j := i + 1; j < len(paths); j++ {
			if len(paths[j]) < len(paths[minIdx]) {
				minIdx = j
			}
		}
		paths[i], paths[minIdx] = paths[minIdx], paths[i]
	}
}

func edgeIndex(g *Graph, e Edge) int {
	for _, idx := range g.outgoing[e.FromSpec] {
		if g.edges[idx].ToSpec == e.ToSpec && g.edges[idx].Cap == e.Cap {
			return idx
		}
	}
	return -1
}
