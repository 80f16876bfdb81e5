package common

import (
	"net/url"
	"sort"
	"strings"
)

// RedirectEdge is one redirect rule reduced to the parts the loop check needs.
type RedirectEdge struct {
	ID     uint64
	Source string
	Target string
}

// IsAbsoluteURL reports whether target carries an http(s) scheme and host
func IsAbsoluteURL(target string) bool {
	u, err := url.Parse(strings.TrimSpace(target))
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// NormalizeRedirectPath lower-cases a scheme-less path, keeps exactly one
// leading slash and strips trailing slashes unless the path is the root.
// Absolute URLs are returned trimmed but otherwise untouched.
func NormalizeRedirectPath(path string) string {
	p := strings.TrimSpace(path)
	if IsAbsoluteURL(p) {
		return p
	}

	p = strings.ToLower(p)
	p = strings.TrimLeft(p, "/")
	p = strings.TrimRight(p, "/")
	return "/" + p
}

// CleanRedirectTarget trims a target and fixes its slashes without touching
// case, query or fragment. Comparisons still go through NormalizeRedirectPath.
func CleanRedirectTarget(target string) string {
	t := strings.TrimSpace(target)
	if IsAbsoluteURL(t) {
		return t
	}

	path, rest := t, ""
	if i := strings.IndexAny(t, "?#"); i >= 0 {
		path, rest = t[:i], t[i:]
	}
	return "/" + strings.Trim(path, "/") + rest
}

// SameRedirectPath reports whether a and b normalize to the same path
func SameRedirectPath(a, b string) bool {
	return NormalizeRedirectPath(a) == NormalizeRedirectPath(b)
}

// RejectsSelfRedirect is true when source and target are the same path.
func RejectsSelfRedirect(source, target string) bool {
	return SameRedirectPath(source, target)
}

// WouldCreateLoop reports whether adding source -> target to rules creates a
// cycle reachable from target. The rule identified by candidateID (an edit)
// drops out of the graph so its old edge is not counted twice.
//
// Every source has at most one outgoing edge, so the walk is a simple chain.
// It stops at a dead end (no loop), at source (loop), or at any node seen
// before, which also catches cycles already stored in rules. The walk is
// bounded by len(rules)+1 steps.
func WouldCreateLoop(source, target string, rules []RedirectEdge, candidateID *uint64) bool {
	graph := buildRedirectGraph(rules, candidateID)

	src := NormalizeRedirectPath(source)
	graph[src] = NormalizeRedirectPath(target)

	current := graph[src]
	visited := make(map[string]struct{}, len(graph))
	for steps := 0; steps <= len(rules)+1; steps++ {
		if current == src {
			return true
		}
		if _, seen := visited[current]; seen {
			return true
		}
		visited[current] = struct{}{}

		next, ok := graph[current]
		if !ok {
			return false
		}
		current = next
	}
	return true
}

// FindRedirectCycles lists every cycle present in rules, each as the ordered
// node list starting from its lexicographically smallest node.
func FindRedirectCycles(rules []RedirectEdge) [][]string {
	graph := buildRedirectGraph(rules, nil)

	sources := make([]string, 0, len(graph))
	for s := range graph {
		sources = append(sources, s)
	}
	sort.Strings(sources)

	done := make(map[string]struct{}, len(graph))
	var cycles [][]string
	for _, start := range sources {
		if _, ok := done[start]; ok {
			continue
		}

		order := make(map[string]int)
		var path []string
		current := start
		for {
			if _, ok := done[current]; ok {
				break
			}
			if idx, ok := order[current]; ok {
				cycles = append(cycles, rotateCycle(path[idx:]))
				break
			}
			order[current] = len(path)
			path = append(path, current)

			next, ok := graph[current]
			if !ok {
				break
			}
			current = next
		}
		for _, n := range path {
			done[n] = struct{}{}
		}
	}
	return cycles
}

func buildRedirectGraph(rules []RedirectEdge, excludeID *uint64) map[string]string {
	graph := make(map[string]string, len(rules)+1)
	for _, r := range rules {
		if excludeID != nil && r.ID == *excludeID {
			continue
		}
		graph[NormalizeRedirectPath(r.Source)] = NormalizeRedirectPath(r.Target)
	}
	return graph
}

func rotateCycle(cycle []string) []string {
	minIdx := 0
	for i, n := range cycle {
		if n < cycle[minIdx] {
			minIdx = i
		}
	}
	out := make([]string, 0, len(cycle))
	out = append(out, cycle[minIdx:]...)
	out = append(out, cycle[:minIdx]...)
	return out
}
