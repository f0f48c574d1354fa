// Package dag orders queries by the datasets they read and write.
// A query that reads another query's output depends on it; levels of the
// graph can be analyzed in parallel.
package dag

import (
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"
)

// ErrCycle is wrapped by CycleError.
var ErrCycle = errors.New("cycle detected")

// CycleError reports the nodes of a dependency cycle, first node repeated last.
type CycleError struct {
	Path []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("%s: %s", ErrCycle, strings.Join(e.Path, " -> "))
}

func (e *CycleError) Unwrap() error {
	return ErrCycle
}

// Graph is a dependency graph whose nodes carry a value of type T.
type Graph[T any] struct {
	nodes    map[string]T
	children map[string][]string // parent -> dependents
	parents  map[string][]string // child -> dependencies
}

// New creates an empty graph.
func New[T any]() *Graph[T] {
	return &Graph[T]{
		nodes:    make(map[string]T),
		children: make(map[string][]string),
		parents:  make(map[string][]string),
	}
}

// AddNode adds a node or replaces the value of an existing one.
func (g *Graph[T]) AddNode(id string, value T) {
	g.nodes[id] = value
}

// AddEdge records that child depends on parent. Self-loops and
// duplicate edges are ignored.
func (g *Graph[T]) AddEdge(parent, child string) error {
	if _, ok := g.nodes[parent]; !ok {
		return fmt.Errorf("parent node %q does not exist", parent)
	}
	if _, ok := g.nodes[child]; !ok {
		return fmt.Errorf("child node %q does not exist", child)
	}
	if parent == child || slices.Contains(g.children[parent], child) {
		return nil
	}
	g.children[parent] = append(g.children[parent], child)
	g.parents[child] = append(g.parents[child], parent)
	return nil
}

// Node returns the value stored for id.
func (g *Graph[T]) Node(id string) (T, bool) {
	v, ok := g.nodes[id]
	return v, ok
}

// Parents returns the dependencies of id.
func (g *Graph[T]) Parents(id string) []string {
	return g.parents[id]
}

// Children returns the dependents of id.
func (g *Graph[T]) Children(id string) []string {
	return g.children[id]
}

// Len returns the number of nodes.
func (g *Graph[T]) Len() int {
	return len(g.nodes)
}

// EdgeCount returns the number of edges.
func (g *Graph[T]) EdgeCount() int {
	n := 0
	for _, c := range g.children {
		n += len(c)
	}
	return n
}

// IDs returns every node id, sorted.
func (g *Graph[T]) IDs() []string {
	ids := make([]string, 0, len(g.nodes))
	for id := range g.nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Cycle returns a dependency cycle, or nil if the graph is acyclic.
// Nodes are visited in sorted order so the reported cycle is stable.
func (g *Graph[T]) Cycle() []string {
	const (
		unvisited = iota
		active
		done
	)
	state := make(map[string]int, len(g.nodes))
	var stack []string
	var cycle []string

	var visit func(id string) bool
	visit = func(id string) bool {
		state[id] = active
		stack = append(stack, id)
		for _, child := range g.children[id] {
			switch state[child] {
			case active:
				start := slices.Index(stack, child)
				cycle = append(slices.Clone(stack[start:]), child)
				return true
			case unvisited:
				if visit(child) {
					return true
				}
			}
		}
		stack = stack[:len(stack)-1]
		state[id] = done
		return false
	}

	for _, id := range g.IDs() {
		if state[id] == unvisited && visit(id) {
			return cycle
		}
	}
	return nil
}

// Levels groups nodes so that every node's dependencies are in an earlier
// level. Level 0 holds nodes without dependencies. Each level is sorted.
func (g *Graph[T]) Levels() ([][]string, error) {
	if cycle := g.Cycle(); cycle != nil {
		return nil, &CycleError{Path: cycle}
	}

	level := make(map[string]int, len(g.nodes))
	var depth func(id string) int
	depth = func(id string) int {
		if l, ok := level[id]; ok {
			return l
		}
		l := 0
		for _, p := range g.parents[id] {
			l = max(l, depth(p)+1)
		}
		level[id] = l
		return l
	}

	var levels [][]string
	for _, id := range g.IDs() {
		l := depth(id)
		for len(levels) <= l {
			levels = append(levels, nil)
		}
		levels[l] = append(levels[l], id)
	}
	for _, ids := range levels {
		sort.Strings(ids)
	}
	return levels, nil
}

// Affected returns the given nodes and everything downstream of them,
// sorted. Unknown ids are ignored.
func (g *Graph[T]) Affected(ids []string) []string {
	seen := make(map[string]bool)
	var mark func(id string)
	mark = func(id string) {
		if seen[id] {
			return
		}
		seen[id] = true
		for _, c := range g.children[id] {
			mark(c)
		}
	}
	for _, id := range ids {
		if _, ok := g.nodes[id]; ok {
			mark(id)
		}
	}
	return sortedKeys(seen)
}

// Upstream returns every transitive dependency of id, sorted.
func (g *Graph[T]) Upstream(id string) []string {
	seen := make(map[string]bool)
	var mark func(id string)
	mark = func(id string) {
		for _, p := range g.parents[id] {
			if !seen[p] {
				seen[p] = true
				mark(p)
			}
		}
	}
	mark(id)
	return sortedKeys(seen)
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
