// Package tree computes nested-set traversal bounds for category forests.
//
// The input is an arena of nodes with parent pointers; the output assigns
// every node a (lft, rght, level) triple and the id of its root so that
// subtree membership reduces to a numeric range check.
package tree

import (
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"
)

var (
	ErrCycle         = errors.New("category hierarchy contains a cycle")
	ErrUnknownParent = errors.New("category references a parent outside the loaded set")
	ErrDuplicateNode = errors.New("duplicate category id")
)

// Node is a single category as far as the tree layout is concerned
type Node struct {
	ID       uuid.UUID
	ParentID *uuid.UUID
	Name     string
}

// Placement is the computed position of a node
type Placement struct {
	Lft    int
	Rght   int
	Level  int
	RootID uuid.UUID
}

// Forest is an arena of nodes indexed by position with an explicit parent index
type Forest struct {
	nodes    []Node
	index    map[uuid.UUID]int
	parent   []int
	children [][]int
	roots    []int
}

// NewForest indexes nodes. Every non-nil parent must be present in nodes.
func NewForest(nodes []Node) (*Forest, error) {
	f := &Forest{
		nodes:    nodes,
		index:    make(map[uuid.UUID]int, len(nodes)),
		parent:   make([]int, len(nodes)),
		children: make([][]int, len(nodes)),
	}

	for i, n := range nodes {
		if _, dup := f.index[n.ID]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateNode, n.ID)
		}
		f.index[n.ID] = i
	}

	for i, n := range nodes {
		if n.ParentID == nil {
			f.parent[i] = -1
			f.roots = append(f.roots, i)
			continue
		}
		p, ok := f.index[*n.ParentID]
		if !ok {
			return nil, fmt.Errorf("%w: %s -> %s", ErrUnknownParent, n.ID, *n.ParentID)
		}
		f.parent[i] = p
		f.children[p] = append(f.children[p], i)
	}

	byName := func(list []int) {
		sort.Slice(list, func(a, b int) bool {
			na, nb := f.nodes[list[a]], f.nodes[list[b]]
			if na.Name != nb.Name {
				return na.Name < nb.Name
			}
			return na.ID.String() < nb.ID.String()
		})
	}
	byName(f.roots)
	for i := range f.children {
		byName(f.children[i])
	}

	return f, nil
}

// Layout assigns bounds to every node. Each root starts a new numbering at 1.
// Nodes not reachable from any root sit on a parent cycle and yield ErrCycle.
func (f *Forest) Layout() (map[uuid.UUID]Placement, error) {
	out := make(map[uuid.UUID]Placement, len(f.nodes))

	type frame struct {
		node  int
		next  int
		level int
	}

	for _, root := range f.roots {
		counter := 1
		rootID := f.nodes[root].ID
		out[rootID] = Placement{Lft: counter, Level: 0, RootID: rootID}
		stack := []frame{{node: root}}

		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			kids := f.children[top.node]
			if top.next < len(kids) {
				child := kids[top.next]
				top.next++
				counter++
				out[f.nodes[child].ID] = Placement{Lft: counter, Level: top.level + 1, RootID: rootID}
				stack = append(stack, frame{node: child, level: top.level + 1})
				continue
			}
			counter++
			p := out[f.nodes[top.node].ID]
			p.Rght = counter
			out[f.nodes[top.node].ID] = p
			stack = stack[:len(stack)-1]
		}
	}

	if len(out) != len(f.nodes) {
		for _, n := range f.nodes {
			if _, ok := out[n.ID]; !ok {
				return nil, fmt.Errorf("%w: %s", ErrCycle, n.ID)
			}
		}
	}

	return out, nil
}

// Roots returns the ids of the parentless nodes in layout order
func (f *Forest) Roots() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(f.roots))
	for _, r := range f.roots {
		ids = append(ids, f.nodes[r].ID)
	}
	return ids
}
