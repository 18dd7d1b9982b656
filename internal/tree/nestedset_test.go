package tree

import (
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// buildNodes turns a list of parent choices into an acyclic forest: node i
// is a root when choice < 0 (or i == 0), otherwise its parent is choice % i.
func buildNodes(choices []int) []Node {
	nodes := make([]Node, len(choices))
	for i, c := range choices {
		nodes[i] = Node{ID: uuid.New(), Name: fmt.Sprintf("node-%03d", len(choices)-i)}
		if i > 0 && c >= 0 {
			parent := nodes[c%i].ID
			nodes[i].ParentID = &parent
		}
	}
	return nodes
}

// parentChain follows parent links from id upwards, nearest first
func parentChain(nodes []Node, id uuid.UUID) []uuid.UUID {
	parents := make(map[uuid.UUID]*uuid.UUID, len(nodes))
	for _, n := range nodes {
		parents[n.ID] = n.ParentID
	}
	var out []uuid.UUID
	for p := parents[id]; p != nil; p = parents[*p] {
		out = append(out, *p)
	}
	return out
}

func isAncestor(nodes []Node, ancestor, id uuid.UUID) bool {
	for _, a := range parentChain(nodes, id) {
		if a == ancestor {
			return true
		}
	}
	return false
}

// Property: bounds containment agrees with parent-link ancestry
func TestProperty_BoundsMatchParentLinks(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("y is inside x's bounds iff x is an ancestor of y", prop.ForAll(
		func(choices []int) bool {
			nodes := buildNodes(choices)
			f, err := NewForest(nodes)
			if err != nil {
				t.Logf("FAIL: NewForest: %v", err)
				return false
			}
			placements, err := f.Layout()
			if err != nil {
				t.Logf("FAIL: Layout: %v", err)
				return false
			}

			for _, x := range nodes {
				px := placements[x.ID]
				for _, y := range nodes {
					py := placements[y.ID]
					inside := px.RootID == py.RootID && px.Lft < py.Lft && py.Rght < px.Rght
					if inside != isAncestor(nodes, x.ID, y.ID) {
						t.Logf("FAIL: containment mismatch for %s / %s", x.Name, y.Name)
						return false
					}
				}
			}
			return true
		},
		gen.SliceOf(gen.IntRange(-1, 40)),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

// Property: every tree is numbered 1..2n without gaps and levels follow depth
func TestProperty_BoundsAreDenseAndLevelsMatchDepth(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("bounds per tree form the set 1..2n", prop.ForAll(
		func(choices []int) bool {
			nodes := buildNodes(choices)
			f, err := NewForest(nodes)
			if err != nil {
				return false
			}
			placements, err := f.Layout()
			if err != nil {
				return false
			}

			seen := map[uuid.UUID]map[int]bool{}
			sizes := map[uuid.UUID]int{}
			for _, n := range nodes {
				p := placements[n.ID]
				if p.Lft >= p.Rght {
					t.Logf("FAIL: lft %d >= rght %d", p.Lft, p.Rght)
					return false
				}
				if seen[p.RootID] == nil {
					seen[p.RootID] = map[int]bool{}
				}
				if seen[p.RootID][p.Lft] || seen[p.RootID][p.Rght] {
					t.Logf("FAIL: bound reused in tree %s", p.RootID)
					return false
				}
				seen[p.RootID][p.Lft] = true
				seen[p.RootID][p.Rght] = true
				sizes[p.RootID]++

				ancestors := parentChain(nodes, n.ID)
				if p.Level != len(ancestors) {
					t.Logf("FAIL: level %d, depth %d", p.Level, len(ancestors))
					return false
				}
				if (p.Rght-p.Lft-1)%2 != 0 {
					t.Logf("FAIL: odd interior width")
					return false
				}
			}

			for root, size := range sizes {
				for b := 1; b <= 2*size; b++ {
					if !seen[root][b] {
						t.Logf("FAIL: bound %d missing in tree %s", b, root)
						return false
					}
				}
			}
			return true
		},
		gen.SliceOf(gen.IntRange(-1, 40)),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestLayout_SiblingsOrderedByName(t *testing.T) {
	root := Node{ID: uuid.New(), Name: "Electronics"}
	phones := Node{ID: uuid.New(), Name: "Phones", ParentID: &root.ID}
	laptops := Node{ID: uuid.New(), Name: "Laptops", ParentID: &root.ID}

	f, err := NewForest([]Node{root, phones, laptops})
	if err != nil {
		t.Fatalf("NewForest failed: %v", err)
	}
	placements, err := f.Layout()
	if err != nil {
		t.Fatalf("Layout failed: %v", err)
	}

	expected := map[uuid.UUID]Placement{
		root.ID:    {Lft: 1, Rght: 6, Level: 0, RootID: root.ID},
		laptops.ID: {Lft: 2, Rght: 3, Level: 1, RootID: root.ID},
		phones.ID:  {Lft: 4, Rght: 5, Level: 1, RootID: root.ID},
	}
	for id, want := range expected {
		if got := placements[id]; got != want {
			t.Errorf("placement of %s = %+v, want %+v", id, got, want)
		}
	}
}

func TestLayout_DetectsCycle(t *testing.T) {
	a := Node{ID: uuid.New(), Name: "a"}
	b := Node{ID: uuid.New(), Name: "b"}
	a.ParentID = &b.ID
	b.ParentID = &a.ID
	root := Node{ID: uuid.New(), Name: "root"}

	f, err := NewForest([]Node{root, a, b})
	if err != nil {
		t.Fatalf("NewForest failed: %v", err)
	}
	_, err = f.Layout()
	if !errors.Is(err, ErrCycle) {
		t.Fatalf("expected ErrCycle, got %v", err)
	}
}

func TestNewForest_RejectsUnknownParent(t *testing.T) {
	missing := uuid.New()
	_, err := NewForest([]Node{{ID: uuid.New(), Name: "orphan", ParentID: &missing}})
	if !errors.Is(err, ErrUnknownParent) {
		t.Fatalf("expected ErrUnknownParent, got %v", err)
	}
}

func TestNewForest_RejectsDuplicateIDs(t *testing.T) {
	id := uuid.New()
	_, err := NewForest([]Node{{ID: id, Name: "a"}, {ID: id, Name: "b"}})
	if !errors.Is(err, ErrDuplicateNode) {
		t.Fatalf("expected ErrDuplicateNode, got %v", err)
	}
}
