// Package freetree implements the free-size tree (FST): an intrusive
// AVL tree keyed by a Free region's total span, using the same region
// header that the allocator core already carries (region.Parent/Left/
// Right, region.Header.Balance). No separate node allocation is ever
// performed; a region either carries tree linkage because it is Free,
// or it doesn't because it isn't (region.Kind governs that, not this
// package).
package freetree

import "github.com/disba1ancer/container-test/internal/region"

// Tree is a size-ordered AVL index of Free regions. The zero value is
// an empty tree.
type Tree struct {
	root uintptr
}

func key(addr uintptr) uint64 { return region.GetSize(addr) }

func left(addr uintptr) uintptr   { return region.Left(addr) }
func right(addr uintptr) uintptr  { return region.Right(addr) }
func parent(addr uintptr) uintptr { return region.Parent(addr) }
func bal(addr uintptr) int        { return region.Load(addr).Balance() }

func setBal(addr uintptr, b int) { region.Store(addr, region.Load(addr).WithBalance(b)) }

// Empty reports whether the tree holds no regions.
func (t *Tree) Empty() bool { return t.root == 0 }

// Root returns the tree's root region, or 0 if the tree is empty.
func (t *Tree) Root() uintptr { return t.root }

func min(node uintptr) uintptr {
	for left(node) != 0 {
		node = left(node)
	}
	return node
}

func maxNode(node uintptr) uintptr {
	for right(node) != 0 {
		node = right(node)
	}
	return node
}

// First returns the smallest region in the tree, or 0 if empty.
func (t *Tree) First() uintptr {
	if t.root == 0 {
		return 0
	}
	return min(t.root)
}

// Last returns the largest region in the tree, or 0 if empty.
func (t *Tree) Last() uintptr {
	if t.root == 0 {
		return 0
	}
	return maxNode(t.root)
}

// Next returns node's in-order successor, or 0 if node is the last
// region in the tree.
func Next(node uintptr) uintptr {
	if right(node) != 0 {
		return min(right(node))
	}
	p := parent(node)
	for p != 0 && node == right(p) {
		node = p
		p = parent(p)
	}
	return p
}

// Prev returns node's in-order predecessor, or 0 if node is the first
// region in the tree.
func Prev(node uintptr) uintptr {
	if left(node) != 0 {
		return maxNode(left(node))
	}
	p := parent(node)
	for p != 0 && node == left(p) {
		node = p
		p = parent(p)
	}
	return p
}

// LowerBound returns the smallest region whose span is >= granules, or
// 0 if every region in the tree is smaller. This is the sole read path
// the allocator core drives best-fit carving from.
func (t *Tree) LowerBound(granules uint64) uintptr {
	cur := t.root
	var best uintptr
	for cur != 0 {
		if key(cur) >= granules {
			best = cur
			cur = left(cur)
		} else {
			cur = right(cur)
		}
	}
	return best
}

func (t *Tree) replaceChild(p, oldChild, newChild uintptr) {
	switch {
	case p == 0:
		t.root = newChild
	case left(p) == oldChild:
		region.SetLeft(p, newChild)
	default:
		region.SetRight(p, newChild)
	}
}

// rotateLeft rotates x down and its right child z up; z's left subtree
// becomes x's new right subtree. Balance factors are left untouched —
// callers fix them up afterward, since the correct post-rotation
// values depend on which case (insert or delete, single or double
// rotation) drove the rotation.
func (t *Tree) rotateLeft(x uintptr) uintptr {
	z := right(x)
	t.replaceChild(parent(x), x, z)
	region.SetParent(z, parent(x))
	region.SetRight(x, left(z))
	if left(z) != 0 {
		region.SetParent(left(z), x)
	}
	region.SetLeft(z, x)
	region.SetParent(x, z)
	return z
}

func (t *Tree) rotateRight(x uintptr) uintptr {
	z := left(x)
	t.replaceChild(parent(x), x, z)
	region.SetParent(z, parent(x))
	region.SetLeft(x, right(z))
	if right(z) != 0 {
		region.SetParent(right(z), x)
	}
	region.SetRight(z, x)
	region.SetParent(x, z)
	return z
}

// rotateLeftSimple handles the right-right case: x is right-heavy and
// so is (or is balanced like) its right child z.
func (t *Tree) rotateLeftSimple(x, z uintptr) uintptr {
	zbal := bal(z)
	n := t.rotateLeft(x)
	if zbal == 0 {
		setBal(x, 1)
		setBal(z, -1)
	} else {
		setBal(x, 0)
		setBal(z, 0)
	}
	return n
}

// rotateRightSimple handles the mirror left-left case.
func (t *Tree) rotateRightSimple(x, z uintptr) uintptr {
	zbal := bal(z)
	n := t.rotateRight(x)
	if zbal == 0 {
		setBal(x, -1)
		setBal(z, 1)
	} else {
		setBal(x, 0)
		setBal(z, 0)
	}
	return n
}

// rotateRightLeft handles the right-left case: x is right-heavy but
// its right child z leans left. y, the node that ends up on top, is
// z's left child.
func (t *Tree) rotateRightLeft(x, z uintptr) uintptr {
	y := left(z)
	ybal := bal(y)
	t.rotateRight(z)
	n := t.rotateLeft(x)
	switch {
	case ybal == 0:
		setBal(x, 0)
		setBal(z, 0)
	case ybal > 0:
		setBal(x, -1)
		setBal(z, 0)
	default:
		setBal(x, 0)
		setBal(z, 1)
	}
	setBal(y, 0)
	return n
}

// rotateLeftRight handles the mirror left-right case.
func (t *Tree) rotateLeftRight(x, z uintptr) uintptr {
	y := right(z)
	ybal := bal(y)
	t.rotateLeft(z)
	n := t.rotateRight(x)
	switch {
	case ybal == 0:
		setBal(x, 0)
		setBal(z, 0)
	case ybal < 0:
		setBal(x, 1)
		setBal(z, 0)
	default:
		setBal(x, 0)
		setBal(z, -1)
	}
	setBal(y, 0)
	return n
}

// Insert adds addr, which must not already be in any tree, keyed by
// its current region span. The +2/-2 transient balance states the
// classic AVL algorithm produces mid-rotation are never stored — each
// rotation helper folds straight from the pre-rotation children's
// balance factors to the valid post-rotation ones (spec §9's two-bit
// balance field caveat).
func (t *Tree) Insert(addr uintptr) {
	region.SetLeft(addr, 0)
	region.SetRight(addr, 0)
	region.SetParent(addr, 0)
	setBal(addr, 0)

	if t.root == 0 {
		t.root = addr
		return
	}

	k := key(addr)
	cur := t.root
	var p uintptr
	goLeft := false
	for cur != 0 {
		p = cur
		if k < key(cur) {
			goLeft = true
			cur = left(cur)
		} else {
			goLeft = false
			cur = right(cur)
		}
	}
	region.SetParent(addr, p)
	if goLeft {
		region.SetLeft(p, addr)
	} else {
		region.SetRight(p, addr)
	}
	t.retraceInsert(addr)
}

// InsertHint inserts addr the same way Insert does. The hint is
// accepted for API symmetry with the erase-then-split-then-reinsert
// sequence the allocator core uses (spec §4.3's insert_hint), but a
// plain root-down descent is already O(log n) and correct regardless
// of hint quality, so no special-cased short-circuit is implemented.
func (t *Tree) InsertHint(_ uintptr, addr uintptr) {
	t.Insert(addr)
}

func (t *Tree) retraceInsert(node uintptr) {
	x := parent(node)
	for x != 0 {
		if node == right(x) {
			switch {
			case bal(x) > 0:
				z := node
				if bal(z) < 0 {
					t.rotateRightLeft(x, z)
				} else {
					t.rotateLeftSimple(x, z)
				}
				return
			case bal(x) < 0:
				setBal(x, 0)
				return
			default:
				setBal(x, 1)
				node = x
				x = parent(x)
			}
		} else {
			switch {
			case bal(x) < 0:
				z := node
				if bal(z) > 0 {
					t.rotateLeftRight(x, z)
				} else {
					t.rotateRightSimple(x, z)
				}
				return
			case bal(x) > 0:
				setBal(x, 0)
				return
			default:
				setBal(x, -1)
				node = x
				x = parent(x)
			}
		}
	}
}

// Erase removes addr from the tree. addr must currently be in the
// tree (inserted via Insert/InsertHint and not yet erased).
func (t *Tree) Erase(node uintptr) {
	if left(node) != 0 && right(node) != 0 {
		succ := min(right(node))
		succParent := parent(succ)

		if succParent != node {
			r := right(succ)
			t.replaceChild(succParent, succ, r)
			if r != 0 {
				region.SetParent(r, succParent)
			}
			region.SetRight(succ, right(node))
			region.SetParent(right(node), succ)
		}

		region.SetLeft(succ, left(node))
		region.SetParent(left(node), succ)
		setBal(succ, bal(node))

		p := parent(node)
		t.replaceChild(p, node, succ)
		region.SetParent(succ, p)

		if succParent == node {
			t.retraceDelete(succ, true)
		} else {
			t.retraceDelete(succParent, false)
		}
	} else {
		child := left(node)
		if child == 0 {
			child = right(node)
		}
		p := parent(node)
		wasRight := p != 0 && right(p) == node
		t.replaceChild(p, node, child)
		if child != 0 {
			region.SetParent(child, p)
		}
		if p != 0 {
			t.retraceDelete(p, wasRight)
		}
	}

	region.SetParent(node, 0)
	region.SetLeft(node, 0)
	region.SetRight(node, 0)
	setBal(node, 0)
}

// retraceDelete walks up from par, whose child subtree on the side
// named by wasRight has just shrunk by one level, restoring the AVL
// invariant. Unlike insert, a rotation here does not always restore
// the pre-operation height, so retracing continues past a rotation
// whenever that rotation itself shortened the subtree.
func (t *Tree) retraceDelete(par uintptr, wasRight bool) {
	for par != 0 {
		if !wasRight {
			// The left subtree shrank: par now leans further right.
			switch {
			case bal(par) > 0:
				z := right(par)
				zbal := bal(z)
				var n uintptr
				var shrunk bool
				if zbal >= 0 {
					n = t.rotateLeftSimple(par, z)
					shrunk = zbal != 0
				} else {
					n = t.rotateRightLeft(par, z)
					shrunk = true
				}
				if !shrunk {
					return
				}
				gp := parent(n)
				if gp != 0 {
					wasRight = right(gp) == n
				}
				par = gp
			case bal(par) == 0:
				setBal(par, 1)
				return
			default:
				setBal(par, 0)
				child := par
				par = parent(par)
				if par != 0 {
					wasRight = right(par) == child
				}
			}
		} else {
			// The right subtree shrank: par now leans further left.
			switch {
			case bal(par) < 0:
				z := left(par)
				zbal := bal(z)
				var n uintptr
				var shrunk bool
				if zbal <= 0 {
					n = t.rotateRightSimple(par, z)
					shrunk = zbal != 0
				} else {
					n = t.rotateLeftRight(par, z)
					shrunk = true
				}
				if !shrunk {
					return
				}
				gp := parent(n)
				if gp != 0 {
					wasRight = right(gp) == n
				}
				par = gp
			case bal(par) == 0:
				setBal(par, -1)
				return
			default:
				setBal(par, 0)
				child := par
				par = parent(par)
				if par != 0 {
					wasRight = right(par) == child
				}
			}
		}
	}
}

// Height reports the AVL height of the subtree rooted at node (0 for
// an empty subtree, i.e. node == 0). It exists for tests validating
// the |height(left)-height(right)| <= 1 invariant and is not on any
// allocator hot path.
func Height(node uintptr) int {
	if node == 0 {
		return 0
	}
	lh, rh := Height(left(node)), Height(right(node))
	if lh > rh {
		return lh + 1
	}
	return rh + 1
}
