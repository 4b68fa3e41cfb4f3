package voronoi

// rbNode is a red-black tree node that also threads its in-order
// neighbours, so the beachline can be walked left and right in O(1).
type rbNode[T any] struct {
	value T

	left, right, parent *rbNode[T]
	prev, next          *rbNode[T]
	red                 bool
}

type rbTree[T any] struct {
	root *rbNode[T]
}

func isRed[T any](n *rbNode[T]) bool {
	return n != nil && n.red
}

func first[T any](n *rbNode[T]) *rbNode[T] {
	for n.left != nil {
		n = n.left
	}
	return n
}

// insertSuccessor inserts value immediately after node in order. A nil node
// inserts value as the first element.
func (t *rbTree[T]) insertSuccessor(node *rbNode[T], value T) *rbNode[T] {
	s := &rbNode[T]{value: value, red: true}

	var parent *rbNode[T]
	switch {
	case node != nil:
		s.prev = node
		s.next = node.next
		if node.next != nil {
			node.next.prev = s
		}
		node.next = s
		if node.right != nil {
			node = first(node.right)
			node.left = s
		} else {
			node.right = s
		}
		parent = node
	case t.root != nil:
		node = first(t.root)
		s.next = node
		node.prev = s
		node.left = s
		parent = node
	default:
		t.root = s
	}
	s.parent = parent

	node = s
	for parent != nil && parent.red {
		grandpa := parent.parent
		if parent == grandpa.left {
			uncle := grandpa.right
			if isRed(uncle) {
				parent.red, uncle.red = false, false
				grandpa.red = true
				node = grandpa
			} else {
				if node == parent.right {
					t.rotateLeft(parent)
					node = parent
					parent = node.parent
				}
				parent.red = false
				grandpa.red = true
				t.rotateRight(grandpa)
			}
		} else {
			uncle := grandpa.left
			if isRed(uncle) {
				parent.red, uncle.red = false, false
				grandpa.red = true
				node = grandpa
			} else {
				if node == parent.left {
					t.rotateRight(parent)
					node = parent
					parent = node.parent
				}
				parent.red = false
				grandpa.red = true
				t.rotateLeft(grandpa)
			}
		}
		parent = node.parent
	}
	t.root.red = false
	return s
}

func (t *rbTree[T]) remove(node *rbNode[T]) {
	if node.next != nil {
		node.next.prev = node.prev
	}
	if node.prev != nil {
		node.prev.next = node.next
	}
	node.next, node.prev = nil, nil

	parent, left, right := node.parent, node.left, node.right
	var next *rbNode[T]
	switch {
	case left == nil:
		next = right
	case right == nil:
		next = left
	default:
		next = first(right)
	}

	if parent != nil {
		if parent.left == node {
			parent.left = next
		} else {
			parent.right = next
		}
	} else {
		t.root = next
	}

	var wasRed bool
	if left != nil && right != nil {
		wasRed = next.red
		next.red = node.red
		next.left = left
		left.parent = next
		if next != right {
			parent = next.parent
			next.parent = node.parent
			node = next.right
			parent.left = node
			next.right = right
			right.parent = next
		} else {
			next.parent = parent
			parent = next
			node = next.right
		}
	} else {
		wasRed = node.red
		node = next
	}
	if node != nil {
		node.parent = parent
	}
	if wasRed {
		return
	}
	if isRed(node) {
		node.red = false
		return
	}

	for {
		if node == t.root {
			break
		}
		var sibling *rbNode[T]
		if node == parent.left {
			sibling = parent.right
			if sibling.red {
				sibling.red = false
				parent.red = true
				t.rotateLeft(parent)
				sibling = parent.right
			}
			if isRed(sibling.left) || isRed(sibling.right) {
				if !isRed(sibling.right) {
					sibling.left.red = false
					sibling.red = true
					t.rotateRight(sibling)
					sibling = parent.right
				}
				sibling.red = parent.red
				parent.red = false
				sibling.right.red = false
				t.rotateLeft(parent)
				node = t.root
				break
			}
		} else {
			sibling = parent.left
			if sibling.red {
				sibling.red = false
				parent.red = true
				t.rotateRight(parent)
				sibling = parent.left
			}
			if isRed(sibling.left) || isRed(sibling.right) {
				if !isRed(sibling.left) {
					sibling.right.red = false
					sibling.red = true
					t.rotateLeft(sibling)
					sibling = parent.left
				}
				sibling.red = parent.red
				parent.red = false
				sibling.left.red = false
				t.rotateRight(parent)
				node = t.root
				break
			}
		}
		sibling.red = true
		node = parent
		parent = parent.parent
		if node.red {
			break
		}
	}
	if node != nil {
		node.red = false
	}
}

func (t *rbTree[T]) rotateLeft(p *rbNode[T]) {
	q := p.right
	parent := p.parent
	if parent != nil {
		if parent.left == p {
			parent.left = q
		} else {
			parent.right = q
		}
	} else {
		t.root = q
	}
	q.parent = parent
	p.parent = q
	p.right = q.left
	if p.right != nil {
		p.right.parent = p
	}
	q.left = p
}

func (t *rbTree[T]) rotateRight(p *rbNode[T]) {
	q := p.left
	parent := p.parent
	if parent != nil {
		if parent.left == p {
			parent.left = q
		} else {
			parent.right = q
		}
	} else {
		t.root = q
	}
	q.parent = parent
	p.parent = q
	p.left = q.right
	if p.left != nil {
		p.left.parent = p
	}
	q.right = p
}
