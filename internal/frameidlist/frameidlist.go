// Package frameidlist is internal/gen's doubly linked list template
// instantiated with Generic=int, committed so the build never depends on
// a generate step. The generated type names were shortened by hand to
// List and Node; running `go generate ./internal/gen` overwrites this
// file with genny's own Int-prefixed names, which internal/frame does
// not use.
//
// It backs the LRU eviction policy in internal/frame: each node holds a
// frame id, and the list order is recency of use.
package frameidlist

// Node is one node of the doubly linked list.
type Node struct {
	prev  *Node
	next  *Node
	value int
}

func (n *Node) Next() *Node { return n.next }
func (n *Node) Prev() *Node { return n.prev }
func (n *Node) Value() int  { return n.value }

// List is a doubly linked list of frame ids, not concurrent-safe — every
// caller in this core already holds the interrupts-off lock before
// touching it (spec.md §5, "Shared resources").
type List struct {
	first *Node
	last  *Node
}

// PushFront inserts value at the front of the list and returns its node,
// so the caller can later MoveToFront or Remove it in O(1).
func (l *List) PushFront(value int) *Node {
	n := &Node{value: value}
	if l.first == nil {
		l.first, l.last = n, n
		return n
	}
	n.next = l.first
	l.first.prev = n
	l.first = n
	return n
}

// MoveToFront relinks n to the front of the list in O(1).
func (l *List) MoveToFront(n *Node) {
	if l.first == n {
		return
	}
	l.unlink(n)
	n.prev = nil
	n.next = l.first
	if l.first != nil {
		l.first.prev = n
	}
	l.first = n
	if l.last == nil {
		l.last = n
	}
}

// Remove unlinks n from the list.
func (l *List) Remove(n *Node) {
	l.unlink(n)
	n.prev, n.next = nil, nil
}

func (l *List) unlink(n *Node) {
	if n.prev != nil {
		n.prev.next = n.next
	} else if l.first == n {
		l.first = n.next
	}
	if n.next != nil {
		n.next.prev = n.prev
	} else if l.last == n {
		l.last = n.prev
	}
}

// Last returns the least-recently-moved-to-front node, or nil if empty.
// This is the eviction candidate under an LRU policy.
func (l *List) Last() *Node {
	return l.last
}

// Empty reports whether the list has no nodes.
func (l *List) Empty() bool {
	return l.first == nil
}
