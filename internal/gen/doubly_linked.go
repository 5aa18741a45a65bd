// Package gen holds genny generic templates shared by the core. It is
// never imported directly — `go generate` expands the Generic type into a
// concrete package (see internal/frameidlist) which is what callers use.
//
// Adapted from the teaching kernel's src/gen/doubly_linked.go.
package gen

import "github.com/cheekybits/genny/generic"

//go:generate genny -in=$GOFILE -out=../frameidlist/frameidlist.go -pkg=frameidlist gen=Generic=int

// Generic is the genny placeholder type; `gen=Generic=int` in the
// go:generate directive above instantiates it as int, since every list
// this core needs is a list of frame ids.
type Generic generic.Type

// GenericNodeDL is one node of the doubly linked list.
type GenericNodeDL struct {
	prev  *GenericNodeDL
	next  *GenericNodeDL
	value Generic
}

func (n *GenericNodeDL) Next() *GenericNodeDL { return n.next }
func (n *GenericNodeDL) Prev() *GenericNodeDL { return n.prev }
func (n *GenericNodeDL) Value() Generic       { return n.value }

// GenericDoublyLinkedList is a doubly linked list, not concurrent-safe —
// every caller in this core already holds the interrupts-off lock before
// touching it (spec.md §5, "Shared resources").
type GenericDoublyLinkedList struct {
	first *GenericNodeDL
	last  *GenericNodeDL
}

// PushFront inserts value at the front of the list and returns its node,
// so the caller can later MoveToFront or Remove it in O(1).
func (l *GenericDoublyLinkedList) PushFront(value Generic) *GenericNodeDL {
	n := &GenericNodeDL{value: value}
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
func (l *GenericDoublyLinkedList) MoveToFront(n *GenericNodeDL) {
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
func (l *GenericDoublyLinkedList) Remove(n *GenericNodeDL) {
	l.unlink(n)
	n.prev, n.next = nil, nil
}

func (l *GenericDoublyLinkedList) unlink(n *GenericNodeDL) {
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
func (l *GenericDoublyLinkedList) Last() *GenericNodeDL {
	return l.last
}

// Empty reports whether the list has no nodes.
func (l *GenericDoublyLinkedList) Empty() bool {
	return l.first == nil
}
