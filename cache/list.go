package cache

// recencyList keeps nodes ordered from most recently used (head) to least
// recently used (tail). Every operation is O(1) and never walks the list.
//
// The list only tracks ordering; size accounting and the key index live in LRU.
type recencyList[K comparable, V any] struct {
	head *node[K, V] // MRU
	tail *node[K, V] // LRU
	len  int
}

// pushFront links n as the new head. It panics if n is already linked,
// since a node must never sit in two lists or be linked to itself.
func (l *recencyList[K, V]) pushFront(n *node[K, V]) {
	if n.owner != nil {
		panic("cache: pushFront of a node that is already linked")
	}
	n.owner = l
	n.prev = nil
	n.next = l.head
	if l.head != nil {
		l.head.prev = n
	}
	l.head = n
	if l.tail == nil {
		l.tail = n
	}
	l.len++
}

// remove unlinks n from the list. A node that is not linked into l is left
// alone and remove reports false.
func (l *recencyList[K, V]) remove(n *node[K, V]) bool {
	if n.owner != l {
		return false
	}
	if n.prev != nil {
		n.prev.next = n.next
	} else {
		l.head = n.next
	}
	if n.next != nil {
		n.next.prev = n.prev
	} else {
		l.tail = n.prev
	}
	n.prev, n.next, n.owner = nil, nil, nil
	l.len--
	return true
}

// moveToFront promotes a linked node to MRU.
func (l *recencyList[K, V]) moveToFront(n *node[K, V]) {
	if n == l.head || n.owner != l {
		return
	}
	l.remove(n)
	l.pushFront(n)
}

// back returns the LRU node, or nil when the list is empty.
func (l *recencyList[K, V]) back() *node[K, V] { return l.tail }
