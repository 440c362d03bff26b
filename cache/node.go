package cache

// node is an intrusive doubly linked list element owned by a recencyList.
// The index holds a non-owning lookup reference to the same node.
type node[K comparable, V any] struct {
	key K
	val V

	// Weight in size units counted against MaxSize.
	size int64

	// Intrusive list links: head is MRU, tail is LRU.
	prev *node[K, V]
	next *node[K, V]

	// owner is the list the node is linked into; nil when unlinked.
	owner *recencyList[K, V]
}
