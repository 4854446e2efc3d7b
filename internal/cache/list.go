package cache

// node is an element of the recency list. It stores its key so the oldest
// entry can be deleted from the map in O(1).
type node[K comparable] struct {
	key  K
	prev *node[K]
	next *node[K]
}

// recency is a doubly-linked list ordered from most (head) to least
// (tail) recently used. It is not safe for concurrent use.
type recency[K comparable] struct {
	head *node[K]
	tail *node[K]
	len  int
}

func (l *recency[K]) pushFront(key K) *node[K] {
	n := &node[K]{key: key}
	l.linkFront(n)
	return n
}

func (l *recency[K]) moveToFront(n *node[K]) {
	if n == l.head {
		return
	}
	l.unlink(n)
	l.linkFront(n)
}

// removeOldest unlinks the tail and returns its key.
func (l *recency[K]) removeOldest() (K, bool) {
	if l.tail == nil {
		var zero K
		return zero, false
	}
	n := l.tail
	l.unlink(n)
	return n.key, true
}

func (l *recency[K]) linkFront(n *node[K]) {
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

func (l *recency[K]) unlink(n *node[K]) {
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
	n.prev = nil
	n.next = nil
	l.len--
}
