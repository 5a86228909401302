package cache

// lruNode is an element of lruList.
type lruNode[K comparable, V any] struct {
	key        K
	value      V
	cost       int64
	prev, next *lruNode[K, V]
}

// lruList is a doubly linked list ordered from most to least recently
// used. The zero value is an empty list.
type lruList[K comparable, V any] struct {
	head, tail *lruNode[K, V]
	len        int
}

func (l *lruList[K, V]) Len() int { return l.len }

// PushFront inserts n as the most recently used node.
func (l *lruList[K, V]) PushFront(n *lruNode[K, V]) {
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

// Remove unlinks n.
func (l *lruList[K, V]) Remove(n *lruNode[K, V]) {
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
	n.prev, n.next = nil, nil
	l.len--
}

// MoveToFront marks n as most recently used.
func (l *lruList[K, V]) MoveToFront(n *lruNode[K, V]) {
	if l.head == n {
		return
	}
	l.Remove(n)
	l.PushFront(n)
}

// Back returns the least recently used node, or nil.
func (l *lruList[K, V]) Back() *lruNode[K, V] { return l.tail }

// Clear empties the list.
func (l *lruList[K, V]) Clear() {
	l.head, l.tail, l.len = nil, nil, 0
}
