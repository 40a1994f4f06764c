package policy

import "github.com/dcache/edgecache/internal/kv"

// node is the intrusive doubly linked list element shared by every
// fine-grained, list-based policy (FIFO/LRU/SLRU/ARC/SIEVE/LA-Cache),
// generalizing the teacher's cache/node.go (head=MRU, tail=LRU) from a
// shard-owned, generic node[K,V] into a policy-owned, concrete node over
// kv.Key/kv.Value. metaBytes is the policy-private metadata size counted
// toward SizeForCapacity (§4.1's "internal capacity accounting").
type node struct {
	key   kv.Key
	val   kv.Value
	prev  *node
	next  *node

	metaBytes  uint32 // policy-private per-object metadata size
	extra      uint8  // policy-specific bit flags (visited/explorer/segment/...)
	lastAccess uint64 // policy-specific logical clock reading (LHD's age tracking)
}

func (n *node) bytes() uint64 {
	return uint64(n.key.Len()) + uint64(n.val.ValueSize()) + uint64(n.metaBytes)
}

// list is an intrusive MRU(head)<->LRU(tail) doubly linked list, the exact
// mechanics of the teacher's shard.go list operations (insertFront,
// moveToFront, removeNode, back), lifted out of the shard and made
// directly policy-owned since the cache wrapper no longer mediates list
// placement (see cache/wrapper.go).
type list struct {
	head, tail *node
	len        int
}

func (l *list) pushFront(n *node) {
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

func (l *list) moveToFront(n *node) {
	if n == l.head {
		return
	}
	l.detach(n)
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

// detach unlinks n and decrements len; moveToFront re-increments len
// after re-inserting n.
func (l *list) detach(n *node) {
	if n.prev != nil {
		n.prev.next = n.next
	}
	if n.next != nil {
		n.next.prev = n.prev
	}
	if l.head == n {
		l.head = n.next
	}
	if l.tail == n {
		l.tail = n.prev
	}
	n.prev, n.next = nil, nil
	l.len--
}

func (l *list) remove(n *node) { l.detach(n) }

func (l *list) back() *node { return l.tail }
func (l *list) front() *node { return l.head }
func (l *list) Len() int    { return l.len }
