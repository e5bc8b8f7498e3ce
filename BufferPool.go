package btre

import "container/list"


//============================================= BTre Buffer Pool


// bufferPool is the offset keyed LRU cache of decoded nodes. Recency is
// tracked with a doubly linked list whose front is the most recently used
// entry; touching an entry moves it to the front in O(1). Each entry carries
// a dirty flag, and evicting a dirty entry hands the node to the writer
// before removal. A failed eviction write is remembered and surfaced by the
// engine on the next operation, which closes the session.
type bufferPool struct {
	capacity  int
	entries   map[uint64]*bufferPoolEntry
	order     *list.List
	writer    func(node *BTreNode) error
	hits      uint64
	misses    uint64
	evictions uint64
	failed    error
}

type bufferPoolEntry struct {
	node    *BTreNode
	element *list.Element
	dirty   bool
}

// newBufferPool
//	Creates a buffer pool with the given capacity. The writer callback
//	serializes a node and writes it through the block device, and is invoked
//	for dirty entries on eviction and on flush.
func newBufferPool(capacity int, writer func(node *BTreNode) error) *bufferPool {
	return &bufferPool{
		capacity: capacity,
		entries: make(map[uint64]*bufferPoolEntry),
		order: list.New(),
		writer: writer,
	}
}

// get
//	Look up a cached node by offset, promoting it to most recently used.
func (pool *bufferPool) get(offset uint64) (*BTreNode, bool) {
	entry, found := pool.entries[offset]
	if ! found {
		pool.misses++
		return nil, false
	}

	pool.order.MoveToFront(entry.element)
	pool.hits++

	return entry.node, true
}

// insert
//	Cache a node at its offset with the given dirty state, then evict least
//	recently used entries until capacity is honoured. Re-inserting an offset
//	updates the cached node in place; a dirty insert over a clean entry marks
//	it dirty, and a clean insert over a dirty entry keeps the dirty flag so
//	unwritten mutations are never forgotten.
func (pool *bufferPool) insert(node *BTreNode, dirty bool) {
	entry, found := pool.entries[node.Offset]
	if found {
		entry.node = node
		entry.dirty = entry.dirty || dirty
		pool.order.MoveToFront(entry.element)
	} else {
		element := pool.order.PushFront(node.Offset)
		pool.entries[node.Offset] = &bufferPoolEntry{ node: node, element: element, dirty: dirty }
	}

	for pool.capacity > 0 && pool.order.Len() > pool.capacity { pool.evict() }
}

// evict
//	Remove the least recently used entry, writing it first when dirty. A
//	write failure here is fatal to the session and is remembered for the
//	engine to surface.
func (pool *bufferPool) evict() {
	tail := pool.order.Back()
	if tail == nil { return }

	offset := tail.Value.(uint64)
	entry := pool.entries[offset]

	if entry.dirty {
		writeErr := pool.writer(entry.node)
		if writeErr != nil && pool.failed == nil { pool.failed = writeErr }
	}

	pool.order.Remove(tail)
	delete(pool.entries, offset)
	pool.evictions++
}

// markDirty
//	Flag an already cached node as holding unwritten mutations.
func (pool *bufferPool) markDirty(offset uint64) {
	entry, found := pool.entries[offset]
	if found { entry.dirty = true }
}

// remove
//	Drop an entry without writing it, used when its page is freed.
func (pool *bufferPool) remove(offset uint64) {
	entry, found := pool.entries[offset]
	if ! found { return }

	pool.order.Remove(entry.element)
	delete(pool.entries, offset)
}

// flush
//	Write every dirty entry and mark it clean. Entries are walked from least
//	to most recently used so the oldest mutations reach the device first.
func (pool *bufferPool) flush() error {
	for element := pool.order.Back(); element != nil; element = element.Prev() {
		entry := pool.entries[element.Value.(uint64)]
		if ! entry.dirty { continue }

		writeErr := pool.writer(entry.node)
		if writeErr != nil { return writeErr }

		entry.dirty = false
	}

	return nil
}

// clear
//	Drop every entry, recycling the cached nodes through the node pool.
func (pool *bufferPool) clear(np *BTreNodePool) {
	for _, entry := range pool.entries { np.Put(entry.node) }

	pool.entries = make(map[uint64]*bufferPoolEntry)
	pool.order.Init()
}

// size
//	The number of cached nodes.
func (pool *bufferPool) size() int {
	return pool.order.Len()
}

// hitRate
//	hits / (hits + misses), 0 before any lookup.
func (pool *bufferPool) hitRate() float64 {
	total := pool.hits + pool.misses
	if total == 0 { return 0 }

	return float64(pool.hits) / float64(total)
}
