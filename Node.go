package btre

import "sync"
import "sync/atomic"
import "time"


//============================================= BTreNode


// BTreNode is the decoded in-memory form of one node page. Leaves hold the
// decoded keys and values in entry order; internal nodes hold separator keys
// and one more child offset than keys. Offsets are stable identifiers into
// the store file and are resolved through the buffer pool, never held as
// in-memory references, so sibling links cannot form reference cycles in the
// cache.
type BTreNode struct {
	// Offset: the byte offset of the node page, stable for the node lifetime
	Offset uint64
	// NodeType: LeafNodeType or InternalNodeType
	NodeType uint8
	// Deleted: the deleted flag of the node header, carried through encode and decode. Freeing a page does not set it; the free list pointer overwrites the first 8 bytes of the freed page instead
	Deleted bool
	// ParentOffset: the offset of the parent node, 0 for the root
	ParentOffset uint64
	// LeftSiblingOffset: previous leaf in key order, 0 at the left edge
	LeftSiblingOffset uint64
	// RightSiblingOffset: next leaf in key order, 0 at the right edge
	RightSiblingOffset uint64
	// CreatedAt: unix nanos when the node was allocated
	CreatedAt int64
	// ModifiedAt: unix nanos of the last mutation
	ModifiedAt int64
	// Keys: decoded keys in strictly increasing order
	Keys []any
	// Values: decoded values, leaf nodes only, parallel to Keys
	Values []any
	// Children: child page offsets, internal nodes only, len(Keys) + 1
	Children []uint64
}

// isLeaf
//	Whether the node stores entries rather than separators.
func (node *BTreNode) isLeaf() bool {
	return node.NodeType == LeafNodeType
}

// keyCount
//	The number of keys currently in the node.
func (node *BTreNode) keyCount() int {
	return len(node.Keys)
}

// touch
//	Stamp the modified time on mutation.
func (node *BTreNode) touch() {
	node.ModifiedAt = time.Now().UnixNano()
}


//============================================= BTre Node Pool


// BTreNodePool contains pre-allocated BTreNodes so decode heavy operations do
// not hand every node straight to the garbage collector.
type BTreNodePool struct {
	// MaxSize: the max size for the node pool
	MaxSize int64
	// Size: the current number of allocated nodes in the node pool
	Size int64
	// Pool: the pool containing pre-allocated nodes
	Pool *sync.Pool
}

// newBTreNodePool
//	Creates a new node pool for recycling nodes instead of letting garbage
//	collection handle them.
func newBTreNodePool(maxSize int64) *BTreNodePool {
	np := &BTreNodePool{ MaxSize: maxSize, Size: 0 }

	pool := &sync.Pool{
		New: func() interface {} {
			return np.resetNode(&BTreNode{})
		},
	}

	np.Pool = pool
	np.initializePool()

	return np
}

// Get
//	Attempt to get a pre-allocated node from the node pool and decrement the
//	total allocated nodes. If the pool is empty, a new node is allocated.
func (np *BTreNodePool) Get() *BTreNode {
	node := np.Pool.Get().(*BTreNode)
	if atomic.LoadInt64(&np.Size) > 0 { atomic.AddInt64(&np.Size, -1) }

	return node
}

// Put
//	Attempt to put a node back into the pool once it is no longer referenced.
//	If the pool is at max capacity, drop the node and let the garbage
//	collector take care of it.
func (np *BTreNodePool) Put(node *BTreNode) {
	if atomic.LoadInt64(&np.Size) < np.MaxSize {
		np.Pool.Put(np.resetNode(node))
		atomic.AddInt64(&np.Size, 1)
	}
}

// initializePool
//	When the store is opened, pre-fill the pool with half the max size of nodes.
func (np *BTreNodePool) initializePool() {
	for range make([]int, np.MaxSize / 2) {
		np.Pool.Put(np.resetNode(&BTreNode{}))
		atomic.AddInt64(&np.Size, 1)
	}
}

// resetNode
//	When a node is put back in the pool, reset the values.
func (np *BTreNodePool) resetNode(node *BTreNode) *BTreNode {
	node.Offset = 0
	node.NodeType = LeafNodeType
	node.Deleted = false
	node.ParentOffset = 0
	node.LeftSiblingOffset = 0
	node.RightSiblingOffset = 0
	node.CreatedAt = 0
	node.ModifiedAt = 0
	node.Keys = nil
	node.Values = nil
	node.Children = nil

	return node
}


//============================================= BTreNode Constructors


// newLeafNode
//	Creates a new leaf node holding key value entries.
func (btreInst *BTre) newLeafNode(offset uint64) *BTreNode {
	node := btreInst.nodePool.Get()
	now := time.Now().UnixNano()

	node.Offset = offset
	node.NodeType = LeafNodeType
	node.CreatedAt = now
	node.ModifiedAt = now

	return node
}

// newInternalNode
//	Creates a new internal node holding separator keys and child offsets.
func (btreInst *BTre) newInternalNode(offset uint64) *BTreNode {
	node := btreInst.nodePool.Get()
	now := time.Now().UnixNano()

	node.Offset = offset
	node.NodeType = InternalNodeType
	node.CreatedAt = now
	node.ModifiedAt = now

	return node
}
