package btre

import "github.com/pkg/errors"


//============================================= BTre Operations


// Put inserts or updates a key value pair in the tree.
//	The request is serialized through the gateway onto the execution context
//	that owns the engine. Re-inserting an existing key overwrites its value.
func (btreInst *BTre) Put(key, value any) error {
	_, submitErr := btreInst.submitRequest(&gatewayRequest{ op: opInsert, key: key, value: value })
	return submitErr
}

// Get attempts to retrieve the value for a key.
//	A lookup miss is a normal result and returns a nil pair, not an error.
func (btreInst *BTre) Get(key any) (*KeyValuePair, error) {
	result, submitErr := btreInst.submitRequest(&gatewayRequest{ op: opSearch, key: key })
	if submitErr != nil { return nil, submitErr }
	if result == nil { return nil, nil }

	return result.(*KeyValuePair), nil
}

// putEntry
//	The insert path on the execution context. A missing root is created as a
//	leaf holding the single entry. A full root is split under a new root
//	before the descent, then the descent splits any full child it is about
//	to enter, so the final leaf always has room. The entry is size checked
//	against the page before any mutation is admitted.
func (btreInst *BTre) putEntry(key, value any) error {
	key, keyErr := normalizeField(btreInst.keyCodec, key)
	if keyErr != nil { return keyErr }

	value, valueErr := normalizeField(btreInst.valueCodec, value)
	if valueErr != nil { return valueErr }

	entrySize, sizeErr := btreInst.encodedEntrySize(key, value)
	if sizeErr != nil { return sizeErr }
	if NodePayloadIdx + entrySize > btreInst.pageSize { return errors.Wrapf(ErrCapacity, "entry of %d bytes cannot fit a %d byte page", entrySize, btreInst.pageSize) }

	header := btreInst.header

	if header.RootOffset == 0 {
		rootOffset, allocErr := btreInst.allocateNodePage()
		if allocErr != nil { return allocErr }

		root := btreInst.newLeafNode(rootOffset)
		root.Keys = append(root.Keys, key)
		root.Values = append(root.Values, value)

		submitErr := btreInst.submitNode(root)
		if submitErr != nil { return submitErr }

		header.RootOffset = rootOffset
		header.Height = 1
		header.KeyCount++
		header.TransactionId++
		header.touch()

		return btreInst.flushBoundary()
	}

	root, fetchErr := btreInst.fetchNode(header.RootOffset)
	if fetchErr != nil { return fetchErr }

	if root.keyCount() == btreInst.maxKeys() {
		newRootOffset, allocErr := btreInst.allocateNodePage()
		if allocErr != nil { return allocErr }

		newRoot := btreInst.newInternalNode(newRootOffset)
		newRoot.Children = append(newRoot.Children, root.Offset)

		splitErr := btreInst.splitChild(newRoot, 0)
		if splitErr != nil { return splitErr }

		header.RootOffset = newRootOffset
		header.Height++

		root = newRoot
	}

	insertErr := btreInst.insertNonFull(root, key, value, entrySize)
	if insertErr != nil { return insertErr }

	header.TransactionId++
	header.touch()

	return btreInst.flushBoundary()
}

// insertNonFull
//	Descend from a node known to have room, splitting any full child before
//	entering it. At the leaf the key is binary searched: an exact match
//	overwrites the value in place, otherwise the entry is spliced in at its
//	sorted position.
func (btreInst *BTre) insertNonFull(node *BTreNode, key, value any, entrySize int) error {
	for {
		idx := btreInst.lowerBound(node.Keys, key)

		if node.isLeaf() {
			nodeSize, sizeErr := btreInst.encodedNodeSize(node)
			if sizeErr != nil { return sizeErr }

			if idx < node.keyCount() && btreInst.compareKeys(node.Keys[idx], key) == 0 {
				existingSize, existingErr := btreInst.encodedEntrySize(node.Keys[idx], node.Values[idx])
				if existingErr != nil { return existingErr }

				if nodeSize - existingSize + entrySize > btreInst.pageSize { return errors.Wrapf(ErrCapacity, "entry does not fit leaf at offset %d", node.Offset) }

				node.Values[idx] = value
				return btreInst.submitNode(node)
			}

			if nodeSize + entrySize > btreInst.pageSize { return errors.Wrapf(ErrCapacity, "entry does not fit leaf at offset %d", node.Offset) }

			node.Keys = extendEntries(node.Keys, idx, key)
			node.Values = extendEntries(node.Values, idx, value)
			btreInst.header.KeyCount++

			return btreInst.submitNode(node)
		}

		child, fetchErr := btreInst.fetchNode(node.Children[idx])
		if fetchErr != nil { return fetchErr }

		if child.keyCount() == btreInst.maxKeys() {
			splitErr := btreInst.splitChild(node, idx)
			if splitErr != nil { return splitErr }

			if btreInst.compareKeys(key, node.Keys[idx]) > 0 { idx++ }

			child, fetchErr = btreInst.fetchNode(node.Children[idx])
			if fetchErr != nil { return fetchErr }
		}

		node = child
	}
}

// splitChild
//	Split the full child at the given index of a non-full parent. The median
//	key rises into the parent. A leaf keeps its median entry and sends the
//	upper half to a new right sibling, re-linking the sibling chain; an
//	internal node drops the median and sends its upper keys and children to
//	the sibling, reparenting the moved children.
func (btreInst *BTre) splitChild(parent *BTreNode, idx int) error {
	child, fetchErr := btreInst.fetchNode(parent.Children[idx])
	if fetchErr != nil { return fetchErr }

	t := btreInst.minDegree
	median := child.Keys[t - 1]

	separatorSize, sizeErr := encodedFieldSize(btreInst.keyCodec, median)
	if sizeErr != nil { return sizeErr }

	parentSize, parentSizeErr := btreInst.encodedNodeSize(parent)
	if parentSizeErr != nil { return parentSizeErr }
	if parentSize + separatorSize + OffsetSize > btreInst.pageSize { return errors.Wrapf(ErrCapacity, "separator does not fit internal node at offset %d", parent.Offset) }

	siblingOffset, allocErr := btreInst.allocateNodePage()
	if allocErr != nil { return allocErr }

	var sibling *BTreNode

	if child.isLeaf() {
		sibling = btreInst.newLeafNode(siblingOffset)
		sibling.Keys = append(sibling.Keys, child.Keys[t:]...)
		sibling.Values = append(sibling.Values, child.Values[t:]...)

		child.Keys = child.Keys[:t]
		child.Values = child.Values[:t]

		sibling.RightSiblingOffset = child.RightSiblingOffset
		if sibling.RightSiblingOffset != 0 {
			next, nextErr := btreInst.fetchNode(sibling.RightSiblingOffset)
			if nextErr != nil { return nextErr }

			next.LeftSiblingOffset = siblingOffset
			submitErr := btreInst.submitNode(next)
			if submitErr != nil { return submitErr }
		}

		child.RightSiblingOffset = siblingOffset
		sibling.LeftSiblingOffset = child.Offset
	} else {
		sibling = btreInst.newInternalNode(siblingOffset)
		sibling.Keys = append(sibling.Keys, child.Keys[t:]...)
		sibling.Children = append(sibling.Children, child.Children[t:]...)

		child.Keys = child.Keys[:t - 1]
		child.Children = child.Children[:t]

		reparentErr := btreInst.reparentChildren(sibling)
		if reparentErr != nil { return reparentErr }
	}

	child.ParentOffset = parent.Offset
	sibling.ParentOffset = parent.Offset

	parent.Keys = extendEntries(parent.Keys, idx, median)
	parent.Children = extendEntries(parent.Children, idx + 1, siblingOffset)

	submitErr := btreInst.submitNode(child)
	if submitErr != nil { return submitErr }

	submitErr = btreInst.submitNode(sibling)
	if submitErr != nil { return submitErr }

	return btreInst.submitNode(parent)
}

// getEntry
//	The search path on the execution context. The descent binary searches
//	each node and routes left on separator equality, since a separator equals
//	the largest key of its left subtree. The value is only ever produced at
//	a leaf.
func (btreInst *BTre) getEntry(key any) (*KeyValuePair, error) {
	if btreInst.header.RootOffset == 0 { return nil, nil }

	node, fetchErr := btreInst.fetchNode(btreInst.header.RootOffset)
	if fetchErr != nil { return nil, fetchErr }

	for {
		idx := btreInst.lowerBound(node.Keys, key)

		if node.isLeaf() {
			if idx < node.keyCount() && btreInst.compareKeys(node.Keys[idx], key) == 0 {
				return &KeyValuePair{ Key: node.Keys[idx], Value: node.Values[idx] }, nil
			}

			return nil, nil
		}

		node, fetchErr = btreInst.fetchNode(node.Children[idx])
		if fetchErr != nil { return nil, fetchErr }
	}
}

// reparentChildren
//	Point the parent offset of every child of a node back at the node.
func (btreInst *BTre) reparentChildren(node *BTreNode) error {
	for _, childOffset := range node.Children {
		child, fetchErr := btreInst.fetchNode(childOffset)
		if fetchErr != nil { return fetchErr }

		if child.ParentOffset != node.Offset {
			child.ParentOffset = node.Offset

			submitErr := btreInst.submitNode(child)
			if submitErr != nil { return submitErr }
		}
	}

	return nil
}

// maxKeys
//	The max keys a node can hold, order - 1.
func (btreInst *BTre) maxKeys() int {
	return btreInst.order - 1
}

// lowerBound
//	Binary search for the first index whose key is >= the target.
func (btreInst *BTre) lowerBound(keys []any, key any) int {
	low, high := 0, len(keys)

	for low < high {
		mid := (low + high) / 2

		if btreInst.compareKeys(keys[mid], key) < 0 {
			low = mid + 1
		} else { high = mid }
	}

	return low
}
