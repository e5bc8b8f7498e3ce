package btre


//============================================= BTre Delete


// Delete attempts to remove a key value pair from the tree.
//	The boolean result reports whether the key existed. The request is
//	serialized through the gateway onto the execution context that owns the
//	engine.
func (btreInst *BTre) Delete(key any) (bool, error) {
	result, submitErr := btreInst.submitRequest(&gatewayRequest{ op: opDelete, key: key })
	if submitErr != nil { return false, submitErr }

	return result.(bool), nil
}

// deleteEntry
//	The delete path on the execution context. The descent fixes any child at
//	minimum occupancy before entering it, borrowing a key through the parent
//	from a sibling with keys to spare or merging with a sibling around the
//	separator, so the leaf can always give up an entry without violating
//	occupancy. An internal root left empty by a merge collapses onto its
//	only child, reducing the height. The entry itself is always removed at a
//	leaf, since values live in leaves only; a separator equal to the removed
//	key stays behind as a routing bound for its left subtree.
func (btreInst *BTre) deleteEntry(key any) (bool, error) {
	header := btreInst.header
	if header.RootOffset == 0 { return false, nil }

	node, fetchErr := btreInst.fetchNode(header.RootOffset)
	if fetchErr != nil { return false, fetchErr }

	for {
		if node.isLeaf() {
			idx := btreInst.lowerBound(node.Keys, key)
			if idx >= node.keyCount() || btreInst.compareKeys(node.Keys[idx], key) != 0 { return false, btreInst.flushBoundary() }

			node.Keys = shrinkEntries(node.Keys, idx)
			node.Values = shrinkEntries(node.Values, idx)
			header.KeyCount--
			header.TransactionId++
			header.touch()

			submitErr := btreInst.submitNode(node)
			if submitErr != nil { return false, submitErr }

			flushErr := btreInst.flushBoundary()
			if flushErr != nil { return false, flushErr }

			return true, nil
		}

		idx := btreInst.lowerBound(node.Keys, key)

		child, childErr := btreInst.fetchNode(node.Children[idx])
		if childErr != nil { return false, childErr }

		if child.keyCount() <= btreInst.minDegree - 1 {
			var fillErr error
			idx, fillErr = btreInst.fillChild(node, idx)
			if fillErr != nil { return false, fillErr }

			if node.Offset == header.RootOffset && node.keyCount() == 0 {
				collapsed, collapseErr := btreInst.collapseRoot(node)
				if collapseErr != nil { return false, collapseErr }

				node = collapsed
				continue
			}

			child, childErr = btreInst.fetchNode(node.Children[idx])
			if childErr != nil { return false, childErr }
		}

		node = child
	}
}

// fillChild
//	Bring the child at the given index above minimum occupancy before the
//	descent enters it. Prefer borrowing from the left sibling, then the
//	right; merge when neither has keys to spare. The returned index locates
//	the child to descend into after the fix, since a merge into the left
//	sibling shifts it.
func (btreInst *BTre) fillChild(parent *BTreNode, idx int) (int, error) {
	if idx > 0 {
		left, fetchErr := btreInst.fetchNode(parent.Children[idx - 1])
		if fetchErr != nil { return idx, fetchErr }

		if left.keyCount() >= btreInst.minDegree {
			borrowErr := btreInst.borrowFromLeft(parent, idx)
			return idx, borrowErr
		}
	}

	if idx < len(parent.Children) - 1 {
		right, fetchErr := btreInst.fetchNode(parent.Children[idx + 1])
		if fetchErr != nil { return idx, fetchErr }

		if right.keyCount() >= btreInst.minDegree {
			borrowErr := btreInst.borrowFromRight(parent, idx)
			return idx, borrowErr
		}
	}

	if idx == len(parent.Children) - 1 {
		mergeErr := btreInst.mergeChildren(parent, idx - 1)
		return idx - 1, mergeErr
	}

	mergeErr := btreInst.mergeChildren(parent, idx)
	return idx, mergeErr
}

// borrowFromLeft
//	Rotate one key right through the parent. For leaves the left sibling's
//	last entry moves to the front of the child and the separator becomes the
//	left sibling's new largest key. For internal nodes the separator drops
//	into the child, the left sibling's last key replaces it, and the left
//	sibling's last child moves over.
func (btreInst *BTre) borrowFromLeft(parent *BTreNode, idx int) error {
	child, childErr := btreInst.fetchNode(parent.Children[idx])
	if childErr != nil { return childErr }

	left, leftErr := btreInst.fetchNode(parent.Children[idx - 1])
	if leftErr != nil { return leftErr }

	last := left.keyCount() - 1

	if child.isLeaf() {
		child.Keys = extendEntries(child.Keys, 0, left.Keys[last])
		child.Values = extendEntries(child.Values, 0, left.Values[last])

		left.Keys = shrinkEntries(left.Keys, last)
		left.Values = shrinkEntries(left.Values, last)

		parent.Keys[idx - 1] = left.Keys[left.keyCount() - 1]
	} else {
		movedChild := left.Children[len(left.Children) - 1]

		child.Keys = extendEntries(child.Keys, 0, parent.Keys[idx - 1])
		child.Children = extendEntries(child.Children, 0, movedChild)

		parent.Keys[idx - 1] = left.Keys[last]

		left.Keys = shrinkEntries(left.Keys, last)
		left.Children = shrinkEntries(left.Children, len(left.Children) - 1)

		moved, movedErr := btreInst.fetchNode(movedChild)
		if movedErr != nil { return movedErr }

		moved.ParentOffset = child.Offset
		submitErr := btreInst.submitNode(moved)
		if submitErr != nil { return submitErr }
	}

	submitErr := btreInst.submitNode(left)
	if submitErr != nil { return submitErr }

	submitErr = btreInst.submitNode(child)
	if submitErr != nil { return submitErr }

	return btreInst.submitNode(parent)
}

// borrowFromRight
//	Rotate one key left through the parent, the mirror of borrowFromLeft.
//	For leaves the right sibling's first entry moves to the end of the child
//	and becomes the new separator, since the separator bounds the child from
//	above.
func (btreInst *BTre) borrowFromRight(parent *BTreNode, idx int) error {
	child, childErr := btreInst.fetchNode(parent.Children[idx])
	if childErr != nil { return childErr }

	right, rightErr := btreInst.fetchNode(parent.Children[idx + 1])
	if rightErr != nil { return rightErr }

	if child.isLeaf() {
		child.Keys = append(child.Keys, right.Keys[0])
		child.Values = append(child.Values, right.Values[0])

		parent.Keys[idx] = right.Keys[0]

		right.Keys = shrinkEntries(right.Keys, 0)
		right.Values = shrinkEntries(right.Values, 0)
	} else {
		movedChild := right.Children[0]

		child.Keys = append(child.Keys, parent.Keys[idx])
		child.Children = append(child.Children, movedChild)

		parent.Keys[idx] = right.Keys[0]

		right.Keys = shrinkEntries(right.Keys, 0)
		right.Children = shrinkEntries(right.Children, 0)

		moved, movedErr := btreInst.fetchNode(movedChild)
		if movedErr != nil { return movedErr }

		moved.ParentOffset = child.Offset
		submitErr := btreInst.submitNode(moved)
		if submitErr != nil { return submitErr }
	}

	submitErr := btreInst.submitNode(right)
	if submitErr != nil { return submitErr }

	submitErr = btreInst.submitNode(child)
	if submitErr != nil { return submitErr }

	return btreInst.submitNode(parent)
}

// mergeChildren
//	Merge the children on either side of separator idx into the left one and
//	free the right one's page. Leaf merges drop the separator and re-link
//	the sibling chain; internal merges pull the separator down between the
//	two key runs and reparent the moved children.
func (btreInst *BTre) mergeChildren(parent *BTreNode, idx int) error {
	left, leftErr := btreInst.fetchNode(parent.Children[idx])
	if leftErr != nil { return leftErr }

	right, rightErr := btreInst.fetchNode(parent.Children[idx + 1])
	if rightErr != nil { return rightErr }

	if left.isLeaf() {
		left.Keys = append(left.Keys, right.Keys...)
		left.Values = append(left.Values, right.Values...)

		left.RightSiblingOffset = right.RightSiblingOffset
		if left.RightSiblingOffset != 0 {
			next, nextErr := btreInst.fetchNode(left.RightSiblingOffset)
			if nextErr != nil { return nextErr }

			next.LeftSiblingOffset = left.Offset
			submitErr := btreInst.submitNode(next)
			if submitErr != nil { return submitErr }
		}
	} else {
		left.Keys = append(left.Keys, parent.Keys[idx])
		left.Keys = append(left.Keys, right.Keys...)
		left.Children = append(left.Children, right.Children...)

		reparentErr := btreInst.reparentChildren(left)
		if reparentErr != nil { return reparentErr }
	}

	parent.Keys = shrinkEntries(parent.Keys, idx)
	parent.Children = shrinkEntries(parent.Children, idx + 1)

	freeErr := btreInst.freeNodePage(right.Offset)
	if freeErr != nil { return freeErr }

	btreInst.nodePool.Put(right)

	submitErr := btreInst.submitNode(left)
	if submitErr != nil { return submitErr }

	return btreInst.submitNode(parent)
}

// collapseRoot
//	An internal root emptied by a merge hands the tree to its only child.
func (btreInst *BTre) collapseRoot(root *BTreNode) (*BTreNode, error) {
	header := btreInst.header

	newRootOffset := root.Children[0]

	freeErr := btreInst.freeNodePage(root.Offset)
	if freeErr != nil { return nil, freeErr }

	btreInst.nodePool.Put(root)

	header.RootOffset = newRootOffset
	header.Height--
	header.touch()

	newRoot, fetchErr := btreInst.fetchNode(newRootOffset)
	if fetchErr != nil { return nil, fetchErr }

	newRoot.ParentOffset = 0

	submitErr := btreInst.submitNode(newRoot)
	if submitErr != nil { return nil, submitErr }

	return newRoot, nil
}
