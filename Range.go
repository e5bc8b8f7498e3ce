package btre

import "github.com/pkg/errors"


//============================================= BTre Range


// Range collects the entries whose keys fall between the start and end keys.
//	Endpoint inclusion defaults to inclusive on both sides and can be toggled
//	independently through the options, along with a result limit, reverse
//	ordering, and a per pair transform. The request is serialized through
//	the gateway onto the execution context that owns the engine.
func (btreInst *BTre) Range(startKey, endKey any, opts *BTreRangeOpts) ([]*KeyValuePair, error) {
	result, submitErr := btreInst.submitRequest(&gatewayRequest{ op: opRange, start: startKey, end: endKey, rangeOpts: opts })
	if submitErr != nil { return nil, submitErr }

	return result.([]*KeyValuePair), nil
}

// rangeScan
//	The scan path on the execution context. The descent drops to the leaf
//	where the start key would live, then walks right sibling links in key
//	order until the end key is passed or the limit fills. A nil start or end
//	leaves that side of the range open, which is how full enumeration reuses
//	the scan. Reverse collection happens after the walk; with a limit the
//	cut is taken after reversing so the scan yields the largest keys first.
func (btreInst *BTre) rangeScan(startKey, endKey any, opts *BTreRangeOpts) ([]*KeyValuePair, error) {
	includeStart, includeEnd := true, true
	limit := 0
	reverse := false
	transform := func(kvPair *KeyValuePair) *KeyValuePair { return kvPair }

	if opts != nil {
		if opts.IncludeStart != nil { includeStart = *opts.IncludeStart }
		if opts.IncludeEnd != nil { includeEnd = *opts.IncludeEnd }
		if opts.Transform != nil { transform = *opts.Transform }

		limit = opts.Limit
		reverse = opts.Reverse
	}

	if startKey != nil && endKey != nil && btreInst.compareKeys(startKey, endKey) > 0 { return nil, errors.Wrap(ErrInvalidArgument, "start key is larger than end key") }

	sortedKvPairs := []*KeyValuePair{}
	if btreInst.header.RootOffset == 0 { return sortedKvPairs, nil }

	node, descendErr := btreInst.descendToLeaf(startKey)
	if descendErr != nil { return nil, descendErr }

	for node != nil {
		for idx := range node.Keys {
			if startKey != nil {
				cmp := btreInst.compareKeys(node.Keys[idx], startKey)
				if cmp < 0 || (cmp == 0 && ! includeStart) { continue }
			}

			if endKey != nil {
				cmp := btreInst.compareKeys(node.Keys[idx], endKey)
				if cmp > 0 || (cmp == 0 && ! includeEnd) { return btreInst.finishScan(sortedKvPairs, limit, reverse), nil }
			}

			sortedKvPairs = append(sortedKvPairs, transform(&KeyValuePair{ Key: node.Keys[idx], Value: node.Values[idx] }))

			if ! reverse && limit > 0 && len(sortedKvPairs) >= limit { return sortedKvPairs, nil }
		}

		if node.RightSiblingOffset == 0 { break }

		var fetchErr error
		node, fetchErr = btreInst.fetchNode(node.RightSiblingOffset)
		if fetchErr != nil { return nil, fetchErr }
	}

	return btreInst.finishScan(sortedKvPairs, limit, reverse), nil
}

// descendToLeaf
//	Drop from the root to the leaf where the key would live. A nil key
//	descends to the leftmost leaf.
func (btreInst *BTre) descendToLeaf(key any) (*BTreNode, error) {
	node, fetchErr := btreInst.fetchNode(btreInst.header.RootOffset)
	if fetchErr != nil { return nil, fetchErr }

	for ! node.isLeaf() {
		idx := 0
		if key != nil { idx = btreInst.lowerBound(node.Keys, key) }

		node, fetchErr = btreInst.fetchNode(node.Children[idx])
		if fetchErr != nil { return nil, fetchErr }
	}

	return node, nil
}

// finishScan
//	Apply reverse ordering and the post-reverse limit cut.
func (btreInst *BTre) finishScan(kvPairs []*KeyValuePair, limit int, reverse bool) []*KeyValuePair {
	if ! reverse { return kvPairs }

	for i, j := 0, len(kvPairs) - 1; i < j; i, j = i + 1, j - 1 {
		kvPairs[i], kvPairs[j] = kvPairs[j], kvPairs[i]
	}

	if limit > 0 && len(kvPairs) > limit { kvPairs = kvPairs[:limit] }
	return kvPairs
}
