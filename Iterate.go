package btre


//============================================= BTre Iterate


// Entries enumerates every entry in key order.
//	The enumeration walks the leaf chain from the leftmost leaf, so only leaf
//	entries are emitted; separator keys in internal nodes are routing state,
//	not data. The options allow capping the result count or transforming
//	pairs as they are collected.
func (btreInst *BTre) Entries(opts *BTreRangeOpts) ([]*KeyValuePair, error) {
	result, submitErr := btreInst.submitRequest(&gatewayRequest{ op: opEntries, rangeOpts: opts })
	if submitErr != nil { return nil, submitErr }

	return result.([]*KeyValuePair), nil
}
