package btre

import "sort"


//============================================= BTre Bulk Load


// BulkLoad replaces the tree contents with the given entries.
//	Existing data is cleared first. Unsorted input is stably sorted by key
//	before loading, and the optional progress callback is invoked after each
//	batch of inserted entries. The request is serialized through the gateway
//	onto the execution context that owns the engine.
func (btreInst *BTre) BulkLoad(kvPairs []*KeyValuePair, opts *BTreBulkLoadOpts) error {
	_, submitErr := btreInst.submitRequest(&gatewayRequest{ op: opBulkLoad, bulkPairs: kvPairs, bulkOpts: opts })
	return submitErr
}

// bulkLoadEntries
//	The load path on the execution context.
func (btreInst *BTre) bulkLoadEntries(kvPairs []*KeyValuePair, opts *BTreBulkLoadOpts) error {
	sorted := false
	batchSize := DefaultBatchSize

	var progressFn BTreProgressFn

	if opts != nil {
		sorted = opts.Sorted
		if opts.BatchSize != nil && *opts.BatchSize > 0 { batchSize = *opts.BatchSize }
		if opts.ProgressFn != nil { progressFn = *opts.ProgressFn }
	}

	clearErr := btreInst.clearTree()
	if clearErr != nil { return clearErr }

	if ! sorted {
		sort.SliceStable(kvPairs, func(i, j int) bool {
			return btreInst.compareKeys(kvPairs[i].Key, kvPairs[j].Key) < 0
		})
	}

	total := len(kvPairs)

	for idx, kvPair := range kvPairs {
		putErr := btreInst.putEntry(kvPair.Key, kvPair.Value)
		if putErr != nil { return putErr }

		loaded := idx + 1
		if progressFn != nil && (loaded % batchSize == 0 || loaded == total) { progressFn(loaded, total) }
	}

	btreInst.log.Infow("bulk load complete", "entries", total)
	return btreInst.flushBoundary()
}
