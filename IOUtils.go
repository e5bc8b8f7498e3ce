package btre

import "github.com/pkg/errors"


//============================================= BTre IO Utils


// fetchNode
//	Resolve a node by its page offset, serving from the buffer pool when
//	cached and decoding a fresh page read through the block device on a miss.
//	Offsets outside the addressable node region are dangling and reported as
//	corruption.
func (btreInst *BTre) fetchNode(offset uint64) (*BTreNode, error) {
	boundsErr := btreInst.checkOffsetBounds(offset)
	if boundsErr != nil { return nil, boundsErr }

	cached, found := btreInst.pool.get(offset)
	if found { return cached, nil }

	page, readErr := btreInst.device.read(offset, btreInst.pageSize)
	if readErr != nil { return nil, readErr }

	node, decodeErr := btreInst.DeserializeNode(offset, page)
	if decodeErr != nil { return nil, decodeErr }

	btreInst.pool.insert(node, false)
	return node, nil
}

// writeNode
//	Serialize a node and write its page image through the block device. This
//	is also the buffer pool writer callback used for dirty evictions and
//	flushes.
func (btreInst *BTre) writeNode(node *BTreNode) error {
	page, encErr := btreInst.SerializeNode(node)
	if encErr != nil { return encErr }

	return btreInst.device.write(node.Offset, page)
}

// submitNode
//	Hand a mutated node to the buffer pool. Under write-through the page is
//	written to the device first and cached clean; under write-back it is
//	cached dirty and written on eviction or flush.
func (btreInst *BTre) submitNode(node *BTreNode) error {
	node.touch()

	if btreInst.writeMode == WriteThrough {
		writeErr := btreInst.writeNode(node)
		if writeErr != nil { return writeErr }

		btreInst.pool.insert(node, false)
		return nil
	}

	btreInst.pool.insert(node, true)
	return nil
}

// persistHeader
//	Rewrite the 512 byte header block through the block device.
func (btreInst *BTre) persistHeader() error {
	return btreInst.device.write(0, btreInst.header.SerializeHeader())
}

// flushBoundary
//	The flush boundary reached at the end of every mutating operation. Under
//	write-through the header is rewritten immediately so completed operations
//	survive process exit; under write-back persistence is deferred to an
//	explicit flush, eviction, or close.
func (btreInst *BTre) flushBoundary() error {
	if btreInst.writeMode != WriteThrough { return nil }
	return btreInst.persistHeader()
}

// flushAll
//	Write every dirty node, rewrite the header and sync the device.
func (btreInst *BTre) flushAll() error {
	flushErr := btreInst.pool.flush()
	if flushErr != nil { return flushErr }

	persistErr := btreInst.persistHeader()
	if persistErr != nil { return persistErr }

	return btreInst.device.flush()
}

// checkOffsetBounds
//	A node offset must lie in the page region and its page must end inside
//	the addressable file size.
func (btreInst *BTre) checkOffsetBounds(offset uint64) error {
	if offset < HeaderSize { return errors.Wrapf(ErrCorruption, "dangling node offset %d", offset) }
	if offset + uint64(btreInst.pageSize) > btreInst.header.TotalFileSize { return errors.Wrapf(ErrCorruption, "node offset %d past addressable size %d", offset, btreInst.header.TotalFileSize) }

	return nil
}

// checkUsable
//	Operations are rejected once the session has failed or been closed. A
//	deferred eviction write failure recorded by the buffer pool is promoted
//	to the session failure here and surfaced on the current operation.
func (btreInst *BTre) checkUsable() error {
	if btreInst.failed != nil { return errors.Wrapf(ErrClosed, "store failed: %s", btreInst.failed.Error()) }
	if ! btreInst.opened { return ErrClosed }

	if btreInst.pool.failed != nil {
		btreInst.failed = btreInst.pool.failed
		btreInst.opened = false
		btreInst.log.Errorw("eviction write failure closed the session", "error", btreInst.pool.failed.Error())

		return errors.Wrapf(ErrClosed, "store failed: %s", btreInst.failed.Error())
	}

	return nil
}

// recordFailure
//	Corruption and io failures leave the tree unusable until re-opened.
func (btreInst *BTre) recordFailure(err error) {
	if err == nil { return }

	if errors.Is(err, ErrCorruption) || errors.Is(err, ErrIO) {
		btreInst.failed = err
		btreInst.opened = false
	}
}
