package btre


//============================================= BTre Space Allocator


// allocateNodePage
//	Hand out a page for a new node. The free list is popped first; when it is
//	empty the page is appended at the current total file size. Every page
//	shares the configured page size, so any free block is a suitable block.
func (btreInst *BTre) allocateNodePage() (uint64, error) {
	header := btreInst.header

	var offset uint64

	if header.FreeListHead != 0 {
		offset = header.FreeListHead

		nextBytes, readErr := btreInst.device.read(offset, OffsetSize)
		if readErr != nil { return 0, readErr }

		next, decErr := deserializeUint64(nextBytes)
		if decErr != nil { return 0, wrapCorruption(decErr, "free list pointer") }

		header.FreeListHead = next
	} else {
		offset = header.TotalFileSize
		header.TotalFileSize += uint64(btreInst.pageSize)
	}

	header.NodeCount++
	header.touch()

	return offset, nil
}

// freeNodePage
//	Return a page to the free list. The next free offset is written into the
//	first 8 bytes of the freed page and the page becomes the new head. Any
//	cached node at the offset is dropped from the buffer pool without a
//	write.
func (btreInst *BTre) freeNodePage(offset uint64) error {
	header := btreInst.header

	btreInst.pool.remove(offset)

	writeErr := btreInst.device.write(offset, serializeUint64(header.FreeListHead))
	if writeErr != nil { return writeErr }

	header.FreeListHead = offset
	header.NodeCount--
	header.touch()

	return nil
}
