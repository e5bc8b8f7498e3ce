package btre

import "hash/crc32"


//============================================= BTre Checksum


// The header and node payload checksums both use CRC-32 with the reflected
// IEEE polynomial 0xEDB88320, initial value 0xFFFFFFFF and final xor
// 0xFFFFFFFF. crc32.IEEETable is the byte-at-a-time table for exactly that
// parameterization.
var checksumTable = crc32.IEEETable

// computeChecksum
//	Compute the CRC-32 of a byte range.
func computeChecksum(data []byte) uint32 {
	return crc32.Checksum(data, checksumTable)
}

// verifyChecksum
//	Compare a stored checksum against the recomputed CRC-32 of the range.
func verifyChecksum(data []byte, stored uint32) bool {
	return computeChecksum(data) == stored
}
