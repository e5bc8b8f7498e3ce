package btre

import "bytes"
import "encoding/binary"
import "time"

import "github.com/pkg/errors"


//============================================= BTre File Header


// fileHeader is the in-memory image of the fixed 512 byte block at the head
// of the store file. Every structural change mutates the image and stamps
// ModifiedAt; the image is rewritten through the block device at the next
// flush boundary.
type fileHeader struct {
	Order          uint32
	KeyFixedSize   uint32
	ValueFixedSize uint32
	NodeSize       uint32
	RootOffset     uint64
	NodeCount      uint64
	Height         uint32
	FreeListHead   uint64
	TotalFileSize  uint64
	CreatedAt      int64
	ModifiedAt     int64
	TransactionId  uint64
	Flags          uint32
	KeyCodecTag    string
	ValueCodecTag  string
	KeyCount       uint64
}

// newFileHeader
//	Populate a header for a freshly created store file.
func newFileHeader(order, nodeSize uint32, keyCodec, valueCodec Codec, flags uint32) *fileHeader {
	now := time.Now().UnixNano()

	return &fileHeader{
		Order: order,
		KeyFixedSize: uint32(keyCodec.FixedSize()),
		ValueFixedSize: uint32(valueCodec.FixedSize()),
		NodeSize: nodeSize,
		RootOffset: 0,
		NodeCount: 0,
		Height: 0,
		FreeListHead: 0,
		TotalFileSize: HeaderSize,
		CreatedAt: now,
		ModifiedAt: now,
		TransactionId: 0,
		Flags: flags,
		KeyCodecTag: keyCodec.Tag(),
		ValueCodecTag: valueCodec.Tag(),
		KeyCount: 0,
	}
}

// SerializeHeader
//	Serialize the header into its 512 byte block, computing the checksum over
//	bytes [12, 512) last.
func (header *fileHeader) SerializeHeader() []byte {
	buf := make([]byte, HeaderSize)

	binary.LittleEndian.PutUint32(buf[HeaderMagicIdx:], MagicNumber)
	binary.LittleEndian.PutUint32(buf[HeaderVersionIdx:], FormatVersion)
	binary.LittleEndian.PutUint32(buf[HeaderOrderIdx:], header.Order)
	binary.LittleEndian.PutUint32(buf[HeaderKeyFixedIdx:], header.KeyFixedSize)
	binary.LittleEndian.PutUint32(buf[HeaderValueFixedIdx:], header.ValueFixedSize)
	binary.LittleEndian.PutUint32(buf[HeaderNodeSizeIdx:], header.NodeSize)
	binary.LittleEndian.PutUint64(buf[HeaderRootOffsetIdx:], header.RootOffset)
	binary.LittleEndian.PutUint64(buf[HeaderNodeCountIdx:], header.NodeCount)
	binary.LittleEndian.PutUint32(buf[HeaderHeightIdx:], header.Height)
	binary.LittleEndian.PutUint64(buf[HeaderFreeListIdx:], header.FreeListHead)
	binary.LittleEndian.PutUint64(buf[HeaderFileSizeIdx:], header.TotalFileSize)
	binary.LittleEndian.PutUint64(buf[HeaderCreatedAtIdx:], uint64(header.CreatedAt))
	binary.LittleEndian.PutUint64(buf[HeaderModifiedAtIdx:], uint64(header.ModifiedAt))
	binary.LittleEndian.PutUint64(buf[HeaderTransactionIdx:], header.TransactionId)
	binary.LittleEndian.PutUint32(buf[HeaderFlagsIdx:], header.Flags)

	copy(buf[HeaderKeyTagIdx:HeaderKeyTagIdx + CodecTagSize], padCodecTag(header.KeyCodecTag))
	copy(buf[HeaderValueTagIdx:HeaderValueTagIdx + CodecTagSize], padCodecTag(header.ValueCodecTag))

	binary.LittleEndian.PutUint64(buf[HeaderKeyCountIdx:], header.KeyCount)

	checksum := computeChecksum(buf[HeaderChecksumRangeStart:])
	binary.LittleEndian.PutUint32(buf[HeaderChecksumIdx:], checksum)

	return buf
}

// DeserializeHeader
//	Deserialize and validate the 512 byte header block. Magic, version and
//	checksum mismatches are corruption.
func DeserializeHeader(sheader []byte) (*fileHeader, error) {
	if len(sheader) != HeaderSize { return nil, errors.Wrap(ErrCorruption, "header block incorrect size") }

	magic := binary.LittleEndian.Uint32(sheader[HeaderMagicIdx:])
	if magic != MagicNumber { return nil, errors.Wrap(ErrCorruption, "bad magic number") }

	version := binary.LittleEndian.Uint32(sheader[HeaderVersionIdx:])
	if version != FormatVersion { return nil, errors.Wrapf(ErrCorruption, "unsupported format version %d", version) }

	storedChecksum := binary.LittleEndian.Uint32(sheader[HeaderChecksumIdx:])
	if ! verifyChecksum(sheader[HeaderChecksumRangeStart:], storedChecksum) { return nil, errors.Wrap(ErrCorruption, "header checksum mismatch") }

	header := &fileHeader{
		Order: binary.LittleEndian.Uint32(sheader[HeaderOrderIdx:]),
		KeyFixedSize: binary.LittleEndian.Uint32(sheader[HeaderKeyFixedIdx:]),
		ValueFixedSize: binary.LittleEndian.Uint32(sheader[HeaderValueFixedIdx:]),
		NodeSize: binary.LittleEndian.Uint32(sheader[HeaderNodeSizeIdx:]),
		RootOffset: binary.LittleEndian.Uint64(sheader[HeaderRootOffsetIdx:]),
		NodeCount: binary.LittleEndian.Uint64(sheader[HeaderNodeCountIdx:]),
		Height: binary.LittleEndian.Uint32(sheader[HeaderHeightIdx:]),
		FreeListHead: binary.LittleEndian.Uint64(sheader[HeaderFreeListIdx:]),
		TotalFileSize: binary.LittleEndian.Uint64(sheader[HeaderFileSizeIdx:]),
		CreatedAt: int64(binary.LittleEndian.Uint64(sheader[HeaderCreatedAtIdx:])),
		ModifiedAt: int64(binary.LittleEndian.Uint64(sheader[HeaderModifiedAtIdx:])),
		TransactionId: binary.LittleEndian.Uint64(sheader[HeaderTransactionIdx:]),
		Flags: binary.LittleEndian.Uint32(sheader[HeaderFlagsIdx:]),
		KeyCodecTag: trimCodecTag(sheader[HeaderKeyTagIdx:HeaderKeyTagIdx + CodecTagSize]),
		ValueCodecTag: trimCodecTag(sheader[HeaderValueTagIdx:HeaderValueTagIdx + CodecTagSize]),
		KeyCount: binary.LittleEndian.Uint64(sheader[HeaderKeyCountIdx:]),
	}

	if header.Order < 4 { return nil, errors.Wrapf(ErrCorruption, "impossible order %d", header.Order) }
	return header, nil
}

// touch
//	Stamp the modified time on a structural change.
func (header *fileHeader) touch() {
	header.ModifiedAt = time.Now().UnixNano()
}

// padCodecTag
//	NUL pad an ascii codec identifier to its fixed 16 byte field.
func padCodecTag(tag string) []byte {
	padded := make([]byte, CodecTagSize)
	copy(padded, tag)
	return padded
}

// trimCodecTag
//	Strip the NUL padding from a stored codec identifier.
func trimCodecTag(field []byte) string {
	return string(bytes.TrimRight(field, "\x00"))
}
