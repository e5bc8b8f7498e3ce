package btre

import "encoding/binary"

import "github.com/pkg/errors"


//============================================= BTre Node Serialization


// SerializeNode
//	Serialize a node into a full page image. The 64 byte node header is laid
//	down first, the payload is encoded behind it with the key and value
//	codecs, and the payload checksum is stored back into the header. A node
//	whose encoding overflows its page is a capacity failure.
func (btreInst *BTre) SerializeNode(node *BTreNode) ([]byte, error) {
	page := make([]byte, btreInst.pageSize)

	page[NodeTypeIdx] = node.NodeType
	if node.Deleted { page[NodeDeletedIdx] = 1 }

	binary.LittleEndian.PutUint16(page[NodeKeyCountIdx:], uint16(node.keyCount()))
	binary.LittleEndian.PutUint64(page[NodeIdIdx:], node.Offset)
	binary.LittleEndian.PutUint64(page[NodeParentIdx:], node.ParentOffset)
	binary.LittleEndian.PutUint64(page[NodeLeftSiblingIdx:], node.LeftSiblingOffset)
	binary.LittleEndian.PutUint64(page[NodeRightSiblingIdx:], node.RightSiblingOffset)
	binary.LittleEndian.PutUint64(page[NodeCreatedAtIdx:], uint64(node.CreatedAt))
	binary.LittleEndian.PutUint64(page[NodeModifiedAtIdx:], uint64(node.ModifiedAt))

	payload, encErr := btreInst.encodePayload(node)
	if encErr != nil { return nil, encErr }

	if NodePayloadIdx + len(payload) > btreInst.pageSize { return nil, errors.Wrapf(ErrCapacity, "encoded node at offset %d exceeds page size %d", node.Offset, btreInst.pageSize) }

	copy(page[NodePayloadIdx:], payload)
	binary.LittleEndian.PutUint32(page[NodeChecksumIdx:], computeChecksum(payload))

	return page, nil
}

// encodePayload
//	Encode the node payload. Leaf payloads interleave framed keys and values
//	per entry. Internal payloads lead with child 0 and then alternate framed
//	separator keys with their right hand child offsets.
func (btreInst *BTre) encodePayload(node *BTreNode) ([]byte, error) {
	var payload []byte

	if node.isLeaf() {
		for idx := range node.Keys {
			keyBytes, encKeyErr := encodeField(btreInst.keyCodec, node.Keys[idx])
			if encKeyErr != nil { return nil, encKeyErr }

			valueBytes, encValErr := encodeField(btreInst.valueCodec, node.Values[idx])
			if encValErr != nil { return nil, encValErr }

			payload = append(payload, keyBytes...)
			payload = append(payload, valueBytes...)
		}

		return payload, nil
	}

	childBytes := make([]byte, OffsetSize)
	binary.LittleEndian.PutUint64(childBytes, node.Children[0])
	payload = append(payload, childBytes...)

	for idx := range node.Keys {
		keyBytes, encKeyErr := encodeField(btreInst.keyCodec, node.Keys[idx])
		if encKeyErr != nil { return nil, encKeyErr }

		payload = append(payload, keyBytes...)

		binary.LittleEndian.PutUint64(childBytes, node.Children[idx + 1])
		payload = append(payload, childBytes...)
	}

	return payload, nil
}

// DeserializeNode
//	Deserialize a page image back into a node. The payload length is derived
//	from the key count and the codec size rules while parsing, then the
//	consumed byte range is checksummed against the stored value. Any mismatch
//	or impossible field is corruption.
func (btreInst *BTre) DeserializeNode(offset uint64, page []byte) (*BTreNode, error) {
	if len(page) < NodePayloadIdx { return nil, errors.Wrapf(ErrCorruption, "truncated node page at offset %d", offset) }

	nodeType := page[NodeTypeIdx]
	if nodeType != LeafNodeType && nodeType != InternalNodeType { return nil, errors.Wrapf(ErrCorruption, "invalid node type %d at offset %d", nodeType, offset) }

	keyCount := int(binary.LittleEndian.Uint16(page[NodeKeyCountIdx:]))
	if keyCount > btreInst.order - 1 { return nil, errors.Wrapf(ErrCorruption, "impossible key count %d at offset %d", keyCount, offset) }

	node := btreInst.nodePool.Get()
	node.Offset = offset
	node.NodeType = nodeType
	node.Deleted = page[NodeDeletedIdx] != 0
	node.ParentOffset = binary.LittleEndian.Uint64(page[NodeParentIdx:])
	node.LeftSiblingOffset = binary.LittleEndian.Uint64(page[NodeLeftSiblingIdx:])
	node.RightSiblingOffset = binary.LittleEndian.Uint64(page[NodeRightSiblingIdx:])
	node.CreatedAt = int64(binary.LittleEndian.Uint64(page[NodeCreatedAtIdx:]))
	node.ModifiedAt = int64(binary.LittleEndian.Uint64(page[NodeModifiedAtIdx:]))

	payload := page[NodePayloadIdx:]
	curr := 0

	var parseErr error

	if node.isLeaf() {
		for range make([]int, keyCount) {
			var key, value any

			key, curr, parseErr = decodeField(btreInst.keyCodec, payload, curr)
			if parseErr != nil {
				btreInst.nodePool.Put(node)
				return nil, errors.Wrapf(ErrCorruption, "leaf key at offset %d: %s", offset, parseErr.Error())
			}

			value, curr, parseErr = decodeField(btreInst.valueCodec, payload, curr)
			if parseErr != nil {
				btreInst.nodePool.Put(node)
				return nil, errors.Wrapf(ErrCorruption, "leaf value at offset %d: %s", offset, parseErr.Error())
			}

			node.Keys = append(node.Keys, key)
			node.Values = append(node.Values, value)
		}
	} else {
		if curr + OffsetSize > len(payload) {
			btreInst.nodePool.Put(node)
			return nil, errors.Wrapf(ErrCorruption, "truncated child offset at offset %d", offset)
		}

		node.Children = append(node.Children, binary.LittleEndian.Uint64(payload[curr:]))
		curr += OffsetSize

		for range make([]int, keyCount) {
			var key any

			key, curr, parseErr = decodeField(btreInst.keyCodec, payload, curr)
			if parseErr != nil {
				btreInst.nodePool.Put(node)
				return nil, errors.Wrapf(ErrCorruption, "separator key at offset %d: %s", offset, parseErr.Error())
			}

			if curr + OffsetSize > len(payload) {
				btreInst.nodePool.Put(node)
				return nil, errors.Wrapf(ErrCorruption, "truncated child offset at offset %d", offset)
			}

			node.Keys = append(node.Keys, key)
			node.Children = append(node.Children, binary.LittleEndian.Uint64(payload[curr:]))
			curr += OffsetSize
		}
	}

	storedChecksum := binary.LittleEndian.Uint32(page[NodeChecksumIdx:])
	if ! verifyChecksum(payload[:curr], storedChecksum) {
		btreInst.nodePool.Put(node)
		return nil, errors.Wrapf(ErrCorruption, "node checksum mismatch at offset %d", offset)
	}

	return node, nil
}

// encodeField
//	Encode one field with its codec, framing variable length encodings with
//	the 4 byte length prefix. Fixed size encodings are validated against the
//	codec declared width.
func encodeField(codec Codec, v any) ([]byte, error) {
	encoded, encErr := codec.Encode(v)
	if encErr != nil { return nil, encErr }

	fixed := codec.FixedSize()
	if fixed != 0 {
		if len(encoded) != fixed { return nil, wrapCodec(errors.Errorf("fixed codec %s produced %d bytes, want %d", codec.Tag(), len(encoded), fixed), "encode field") }
		return encoded, nil
	}

	framed := make([]byte, LengthPrefixSize, LengthPrefixSize + len(encoded))
	binary.LittleEndian.PutUint32(framed, uint32(len(encoded)))

	return append(framed, encoded...), nil
}

// decodeField
//	Decode one field at the cursor, returning the advanced cursor.
func decodeField(codec Codec, payload []byte, curr int) (any, int, error) {
	fixed := codec.FixedSize()

	var fieldBytes []byte

	if fixed != 0 {
		if curr + fixed > len(payload) { return nil, curr, errors.New("truncated fixed field") }
		fieldBytes = payload[curr:curr + fixed]
		curr += fixed
	} else {
		if curr + LengthPrefixSize > len(payload) { return nil, curr, errors.New("truncated length prefix") }

		fieldLen := int(binary.LittleEndian.Uint32(payload[curr:]))
		curr += LengthPrefixSize

		if fieldLen < 0 || curr + fieldLen > len(payload) { return nil, curr, errors.New("field length out of range") }
		fieldBytes = payload[curr:curr + fieldLen]
		curr += fieldLen
	}

	value, decErr := codec.Decode(fieldBytes)
	if decErr != nil { return nil, curr, decErr }

	return value, curr, nil
}

// encodedFieldSize
//	The on disk size of one field including framing.
func encodedFieldSize(codec Codec, v any) (int, error) {
	size, sizeErr := codec.Size(v)
	if sizeErr != nil { return 0, sizeErr }

	if codec.FixedSize() == 0 { size += LengthPrefixSize }
	return size, nil
}

// encodedEntrySize
//	The on disk size of one leaf entry, key and value with framing.
func (btreInst *BTre) encodedEntrySize(key, value any) (int, error) {
	keySize, keyErr := encodedFieldSize(btreInst.keyCodec, key)
	if keyErr != nil { return 0, keyErr }

	valueSize, valErr := encodedFieldSize(btreInst.valueCodec, value)
	if valErr != nil { return 0, valErr }

	return keySize + valueSize, nil
}

// encodedNodeSize
//	The on disk size of a node page image including the node header.
func (btreInst *BTre) encodedNodeSize(node *BTreNode) (int, error) {
	total := NodePayloadIdx

	if node.isLeaf() {
		for idx := range node.Keys {
			entrySize, sizeErr := btreInst.encodedEntrySize(node.Keys[idx], node.Values[idx])
			if sizeErr != nil { return 0, sizeErr }

			total += entrySize
		}

		return total, nil
	}

	total += OffsetSize
	for idx := range node.Keys {
		keySize, sizeErr := encodedFieldSize(btreInst.keyCodec, node.Keys[idx])
		if sizeErr != nil { return 0, sizeErr }

		total += keySize + OffsetSize
	}

	return total, nil
}


//============================================= Helper Functions for Serialize/Deserialize primitives


func serializeUint64(in uint64) []byte {
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint64(buf, in)
	return buf
}

func deserializeUint64(data []byte) (uint64, error) {
	if len(data) != 8 { return uint64(0), errors.New("invalid data length for byte slice to uint64") }
	return binary.LittleEndian.Uint64(data), nil
}
