package btre

import "time"

import "go.uber.org/zap"


// BTreOpts initialize the BTre store
type BTreOpts struct {
	// Filepath: the path to the directory containing the store file
	Filepath string
	// FileName: the name of the store file
	FileName string
	// KeyCodec: the codec used to encode/decode/compare keys
	KeyCodec Codec
	// ValueCodec: the codec used to encode/decode values
	ValueCodec Codec
	// OpenExisting: open an already initialized store file instead of creating a new one
	OpenExisting bool
	// Order: the branching factor of the tree, which is the max number of children per node
	Order *int
	// CacheCapacity: the max number of nodes held in the buffer pool
	CacheCapacity *int
	// WriteMode: the buffer pool policy, either WriteThrough or WriteBack
	WriteMode *string
	// PageSize: the size in bytes of a single node page
	PageSize *int
	// NodePoolSize: the max size of the pool of recycled in-memory nodes
	NodePoolSize *int
	// EnableTransactionLog: reserved flag persisted in the header, no recovery protocol is attached to it
	EnableTransactionLog bool
	// CompareKeys: an override for the total order over keys. The codec natural order is used when nil
	CompareKeys *BTreKeyComparator
	// RequestTimeout: an optional timeout applied to every request submitted through the gateway
	RequestTimeout *time.Duration
	// Logger: an optional structured logger. A no-op logger is used when nil
	Logger *zap.SugaredLogger
}

// BTreRangeOpts options for Range and Entries operations
type BTreRangeOpts struct {
	// IncludeStart: include entries equal to the start key. Defaults to true when nil
	IncludeStart *bool
	// IncludeEnd: include entries equal to the end key. Defaults to true when nil
	IncludeEnd *bool
	// Limit: the max number of results returned. 0 means unbounded
	Limit int
	// Reverse: return results in descending key order
	Reverse bool
	// Transform: an optional transform applied to each key value pair as it is collected
	Transform *BTreOpTransform
}

// BTreBulkLoadOpts options for the BulkLoad operation
type BTreBulkLoadOpts struct {
	// Sorted: the input is already sorted by key. When false the input is stably sorted first
	Sorted bool
	// BatchSize: the number of entries between progress callback invocations
	BatchSize *int
	// ProgressFn: an optional callback invoked after each batch of inserted entries
	ProgressFn *BTreProgressFn
}

// BTreStats a point in time snapshot of tree and cache counters
type BTreStats struct {
	// NodeCount: the number of live nodes reachable from the root
	NodeCount uint64
	// Height: the current height of the tree
	Height uint32
	// KeyCount: the number of key value pairs in the tree
	KeyCount uint64
	// FileSize: the addressable size of the store file in bytes
	FileSize uint64
	// CacheHitRate: hits / (hits + misses) for the buffer pool
	CacheHitRate float64
	// CachedNodes: the number of nodes currently held in the buffer pool
	CachedNodes int
}

// KeyValuePair a decoded key and value returned from read operations
type KeyValuePair struct {
	// Key: the decoded key
	Key any
	// Value: the decoded value
	Value any
}

// BTre contains the block device, header state and buffer pool, as well as the gateway onto the single execution context
type BTre struct {
	filepath string
	fileName string
	opened   bool
	failed   error
	log      *zap.SugaredLogger

	device   *blockDevice
	header   *fileHeader
	pool     *bufferPool
	nodePool *BTreNodePool

	order     int
	minDegree int
	pageSize  int
	writeMode string

	keyCodec    Codec
	valueCodec  Codec
	compareKeys BTreKeyComparator

	requestChan    chan *gatewayRequest
	doneChan       chan struct{}
	requestTimeout time.Duration
}

type BTreKeyComparator = func(a, b any) int

type BTreOpTransform = func(kvPair *KeyValuePair) *KeyValuePair

type BTreProgressFn = func(loaded, total int)


const (
	// Magic number at the head of every store file ("BTRE")
	MagicNumber = uint32(0x42545245)
	// Current on disk format version
	FormatVersion = uint32(1)
	// Size of the file header block
	HeaderSize = 512
	// Size of the per node header
	NodeHeaderSize = 64
	// First byte covered by the header checksum
	HeaderChecksumRangeStart = 12
	// Leaf node type marker
	LeafNodeType = uint8(1)
	// Internal node type marker
	InternalNodeType = uint8(2)
	// OffsetSize for uint64 fields in serialized nodes
	OffsetSize = 8
	// Length prefix size framing variable length fields
	LengthPrefixSize = 4
	// Size of the codec tag fields in the header
	CodecTagSize = 16
	// Flag bit reserved for the transaction log
	FlagTransactionLog = uint32(1)
)

const (
	// Default branching factor
	DefaultOrder = 128
	// Default buffer pool capacity in nodes
	DefaultCacheCapacity = 1000
	// Default node page size in bytes
	DefaultPageSize = 4096
	// Default recycled node pool size
	DefaultNodePoolSize = 1000
	// Default bulk load progress batch size
	DefaultBatchSize = 1000
	// WriteThrough policy: puts write to the device first and cache clean
	WriteThrough = "write-through"
	// WriteBack policy: puts cache dirty, writes happen on eviction and flush
	WriteBack = "write-back"
)

const (
	// Index of Magic in the serialized header
	HeaderMagicIdx = 0
	// Index of Version in the serialized header
	HeaderVersionIdx = 4
	// Index of Checksum in the serialized header
	HeaderChecksumIdx = 8
	// Index of Order in the serialized header
	HeaderOrderIdx = 12
	// Index of KeyFixedSize in the serialized header
	HeaderKeyFixedIdx = 16
	// Index of ValueFixedSize in the serialized header
	HeaderValueFixedIdx = 20
	// Index of NodeSize in the serialized header
	HeaderNodeSizeIdx = 24
	// Index of RootOffset in the serialized header
	HeaderRootOffsetIdx = 28
	// Index of NodeCount in the serialized header
	HeaderNodeCountIdx = 36
	// Index of Height in the serialized header
	HeaderHeightIdx = 44
	// Index of FreeListHead in the serialized header
	HeaderFreeListIdx = 48
	// Index of TotalFileSize in the serialized header
	HeaderFileSizeIdx = 56
	// Index of CreatedAt in the serialized header
	HeaderCreatedAtIdx = 64
	// Index of ModifiedAt in the serialized header
	HeaderModifiedAtIdx = 72
	// Index of TransactionId in the serialized header
	HeaderTransactionIdx = 80
	// Index of Flags in the serialized header
	HeaderFlagsIdx = 88
	// Index of KeyCodecTag in the serialized header
	HeaderKeyTagIdx = 92
	// Index of ValueCodecTag in the serialized header
	HeaderValueTagIdx = 108
	// Index of KeyCount in the reserved region of the serialized header
	HeaderKeyCountIdx = 124
)

const (
	// Index of Type in a serialized node
	NodeTypeIdx = 0
	// Index of the Deleted flag in a serialized node
	NodeDeletedIdx = 1
	// Index of KeyCount in a serialized node
	NodeKeyCountIdx = 2
	// Index of the payload Checksum in a serialized node
	NodeChecksumIdx = 4
	// Index of NodeId in a serialized node
	NodeIdIdx = 8
	// Index of ParentOffset in a serialized node
	NodeParentIdx = 16
	// Index of LeftSiblingOffset in a serialized node
	NodeLeftSiblingIdx = 24
	// Index of RightSiblingOffset in a serialized node
	NodeRightSiblingIdx = 32
	// Index of CreatedAt in a serialized node
	NodeCreatedAtIdx = 40
	// Index of ModifiedAt in a serialized node
	NodeModifiedAtIdx = 48
	// Index of the payload in a serialized node
	NodePayloadIdx = 64
)

/*
	Layout explained:

	Header (512 bytes at offset 0, little-endian):
		0 Magic - 4 bytes ("BTRE")
		4 Version - 4 bytes
		8 Checksum - 4 bytes, crc-32 over bytes [12, 512)
		12 Order - 4 bytes
		16 KeyFixedSize - 4 bytes, 0 when the key codec is variable length
		20 ValueFixedSize - 4 bytes, 0 when the value codec is variable length
		24 NodeSize - 4 bytes, the page size shared by every node
		28 RootOffset - 8 bytes, 0 when the root has not been created
		36 NodeCount - 8 bytes
		44 Height - 4 bytes
		48 FreeListHead - 8 bytes, 0 when the free list is empty
		56 TotalFileSize - 8 bytes
		64 CreatedAt - 8 bytes, unix nanos
		72 ModifiedAt - 8 bytes, unix nanos
		80 TransactionId - 8 bytes
		88 Flags - 4 bytes
		92 KeyCodecTag - 16 bytes, NUL padded ascii
		108 ValueCodecTag - 16 bytes, NUL padded ascii
		124 KeyCount - 8 bytes, stored in the reserved region
		132+ reserved, zero

	Node (one page per node, 64 byte header then payload):
		0 Type - 1 byte, leaf or internal
		1 Deleted - 1 byte
		2 KeyCount - 2 bytes
		4 Checksum - 4 bytes, crc-32 over the payload only
		8 NodeId - 8 bytes
		16 ParentOffset - 8 bytes
		24 LeftSiblingOffset - 8 bytes
		32 RightSiblingOffset - 8 bytes
		40 CreatedAt - 8 bytes
		48 ModifiedAt - 8 bytes
		56 reserved - 8 bytes
		64 Payload -->
			leaf: for each entry, the framed key bytes then the framed value bytes
			internal: child 0 offset - 8 bytes, then for each key the framed key bytes and the right child offset

	Variable length fields are framed with a 4 byte little-endian length prefix.
	Fixed size fields are written raw. A freed page stores the next free list
	offset in its first 8 bytes.
*/
