package btre

import "path/filepath"
import "time"

import "github.com/pkg/errors"
import "github.com/sirgallo/utils"
import "go.uber.org/zap"


//============================================= BTre


// Open initializes a BTre store.
//	A new store file is created with a fresh header unless OpenExisting is
//	set, in which case the existing header is read back and validated
//	against the supplied codecs. The stored order and page size win over the
//	caller supplied values on reopen. The gateway goroutine that owns the
//	engine is started before Open returns, and every subsequent operation is
//	serialized through it.
func Open(opts BTreOpts) (*BTre, error) {
	resolved, resolveErr := resolveOpts(opts)
	if resolveErr != nil { return nil, resolveErr }

	storePath := filepath.Join(opts.Filepath, opts.FileName)

	exists := deviceExists(storePath)
	if opts.OpenExisting && ! exists { return nil, errors.Wrapf(ErrNotFound, "store file %s", storePath) }
	if ! opts.OpenExisting && exists { return nil, errors.Wrapf(ErrAlreadyExists, "store file %s", storePath) }

	device, openErr := openBlockDevice(storePath)
	if openErr != nil { return nil, openErr }

	btreInst := &BTre{
		filepath: opts.Filepath,
		fileName: opts.FileName,
		opened: true,
		log: resolved.logger,
		device: device,
		nodePool: newBTreNodePool(int64(resolved.nodePoolSize)),
		order: resolved.order,
		pageSize: resolved.pageSize,
		writeMode: resolved.writeMode,
		keyCodec: opts.KeyCodec,
		valueCodec: opts.ValueCodec,
		compareKeys: resolved.compareKeys,
		requestChan: make(chan *gatewayRequest),
		doneChan: make(chan struct{}),
		requestTimeout: resolved.requestTimeout,
	}

	initErr := btreInst.initializeHeader(opts)
	if initErr != nil {
		device.close()
		return nil, initErr
	}

	btreInst.minDegree = btreInst.order / 2
	btreInst.pool = newBufferPool(resolved.cacheCapacity, btreInst.writeNode)

	go btreInst.handleRequests()

	btreInst.log.Infow(
		"btre store opened",
		"file", storePath,
		"order", btreInst.order,
		"pageSize", btreInst.pageSize,
		"writeMode", btreInst.writeMode,
		"existing", opts.OpenExisting,
	)

	return btreInst, nil
}

// Close flushes the store and releases the execution context.
//	Under write-back this is the durability point for any mutations still
//	sitting dirty in the buffer pool.
func (btreInst *BTre) Close() error {
	_, submitErr := btreInst.submitRequest(&gatewayRequest{ op: opClose })
	return submitErr
}

// Clear removes every entry while preserving the store configuration.
//	Logically equivalent to destroying and re-creating the store file.
func (btreInst *BTre) Clear() error {
	_, submitErr := btreInst.submitRequest(&gatewayRequest{ op: opClear })
	return submitErr
}

// Stats reports tree and cache counters.
func (btreInst *BTre) Stats() (*BTreStats, error) {
	result, submitErr := btreInst.submitRequest(&gatewayRequest{ op: opStats })
	if submitErr != nil { return nil, submitErr }

	return result.(*BTreStats), nil
}

// FileSize
//	The addressable size of the store file in bytes.
func (btreInst *BTre) FileSize() (uint64, error) {
	stats, statsErr := btreInst.Stats()
	if statsErr != nil { return 0, statsErr }

	return stats.FileSize, nil
}

// Remove
//	Close the store and delete the source file.
func (btreInst *BTre) Remove() error {
	storePath := filepath.Join(btreInst.filepath, btreInst.fileName)

	closeErr := btreInst.Close()
	if closeErr != nil && ! errors.Is(closeErr, ErrClosed) { return closeErr }

	return deviceRemove(storePath)
}

// Exists reports whether a store file is present, without opening it.
func Exists(path, fileName string) bool {
	return deviceExists(filepath.Join(path, fileName))
}

// Destroy removes a store file without opening it.
func Destroy(path, fileName string) error {
	storePath := filepath.Join(path, fileName)
	if ! deviceExists(storePath) { return errors.Wrapf(ErrNotFound, "store file %s", storePath) }

	return deviceRemove(storePath)
}

// closeStore
//	The close path on the execution context. Dirty state is flushed, the
//	buffer pool is cleared and the device is released. Close after a failed
//	session skips the flush since the tree is already unusable.
func (btreInst *BTre) closeStore() error {
	if ! btreInst.opened && btreInst.failed == nil { return ErrClosed }

	if btreInst.failed == nil && btreInst.pool.failed == nil {
		flushErr := btreInst.flushAll()
		if flushErr != nil {
			btreInst.device.close()
			btreInst.opened = false
			return flushErr
		}
	}

	btreInst.pool.clear(btreInst.nodePool)
	btreInst.opened = false

	closeErr := btreInst.device.close()
	if closeErr != nil { return closeErr }

	btreInst.log.Infow("btre store closed", "file", btreInst.fileName)

	btreInst.filepath = utils.GetZero[string]()
	return nil
}

// clearTree
//	The clear path on the execution context. The file is truncated back to
//	the bare header and every counter is reset in place, preserving the
//	stored configuration.
func (btreInst *BTre) clearTree() error {
	header := btreInst.header

	btreInst.pool.clear(btreInst.nodePool)

	truncateErr := btreInst.device.truncate(HeaderSize)
	if truncateErr != nil { return truncateErr }

	header.RootOffset = 0
	header.NodeCount = 0
	header.Height = 0
	header.FreeListHead = 0
	header.TotalFileSize = HeaderSize
	header.KeyCount = 0
	header.TransactionId++
	header.touch()

	persistErr := btreInst.persistHeader()
	if persistErr != nil { return persistErr }

	btreInst.log.Infow("btre store cleared", "file", btreInst.fileName)
	return nil
}

// statsSnapshot
//	The stats path on the execution context.
func (btreInst *BTre) statsSnapshot() *BTreStats {
	header := btreInst.header

	return &BTreStats{
		NodeCount: header.NodeCount,
		Height: header.Height,
		KeyCount: header.KeyCount,
		FileSize: header.TotalFileSize,
		CacheHitRate: btreInst.pool.hitRate(),
		CachedNodes: btreInst.pool.size(),
	}
}

// initializeHeader
//	Create and persist a fresh header, or read back and validate the header
//	of an existing store. Stored codec tags must agree with the supplied
//	codecs, and the stored order and page size always win.
func (btreInst *BTre) initializeHeader(opts BTreOpts) error {
	if ! opts.OpenExisting {
		var flags uint32
		if opts.EnableTransactionLog { flags |= FlagTransactionLog }

		btreInst.header = newFileHeader(uint32(btreInst.order), uint32(btreInst.pageSize), btreInst.keyCodec, btreInst.valueCodec, flags)

		writeErr := btreInst.device.write(0, btreInst.header.SerializeHeader())
		if writeErr != nil { return writeErr }

		return btreInst.device.flush()
	}

	sheader, readErr := btreInst.device.read(0, HeaderSize)
	if readErr != nil { return readErr }

	header, decodeErr := DeserializeHeader(sheader)
	if decodeErr != nil { return decodeErr }

	if header.KeyCodecTag != btreInst.keyCodec.Tag() { return errors.Wrapf(ErrInvalidArgument, "stored key codec %s does not match supplied codec %s", header.KeyCodecTag, btreInst.keyCodec.Tag()) }
	if header.ValueCodecTag != btreInst.valueCodec.Tag() { return errors.Wrapf(ErrInvalidArgument, "stored value codec %s does not match supplied codec %s", header.ValueCodecTag, btreInst.valueCodec.Tag()) }
	if header.KeyFixedSize != uint32(btreInst.keyCodec.FixedSize()) { return errors.Wrap(ErrInvalidArgument, "stored key size does not match supplied codec") }
	if header.ValueFixedSize != uint32(btreInst.valueCodec.FixedSize()) { return errors.Wrap(ErrInvalidArgument, "stored value size does not match supplied codec") }

	btreInst.header = header
	btreInst.order = int(header.Order)
	btreInst.pageSize = int(header.NodeSize)

	return nil
}


//============================================= BTre Option Resolution


type resolvedOpts struct {
	order          int
	cacheCapacity  int
	writeMode      string
	pageSize       int
	nodePoolSize   int
	requestTimeout time.Duration
	compareKeys    BTreKeyComparator
	logger         *zap.SugaredLogger
}

// resolveOpts
//	Validate the caller config and fill defaults for the optional fields.
func resolveOpts(opts BTreOpts) (*resolvedOpts, error) {
	if opts.FileName == "" { return nil, errors.Wrap(ErrInvalidArgument, "file name is required") }
	if opts.KeyCodec == nil { return nil, errors.Wrap(ErrInvalidArgument, "key codec is required") }
	if opts.ValueCodec == nil { return nil, errors.Wrap(ErrInvalidArgument, "value codec is required") }

	resolved := &resolvedOpts{
		order: DefaultOrder,
		cacheCapacity: DefaultCacheCapacity,
		writeMode: WriteThrough,
		pageSize: DefaultPageSize,
		nodePoolSize: DefaultNodePoolSize,
		compareKeys: opts.KeyCodec.Compare,
		logger: zap.NewNop().Sugar(),
	}

	if opts.Order != nil {
		if *opts.Order < 4 { return nil, errors.Wrapf(ErrInvalidArgument, "order %d below minimum 4", *opts.Order) }
		resolved.order = *opts.Order
	}

	if opts.CacheCapacity != nil {
		if *opts.CacheCapacity < 1 { return nil, errors.Wrap(ErrInvalidArgument, "cache capacity must be positive") }
		resolved.cacheCapacity = *opts.CacheCapacity
	}

	if opts.WriteMode != nil {
		if *opts.WriteMode != WriteThrough && *opts.WriteMode != WriteBack { return nil, errors.Wrapf(ErrInvalidArgument, "unknown write mode %s", *opts.WriteMode) }
		resolved.writeMode = *opts.WriteMode
	}

	if opts.PageSize != nil {
		if *opts.PageSize < NodePayloadIdx + 2 * OffsetSize { return nil, errors.Wrapf(ErrInvalidArgument, "page size %d too small", *opts.PageSize) }
		resolved.pageSize = *opts.PageSize
	}

	if opts.NodePoolSize != nil && *opts.NodePoolSize > 0 { resolved.nodePoolSize = *opts.NodePoolSize }
	if opts.RequestTimeout != nil { resolved.requestTimeout = *opts.RequestTimeout }
	if opts.CompareKeys != nil { resolved.compareKeys = *opts.CompareKeys }
	if opts.Logger != nil { resolved.logger = opts.Logger }

	return resolved, nil
}
