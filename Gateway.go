package btre

import "time"

import "github.com/pkg/errors"
import "github.com/segmentio/ksuid"


//============================================= BTre Request Gateway


// The gateway serializes every operation onto the single execution context
// that owns the engine. Callers build a request, receive a correlation id,
// and await the reply on a buffered channel so the engine never blocks
// producing it. Requests are processed in FIFO order of arrival, one at a
// time, so operations are linearizable and their effects become visible in
// submission order. A request timeout rejects the caller's reply but never
// cancels engine work; the operation completes and the next request observes
// the completed state.

type gatewayOp int

const (
	opInsert gatewayOp = iota
	opSearch
	opDelete
	opRange
	opEntries
	opClear
	opStats
	opBulkLoad
	opVerify
	opClose
)

// String
//	The operation name used in timeout and error messages.
func (op gatewayOp) String() string {
	switch op {
		case opInsert:
			return "insert"
		case opSearch:
			return "search"
		case opDelete:
			return "delete"
		case opRange:
			return "range"
		case opEntries:
			return "entries"
		case opClear:
			return "clear"
		case opStats:
			return "stats"
		case opBulkLoad:
			return "bulk_load"
		case opVerify:
			return "verify"
		case opClose:
			return "close"
		default:
			return "unknown"
	}
}

// gatewayRequest carries one operation and its inputs onto the execution context.
type gatewayRequest struct {
	id        string
	op        gatewayOp
	key       any
	value     any
	start     any
	end       any
	rangeOpts *BTreRangeOpts
	bulkPairs []*KeyValuePair
	bulkOpts  *BTreBulkLoadOpts
	replyChan chan *gatewayResponse
}

// gatewayResponse carries the result or typed error back to the caller.
type gatewayResponse struct {
	id     string
	result any
	err    error
}

// submitRequest
//	Assign the correlation id, enqueue the request and await the reply. When
//	a request timeout is configured the caller gives up waiting after it
//	elapses, but the engine still completes the operation.
func (btreInst *BTre) submitRequest(request *gatewayRequest) (any, error) {
	request.id = ksuid.New().String()
	request.replyChan = make(chan *gatewayResponse, 1)

	select {
		case btreInst.requestChan <- request:
		case <-btreInst.doneChan:
			return nil, errors.Wrapf(ErrClosed, "request %s rejected", request.op.String())
	}

	if btreInst.requestTimeout > 0 {
		timer := time.NewTimer(btreInst.requestTimeout)
		defer timer.Stop()

		select {
			case response := <-request.replyChan:
				return response.result, response.err
			case <-timer.C:
				return nil, errors.Wrapf(ErrTimeout, "operation %s with id %s", request.op.String(), request.id)
		}
	}

	response := <-request.replyChan
	return response.result, response.err
}

// handleRequests
//	The request loop on the execution context. A request begins only after
//	the previous request's reply has been produced. Close handles its reply,
//	drains any queued requests with a closed error, and releases the loop.
func (btreInst *BTre) handleRequests() {
	for request := range btreInst.requestChan {
		response := btreInst.processRequest(request)
		request.replyChan <- response

		if request.op == opClose {
			btreInst.drainRequests()
			return
		}
	}
}

// drainRequests
//	Reject requests that raced the close, then signal completion so later
//	submissions fail fast instead of enqueueing forever.
func (btreInst *BTre) drainRequests() {
	for {
		select {
			case request := <-btreInst.requestChan:
				request.replyChan <- &gatewayResponse{ id: request.id, err: ErrClosed }
			default:
				close(btreInst.doneChan)
				return
		}
	}
}

// processRequest
//	Dispatch one operation against the engine. Corruption and io failures
//	recorded here leave the tree closed until re-opened.
func (btreInst *BTre) processRequest(request *gatewayRequest) *gatewayResponse {
	if request.op == opClose {
		return &gatewayResponse{ id: request.id, err: btreInst.closeStore() }
	}

	usableErr := btreInst.checkUsable()
	if usableErr != nil { return &gatewayResponse{ id: request.id, err: usableErr } }

	var result any
	var opErr error

	switch request.op {
		case opInsert:
			opErr = btreInst.putEntry(request.key, request.value)
		case opSearch:
			result, opErr = btreInst.getEntry(request.key)
		case opDelete:
			result, opErr = btreInst.deleteEntry(request.key)
		case opRange:
			result, opErr = btreInst.rangeScan(request.start, request.end, request.rangeOpts)
		case opEntries:
			result, opErr = btreInst.rangeScan(nil, nil, request.rangeOpts)
		case opClear:
			opErr = btreInst.clearTree()
		case opStats:
			result = btreInst.statsSnapshot()
		case opBulkLoad:
			opErr = btreInst.bulkLoadEntries(request.bulkPairs, request.bulkOpts)
		case opVerify:
			result = btreInst.verifyTree()
		default:
			opErr = errors.Wrapf(ErrInvalidArgument, "unknown operation %d", request.op)
	}

	btreInst.recordFailure(opErr)
	return &gatewayResponse{ id: request.id, result: result, err: opErr }
}
