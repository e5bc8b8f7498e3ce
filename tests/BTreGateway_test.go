package btretests

import "fmt"
import "sync"
import "testing"
import "time"

import "github.com/pkg/errors"

import "github.com/sirgallo/btre"


func TestBTreGatewaySerialization(t *testing.T) {
	opts := TestOpts("testgateway", 8)
	opts.RequestTimeout = func() *time.Duration { d := 30 * time.Second; return &d }()

	btreInst, openErr := btre.Open(opts)
	if openErr != nil { t.Fatalf("error opening btre: %s", openErr.Error()) }

	defer btreInst.Remove()

	writers := 8
	perWriter := 50

	var wg sync.WaitGroup

	// the gateway serializes concurrent callers onto the single execution
	// context, so racing writers must all land without torn state
	for w := 0; w < writers; w++ {
		wg.Add(1)

		go func(w int) {
			defer wg.Done()

			for i := 0; i < perWriter; i++ {
				key := w * perWriter + i
				putErr := btreInst.Put(key, fmt.Sprintf("val%d", key))
				if putErr != nil { t.Errorf("error on btre put: %s", putErr.Error()) }
			}
		}(w)
	}

	for r := 0; r < 4; r++ {
		wg.Add(1)

		go func() {
			defer wg.Done()

			for i := 0; i < 100; i++ {
				_, getErr := btreInst.Get(i)
				if getErr != nil { t.Errorf("error on btre get: %s", getErr.Error()) }
			}
		}()
	}

	wg.Wait()

	stats, statsErr := btreInst.Stats()
	if statsErr != nil { t.Fatalf("error on btre stats: %s", statsErr.Error()) }

	expected := uint64(writers * perWriter)
	if stats.KeyCount != expected { t.Errorf("key count does not match expected: actual(%d), expected(%d)", stats.KeyCount, expected) }

	ok, verifyErr := btreInst.Verify()
	if verifyErr != nil { t.Fatalf("error on btre verify: %s", verifyErr.Error()) }
	if ! ok { t.Error("expected verify to hold after concurrent submissions") }

	kvPairs, entriesErr := btreInst.Entries(nil)
	if entriesErr != nil { t.Fatalf("error on btre entries: %s", entriesErr.Error()) }
	if len(kvPairs) != int(expected) { t.Errorf("entries length does not match expected: actual(%d), expected(%d)", len(kvPairs), expected) }
	if ! IsSorted(kvPairs) { t.Error("entries are not in sorted order") }
}

func TestBTreClosedGateway(t *testing.T) {
	btreInst, openErr := btre.Open(TestOpts("testclosedgateway", 4))
	if openErr != nil { t.Fatalf("error opening btre: %s", openErr.Error()) }

	putErr := btreInst.Put(1, "a")
	if putErr != nil { t.Fatalf("error on btre put: %s", putErr.Error()) }

	closeErr := btreInst.Close()
	if closeErr != nil { t.Fatalf("error closing btre: %s", closeErr.Error()) }

	putErr = btreInst.Put(2, "b")
	if ! errors.Is(putErr, btre.ErrClosed) { t.Errorf("expected closed error after close, got %v", putErr) }

	_, getErr := btreInst.Get(1)
	if ! errors.Is(getErr, btre.ErrClosed) { t.Errorf("expected closed error after close, got %v", getErr) }

	btre.Destroy(TestOptsNoRemove("testclosedgateway", 4).Filepath, "testclosedgateway")
}

func TestBTreCapacityError(t *testing.T) {
	btreInst, openErr := btre.Open(TestOpts("testcapacity", 4))
	if openErr != nil { t.Fatalf("error opening btre: %s", openErr.Error()) }

	defer btreInst.Remove()

	oversized := make([]byte, 5000)
	for i := range oversized { oversized[i] = 'x' }

	putErr := btreInst.Put(1, string(oversized))
	if ! errors.Is(putErr, btre.ErrCapacity) { t.Errorf("expected capacity error, got %v", putErr) }

	// a capacity failure must not mutate tree state
	val, getErr := btreInst.Get(1)
	if getErr != nil { t.Fatalf("error on btre get: %s", getErr.Error()) }
	if val != nil { t.Errorf("expected rejected entry to be absent, got %v", val) }

	stats, statsErr := btreInst.Stats()
	if statsErr != nil { t.Fatalf("error on btre stats: %s", statsErr.Error()) }
	if stats.KeyCount != 0 { t.Errorf("key count changed on rejected insert: actual(%d)", stats.KeyCount) }

	putErr = btreInst.Put(1, "fits")
	if putErr != nil { t.Errorf("error on btre put after rejection: %s", putErr.Error()) }
}
