package btretests

import "fmt"
import "math"
import "testing"

import "github.com/sirgallo/btre"


func TestBTreSplitCascade(t *testing.T) {
	order := 4
	total := order * order + 1

	btreInst, openErr := btre.Open(TestOpts("testsplitcascade", order))
	if openErr != nil { t.Fatalf("error opening btre: %s", openErr.Error()) }

	defer btreInst.Remove()

	var lastHeight uint32

	for i := 1; i <= total; i++ {
		putErr := btreInst.Put(i, fmt.Sprintf("val%d", i))
		if putErr != nil { t.Fatalf("error on btre put: %s", putErr.Error()) }

		ok, verifyErr := btreInst.Verify()
		if verifyErr != nil { t.Fatalf("error on btre verify: %s", verifyErr.Error()) }
		if ! ok { t.Fatalf("verify failed after inserting %d ascending keys", i) }

		stats, statsErr := btreInst.Stats()
		if statsErr != nil { t.Fatalf("error on btre stats: %s", statsErr.Error()) }

		if stats.Height < lastHeight { t.Fatalf("height decreased during ascending inserts: %d -> %d", lastHeight, stats.Height) }
		lastHeight = stats.Height
	}

	stats, statsErr := btreInst.Stats()
	if statsErr != nil { t.Fatalf("error on btre stats: %s", statsErr.Error()) }

	if stats.KeyCount != uint64(total) { t.Errorf("key count does not match expected: actual(%d), expected(%d)", stats.KeyCount, total) }

	// P8: height <= log_ceil(order/2)(n + 1) + 1
	bound := math.Log(float64(total + 1)) / math.Log(float64((order + 1) / 2)) + 1
	t.Logf("height: %d, bound: %f", stats.Height, bound)
	if float64(stats.Height) > bound { t.Errorf("height %d exceeds bound %f", stats.Height, bound) }

	kvPairs, entriesErr := btreInst.Entries(nil)
	if entriesErr != nil { t.Fatalf("error on btre entries: %s", entriesErr.Error()) }

	if len(kvPairs) != total { t.Errorf("entries length does not match expected: actual(%d), expected(%d)", len(kvPairs), total) }
	if ! IsSorted(kvPairs) { t.Error("entries are not in sorted order") }
}

func TestBTreMergeCascade(t *testing.T) {
	order := 4
	total := order * order + 1

	btreInst, openErr := btre.Open(TestOpts("testmergecascade", order))
	if openErr != nil { t.Fatalf("error opening btre: %s", openErr.Error()) }

	defer btreInst.Remove()

	for i := 1; i <= total; i++ {
		putErr := btreInst.Put(i, fmt.Sprintf("val%d", i))
		if putErr != nil { t.Fatalf("error on btre put: %s", putErr.Error()) }
	}

	for i := total; i >= 1; i-- {
		removed, delErr := btreInst.Delete(i)
		if delErr != nil { t.Fatalf("error on btre delete: %s", delErr.Error()) }
		if ! removed { t.Fatalf("expected delete of key %d to return true", i) }

		ok, verifyErr := btreInst.Verify()
		if verifyErr != nil { t.Fatalf("error on btre verify: %s", verifyErr.Error()) }
		if ! ok { t.Fatalf("verify failed after deleting down to %d keys", i - 1) }
	}

	stats, statsErr := btreInst.Stats()
	if statsErr != nil { t.Fatalf("error on btre stats: %s", statsErr.Error()) }

	if stats.KeyCount != 0 { t.Errorf("key count does not match expected: actual(%d), expected(%d)", stats.KeyCount, 0) }
	if stats.Height != 1 { t.Errorf("expected tree to return to height 1 with an empty root, got height %d", stats.Height) }
	if stats.NodeCount != 1 { t.Errorf("expected a single empty root node, got %d nodes", stats.NodeCount) }

	kvPairs, entriesErr := btreInst.Entries(nil)
	if entriesErr != nil { t.Fatalf("error on btre entries: %s", entriesErr.Error()) }
	if len(kvPairs) != 0 { t.Errorf("expected no entries after merge cascade, got %d", len(kvPairs)) }
}

func TestBTreRandomChurn(t *testing.T) {
	order := 8
	btreInst, openErr := btre.Open(TestOpts("testchurn", order))
	if openErr != nil { t.Fatalf("error opening btre: %s", openErr.Error()) }

	defer btreInst.Remove()

	inserted := make(map[int32]string)

	for i := 0; i < 500; i++ {
		key := int32((i * 7919) % 1000)
		value := fmt.Sprintf("val%d", i)

		putErr := btreInst.Put(key, value)
		if putErr != nil { t.Fatalf("error on btre put: %s", putErr.Error()) }

		inserted[key] = value
	}

	for key := int32(0); key < 1000; key += 3 {
		removed, delErr := btreInst.Delete(key)
		if delErr != nil { t.Fatalf("error on btre delete: %s", delErr.Error()) }

		_, existed := inserted[key]
		if removed != existed { t.Fatalf("delete of key %d returned %t, expected %t", key, removed, existed) }

		delete(inserted, key)
	}

	ok, verifyErr := btreInst.Verify()
	if verifyErr != nil { t.Fatalf("error on btre verify: %s", verifyErr.Error()) }
	if ! ok { t.Fatal("verify failed after random churn") }

	for key, expected := range inserted {
		val, getErr := btreInst.Get(key)
		if getErr != nil { t.Fatalf("error on btre get: %s", getErr.Error()) }
		if val == nil { t.Fatalf("expected key %d to be present", key) }
		if val.Value.(string) != expected { t.Fatalf("val does not match expected for key %d: actual(%s), expected(%s)", key, val.Value, expected) }
	}

	kvPairs, entriesErr := btreInst.Entries(nil)
	if entriesErr != nil { t.Fatalf("error on btre entries: %s", entriesErr.Error()) }

	if len(kvPairs) != len(inserted) { t.Errorf("entries length does not match expected: actual(%d), expected(%d)", len(kvPairs), len(inserted)) }
	if ! IsSorted(kvPairs) { t.Error("entries are not in sorted order") }

	stats, statsErr := btreInst.Stats()
	if statsErr != nil { t.Fatalf("error on btre stats: %s", statsErr.Error()) }
	if stats.KeyCount != uint64(len(inserted)) { t.Errorf("key count does not match expected: actual(%d), expected(%d)", stats.KeyCount, len(inserted)) }
}
