package btretests

import "fmt"
import "testing"

import "github.com/pkg/errors"

import "github.com/sirgallo/btre"


func TestBTreRangeOptions(t *testing.T) {
	btreInst, openErr := btre.Open(TestOpts("testrangeopts", 4))
	if openErr != nil { t.Fatalf("error opening btre: %s", openErr.Error()) }

	defer btreInst.Remove()

	for i := 1; i <= 20; i++ {
		putErr := btreInst.Put(i, fmt.Sprintf("val%d", i))
		if putErr != nil { t.Fatalf("error on btre put: %s", putErr.Error()) }
	}

	t.Run("Test Inclusive Bounds", func(t *testing.T) {
		kvPairs, rangeErr := btreInst.Range(5, 10, nil)
		if rangeErr != nil { t.Errorf("error on btre range: %s", rangeErr.Error()) }

		if len(kvPairs) != 6 { t.Fatalf("range length does not match expected: actual(%d), expected(%d)", len(kvPairs), 6) }
		if kvPairs[0].Key.(int32) != 5 || kvPairs[5].Key.(int32) != 10 { t.Errorf("range endpoints do not match expected: %v, %v", kvPairs[0].Key, kvPairs[5].Key) }
	})

	t.Run("Test Exclusive Bounds", func(t *testing.T) {
		opts := &btre.BTreRangeOpts{ IncludeStart: BoolPtr(false), IncludeEnd: BoolPtr(false) }

		kvPairs, rangeErr := btreInst.Range(5, 10, opts)
		if rangeErr != nil { t.Errorf("error on btre range: %s", rangeErr.Error()) }

		if len(kvPairs) != 4 { t.Fatalf("range length does not match expected: actual(%d), expected(%d)", len(kvPairs), 4) }
		if kvPairs[0].Key.(int32) != 6 || kvPairs[3].Key.(int32) != 9 { t.Errorf("range endpoints do not match expected: %v, %v", kvPairs[0].Key, kvPairs[3].Key) }
	})

	t.Run("Test Limit", func(t *testing.T) {
		opts := &btre.BTreRangeOpts{ Limit: 3 }

		kvPairs, rangeErr := btreInst.Range(1, 20, opts)
		if rangeErr != nil { t.Errorf("error on btre range: %s", rangeErr.Error()) }

		if len(kvPairs) != 3 { t.Fatalf("range length does not match expected: actual(%d), expected(%d)", len(kvPairs), 3) }
		if kvPairs[2].Key.(int32) != 3 { t.Errorf("limited range does not hold the smallest keys: %v", kvPairs[2].Key) }
	})

	t.Run("Test Reverse", func(t *testing.T) {
		opts := &btre.BTreRangeOpts{ Reverse: true }

		kvPairs, rangeErr := btreInst.Range(5, 10, opts)
		if rangeErr != nil { t.Errorf("error on btre range: %s", rangeErr.Error()) }

		if len(kvPairs) != 6 { t.Fatalf("range length does not match expected: actual(%d), expected(%d)", len(kvPairs), 6) }
		if kvPairs[0].Key.(int32) != 10 || kvPairs[5].Key.(int32) != 5 { t.Errorf("reverse range out of order: %v, %v", kvPairs[0].Key, kvPairs[5].Key) }
	})

	t.Run("Test Reverse With Limit", func(t *testing.T) {
		opts := &btre.BTreRangeOpts{ Reverse: true, Limit: 2 }

		kvPairs, rangeErr := btreInst.Range(5, 10, opts)
		if rangeErr != nil { t.Errorf("error on btre range: %s", rangeErr.Error()) }

		if len(kvPairs) != 2 { t.Fatalf("range length does not match expected: actual(%d), expected(%d)", len(kvPairs), 2) }
		if kvPairs[0].Key.(int32) != 10 || kvPairs[1].Key.(int32) != 9 { t.Errorf("reverse limited range does not hold the largest keys: %v, %v", kvPairs[0].Key, kvPairs[1].Key) }
	})

	t.Run("Test Transform", func(t *testing.T) {
		transform := func(kvPair *btre.KeyValuePair) *btre.KeyValuePair {
			kvPair.Value = kvPair.Value.(string) + kvPair.Value.(string)
			return kvPair
		}

		opts := &btre.BTreRangeOpts{ Transform: &transform }

		kvPairs, rangeErr := btreInst.Range(1, 2, opts)
		if rangeErr != nil { t.Errorf("error on btre range: %s", rangeErr.Error()) }

		if len(kvPairs) != 2 { t.Fatalf("range length does not match expected: actual(%d), expected(%d)", len(kvPairs), 2) }
		if kvPairs[0].Value.(string) != "val1val1" { t.Errorf("transformed value does not match expected: actual(%s), expected(%s)", kvPairs[0].Value, "val1val1") }
	})

	t.Run("Test Inverted Bounds", func(t *testing.T) {
		_, rangeErr := btreInst.Range(10, 5, nil)
		if ! errors.Is(rangeErr, btre.ErrInvalidArgument) { t.Errorf("expected invalid argument error, got %v", rangeErr) }
	})

	t.Run("Test Entries Matches Full Range", func(t *testing.T) {
		kvPairs, entriesErr := btreInst.Entries(nil)
		if entriesErr != nil { t.Errorf("error on btre entries: %s", entriesErr.Error()) }

		fullRange, rangeErr := btreInst.Range(1, 20, nil)
		if rangeErr != nil { t.Errorf("error on btre range: %s", rangeErr.Error()) }

		if len(kvPairs) != len(fullRange) { t.Fatalf("entries and full range disagree: %d vs %d", len(kvPairs), len(fullRange)) }

		for idx := range kvPairs {
			if kvPairs[idx].Key.(int32) != fullRange[idx].Key.(int32) { t.Errorf("entries and full range disagree at %d", idx) }
		}
	})
}
