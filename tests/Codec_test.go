package btretests

import "math/big"
import "testing"

import "github.com/sirgallo/btre"


func TestCodecRoundTrips(t *testing.T) {
	t.Run("Test Int32 Codec", func(t *testing.T) {
		codec := btre.Int32Codec{}

		encoded, encErr := codec.Encode(int32(-12345))
		if encErr != nil { t.Fatalf("error encoding int32: %s", encErr.Error()) }
		if len(encoded) != 4 { t.Errorf("encoded length does not match expected: actual(%d), expected(%d)", len(encoded), 4) }

		decoded, decErr := codec.Decode(encoded)
		if decErr != nil { t.Fatalf("error decoding int32: %s", decErr.Error()) }
		if decoded.(int32) != -12345 { t.Errorf("round trip does not match: actual(%v)", decoded) }

		if codec.Compare(int32(1), int32(2)) != -1 { t.Error("compare ordering wrong for int32") }
		if codec.Compare(int32(2), int32(2)) != 0 { t.Error("compare equality wrong for int32") }
	})

	t.Run("Test Float64 Codec", func(t *testing.T) {
		codec := btre.Float64Codec{}

		encoded, encErr := codec.Encode(3.14159)
		if encErr != nil { t.Fatalf("error encoding float64: %s", encErr.Error()) }
		if len(encoded) != 8 { t.Errorf("encoded length does not match expected: actual(%d), expected(%d)", len(encoded), 8) }

		decoded, decErr := codec.Decode(encoded)
		if decErr != nil { t.Fatalf("error decoding float64: %s", decErr.Error()) }
		if decoded.(float64) != 3.14159 { t.Errorf("round trip does not match: actual(%v)", decoded) }
	})

	t.Run("Test String Codec", func(t *testing.T) {
		codec := btre.StringCodec{}

		encoded, encErr := codec.Encode("hello world")
		if encErr != nil { t.Fatalf("error encoding string: %s", encErr.Error()) }

		decoded, decErr := codec.Decode(encoded)
		if decErr != nil { t.Fatalf("error decoding string: %s", decErr.Error()) }
		if decoded.(string) != "hello world" { t.Errorf("round trip does not match: actual(%v)", decoded) }

		if codec.FixedSize() != 0 { t.Error("expected string codec to be variable length") }
		if codec.Compare("a", "b") >= 0 { t.Error("compare ordering wrong for string") }
	})

	t.Run("Test Bool Codec", func(t *testing.T) {
		codec := btre.BoolCodec{}

		encoded, encErr := codec.Encode(true)
		if encErr != nil { t.Fatalf("error encoding bool: %s", encErr.Error()) }
		if len(encoded) != 1 { t.Errorf("encoded length does not match expected: actual(%d), expected(%d)", len(encoded), 1) }

		decoded, decErr := codec.Decode(encoded)
		if decErr != nil { t.Fatalf("error decoding bool: %s", decErr.Error()) }
		if decoded.(bool) != true { t.Errorf("round trip does not match: actual(%v)", decoded) }

		if codec.Compare(false, true) != -1 { t.Error("compare ordering wrong for bool") }
	})

	t.Run("Test BigInt Codec", func(t *testing.T) {
		codec := btre.BigIntCodec{}

		large, _ := new(big.Int).SetString("-123456789012345678901234567890", 10)

		encoded, encErr := codec.Encode(large)
		if encErr != nil { t.Fatalf("error encoding bigint: %s", encErr.Error()) }

		decoded, decErr := codec.Decode(encoded)
		if decErr != nil { t.Fatalf("error decoding bigint: %s", decErr.Error()) }
		if decoded.(*big.Int).Cmp(large) != 0 { t.Errorf("round trip does not match: actual(%v)", decoded) }

		if codec.Compare(big.NewInt(-1), big.NewInt(1)) != -1 { t.Error("compare ordering wrong for bigint") }
	})

	t.Run("Test JSON Codec", func(t *testing.T) {
		codec := btre.JSONCodec{}

		doc := map[string]any{ "name": "btre", "count": float64(3) }

		encoded, encErr := codec.Encode(doc)
		if encErr != nil { t.Fatalf("error encoding json: %s", encErr.Error()) }

		decoded, decErr := codec.Decode(encoded)
		if decErr != nil { t.Fatalf("error decoding json: %s", decErr.Error()) }

		decodedDoc := decoded.(map[string]any)
		if decodedDoc["name"].(string) != "btre" { t.Errorf("round trip does not match: actual(%v)", decodedDoc["name"]) }
		if decodedDoc["count"].(float64) != 3 { t.Errorf("round trip does not match: actual(%v)", decodedDoc["count"]) }
	})

	t.Run("Test Composite Codec", func(t *testing.T) {
		codec := btre.CompositeCodec{
			CompositeTag: "pair",
			Fields: []btre.Codec{ btre.Int32Codec{}, btre.StringCodec{} },
		}

		encoded, encErr := codec.Encode([]any{ int32(7), "seven" })
		if encErr != nil { t.Fatalf("error encoding composite: %s", encErr.Error()) }

		decoded, decErr := codec.Decode(encoded)
		if decErr != nil { t.Fatalf("error decoding composite: %s", decErr.Error()) }

		fields := decoded.([]any)
		if fields[0].(int32) != 7 { t.Errorf("round trip does not match: actual(%v)", fields[0]) }
		if fields[1].(string) != "seven" { t.Errorf("round trip does not match: actual(%v)", fields[1]) }

		if codec.Compare([]any{ int32(1), "a" }, []any{ int32(1), "b" }) != -1 { t.Error("compare ordering wrong for composite") }
		if codec.Compare([]any{ int32(2), "a" }, []any{ int32(1), "b" }) != 1 { t.Error("compare ordering wrong for composite") }
	})
}

func TestBTreStringKeys(t *testing.T) {
	opts := TestOpts("teststringkeys", 4)
	opts.KeyCodec = btre.StringCodec{}

	btreInst, openErr := btre.Open(opts)
	if openErr != nil { t.Fatalf("error opening btre: %s", openErr.Error()) }

	defer btreInst.Remove()

	words := []string{ "delta", "alpha", "echo", "charlie", "bravo", "golf", "foxtrot" }
	for _, word := range words {
		putErr := btreInst.Put(word, word + "!")
		if putErr != nil { t.Fatalf("error on btre put: %s", putErr.Error()) }
	}

	kvPairs, entriesErr := btreInst.Entries(nil)
	if entriesErr != nil { t.Fatalf("error on btre entries: %s", entriesErr.Error()) }

	expected := []string{ "alpha", "bravo", "charlie", "delta", "echo", "foxtrot", "golf" }
	if len(kvPairs) != len(expected) { t.Fatalf("entries length does not match expected: actual(%d), expected(%d)", len(kvPairs), len(expected)) }

	for idx, kvPair := range kvPairs {
		if kvPair.Key.(string) != expected[idx] { t.Errorf("key does not match expected: actual(%v), expected(%v)", kvPair.Key, expected[idx]) }
	}

	val, getErr := btreInst.Get("charlie")
	if getErr != nil { t.Fatalf("error on btre get: %s", getErr.Error()) }
	if val == nil || val.Value.(string) != "charlie!" { t.Errorf("val does not match expected: actual(%v)", val) }

	ok, verifyErr := btreInst.Verify()
	if verifyErr != nil { t.Fatalf("error on btre verify: %s", verifyErr.Error()) }
	if ! ok { t.Error("expected verify to hold with string keys") }
}
