package btretests

import "crypto/rand"
import "fmt"
import "os"
import "path/filepath"

import "github.com/sirgallo/btre"


type KeyVal struct {
	Key   any
	Value any
}


func IntPtr(i int) *int { return &i }

func StrPtr(s string) *string { return &s }

func BoolPtr(b bool) *bool { return &b }


// TestOpts
//	Build options for a fresh store with int32 keys and string values,
//	removing any file left behind by a previous run.
func TestOpts(fileName string, order int) btre.BTreOpts {
	os.Remove(filepath.Join(os.TempDir(), fileName))

	return btre.BTreOpts{
		Filepath: os.TempDir(),
		FileName: fileName,
		KeyCodec: btre.Int32Codec{},
		ValueCodec: btre.StringCodec{},
		Order: IntPtr(order),
	}
}

// TestOptsNoRemove
//	Build options for a new store without removing a leftover file first.
func TestOptsNoRemove(fileName string, order int) btre.BTreOpts {
	return btre.BTreOpts{
		Filepath: os.TempDir(),
		FileName: fileName,
		KeyCodec: btre.Int32Codec{},
		ValueCodec: btre.StringCodec{},
		Order: IntPtr(order),
	}
}

// ReopenOpts
//	Build options that open the existing store file from TestOpts.
func ReopenOpts(fileName string, order int) btre.BTreOpts {
	opts := btre.BTreOpts{
		Filepath: os.TempDir(),
		FileName: fileName,
		KeyCodec: btre.Int32Codec{},
		ValueCodec: btre.StringCodec{},
		Order: IntPtr(order),
	}

	opts.OpenExisting = true
	return opts
}

// GenerateRandomBytes
//	Random lowercase ascii, used to build random string payloads.
func GenerateRandomBytes(length int) ([]byte, error) {
	randomBytes := make([]byte, length)
	_, err := rand.Read(randomBytes)
	if err != nil { return nil, err }

	for i := 0; i < length; i++ {
		randomBytes[i] = 'a' + (randomBytes[i] % 26)
	}

	return randomBytes, nil
}

// IsSorted
//	Whether the key value pairs are in strictly increasing int32 key order.
func IsSorted(kvPairs []*btre.KeyValuePair) bool {
	for i := 1; i < len(kvPairs); i++ {
		if kvPairs[i - 1].Key.(int32) >= kvPairs[i].Key.(int32) { return false }
	}

	return true
}

// BulkPairs
//	The bulk load fixture: 100 entries with keys i*10 and values "v" + i.
func BulkPairs() []*btre.KeyValuePair {
	var kvPairs []*btre.KeyValuePair
	for i := 0; i < 100; i++ {
		kvPairs = append(kvPairs, &btre.KeyValuePair{ Key: int32(i * 10), Value: fmt.Sprintf("v%d", i) })
	}

	return kvPairs
}
