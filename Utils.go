package btre

import "fmt"


//============================================= BTre Utilities


// extendEntries
//	Utility function for splicing an item into a slice at a given position.
func extendEntries[T any](orig []T, pos int, item T) []T {
	updated := make([]T, len(orig) + 1)

	copy(updated[:pos], orig[:pos])
	updated[pos] = item
	copy(updated[pos + 1:], orig[pos:])

	return updated
}

// shrinkEntries
//	Inverse of the extendEntries utility function.
//	It removes the element at a given position.
func shrinkEntries[T any](orig []T, pos int) []T {
	updated := make([]T, len(orig) - 1)

	copy(updated[:pos], orig[:pos])
	copy(updated[pos:], orig[pos + 1:])

	return updated
}

// PrintEntries
//	Debugging function for printing every entry in key order.
func (btreInst *BTre) PrintEntries() error {
	kvPairs, entriesErr := btreInst.Entries(nil)
	if entriesErr != nil { return entriesErr }

	for idx, kvPair := range kvPairs {
		fmt.Printf("Index: %d, Key: %v, Value: %v\n", idx, kvPair.Key, kvPair.Value)
	}

	fmt.Println("total count of entries:", len(kvPairs))
	return nil
}
