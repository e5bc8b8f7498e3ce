package btretests

import "os"
import "path/filepath"
import "testing"

import "github.com/pkg/errors"

import "github.com/sirgallo/btre"


func TestBTreCorruption(t *testing.T) {
	fileName := "testcorruption"

	btreInst, openErr := btre.Open(TestOpts(fileName, 4))
	if openErr != nil { t.Fatalf("error opening btre: %s", openErr.Error()) }

	for i := 1; i <= 5; i++ {
		putErr := btreInst.Put(i, "x")
		if putErr != nil { t.Fatalf("error on btre put: %s", putErr.Error()) }
	}

	closeErr := btreInst.Close()
	if closeErr != nil { t.Fatalf("error closing btre: %s", closeErr.Error()) }

	storePath := filepath.Join(os.TempDir(), fileName)

	t.Run("Test Flipped Payload Bit", func(t *testing.T) {
		// flip a payload byte of the first node page, which holds the first leaf
		file, fileErr := os.OpenFile(storePath, os.O_RDWR, 0600)
		if fileErr != nil { t.Fatalf("error opening store file raw: %s", fileErr.Error()) }

		target := int64(512 + 64 + 2)

		single := make([]byte, 1)
		_, readErr := file.ReadAt(single, target)
		if readErr != nil { t.Fatalf("error reading store file raw: %s", readErr.Error()) }

		single[0] ^= 0xFF
		_, writeErr := file.WriteAt(single, target)
		if writeErr != nil { t.Fatalf("error writing store file raw: %s", writeErr.Error()) }

		file.Close()

		reopened, reopenErr := btre.Open(ReopenOpts(fileName, 4))
		if reopenErr != nil { t.Fatalf("error reopening btre: %s", reopenErr.Error()) }

		ok, verifyErr := reopened.Verify()
		if verifyErr != nil { t.Fatalf("error on btre verify: %s", verifyErr.Error()) }
		if ok { t.Error("expected verify to fail on a corrupted payload") }

		_, getErr := reopened.Get(1)
		if ! errors.Is(getErr, btre.ErrCorruption) { t.Errorf("expected corruption error on search, got %v", getErr) }

		// the session is now unusable until re-opened
		_, statsErr := reopened.Stats()
		if ! errors.Is(statsErr, btre.ErrClosed) { t.Errorf("expected closed error after corruption, got %v", statsErr) }

		reopened.Close()
		btre.Destroy(os.TempDir(), fileName)
	})
}

func TestBTreCorruptHeader(t *testing.T) {
	fileName := "testcorruptheader"

	btreInst, openErr := btre.Open(TestOpts(fileName, 4))
	if openErr != nil { t.Fatalf("error opening btre: %s", openErr.Error()) }

	putErr := btreInst.Put(1, "x")
	if putErr != nil { t.Fatalf("error on btre put: %s", putErr.Error()) }

	closeErr := btreInst.Close()
	if closeErr != nil { t.Fatalf("error closing btre: %s", closeErr.Error()) }

	storePath := filepath.Join(os.TempDir(), fileName)

	file, fileErr := os.OpenFile(storePath, os.O_RDWR, 0600)
	if fileErr != nil { t.Fatalf("error opening store file raw: %s", fileErr.Error()) }

	// flip a byte inside the checksummed header region
	single := make([]byte, 1)
	_, readErr := file.ReadAt(single, 20)
	if readErr != nil { t.Fatalf("error reading store file raw: %s", readErr.Error()) }

	single[0] ^= 0xFF
	_, writeErr := file.WriteAt(single, 20)
	if writeErr != nil { t.Fatalf("error writing store file raw: %s", writeErr.Error()) }

	file.Close()

	_, reopenErr := btre.Open(ReopenOpts(fileName, 4))
	if ! errors.Is(reopenErr, btre.ErrCorruption) { t.Errorf("expected corruption error on open, got %v", reopenErr) }

	btre.Destroy(os.TempDir(), fileName)
}
