package task

import (
	"encoding/binary"

	"github.com/zeebo/blake3"
)

// seedFor derives a task's seed from its root-relative path. Hashing the path
// keeps seeds stable across machines and invocations, independent of the
// order tasks happen to be generated or dispatched in.
func seedFor(taskID string) uint64 {
	sum := blake3.Sum256([]byte(taskID))
	return binary.LittleEndian.Uint64(sum[:8])
}
