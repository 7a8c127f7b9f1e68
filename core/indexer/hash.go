package indexer

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
)

// OriginalHash identifies a source entry by its path and cleaned content
func OriginalHash(path string, content string) string {
	return digest(path, content)
}

// ChunkHash identifies a chunk of an entry, it is the primary key of stored chunks
func ChunkHash(originalHash string, chunkStart int, content string) string {
	return digest(originalHash, strconv.Itoa(chunkStart), content)
}

func digest(parts ...string) string {
	h := sha256.New()
	for i, part := range parts {
		if i > 0 {
			h.Write([]byte{0})
		}
		h.Write([]byte(part))
	}
	return hex.EncodeToString(h.Sum(nil))
}
