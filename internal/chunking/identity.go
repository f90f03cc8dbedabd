// Package chunking derives deterministic document/chunk identities and
// allocates per-chunk prices from a document's total USD price.
package chunking

import (
	"crypto/sha1"
	"crypto/sha256"
	"encoding/hex"
	"strconv"

	"github.com/google/uuid"
)

// DocID derives the deterministic document identity from its source URI.
func DocID(sourceURI string) string {
	sum := sha256.Sum256([]byte(sourceURI))
	return hex.EncodeToString(sum[:])
}

// ChunkID derives the deterministic chunk identity for chunk index idx of
// document docID. The UUID is built from the first 32 hex characters of
// SHA-1(docID + ":" + idx), matching the upstream scheme exactly so that
// chunk identities are reproducible across re-indexing runs.
func ChunkID(docID string, idx int) uuid.UUID {
	h := sha1.Sum([]byte(docID + ":" + strconv.Itoa(idx)))
	hexDigest := hex.EncodeToString(h[:])[:32]
	id, err := uuid.Parse(formatUUID(hexDigest))
	if err != nil {
		// hexDigest is always 32 valid hex chars, so this is unreachable.
		panic(err)
	}
	return id
}

// formatUUID inserts the canonical dashes into a 32-character hex string.
func formatUUID(hexDigest string) string {
	return hexDigest[0:8] + "-" + hexDigest[8:12] + "-" + hexDigest[12:16] + "-" + hexDigest[16:20] + "-" + hexDigest[20:32]
}
