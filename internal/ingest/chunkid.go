package ingest

import (
	"fmt"

	"github.com/google/uuid"
)

// chunkIDPrefixLen is how many leading characters of chunk content participate in
// the identity hash. Re-ingesting identical content yields the same ID (upsert,
// no duplicates); different content at the same index yields a different ID.
const chunkIDPrefixLen = 100

// ChunkID returns a deterministic, content-derived ID for a chunk. The ID is an
// MD5-based UUID over (document path, chunk index, leading content), so it is
// usable directly as a vector-store point ID.
func ChunkID(path string, index int, content string) string {
	prefix := content
	if len(prefix) > chunkIDPrefixLen {
		prefix = prefix[:chunkIDPrefixLen]
	}
	key := fmt.Sprintf("%s_%d_%s", path, index, prefix)
	return uuid.NewMD5(uuid.NameSpaceOID, []byte(key)).String()
}
