package vectorstore

import (
	"crypto/sha256"
	"encoding/binary"
	"strconv"
	"strings"
)

const (
	NamespaceSession = "session"
	NamespaceIssue   = "issue"
	NamespaceChunk   = "chunk"
	NamespaceTurn    = "turn"
)

// Key is a 63-bit point id. It always fits in a signed 64-bit column.
type Key uint64

const keyMask = uint64(1)<<63 - 1

// DeriveKey hashes "namespace:part1:part2..." with SHA-256 and keeps the first
// eight bytes (big-endian) masked to 63 bits. The same input always yields the
// same key, across processes and restarts.
func DeriveKey(namespace string, parts ...string) Key {
	raw := namespace
	if len(parts) > 0 {
		raw = namespace + ":" + strings.Join(parts, ":")
	}
	sum := sha256.Sum256([]byte(raw))
	return Key(binary.BigEndian.Uint64(sum[:8]) & keyMask)
}

func SessionKey(sessionID string) Key {
	return DeriveKey(NamespaceSession, sessionID)
}

func IssueKey(sessionID, issueID string) Key {
	return DeriveKey(NamespaceIssue, sessionID, issueID)
}

func ChunkKey(sessionID, chunkID string) Key {
	return DeriveKey(NamespaceChunk, sessionID, chunkID)
}

func TurnKey(sessionID, turnID string) Key {
	return DeriveKey(NamespaceTurn, sessionID, turnID)
}

func (k Key) String() string {
	return strconv.FormatUint(uint64(k), 10)
}
