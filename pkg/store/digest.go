package store

import (
	"encoding/hex"

	"github.com/zeebo/blake3"

	"github.com/agentstation/accesssync/pkg/access"
)

// Digest returns the hex BLAKE3 digest of the document's canonical JSON
// encoding. Two documents with the same digest are written identically, and
// a YAML document digests the same as its JSON rendition.
func Digest(doc *access.Document) (string, error) {
	data, err := Encode(doc, FormatJSON)
	if err != nil {
		return "", err
	}
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
