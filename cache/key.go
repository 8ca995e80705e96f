package cache

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/sqlspec/sqlspec"
)

// NewKey derives the cache Key for stmt rendered to targetStyle: the
// Statement's own fingerprint (raw text, dialect, named-parameter keys,
// filter fingerprints, config flags) combined with the target parameter
// style, per spec.md §4.3's key formula. Two Statements that are identical
// except for their target parameter style get distinct cache entries,
// since they compile to different SQL text.
func NewKey(stmt sqlspec.Statement, targetStyle sqlspec.ParamStyle) Key {
	h := sha256.New()
	h.Write([]byte(stmt.Fingerprint()))
	h.Write([]byte{0})
	h.Write([]byte(targetStyle))

	return Key{Fingerprint: hex.EncodeToString(h.Sum(nil))}
}
