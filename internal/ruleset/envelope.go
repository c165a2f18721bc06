// internal/ruleset/envelope.go
package ruleset

import (
	"fmt"

	"github.com/solatis/gatekeeper/internal/types"
	"github.com/solatis/gatekeeper/internal/wire"
)

// Version discriminates envelope layouts. New versions switch the
// deserializer; bytes written under an old version stay decodable forever.
type Version uint32

// VersionV1 is the only envelope layout today: the version tag followed by
// a length-prefixed, fully serialized rule tree.
const VersionV1 Version = 0

// WrapV1 frames serialized rule-tree bytes in a V1 envelope for submission.
// The rule-tree bytes are treated as opaque; callers serialize the tree
// with Serialize first.
func WrapV1(ruleTree []byte) []byte {
	var w wire.Writer
	w.U32(uint32(VersionV1))
	w.VarBytes(ruleTree)
	return w.Bytes()
}

// Unwrap parses an envelope and returns its version and the opaque
// rule-tree bytes it carries. The payload is never parsed here: an
// envelope must stay decodable even when it carries a rule tree from a
// newer variant table than this build understands. The returned slice
// aliases data.
func Unwrap(data []byte) (Version, []byte, error) {
	r := wire.NewReader(data)
	version, err := r.U32()
	if err != nil {
		return 0, nil, err
	}
	if Version(version) != VersionV1 {
		return 0, nil, fmt.Errorf("envelope version %d: %w", version, types.ErrUnknownVersion)
	}
	ruleTree, err := r.VarBytes()
	if err != nil {
		return 0, nil, err
	}
	if r.Remaining() != 0 {
		return 0, nil, fmt.Errorf("%d bytes after envelope: %w", r.Remaining(), types.ErrTrailingBytes)
	}
	return Version(version), ruleTree, nil
}
