// Package types provides domain constants and identifiers shared across
// Gatekeeper components.
//
// Zero-dependency design: errors.go and limits.go use only the standard
// library. ID utilities in ids.go import uuid but are isolated for selective
// inclusion by callers that never touch the registry.
package types

// Wire-format constants. These are fixed by the serialized rule-set format
// and must never change for a given format version.
const (
	// FieldWidth is the fixed byte width of a field identifier block.
	// Identifiers shorter than the width are NUL-padded; longer ones are
	// rejected at construction time.
	FieldWidth = 32

	// KeyWidth is the byte width of addresses, Merkle roots, and other
	// fixed-size hash/key fields. No padding, no length prefix.
	KeyWidth = 32

	// HeaderSize is the size of the tag + payload-length framing that
	// precedes every rule payload.
	HeaderSize = 8
)

// Resource limits enforced by the decoder to keep hostile inputs bounded.
const (
	// MaxRuleDepth bounds composite nesting during decode. 32 levels covers
	// any realistic rule tree; a crafted Not-chain beyond it fails with
	// ErrRuleTreeTooDeep instead of exhausting the stack.
	MaxRuleDepth = 32

	// MaxRuleSetSize caps the serialized rule-set blob accepted by the
	// registry and the envelope decoder. Rule sets are small by nature;
	// 1MB leaves two orders of magnitude of headroom.
	MaxRuleSetSize = 1024 * 1024

	// MaxRuleSetNameLength bounds registry rule-set names. Matches the
	// identifier width so a name can double as a field identifier.
	MaxRuleSetNameLength = 32
)
