// internal/ruleset/decode.go
package ruleset

import (
	"fmt"

	"github.com/solatis/gatekeeper/internal/types"
	"github.com/solatis/gatekeeper/internal/wire"
)

/*
 * Rule tree parsing.
 *
 * Recursive descent over the framed encoding. Each rule's payload is
 * sliced to exactly its declared length before dispatch, so a variant
 * decoder can never read past its own frame; whatever it leaves unread
 * is a framing error, not silently ignored.
 *
 * Depth is tracked with an explicit counter passed down the recursion.
 * Hostile inputs can nest composites arbitrarily; the counter turns stack
 * exhaustion into types.ErrRuleTreeTooDeep at types.MaxRuleDepth.
 *
 * No partial tree is ever returned: any error aborts the whole decode.
 */

// Header peeks at the framing of the rule at the front of data without
// decoding its payload. It returns the raw variant tag and the total
// framed size (header plus declared payload length). This is the traversal
// escape hatch for unrecognized tags: callers can skip a frame they cannot
// type.
func Header(data []byte) (tag uint32, total int, err error) {
	r := wire.NewReader(data)
	tag, err = r.U32()
	if err != nil {
		return 0, 0, err
	}
	length, err := r.U32()
	if err != nil {
		return 0, 0, err
	}
	if r.Remaining() < int(length) {
		return 0, 0, types.ErrTruncatedInput
	}
	return tag, types.HeaderSize + int(length), nil
}

// Decode parses one framed rule from the front of data, returning the
// typed rule and the number of bytes consumed. Bytes beyond the first
// rule's frame are left untouched for the caller.
func Decode(data []byte) (Rule, int, error) {
	return DecodeDepth(data, types.MaxRuleDepth)
}

// DecodeDepth is Decode with a caller-chosen nesting bound.
func DecodeDepth(data []byte, maxDepth int) (Rule, int, error) {
	r := wire.NewReader(data)
	rule, err := decodeRule(r, 0, maxDepth)
	if err != nil {
		return nil, 0, err
	}
	return rule, r.Offset(), nil
}

// Deserialize parses data as exactly one rule tree. Unlike Decode it
// fails with types.ErrTrailingBytes if anything follows the parse.
func Deserialize(data []byte) (Rule, error) {
	return DeserializeDepth(data, types.MaxRuleDepth)
}

// DeserializeDepth is Deserialize with a caller-chosen nesting bound.
func DeserializeDepth(data []byte, maxDepth int) (Rule, error) {
	rule, n, err := DecodeDepth(data, maxDepth)
	if err != nil {
		return nil, err
	}
	if n != len(data) {
		return nil, fmt.Errorf("%d bytes after rule: %w", len(data)-n, types.ErrTrailingBytes)
	}
	return rule, nil
}

// decodeRule reads one framed rule from r, recursing into composites.
func decodeRule(r *wire.Reader, depth, maxDepth int) (Rule, error) {
	if depth >= maxDepth {
		return nil, types.ErrRuleTreeTooDeep
	}

	tag, err := r.U32()
	if err != nil {
		return nil, err
	}
	payload, err := r.VarBytes()
	if err != nil {
		return nil, err
	}

	pr := wire.NewReader(payload)
	kind := Kind(tag)
	switch kind {
	case KindAdditionalSigner:
		if err := expectPayload(kind, payload, types.KeyWidth); err != nil {
			return nil, err
		}
		account, err := readAddress(pr)
		if err != nil {
			return nil, err
		}
		return AdditionalSigner{Account: account}, nil

	case KindAll:
		rules, err := decodeRuleList(kind, pr, depth, maxDepth)
		if err != nil {
			return nil, err
		}
		return All{Rules: rules}, nil

	case KindAmount:
		if err := expectPayload(kind, payload, 8+8+types.FieldWidth); err != nil {
			return nil, err
		}
		amount, err := pr.U64()
		if err != nil {
			return nil, err
		}
		op, err := pr.U64()
		if err != nil {
			return nil, err
		}
		if CompareOp(op) > OpGt {
			return nil, fmt.Errorf("amount comparator %d: %w", op, types.ErrMalformedPayload)
		}
		field, err := pr.PaddedString(types.FieldWidth)
		if err != nil {
			return nil, err
		}
		return Amount{Amount: amount, Op: CompareOp(op), Field: field}, nil

	case KindAny:
		rules, err := decodeRuleList(kind, pr, depth, maxDepth)
		if err != nil {
			return nil, err
		}
		return Any{Rules: rules}, nil

	case KindFrequency:
		if err := expectPayload(kind, payload, types.FieldWidth+types.KeyWidth); err != nil {
			return nil, err
		}
		name, err := pr.PaddedString(types.FieldWidth)
		if err != nil {
			return nil, err
		}
		authority, err := readAddress(pr)
		if err != nil {
			return nil, err
		}
		return Frequency{Name: name, Authority: authority}, nil

	case KindIsWallet:
		if err := expectPayload(kind, payload, types.FieldWidth); err != nil {
			return nil, err
		}
		field, err := pr.PaddedString(types.FieldWidth)
		if err != nil {
			return nil, err
		}
		return IsWallet{Field: field}, nil

	case KindNamespace:
		if err := expectPayload(kind, payload, 0); err != nil {
			return nil, err
		}
		return Namespace{}, nil

	case KindNot:
		sub, err := decodeRule(pr, depth+1, maxDepth)
		if err != nil {
			return nil, err
		}
		if pr.Remaining() != 0 {
			return nil, fmt.Errorf("not: %d bytes after sub-rule: %w", pr.Remaining(), types.ErrFramingMismatch)
		}
		return Not{Rule: sub}, nil

	case KindPass:
		if err := expectPayload(kind, payload, 0); err != nil {
			return nil, err
		}
		return Pass{}, nil

	case KindPdaMatch:
		if err := expectPayload(kind, payload, types.KeyWidth+2*types.FieldWidth); err != nil {
			return nil, err
		}
		program, err := readAddress(pr)
		if err != nil {
			return nil, err
		}
		pdaField, err := pr.PaddedString(types.FieldWidth)
		if err != nil {
			return nil, err
		}
		seedsField, err := pr.PaddedString(types.FieldWidth)
		if err != nil {
			return nil, err
		}
		return PdaMatch{Program: program, PdaField: pdaField, SeedsField: seedsField}, nil

	case KindProgramOwned:
		if err := expectPayload(kind, payload, types.KeyWidth+types.FieldWidth); err != nil {
			return nil, err
		}
		program, err := readAddress(pr)
		if err != nil {
			return nil, err
		}
		field, err := pr.PaddedString(types.FieldWidth)
		if err != nil {
			return nil, err
		}
		return ProgramOwned{Program: program, Field: field}, nil

	case KindProgramOwnedList:
		field, programs, err := decodeAddressList(kind, pr, payload)
		if err != nil {
			return nil, err
		}
		return ProgramOwnedList{Field: field, Programs: programs}, nil

	case KindProgramOwnedTree:
		field, proofField, root, err := decodeTreePayload(kind, pr, payload)
		if err != nil {
			return nil, err
		}
		return ProgramOwnedTree{PubkeyField: field, ProofField: proofField, Root: root}, nil

	case KindPubkeyListMatch:
		field, pubkeys, err := decodeAddressList(kind, pr, payload)
		if err != nil {
			return nil, err
		}
		return PubkeyListMatch{Field: field, Pubkeys: pubkeys}, nil

	case KindPubkeyMatch:
		if err := expectPayload(kind, payload, types.KeyWidth+types.FieldWidth); err != nil {
			return nil, err
		}
		pubkey, err := readAddress(pr)
		if err != nil {
			return nil, err
		}
		field, err := pr.PaddedString(types.FieldWidth)
		if err != nil {
			return nil, err
		}
		return PubkeyMatch{Pubkey: pubkey, Field: field}, nil

	case KindPubkeyTreeMatch:
		field, proofField, root, err := decodeTreePayload(kind, pr, payload)
		if err != nil {
			return nil, err
		}
		return PubkeyTreeMatch{PubkeyField: field, ProofField: proofField, Root: root}, nil

	default:
		return nil, fmt.Errorf("tag %d: %w", tag, types.ErrUnknownVariantTag)
	}
}

// decodeRuleList reads the All/Any payload: u32 count, then count framed
// sub-rules, which must consume the payload exactly.
func decodeRuleList(kind Kind, pr *wire.Reader, depth, maxDepth int) ([]Rule, error) {
	count, err := pr.U32()
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, fmt.Errorf("%s: zero sub-rules: %w", kind, types.ErrMalformedPayload)
	}
	rules := make([]Rule, 0, min(int(count), 64))
	for i := uint32(0); i < count; i++ {
		sub, err := decodeRule(pr, depth+1, maxDepth)
		if err != nil {
			return nil, err
		}
		rules = append(rules, sub)
	}
	if pr.Remaining() != 0 {
		return nil, fmt.Errorf("%s: %d bytes after %d sub-rules: %w",
			kind, pr.Remaining(), count, types.ErrFramingMismatch)
	}
	return rules, nil
}

// decodeAddressList reads a field identifier followed by packed 32-byte
// entries filling the rest of the payload.
func decodeAddressList(kind Kind, pr *wire.Reader, payload []byte) (string, []Address, error) {
	rest := len(payload) - types.FieldWidth
	if rest < types.KeyWidth || rest%types.KeyWidth != 0 {
		return "", nil, fmt.Errorf("%s: payload length %d: %w", kind, len(payload), types.ErrMalformedPayload)
	}
	field, err := pr.PaddedString(types.FieldWidth)
	if err != nil {
		return "", nil, err
	}
	entries := make([]Address, 0, rest/types.KeyWidth)
	for pr.Remaining() > 0 {
		addr, err := readAddress(pr)
		if err != nil {
			return "", nil, err
		}
		entries = append(entries, addr)
	}
	return field, entries, nil
}

// decodeTreePayload reads the shared tree-match layout: two field
// identifiers followed by a 32-byte Merkle root.
func decodeTreePayload(kind Kind, pr *wire.Reader, payload []byte) (string, string, Root, error) {
	if err := expectPayload(kind, payload, 2*types.FieldWidth+types.KeyWidth); err != nil {
		return "", "", Root{}, err
	}
	pubkeyField, err := pr.PaddedString(types.FieldWidth)
	if err != nil {
		return "", "", Root{}, err
	}
	proofField, err := pr.PaddedString(types.FieldWidth)
	if err != nil {
		return "", "", Root{}, err
	}
	var root Root
	b, err := pr.Fixed(types.KeyWidth)
	if err != nil {
		return "", "", Root{}, err
	}
	copy(root[:], b)
	return pubkeyField, proofField, root, nil
}

// expectPayload enforces a kind's fixed payload size.
func expectPayload(kind Kind, payload []byte, want int) error {
	if len(payload) != want {
		return fmt.Errorf("%s: payload length %d, want %d: %w",
			kind, len(payload), want, types.ErrMalformedPayload)
	}
	return nil
}

func readAddress(pr *wire.Reader) (Address, error) {
	var a Address
	b, err := pr.Fixed(types.KeyWidth)
	if err != nil {
		return Address{}, err
	}
	copy(a[:], b)
	return a, nil
}
