// internal/ruleset/encode.go
package ruleset

import (
	"fmt"

	"github.com/solatis/gatekeeper/internal/types"
	"github.com/solatis/gatekeeper/internal/wire"
)

/*
 * Rule tree serialization.
 *
 * Every rule encodes as Tag:u32 + Length:u32 + Payload[Length]. Composites
 * carry their sub-rules' full framed encodings inside their own payload, so
 * a parent's declared length covers the children's framing too. Encoding is
 * deterministic: a given tree always produces the same bytes, and sub-rule
 * order is preserved, never canonicalized.
 *
 * The switch over rule kinds is exhaustive in lockstep with decode.go; a
 * new variant cannot ship without updating both directions.
 */

// Serialize encodes a rule tree into its canonical framed byte form.
func Serialize(r Rule) ([]byte, error) {
	var w wire.Writer
	if err := encodeRule(&w, r); err != nil {
		return nil, err
	}
	return w.Bytes(), nil
}

// encodeRule writes one framed rule: tag, payload length, then payload.
// The payload is staged in its own writer so the length can be computed
// before anything lands in the output buffer.
func encodeRule(w *wire.Writer, r Rule) error {
	var payload wire.Writer
	if err := encodePayload(&payload, r); err != nil {
		return err
	}
	w.U32(uint32(r.Kind()))
	w.VarBytes(payload.Bytes())
	return nil
}

// encodePayload writes a rule's payload fields in their fixed wire order.
func encodePayload(w *wire.Writer, r Rule) error {
	switch r := r.(type) {
	case AdditionalSigner:
		w.Fixed(r.Account[:])
		return nil

	case All:
		return encodeRuleList(w, r.Kind(), r.Rules)

	case Amount:
		if r.Op > OpGt {
			return fmt.Errorf("amount comparator %d: %w", uint64(r.Op), types.ErrInvalidOperator)
		}
		w.U64(r.Amount)
		w.U64(uint64(r.Op))
		return w.PaddedString(r.Field, types.FieldWidth)

	case Any:
		return encodeRuleList(w, r.Kind(), r.Rules)

	case Frequency:
		if err := w.PaddedString(r.Name, types.FieldWidth); err != nil {
			return err
		}
		w.Fixed(r.Authority[:])
		return nil

	case IsWallet:
		return w.PaddedString(r.Field, types.FieldWidth)

	case Namespace:
		return nil

	case Not:
		return encodeRule(w, r.Rule)

	case Pass:
		return nil

	case PdaMatch:
		w.Fixed(r.Program[:])
		if err := w.PaddedString(r.PdaField, types.FieldWidth); err != nil {
			return err
		}
		return w.PaddedString(r.SeedsField, types.FieldWidth)

	case ProgramOwned:
		w.Fixed(r.Program[:])
		return w.PaddedString(r.Field, types.FieldWidth)

	case ProgramOwnedList:
		if len(r.Programs) == 0 {
			return fmt.Errorf("%s: %w", r.Kind(), types.ErrEmptyList)
		}
		if err := w.PaddedString(r.Field, types.FieldWidth); err != nil {
			return err
		}
		for _, program := range r.Programs {
			w.Fixed(program[:])
		}
		return nil

	case ProgramOwnedTree:
		if err := w.PaddedString(r.PubkeyField, types.FieldWidth); err != nil {
			return err
		}
		if err := w.PaddedString(r.ProofField, types.FieldWidth); err != nil {
			return err
		}
		w.Fixed(r.Root[:])
		return nil

	case PubkeyListMatch:
		if len(r.Pubkeys) == 0 {
			return fmt.Errorf("%s: %w", r.Kind(), types.ErrEmptyList)
		}
		if err := w.PaddedString(r.Field, types.FieldWidth); err != nil {
			return err
		}
		for _, pubkey := range r.Pubkeys {
			w.Fixed(pubkey[:])
		}
		return nil

	case PubkeyMatch:
		w.Fixed(r.Pubkey[:])
		return w.PaddedString(r.Field, types.FieldWidth)

	case PubkeyTreeMatch:
		if err := w.PaddedString(r.PubkeyField, types.FieldWidth); err != nil {
			return err
		}
		if err := w.PaddedString(r.ProofField, types.FieldWidth); err != nil {
			return err
		}
		w.Fixed(r.Root[:])
		return nil

	default:
		return fmt.Errorf("rule kind %T: %w", r, types.ErrUnknownVariantTag)
	}
}

// encodeRuleList writes the All/Any payload: a u32 count followed by each
// sub-rule's full framed encoding, in order.
func encodeRuleList(w *wire.Writer, kind Kind, rules []Rule) error {
	if len(rules) == 0 {
		return fmt.Errorf("%s: %w", kind, types.ErrEmptyComposite)
	}
	w.U32(uint32(len(rules)))
	for _, sub := range rules {
		if err := encodeRule(w, sub); err != nil {
			return err
		}
	}
	return nil
}
