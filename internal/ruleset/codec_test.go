package ruleset

import (
	"bytes"
	"errors"
	"reflect"
	"testing"

	"github.com/solatis/gatekeeper/internal/types"
	"github.com/solatis/gatekeeper/internal/wire"
)

func testAddress(b byte) Address {
	var a Address
	for i := range a {
		a[i] = b
	}
	return a
}

func testRoot(b byte) Root {
	var r Root
	for i := range r {
		r[i] = b
	}
	return r
}

func paddedField(t *testing.T, s string) []byte {
	t.Helper()
	var w wire.Writer
	if err := w.PaddedString(s, types.FieldWidth); err != nil {
		t.Fatalf("PaddedString(%q) error = %v", s, err)
	}
	return w.Bytes()
}

// Tags are wire-stable: renumbering a kind breaks every stored rule set.
func TestKind_TagStability(t *testing.T) {
	wantTags := map[Kind]uint32{
		KindAdditionalSigner: 1,
		KindAll:              2,
		KindAmount:           3,
		KindAny:              4,
		KindFrequency:        5,
		KindIsWallet:         6,
		KindNamespace:        7,
		KindNot:              8,
		KindPass:             9,
		KindPdaMatch:         10,
		KindProgramOwned:     11,
		KindProgramOwnedList: 12,
		KindProgramOwnedTree: 13,
		KindPubkeyListMatch:  14,
		KindPubkeyMatch:      15,
		KindPubkeyTreeMatch:  16,
	}

	seen := make(map[uint32]Kind)
	for kind, tag := range wantTags {
		if uint32(kind) != tag {
			t.Errorf("%s tag = %d, want %d", kind, uint32(kind), tag)
		}
		if other, dup := seen[tag]; dup {
			t.Errorf("tag %d assigned to both %s and %s", tag, kind, other)
		}
		seen[tag] = kind
	}
	if len(wantTags) != len(kindNames) {
		t.Errorf("variant table has %d kinds, test covers %d", len(kindNames), len(wantTags))
	}
}

// The wire-format reference vector: ProgramOwnedTree is tag 0x0d with a
// 96-byte payload of two padded identifiers and a raw Merkle root.
func TestSerialize_ProgramOwnedTreeVector(t *testing.T) {
	root := testRoot(0xaa)
	rule, err := NewProgramOwnedTree("publicKey", "proof", root)
	if err != nil {
		t.Fatalf("NewProgramOwnedTree() error = %v, want nil", err)
	}

	data, err := Serialize(rule)
	if err != nil {
		t.Fatalf("Serialize() error = %v, want nil", err)
	}

	var want []byte
	want = append(want, 0x0d, 0x00, 0x00, 0x00) // tag
	want = append(want, 0x60, 0x00, 0x00, 0x00) // payload length = 96
	want = append(want, paddedField(t, "publicKey")...)
	want = append(want, paddedField(t, "proof")...)
	want = append(want, root[:]...)

	if !bytes.Equal(data, want) {
		t.Errorf("Serialize() = %x, want %x", data, want)
	}

	decoded, err := Deserialize(data)
	if err != nil {
		t.Fatalf("Deserialize() error = %v, want nil", err)
	}
	if !reflect.DeepEqual(decoded, rule) {
		t.Errorf("Deserialize() = %#v, want %#v", decoded, rule)
	}
}

func TestRoundTrip_AllKinds(t *testing.T) {
	tests := []struct {
		name string
		rule Rule
	}{
		{name: "additional signer", rule: AdditionalSigner{Account: testAddress(1)}},
		{name: "amount", rule: Amount{Amount: 500, Op: OpLtEq, Field: "amount"}},
		{name: "frequency", rule: Frequency{Name: "transfers", Authority: testAddress(2)}},
		{name: "is wallet", rule: IsWallet{Field: "destination"}},
		{name: "namespace", rule: Namespace{}},
		{name: "pass", rule: Pass{}},
		{name: "pda match", rule: PdaMatch{Program: testAddress(3), PdaField: "account", SeedsField: "seeds"}},
		{name: "program owned", rule: ProgramOwned{Program: testAddress(4), Field: "destination"}},
		{name: "program owned list", rule: ProgramOwnedList{Field: "source", Programs: []Address{testAddress(5), testAddress(6)}}},
		{name: "program owned tree", rule: ProgramOwnedTree{PubkeyField: "destination", ProofField: "proof", Root: testRoot(7)}},
		{name: "pubkey list match", rule: PubkeyListMatch{Field: "authority", Pubkeys: []Address{testAddress(8)}}},
		{name: "pubkey match", rule: PubkeyMatch{Pubkey: testAddress(9), Field: "authority"}},
		{name: "pubkey tree match", rule: PubkeyTreeMatch{PubkeyField: "holder", ProofField: "proof", Root: testRoot(10)}},
		{
			name: "composites",
			rule: All{Rules: []Rule{
				Any{Rules: []Rule{
					PubkeyMatch{Pubkey: testAddress(1), Field: "authority"},
					IsWallet{Field: "destination"},
				}},
				Not{Rule: Amount{Amount: 1, Op: OpGt, Field: "amount"}},
				Pass{},
			}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := Serialize(tt.rule)
			if err != nil {
				t.Fatalf("Serialize() error = %v, want nil", err)
			}
			if len(data) < types.HeaderSize {
				t.Fatalf("Serialize() produced %d bytes, want at least %d", len(data), types.HeaderSize)
			}

			decoded, err := Deserialize(data)
			if err != nil {
				t.Fatalf("Deserialize() error = %v, want nil", err)
			}
			if !reflect.DeepEqual(decoded, tt.rule) {
				t.Errorf("round-trip = %#v, want %#v", decoded, tt.rule)
			}

			// Deterministic encoding: same tree, same bytes.
			again, err := Serialize(tt.rule)
			if err != nil {
				t.Fatalf("Serialize() second pass error = %v", err)
			}
			if !bytes.Equal(data, again) {
				t.Errorf("Serialize() not deterministic: %x vs %x", data, again)
			}
		})
	}
}

// Framed length always equals header size plus declared payload length.
func TestSerialize_ExactFraming(t *testing.T) {
	rules := []Rule{
		AdditionalSigner{Account: testAddress(1)},
		Amount{Amount: 10, Op: OpEq, Field: "amount"},
		All{Rules: []Rule{Pass{}, Namespace{}}},
		Not{Rule: Not{Rule: Pass{}}},
	}

	for _, rule := range rules {
		data, err := Serialize(rule)
		if err != nil {
			t.Fatalf("Serialize(%s) error = %v", rule.Kind(), err)
		}
		tag, total, err := Header(data)
		if err != nil {
			t.Fatalf("Header(%s) error = %v", rule.Kind(), err)
		}
		if Kind(tag) != rule.Kind() {
			t.Errorf("Header tag = %d, want %d", tag, rule.Kind())
		}
		if total != len(data) {
			t.Errorf("Header total = %d, want %d", total, len(data))
		}
	}
}

// Sub-rule order is preserved on the wire, never canonicalized.
func TestSerialize_OrderPreserved(t *testing.T) {
	a := Rule(IsWallet{Field: "destination"})
	b := Rule(Amount{Amount: 9, Op: OpLt, Field: "amount"})

	ab, err := Serialize(All{Rules: []Rule{a, b}})
	if err != nil {
		t.Fatalf("Serialize(All[a,b]) error = %v", err)
	}
	ba, err := Serialize(All{Rules: []Rule{b, a}})
	if err != nil {
		t.Fatalf("Serialize(All[b,a]) error = %v", err)
	}

	if bytes.Equal(ab, ba) {
		t.Fatal("All[a,b] and All[b,a] encoded identically; order must be preserved")
	}

	decodedAB, err := Deserialize(ab)
	if err != nil {
		t.Fatalf("Deserialize(ab) error = %v", err)
	}
	if !reflect.DeepEqual(decodedAB, All{Rules: []Rule{a, b}}) {
		t.Errorf("Deserialize(ab) = %#v, want order [a,b]", decodedAB)
	}

	decodedBA, err := Deserialize(ba)
	if err != nil {
		t.Fatalf("Deserialize(ba) error = %v", err)
	}
	if !reflect.DeepEqual(decodedBA, All{Rules: []Rule{b, a}}) {
		t.Errorf("Deserialize(ba) = %#v, want order [b,a]", decodedBA)
	}
}

func TestDecode_ReportsConsumedBytes(t *testing.T) {
	first, err := Serialize(Pass{})
	if err != nil {
		t.Fatalf("Serialize() error = %v", err)
	}
	second, err := Serialize(IsWallet{Field: "destination"})
	if err != nil {
		t.Fatalf("Serialize() error = %v", err)
	}

	stream := append(append([]byte(nil), first...), second...)

	rule, n, err := Decode(stream)
	if err != nil {
		t.Fatalf("Decode() error = %v, want nil", err)
	}
	if n != len(first) {
		t.Fatalf("Decode() consumed %d bytes, want %d", n, len(first))
	}
	if !reflect.DeepEqual(rule, Pass{}) {
		t.Errorf("Decode() = %#v, want Pass", rule)
	}

	rest, n, err := Decode(stream[n:])
	if err != nil {
		t.Fatalf("Decode() second rule error = %v", err)
	}
	if n != len(second) {
		t.Errorf("Decode() consumed %d bytes, want %d", n, len(second))
	}
	if !reflect.DeepEqual(rest, IsWallet{Field: "destination"}) {
		t.Errorf("Decode() = %#v, want IsWallet", rest)
	}
}

func TestDeserialize_TrailingBytes(t *testing.T) {
	data, err := Serialize(Pass{})
	if err != nil {
		t.Fatalf("Serialize() error = %v", err)
	}
	data = append(data, 0x00)

	if _, err := Deserialize(data); !errors.Is(err, types.ErrTrailingBytes) {
		t.Errorf("Deserialize() error = %v, want ErrTrailingBytes", err)
	}
}

func TestDeserialize_UnknownTag(t *testing.T) {
	var w wire.Writer
	w.U32(99)
	w.VarBytes([]byte{1, 2, 3})

	if _, err := Deserialize(w.Bytes()); !errors.Is(err, types.ErrUnknownVariantTag) {
		t.Errorf("Deserialize() error = %v, want ErrUnknownVariantTag", err)
	}

	// The frame is still traversable by length even though it cannot be
	// typed.
	tag, total, err := Header(w.Bytes())
	if err != nil {
		t.Fatalf("Header() error = %v, want nil", err)
	}
	if tag != 99 || total != w.Len() {
		t.Errorf("Header() = (%d, %d), want (99, %d)", tag, total, w.Len())
	}
}

func TestDeserialize_MalformedPayloads(t *testing.T) {
	tests := []struct {
		name    string
		build   func() []byte
		wantErr error
	}{
		{
			name: "tree payload one byte short",
			build: func() []byte {
				var w wire.Writer
				w.U32(uint32(KindProgramOwnedTree))
				w.VarBytes(make([]byte, 95))
				return w.Bytes()
			},
			wantErr: types.ErrMalformedPayload,
		},
		{
			name: "amount comparator out of range",
			build: func() []byte {
				var payload wire.Writer
				payload.U64(5)
				payload.U64(9) // beyond OpGt
				payload.PaddedString("amount", types.FieldWidth)
				var w wire.Writer
				w.U32(uint32(KindAmount))
				w.VarBytes(payload.Bytes())
				return w.Bytes()
			},
			wantErr: types.ErrMalformedPayload,
		},
		{
			name: "empty composite",
			build: func() []byte {
				var payload wire.Writer
				payload.U32(0)
				var w wire.Writer
				w.U32(uint32(KindAll))
				w.VarBytes(payload.Bytes())
				return w.Bytes()
			},
			wantErr: types.ErrMalformedPayload,
		},
		{
			name: "list entries misaligned",
			build: func() []byte {
				var w wire.Writer
				w.U32(uint32(KindPubkeyListMatch))
				w.VarBytes(make([]byte, types.FieldWidth+17))
				return w.Bytes()
			},
			wantErr: types.ErrMalformedPayload,
		},
		{
			name: "namespace with payload",
			build: func() []byte {
				var w wire.Writer
				w.U32(uint32(KindNamespace))
				w.VarBytes([]byte{1})
				return w.Bytes()
			},
			wantErr: types.ErrMalformedPayload,
		},
		{
			name: "composite with trailing garbage",
			build: func() []byte {
				sub, _ := Serialize(Pass{})
				var payload wire.Writer
				payload.U32(1)
				payload.Fixed(sub)
				payload.Fixed([]byte{0xff}) // not covered by any sub-rule
				var w wire.Writer
				w.U32(uint32(KindAny))
				w.VarBytes(payload.Bytes())
				return w.Bytes()
			},
			wantErr: types.ErrFramingMismatch,
		},
		{
			name: "not with trailing garbage",
			build: func() []byte {
				sub, _ := Serialize(Pass{})
				var payload wire.Writer
				payload.Fixed(sub)
				payload.Fixed([]byte{0xff})
				var w wire.Writer
				w.U32(uint32(KindNot))
				w.VarBytes(payload.Bytes())
				return w.Bytes()
			},
			wantErr: types.ErrFramingMismatch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Deserialize(tt.build()); !errors.Is(err, tt.wantErr) {
				t.Errorf("Deserialize() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

// Truncating a valid encoding anywhere must fail, never silently parse.
func TestDeserialize_TruncationDetection(t *testing.T) {
	rule := All{Rules: []Rule{
		ProgramOwnedTree{PubkeyField: "destination", ProofField: "proof", Root: testRoot(1)},
		Not{Rule: Amount{Amount: 7, Op: OpGtEq, Field: "amount"}},
	}}

	data, err := Serialize(rule)
	if err != nil {
		t.Fatalf("Serialize() error = %v", err)
	}

	for cut := 0; cut < len(data); cut++ {
		if _, err := Deserialize(data[:cut]); err == nil {
			t.Errorf("Deserialize() succeeded on %d/%d byte prefix", cut, len(data))
		}
	}
}

func TestDeserialize_DepthGuard(t *testing.T) {
	// Nesting exactly at the limit decodes; one deeper fails.
	atLimit := Rule(Pass{})
	for i := 0; i < types.MaxRuleDepth-1; i++ {
		atLimit = Not{Rule: atLimit}
	}
	data, err := Serialize(atLimit)
	if err != nil {
		t.Fatalf("Serialize() error = %v", err)
	}
	if _, err := Deserialize(data); err != nil {
		t.Fatalf("Deserialize() at depth limit error = %v, want nil", err)
	}

	data, err = Serialize(Not{Rule: atLimit})
	if err != nil {
		t.Fatalf("Serialize() error = %v", err)
	}
	if _, err := Deserialize(data); !errors.Is(err, types.ErrRuleTreeTooDeep) {
		t.Errorf("Deserialize() error = %v, want ErrRuleTreeTooDeep", err)
	}

	// A caller-chosen bound applies instead of the default.
	shallow, err := Serialize(Not{Rule: Not{Rule: Pass{}}})
	if err != nil {
		t.Fatalf("Serialize() error = %v", err)
	}
	if _, err := DeserializeDepth(shallow, 2); !errors.Is(err, types.ErrRuleTreeTooDeep) {
		t.Errorf("DeserializeDepth(2) error = %v, want ErrRuleTreeTooDeep", err)
	}
	if _, err := DeserializeDepth(shallow, 3); err != nil {
		t.Errorf("DeserializeDepth(3) error = %v, want nil", err)
	}
}

func TestConstructors_Validation(t *testing.T) {
	longField := string(make([]byte, types.FieldWidth+1))

	if _, err := NewAmount(1, OpEq, longField); !errors.Is(err, types.ErrIdentifierTooLong) {
		t.Errorf("NewAmount(long field) error = %v, want ErrIdentifierTooLong", err)
	}
	if _, err := NewAmount(1, CompareOp(9), "amount"); !errors.Is(err, types.ErrInvalidOperator) {
		t.Errorf("NewAmount(bad op) error = %v, want ErrInvalidOperator", err)
	}
	if _, err := NewAll(); !errors.Is(err, types.ErrEmptyComposite) {
		t.Errorf("NewAll() error = %v, want ErrEmptyComposite", err)
	}
	if _, err := NewAny(); !errors.Is(err, types.ErrEmptyComposite) {
		t.Errorf("NewAny() error = %v, want ErrEmptyComposite", err)
	}
	if _, err := NewPubkeyListMatch("authority", nil); !errors.Is(err, types.ErrEmptyList) {
		t.Errorf("NewPubkeyListMatch(empty) error = %v, want ErrEmptyList", err)
	}
	if _, err := NewProgramOwnedTree(longField, "proof", Root{}); !errors.Is(err, types.ErrIdentifierTooLong) {
		t.Errorf("NewProgramOwnedTree(long field) error = %v, want ErrIdentifierTooLong", err)
	}

	// Encode-time validation catches hand-built invalid values too.
	if _, err := Serialize(Amount{Op: CompareOp(20), Field: "amount"}); !errors.Is(err, types.ErrInvalidOperator) {
		t.Errorf("Serialize(bad op) error = %v, want ErrInvalidOperator", err)
	}
	if _, err := Serialize(IsWallet{Field: longField}); !errors.Is(err, types.ErrIdentifierTooLong) {
		t.Errorf("Serialize(long field) error = %v, want ErrIdentifierTooLong", err)
	}
	if _, err := Serialize(All{}); !errors.Is(err, types.ErrEmptyComposite) {
		t.Errorf("Serialize(empty All) error = %v, want ErrEmptyComposite", err)
	}
}

// Constructors copy their slice arguments; mutating the original after
// construction must not leak into the rule.
func TestConstructors_CopySlices(t *testing.T) {
	programs := []Address{testAddress(1)}
	rule, err := NewProgramOwnedList("source", programs)
	if err != nil {
		t.Fatalf("NewProgramOwnedList() error = %v", err)
	}
	programs[0] = testAddress(2)
	if rule.Programs[0] != testAddress(1) {
		t.Error("NewProgramOwnedList() aliases caller slice")
	}

	subs := []Rule{Pass{}}
	all, err := NewAll(subs...)
	if err != nil {
		t.Fatalf("NewAll() error = %v", err)
	}
	subs[0] = Namespace{}
	if !reflect.DeepEqual(all.Rules[0], Rule(Pass{})) {
		t.Error("NewAll() aliases caller slice")
	}
}
