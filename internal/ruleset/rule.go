// Package ruleset implements the binary codec for authorization rule sets.
//
// A rule set is a tree of composable access-control predicates: leaf checks
// over named payload fields (ownership, amounts, key matches, Merkle-tree
// membership) combined by All/Any/Not. The package defines the rule tree as
// a closed sum type, serializes it to the self-describing tagged-variant
// wire format, and parses that format back into a structurally identical
// tree. It says nothing about rule *evaluation*; the verifying authority
// owns that.
//
// Rule values are immutable once constructed. Constructors copy any slices
// they are handed, so sub-rules are owned exclusively by their parent and a
// serialized tree can never observe later mutation. All functions are pure
// and safe for concurrent use.
package ruleset

import (
	"encoding/hex"
	"fmt"

	"github.com/solatis/gatekeeper/internal/types"
)

// Kind identifies a rule variant and determines its payload shape.
// Tags are wire-stable; tag 0 is reserved and never valid.
type Kind uint32

const (
	KindAdditionalSigner Kind = 1
	KindAll              Kind = 2
	KindAmount           Kind = 3
	KindAny              Kind = 4
	KindFrequency        Kind = 5
	KindIsWallet         Kind = 6
	KindNamespace        Kind = 7
	KindNot              Kind = 8
	KindPass             Kind = 9
	KindPdaMatch         Kind = 10
	KindProgramOwned     Kind = 11
	KindProgramOwnedList Kind = 12
	KindProgramOwnedTree Kind = 13
	KindPubkeyListMatch  Kind = 14
	KindPubkeyMatch      Kind = 15
	KindPubkeyTreeMatch  Kind = 16
)

var kindNames = map[Kind]string{
	KindAdditionalSigner: "AdditionalSigner",
	KindAll:              "All",
	KindAmount:           "Amount",
	KindAny:              "Any",
	KindFrequency:        "Frequency",
	KindIsWallet:         "IsWallet",
	KindNamespace:        "Namespace",
	KindNot:              "Not",
	KindPass:             "Pass",
	KindPdaMatch:         "PdaMatch",
	KindProgramOwned:     "ProgramOwned",
	KindProgramOwnedList: "ProgramOwnedList",
	KindProgramOwnedTree: "ProgramOwnedTree",
	KindPubkeyListMatch:  "PubkeyListMatch",
	KindPubkeyMatch:      "PubkeyMatch",
	KindPubkeyTreeMatch:  "PubkeyTreeMatch",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", uint32(k))
}

// CompareOp is the comparator carried by an Amount rule.
// Codes are wire-stable; anything outside [OpLt, OpGt] is rejected.
type CompareOp uint64

const (
	OpLt CompareOp = iota
	OpLtEq
	OpEq
	OpGtEq
	OpGt
)

var compareOpNames = map[CompareOp]string{
	OpLt:   "lt",
	OpLtEq: "ltEq",
	OpEq:   "eq",
	OpGtEq: "gtEq",
	OpGt:   "gt",
}

func (op CompareOp) String() string {
	if name, ok := compareOpNames[op]; ok {
		return name
	}
	return fmt.Sprintf("CompareOp(%d)", uint64(op))
}

// Address is a 32-byte account or program address.
type Address [types.KeyWidth]byte

// Root is a 32-byte Merkle tree root.
type Root [types.KeyWidth]byte

// String returns the lowercase hex form of the address.
func (a Address) String() string { return hex.EncodeToString(a[:]) }

// String returns the lowercase hex form of the root.
func (r Root) String() string { return hex.EncodeToString(r[:]) }

// Rule is one predicate or combinator in an authorization tree. The
// interface is sealed: the variant set is closed and versioned by the wire
// format, not extensible at runtime.
type Rule interface {
	// Kind returns the variant tag identifying this rule's payload shape.
	Kind() Kind

	isRule()
}

// AdditionalSigner requires the transaction to carry a signature from a
// fixed account.
type AdditionalSigner struct {
	Account Address
}

// All holds when every sub-rule holds. Order is preserved on the wire.
type All struct {
	Rules []Rule
}

// Amount compares the runtime-supplied quantity in Field against a fixed
// amount using Op.
type Amount struct {
	Amount uint64
	Op     CompareOp
	Field  string
}

// Any holds when at least one sub-rule holds. Order is preserved on the
// wire; evaluation reports the first match.
type Any struct {
	Rules []Rule
}

// Frequency gates an operation by the last-update timestamp stored under a
// named authority account.
type Frequency struct {
	Name      string
	Authority Address
}

// IsWallet requires the account named by Field to be a plain wallet.
type IsWallet struct {
	Field string
}

// Namespace delegates the check to the rule set's namespace entry.
type Namespace struct{}

// Not inverts its single sub-rule.
type Not struct {
	Rule Rule
}

// Pass always holds.
type Pass struct{}

// PdaMatch requires the account in PdaField to be the program-derived
// address of Program under the seeds in SeedsField.
type PdaMatch struct {
	Program    Address
	PdaField   string
	SeedsField string
}

// ProgramOwned requires the account named by Field to be owned by Program.
type ProgramOwned struct {
	Program Address
	Field   string
}

// ProgramOwnedList is ProgramOwned over a set of candidate programs.
type ProgramOwnedList struct {
	Field    string
	Programs []Address
}

// ProgramOwnedTree requires the owner of the account in PubkeyField to be
// proven a leaf of the Merkle tree with the embedded Root, via the proof
// supplied at check time under ProofField.
type ProgramOwnedTree struct {
	PubkeyField string
	ProofField  string
	Root        Root
}

// PubkeyListMatch requires the account in Field to be one of Pubkeys.
type PubkeyListMatch struct {
	Field   string
	Pubkeys []Address
}

// PubkeyMatch requires the account named by Field to equal Pubkey.
type PubkeyMatch struct {
	Pubkey Address
	Field  string
}

// PubkeyTreeMatch requires the account in PubkeyField to be proven a leaf
// of the Merkle tree with the embedded Root.
type PubkeyTreeMatch struct {
	PubkeyField string
	ProofField  string
	Root        Root
}

func (AdditionalSigner) Kind() Kind { return KindAdditionalSigner }
func (All) Kind() Kind              { return KindAll }
func (Amount) Kind() Kind           { return KindAmount }
func (Any) Kind() Kind              { return KindAny }
func (Frequency) Kind() Kind        { return KindFrequency }
func (IsWallet) Kind() Kind         { return KindIsWallet }
func (Namespace) Kind() Kind        { return KindNamespace }
func (Not) Kind() Kind              { return KindNot }
func (Pass) Kind() Kind             { return KindPass }
func (PdaMatch) Kind() Kind         { return KindPdaMatch }
func (ProgramOwned) Kind() Kind     { return KindProgramOwned }
func (ProgramOwnedList) Kind() Kind { return KindProgramOwnedList }
func (ProgramOwnedTree) Kind() Kind { return KindProgramOwnedTree }
func (PubkeyListMatch) Kind() Kind  { return KindPubkeyListMatch }
func (PubkeyMatch) Kind() Kind      { return KindPubkeyMatch }
func (PubkeyTreeMatch) Kind() Kind  { return KindPubkeyTreeMatch }

func (AdditionalSigner) isRule() {}
func (All) isRule()              {}
func (Amount) isRule()           {}
func (Any) isRule()              {}
func (Frequency) isRule()        {}
func (IsWallet) isRule()         {}
func (Namespace) isRule()        {}
func (Not) isRule()              {}
func (Pass) isRule()             {}
func (PdaMatch) isRule()         {}
func (ProgramOwned) isRule()     {}
func (ProgramOwnedList) isRule() {}
func (ProgramOwnedTree) isRule() {}
func (PubkeyListMatch) isRule()  {}
func (PubkeyMatch) isRule()      {}
func (PubkeyTreeMatch) isRule()  {}

// validateField rejects identifiers that cannot fit the fixed-width block.
func validateField(field string) error {
	if len(field) > types.FieldWidth {
		return fmt.Errorf("field %q: %w", field, types.ErrIdentifierTooLong)
	}
	return nil
}

// NewAll builds an All combinator over the given sub-rules.
func NewAll(rules ...Rule) (All, error) {
	if len(rules) == 0 {
		return All{}, fmt.Errorf("all: %w", types.ErrEmptyComposite)
	}
	return All{Rules: append([]Rule(nil), rules...)}, nil
}

// NewAny builds an Any combinator over the given sub-rules.
func NewAny(rules ...Rule) (Any, error) {
	if len(rules) == 0 {
		return Any{}, fmt.Errorf("any: %w", types.ErrEmptyComposite)
	}
	return Any{Rules: append([]Rule(nil), rules...)}, nil
}

// NewNot builds a Not combinator over a single sub-rule.
func NewNot(rule Rule) Not {
	return Not{Rule: rule}
}

// NewAmount builds an Amount check. The comparator must be one of the
// known codes and the field identifier must fit the fixed width.
func NewAmount(amount uint64, op CompareOp, field string) (Amount, error) {
	if op > OpGt {
		return Amount{}, fmt.Errorf("comparator %d: %w", uint64(op), types.ErrInvalidOperator)
	}
	if err := validateField(field); err != nil {
		return Amount{}, err
	}
	return Amount{Amount: amount, Op: op, Field: field}, nil
}

// NewAdditionalSigner builds an AdditionalSigner check.
func NewAdditionalSigner(account Address) AdditionalSigner {
	return AdditionalSigner{Account: account}
}

// NewFrequency builds a Frequency check. The name shares the identifier
// width limit because it is encoded as a fixed-width block.
func NewFrequency(name string, authority Address) (Frequency, error) {
	if err := validateField(name); err != nil {
		return Frequency{}, err
	}
	return Frequency{Name: name, Authority: authority}, nil
}

// NewIsWallet builds an IsWallet check.
func NewIsWallet(field string) (IsWallet, error) {
	if err := validateField(field); err != nil {
		return IsWallet{}, err
	}
	return IsWallet{Field: field}, nil
}

// NewPdaMatch builds a PdaMatch check.
func NewPdaMatch(program Address, pdaField, seedsField string) (PdaMatch, error) {
	if err := validateField(pdaField); err != nil {
		return PdaMatch{}, err
	}
	if err := validateField(seedsField); err != nil {
		return PdaMatch{}, err
	}
	return PdaMatch{Program: program, PdaField: pdaField, SeedsField: seedsField}, nil
}

// NewProgramOwned builds a ProgramOwned check.
func NewProgramOwned(program Address, field string) (ProgramOwned, error) {
	if err := validateField(field); err != nil {
		return ProgramOwned{}, err
	}
	return ProgramOwned{Program: program, Field: field}, nil
}

// NewProgramOwnedList builds a ProgramOwned check over candidate programs.
func NewProgramOwnedList(field string, programs []Address) (ProgramOwnedList, error) {
	if err := validateField(field); err != nil {
		return ProgramOwnedList{}, err
	}
	if len(programs) == 0 {
		return ProgramOwnedList{}, fmt.Errorf("programOwnedList: %w", types.ErrEmptyList)
	}
	return ProgramOwnedList{Field: field, Programs: append([]Address(nil), programs...)}, nil
}

// NewProgramOwnedTree builds a ProgramOwnedTree check.
func NewProgramOwnedTree(pubkeyField, proofField string, root Root) (ProgramOwnedTree, error) {
	if err := validateField(pubkeyField); err != nil {
		return ProgramOwnedTree{}, err
	}
	if err := validateField(proofField); err != nil {
		return ProgramOwnedTree{}, err
	}
	return ProgramOwnedTree{PubkeyField: pubkeyField, ProofField: proofField, Root: root}, nil
}

// NewPubkeyListMatch builds a PubkeyMatch check over candidate addresses.
func NewPubkeyListMatch(field string, pubkeys []Address) (PubkeyListMatch, error) {
	if err := validateField(field); err != nil {
		return PubkeyListMatch{}, err
	}
	if len(pubkeys) == 0 {
		return PubkeyListMatch{}, fmt.Errorf("pubkeyListMatch: %w", types.ErrEmptyList)
	}
	return PubkeyListMatch{Field: field, Pubkeys: append([]Address(nil), pubkeys...)}, nil
}

// NewPubkeyMatch builds a PubkeyMatch check.
func NewPubkeyMatch(pubkey Address, field string) (PubkeyMatch, error) {
	if err := validateField(field); err != nil {
		return PubkeyMatch{}, err
	}
	return PubkeyMatch{Pubkey: pubkey, Field: field}, nil
}

// NewPubkeyTreeMatch builds a PubkeyTreeMatch check.
func NewPubkeyTreeMatch(pubkeyField, proofField string, root Root) (PubkeyTreeMatch, error) {
	if err := validateField(pubkeyField); err != nil {
		return PubkeyTreeMatch{}, err
	}
	if err := validateField(proofField); err != nil {
		return PubkeyTreeMatch{}, err
	}
	return PubkeyTreeMatch{PubkeyField: pubkeyField, ProofField: proofField, Root: root}, nil
}
