// internal/ruleset/definition.go
package ruleset

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
)

/*
 * Declarative rule definitions.
 *
 * `gatekeeper build` compiles a JSON document into canonical rule-set
 * bytes. The document mirrors the rule tree one node per object, with the
 * kind name in lowerCamel under "type" and 32-byte values as lowercase
 * hex. Compilation goes through the per-kind constructors, so a definition
 * that parses always serializes.
 *
 * This is a client-tooling convenience only; the wire format is the
 * contract, not this document shape.
 */

// Definition is the top-level JSON document: a rule-set name plus one root
// rule node.
type Definition struct {
	Name string  `json:"name"`
	Rule RuleDef `json:"rule"`
}

// RuleDef is one node of a declarative rule document. Only the fields
// relevant to its "type" are consulted.
type RuleDef struct {
	Type string `json:"type"`

	Rules []RuleDef `json:"rules,omitempty"` // all, any
	Rule  *RuleDef  `json:"rule,omitempty"`  // not

	Field       string   `json:"field,omitempty"`
	Amount      uint64   `json:"amount,omitempty"`
	Operator    string   `json:"operator,omitempty"`
	Account     string   `json:"account,omitempty"`
	Program     string   `json:"program,omitempty"`
	Pubkey      string   `json:"pubkey,omitempty"`
	Name        string   `json:"name,omitempty"`
	Authority   string   `json:"authority,omitempty"`
	PdaField    string   `json:"pdaField,omitempty"`
	SeedsField  string   `json:"seedsField,omitempty"`
	PubkeyField string   `json:"pubkeyField,omitempty"`
	ProofField  string   `json:"proofField,omitempty"`
	Root        string   `json:"root,omitempty"`
	Programs    []string `json:"programs,omitempty"`
	Pubkeys     []string `json:"pubkeys,omitempty"`
}

// ParseDefinition decodes a JSON definition document and compiles its root
// node into a rule tree.
func ParseDefinition(data []byte) (string, Rule, error) {
	var def Definition
	if err := json.Unmarshal(data, &def); err != nil {
		return "", nil, fmt.Errorf("invalid definition document: %w", err)
	}
	if def.Name == "" {
		return "", nil, fmt.Errorf("definition missing name")
	}
	rule, err := def.Rule.Compile()
	if err != nil {
		return "", nil, err
	}
	return def.Name, rule, nil
}

// Compile converts a definition node into a typed rule via the per-kind
// constructors.
func (d RuleDef) Compile() (Rule, error) {
	switch d.Type {
	case "all", "any":
		if len(d.Rules) == 0 {
			return nil, fmt.Errorf("%s: missing rules", d.Type)
		}
		subs := make([]Rule, 0, len(d.Rules))
		for i, sub := range d.Rules {
			r, err := sub.Compile()
			if err != nil {
				return nil, fmt.Errorf("%s[%d]: %w", d.Type, i, err)
			}
			subs = append(subs, r)
		}
		if d.Type == "all" {
			return NewAll(subs...)
		}
		return NewAny(subs...)

	case "not":
		if d.Rule == nil {
			return nil, fmt.Errorf("not: missing rule")
		}
		sub, err := d.Rule.Compile()
		if err != nil {
			return nil, fmt.Errorf("not: %w", err)
		}
		return NewNot(sub), nil

	case "additionalSigner":
		account, err := parseAddress(d.Account)
		if err != nil {
			return nil, fmt.Errorf("additionalSigner account: %w", err)
		}
		return NewAdditionalSigner(account), nil

	case "amount":
		op, err := parseCompareOp(d.Operator)
		if err != nil {
			return nil, err
		}
		return NewAmount(d.Amount, op, d.Field)

	case "frequency":
		authority, err := parseAddress(d.Authority)
		if err != nil {
			return nil, fmt.Errorf("frequency authority: %w", err)
		}
		return NewFrequency(d.Name, authority)

	case "isWallet":
		return NewIsWallet(d.Field)

	case "namespace":
		return Namespace{}, nil

	case "pass":
		return Pass{}, nil

	case "pdaMatch":
		program, err := parseAddress(d.Program)
		if err != nil {
			return nil, fmt.Errorf("pdaMatch program: %w", err)
		}
		return NewPdaMatch(program, d.PdaField, d.SeedsField)

	case "programOwned":
		program, err := parseAddress(d.Program)
		if err != nil {
			return nil, fmt.Errorf("programOwned program: %w", err)
		}
		return NewProgramOwned(program, d.Field)

	case "programOwnedList":
		programs, err := parseAddressList(d.Programs)
		if err != nil {
			return nil, fmt.Errorf("programOwnedList: %w", err)
		}
		return NewProgramOwnedList(d.Field, programs)

	case "programOwnedTree":
		root, err := parseRoot(d.Root)
		if err != nil {
			return nil, fmt.Errorf("programOwnedTree root: %w", err)
		}
		return NewProgramOwnedTree(d.PubkeyField, d.ProofField, root)

	case "pubkeyListMatch":
		pubkeys, err := parseAddressList(d.Pubkeys)
		if err != nil {
			return nil, fmt.Errorf("pubkeyListMatch: %w", err)
		}
		return NewPubkeyListMatch(d.Field, pubkeys)

	case "pubkeyMatch":
		pubkey, err := parseAddress(d.Pubkey)
		if err != nil {
			return nil, fmt.Errorf("pubkeyMatch pubkey: %w", err)
		}
		return NewPubkeyMatch(pubkey, d.Field)

	case "pubkeyTreeMatch":
		root, err := parseRoot(d.Root)
		if err != nil {
			return nil, fmt.Errorf("pubkeyTreeMatch root: %w", err)
		}
		return NewPubkeyTreeMatch(d.PubkeyField, d.ProofField, root)

	case "":
		return nil, fmt.Errorf("rule node missing type")

	default:
		return nil, fmt.Errorf("unknown rule type %q", d.Type)
	}
}

func parseCompareOp(s string) (CompareOp, error) {
	for op, name := range compareOpNames {
		if s == name {
			return op, nil
		}
	}
	return 0, fmt.Errorf("unknown operator %q (want lt, ltEq, eq, gtEq, or gt)", s)
}

func parseAddress(s string) (Address, error) {
	var a Address
	if err := parseHex32(s, a[:]); err != nil {
		return Address{}, err
	}
	return a, nil
}

func parseRoot(s string) (Root, error) {
	var r Root
	if err := parseHex32(s, r[:]); err != nil {
		return Root{}, err
	}
	return r, nil
}

func parseAddressList(hexes []string) ([]Address, error) {
	addrs := make([]Address, 0, len(hexes))
	for i, h := range hexes {
		a, err := parseAddress(h)
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		addrs = append(addrs, a)
	}
	return addrs, nil
}

func parseHex32(s string, dst []byte) error {
	b, err := hex.DecodeString(s)
	if err != nil {
		return fmt.Errorf("invalid hex %q: %w", s, err)
	}
	if len(b) != len(dst) {
		return fmt.Errorf("want %d bytes, got %d", len(dst), len(b))
	}
	copy(dst, b)
	return nil
}
