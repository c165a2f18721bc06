// internal/ruleset/inspect.go
package ruleset

import (
	"fmt"
	"strings"
)

// Format renders a rule tree as an indented, human-readable listing for
// inspection tooling. Output is stable for a given tree but not a wire
// contract; tooling may reshape it freely.
func Format(r Rule) string {
	var b strings.Builder
	formatRule(&b, r, 0)
	return b.String()
}

func formatRule(b *strings.Builder, r Rule, indent int) {
	pad := strings.Repeat("  ", indent)

	switch r := r.(type) {
	case All:
		fmt.Fprintf(b, "%sAll (%d rules)\n", pad, len(r.Rules))
		for _, sub := range r.Rules {
			formatRule(b, sub, indent+1)
		}
	case Any:
		fmt.Fprintf(b, "%sAny (%d rules)\n", pad, len(r.Rules))
		for _, sub := range r.Rules {
			formatRule(b, sub, indent+1)
		}
	case Not:
		fmt.Fprintf(b, "%sNot\n", pad)
		formatRule(b, r.Rule, indent+1)
	case AdditionalSigner:
		fmt.Fprintf(b, "%sAdditionalSigner account=%s\n", pad, r.Account)
	case Amount:
		fmt.Fprintf(b, "%sAmount field=%q %s %d\n", pad, r.Field, r.Op, r.Amount)
	case Frequency:
		fmt.Fprintf(b, "%sFrequency name=%q authority=%s\n", pad, r.Name, r.Authority)
	case IsWallet:
		fmt.Fprintf(b, "%sIsWallet field=%q\n", pad, r.Field)
	case Namespace:
		fmt.Fprintf(b, "%sNamespace\n", pad)
	case Pass:
		fmt.Fprintf(b, "%sPass\n", pad)
	case PdaMatch:
		fmt.Fprintf(b, "%sPdaMatch program=%s pdaField=%q seedsField=%q\n",
			pad, r.Program, r.PdaField, r.SeedsField)
	case ProgramOwned:
		fmt.Fprintf(b, "%sProgramOwned program=%s field=%q\n", pad, r.Program, r.Field)
	case ProgramOwnedList:
		fmt.Fprintf(b, "%sProgramOwnedList field=%q (%d programs)\n", pad, r.Field, len(r.Programs))
		for _, program := range r.Programs {
			fmt.Fprintf(b, "%s  %s\n", pad, program)
		}
	case ProgramOwnedTree:
		fmt.Fprintf(b, "%sProgramOwnedTree pubkeyField=%q proofField=%q root=%s\n",
			pad, r.PubkeyField, r.ProofField, r.Root)
	case PubkeyListMatch:
		fmt.Fprintf(b, "%sPubkeyListMatch field=%q (%d pubkeys)\n", pad, r.Field, len(r.Pubkeys))
		for _, pubkey := range r.Pubkeys {
			fmt.Fprintf(b, "%s  %s\n", pad, pubkey)
		}
	case PubkeyMatch:
		fmt.Fprintf(b, "%sPubkeyMatch pubkey=%s field=%q\n", pad, r.Pubkey, r.Field)
	case PubkeyTreeMatch:
		fmt.Fprintf(b, "%sPubkeyTreeMatch pubkeyField=%q proofField=%q root=%s\n",
			pad, r.PubkeyField, r.ProofField, r.Root)
	default:
		fmt.Fprintf(b, "%s%s\n", pad, r.Kind())
	}
}
