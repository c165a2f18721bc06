package types

import "errors"

// Sentinel errors for Gatekeeper operations.
//
// Encode-time errors are caller-fixable (construct a valid rule). Decode-time
// errors indicate corruption, version skew, or hostile input; no partial rule
// tree is ever returned alongside one.
var (
	// ErrIdentifierTooLong indicates a field identifier exceeds FieldWidth bytes.
	ErrIdentifierTooLong = errors.New("field identifier exceeds fixed width")

	// ErrTruncatedInput indicates fewer bytes remain than a declared field requires.
	ErrTruncatedInput = errors.New("input truncated before declared field end")

	// ErrUnknownVariantTag indicates a rule tag absent from the variant table.
	ErrUnknownVariantTag = errors.New("unknown rule variant tag")

	// ErrMalformedPayload indicates a payload length inconsistent with its kind's layout.
	ErrMalformedPayload = errors.New("payload does not match variant layout")

	// ErrFramingMismatch indicates a composite's declared length disagrees with its contents.
	ErrFramingMismatch = errors.New("composite framing inconsistent with sub-rule sizes")

	// ErrTrailingBytes indicates extra bytes after a complete top-level rule parse.
	ErrTrailingBytes = errors.New("trailing bytes after rule")

	// ErrRuleTreeTooDeep indicates rule nesting beyond MaxRuleDepth.
	ErrRuleTreeTooDeep = errors.New("rule tree exceeds maximum depth")

	// ErrEmptyComposite indicates an All/Any constructed with no sub-rules.
	ErrEmptyComposite = errors.New("composite rule has no sub-rules")

	// ErrInvalidOperator indicates an amount comparator outside the known set.
	ErrInvalidOperator = errors.New("invalid amount comparator")

	// ErrEmptyList indicates a list rule constructed with no entries.
	ErrEmptyList = errors.New("list rule has no entries")

	// ErrUnknownVersion indicates an envelope version absent from the version table.
	ErrUnknownVersion = errors.New("unknown envelope version")

	// ErrRuleSetNotFound indicates a registry lookup for a name or revision that does not exist.
	ErrRuleSetNotFound = errors.New("rule set not found")

	// ErrChecksumMismatch indicates stored rule-set bytes no longer match their recorded checksum.
	ErrChecksumMismatch = errors.New("rule set checksum mismatch")
)
