// Package vsymbol handles variable symbol normalization
//
// A variable symbol is the numeric identifier banks carry along a transfer
// to correlate it with a payment. Different banks re-encode the symbol in
// their statements, most commonly by stripping or padding leading zeros.
package vsymbol

import "strings"

// PaddedLen is the canonical variable symbol length used by bank exports
const PaddedLen = 10

// Variants returns all accepted encodings of the given variable symbol.
//
// The returned set contains the symbol as-is, the symbol with leading
// zeros stripped and the symbol left-padded with zeros to PaddedLen digits.
// Duplicates are removed, the original symbol comes first.
func Variants(variableSymbol string) []string {
	if variableSymbol == "" {
		return nil
	}
	variants := make([]string, 0, 3)
	seen := make(map[string]struct{}, 3)
	add := func(v string) {
		if v == "" {
			return
		}
		if _, ok := seen[v]; ok {
			return
		}
		seen[v] = struct{}{}
		variants = append(variants, v)
	}
	add(variableSymbol)
	add(strings.TrimLeft(variableSymbol, "0"))
	if len(variableSymbol) < PaddedLen {
		add(strings.Repeat("0", PaddedLen-len(variableSymbol)) + variableSymbol)
	}
	return variants
}
