package tvmdata

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseLiteral folds a SliceConst op's source text into a constant
// Cell at compile time. Two forms are recognized: a hex bitstring
// prefixed with "x" (each nibble is 4 bits, TVM's own slice-literal
// convention), and a plain quoted-free string, where each byte is 8
// bits. Anything else is a malformed literal.
func ParseLiteral(text string) (*Cell, error) {
	if strings.HasPrefix(text, "x") || strings.HasPrefix(text, "X") {
		return parseHexLiteral(text[1:])
	}
	b := NewBuilder()
	for i := 0; i < len(text); i++ {
		if err := b.StoreUint(uint64(text[i]), 8); err != nil {
			return nil, err
		}
	}
	return b.Build()
}

func parseHexLiteral(hex string) (*Cell, error) {
	b := NewBuilder()
	for i := 0; i < len(hex); i++ {
		nibble, err := strconv.ParseUint(hex[i:i+1], 16, 8)
		if err != nil {
			return nil, fmt.Errorf("tvmdata: malformed hex literal %q: %w", hex, err)
		}
		if err := b.StoreUint(nibble, 4); err != nil {
			return nil, err
		}
	}
	return b.Build()
}

// BitLen reports the bit width a literal occupies, parsing it with
// ParseLiteral and returning only the length.
func BitLen(text string) (int, error) {
	c, err := ParseLiteral(text)
	if err != nil {
		return 0, err
	}
	return c.BitLen, nil
}
