package tvmdata

import (
	"fmt"

	"github.com/funvibe/funbit/pkg/funbit"
)

// Builder accumulates bits and cell references for one cell under
// construction, rejecting anything that would exceed the cell limits
// before it happens rather than after.
type Builder struct {
	bits   []bool
	refs   []*Cell
	failed error
}

// NewBuilder starts an empty cell builder.
func NewBuilder() *Builder { return &Builder{} }

func (b *Builder) fail(err error) error {
	if b.failed == nil {
		b.failed = err
	}
	return b.failed
}

// StoreUint appends the low bitSize bits of value, most significant
// bit first, using funbit's bit-syntax encoder for the actual packing
// so the byte-level layout matches the same construction rules
// everywhere bit-precise literals are built in this codebase.
func (b *Builder) StoreUint(value uint64, bitSize int) error {
	if b.failed != nil {
		return b.failed
	}
	if bitSize < 0 || bitSize > 64 {
		return b.fail(fmt.Errorf("tvmdata: StoreUint: bit size %d out of range", bitSize))
	}
	if len(b.bits)+bitSize > MaxCellBits {
		return b.fail(fmt.Errorf("tvmdata: StoreUint: cell would exceed %d bits", MaxCellBits))
	}
	packed, err := funbit.NewBuilder().
		AddInteger(value, funbit.WithSize(uint(bitSize)), funbit.WithUnit(1)).
		Build()
	if err != nil {
		return b.fail(fmt.Errorf("tvmdata: funbit encode failed: %w", err))
	}
	b.bits = append(b.bits, unpackBits(packed.ToBytes(), bitSize)...)
	return nil
}

// StoreInt appends a bitSize-bit two's-complement signed integer.
func (b *Builder) StoreInt(value int64, bitSize int) error {
	return b.StoreUint(uint64(value)&mask64(bitSize), bitSize)
}

// StoreSlice appends another cell's bit payload in full.
func (b *Builder) StoreSlice(c *Cell) error {
	if b.failed != nil {
		return b.failed
	}
	if len(b.bits)+c.BitLen > MaxCellBits {
		return b.fail(fmt.Errorf("tvmdata: StoreSlice: cell would exceed %d bits", MaxCellBits))
	}
	b.bits = append(b.bits, unpackBits(c.bits, c.BitLen)...)
	return nil
}

// StoreRef appends a child cell reference.
func (b *Builder) StoreRef(c *Cell) error {
	if b.failed != nil {
		return b.failed
	}
	if len(b.refs) >= MaxCellRefs {
		return b.fail(fmt.Errorf("tvmdata: StoreRef: cell already has %d refs", MaxCellRefs))
	}
	b.refs = append(b.refs, c)
	return nil
}

// Build finalizes the cell. Once built, a Builder's accumulated state
// is returned as an immutable Cell; the Builder itself should not be
// reused.
func (b *Builder) Build() (*Cell, error) {
	if b.failed != nil {
		return nil, b.failed
	}
	return &Cell{bits: packBits(b.bits), BitLen: len(b.bits), Refs: b.refs}, nil
}

func mask64(bitSize int) uint64 {
	if bitSize >= 64 {
		return ^uint64(0)
	}
	return (uint64(1) << uint(bitSize)) - 1
}

func packBits(bits []bool) []byte {
	out := make([]byte, (len(bits)+7)/8)
	for i, bit := range bits {
		if bit {
			out[i/8] |= 1 << uint(7-i%8)
		}
	}
	return out
}

func unpackBits(packed []byte, n int) []bool {
	out := make([]bool, n)
	for i := 0; i < n; i++ {
		byteIdx := i / 8
		if byteIdx >= len(packed) {
			break
		}
		out[i] = packed[byteIdx]&(1<<uint(7-i%8)) != 0
	}
	return out
}
