package tvmdata

import "fmt"

// Slice is a read cursor over a Cell's bits and refs, consuming them
// left to right.
type Slice struct {
	bits   []bool
	refs   []*Cell
	bitPos int
	refPos int
}

// NewSlice starts a cursor at the beginning of c.
func NewSlice(c *Cell) *Slice {
	return &Slice{bits: unpackBits(c.bits, c.BitLen), refs: c.Refs}
}

// BitsRemaining reports how many unread bits remain.
func (s *Slice) BitsRemaining() int { return len(s.bits) - s.bitPos }

// RefsRemaining reports how many unread child-cell references remain.
func (s *Slice) RefsRemaining() int { return len(s.refs) - s.refPos }

// LoadUint reads the next bitSize bits as an unsigned integer.
func (s *Slice) LoadUint(bitSize int) (uint64, error) {
	if bitSize < 0 || bitSize > 64 {
		return 0, fmt.Errorf("tvmdata: LoadUint: bit size %d out of range", bitSize)
	}
	if s.BitsRemaining() < bitSize {
		return 0, fmt.Errorf("tvmdata: LoadUint: only %d bits remain, need %d", s.BitsRemaining(), bitSize)
	}
	var v uint64
	for i := 0; i < bitSize; i++ {
		v <<= 1
		if s.bits[s.bitPos+i] {
			v |= 1
		}
	}
	s.bitPos += bitSize
	return v, nil
}

// LoadInt reads the next bitSize bits as a two's-complement signed
// integer.
func (s *Slice) LoadInt(bitSize int) (int64, error) {
	v, err := s.LoadUint(bitSize)
	if err != nil {
		return 0, err
	}
	if bitSize < 64 && v&(1<<uint(bitSize-1)) != 0 {
		v |= ^mask64(bitSize)
	}
	return int64(v), nil
}

// LoadRef reads the next child-cell reference.
func (s *Slice) LoadRef() (*Cell, error) {
	if s.RefsRemaining() == 0 {
		return nil, fmt.Errorf("tvmdata: LoadRef: no refs remain")
	}
	c := s.refs[s.refPos]
	s.refPos++
	return c, nil
}
