// Package segment groups matched sites into <=64-site blocks and packs
// per-individual genotype state into word-wide bitmasks.
package segment

import "math/bits"

// GenoBits packs one individual's state across one segment's sites into
// three 64-bit masks. For reference individuals Is0/Is2 carry the two
// haplotype bits; for target individuals Is0/Is2/Is9 mark genotype 0, 2 and
// missing. Bit positions beyond the segment's real site count are always set
// in Is9 and clear in Is0/Is2 (the padding invariant).
type GenoBits struct {
	Is0, Is2, Is9 uint64
}

// SetIs0 sets bit j of the Is0 mask.
func (g *GenoBits) SetIs0(j int) { g.Is0 |= 1 << uint(j) }

// SetIs2 sets bit j of the Is2 mask.
func (g *GenoBits) SetIs2(j int) { g.Is2 |= 1 << uint(j) }

// SetIs9 sets bit j of the Is9 mask.
func (g *GenoBits) SetIs9(j int) { g.Is9 |= 1 << uint(j) }

// TestIs0 reports whether bit j of the Is0 mask is set.
func (g GenoBits) TestIs0(j int) bool { return g.Is0&(1<<uint(j)) != 0 }

// TestIs2 reports whether bit j of the Is2 mask is set.
func (g GenoBits) TestIs2(j int) bool { return g.Is2&(1<<uint(j)) != 0 }

// TestIs9 reports whether bit j of the Is9 mask is set.
func (g GenoBits) TestIs9(j int) bool { return g.Is9&(1<<uint(j)) != 0 }

// PadFrom sets bits n..63 of Is9, marking positions past the segment's real
// site count.
func (g *GenoBits) PadFrom(n int) {
	if n >= 64 {
		return
	}
	g.Is9 |= ^uint64(0) << uint(n)
}

// Padded reports whether all bits from n up are set in Is9 and clear in
// Is0/Is2.
func (g GenoBits) Padded(n int) bool {
	if n >= 64 {
		return true
	}
	pad := ^uint64(0) << uint(n)
	return g.Is9&pad == pad && g.Is0&pad == 0 && g.Is2&pad == 0
}

// OnesIs9 returns the number of set bits in the Is9 mask.
func (g GenoBits) OnesIs9() int { return bits.OnesCount64(g.Is9) }
