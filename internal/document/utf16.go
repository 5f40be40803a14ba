package document

import "unicode/utf8"

// Columns and offsets count UTF-16 code units, the unit editors report
// cursor positions in. Runes outside the BMP take two units.

// UTF16Len returns the length of s in UTF-16 code units.
func UTF16Len(s string) int {
	n := 0
	for _, r := range s {
		n += runeUnits(r)
	}
	return n
}

// ByteIndex converts a UTF-16 offset into a byte index of s. Offsets past the
// end clamp to len(s); an offset inside a surrogate pair rounds up to the
// end of that rune.
func ByteIndex(s string, units int) int {
	if units <= 0 {
		return 0
	}
	n := 0
	for i, r := range s {
		if n >= units {
			return i
		}
		n += runeUnits(r)
	}
	return len(s)
}

// UTF16Offset converts a byte index of s into a UTF-16 offset.
func UTF16Offset(s string, byteIdx int) int {
	if byteIdx > len(s) {
		byteIdx = len(s)
	}
	return UTF16Len(s[:byteIdx])
}

func runeUnits(r rune) int {
	if r >= 0x10000 && r <= utf8.MaxRune {
		return 2
	}
	return 1
}
