package hamming

import "testing"

func TestUnParity_correctParity(t *testing.T) {
	for b := 0; b < 256; b++ {
		if popcount(byte(b))%2 != 1 {
			continue // only odd-parity bytes are valid codewords
		}
		v, ok := UnParity(byte(b))
		if !ok {
			t.Errorf("UnParity(0x%02x): expected ok, got error", b)
		}
		if v != byte(b)&0x7f {
			t.Errorf("UnParity(0x%02x) = 0x%02x, want 0x%02x", b, v, byte(b)&0x7f)
		}
	}
}

func TestUnParity_incorrectParity(t *testing.T) {
	for b := 0; b < 256; b++ {
		if popcount(byte(b))%2 == 1 {
			continue
		}
		_, ok := UnParity(byte(b))
		if ok {
			t.Errorf("UnParity(0x%02x): expected parity error", b)
		}
	}
}

func TestUnHam84Nibble_singleBitErrorCorrects(t *testing.T) {
	// For every byte the table decodes (codewords and their correctable
	// single-bit neighbours), flip each bit in turn and confirm the decode
	// is either the same nibble or a flagged double error (never a
	// silently different nibble).
	for b := 0; b < 256; b++ {
		want := unhamTab[b]
		if want == 0xff {
			continue
		}
		for bit := 0; bit < 8; bit++ {
			flipped := byte(b) ^ (1 << uint(bit))
			got := unhamTab[flipped]
			if got != 0xff && got != want {
				// two valid codewords one bit apart would break the code;
				// this should never happen for a correct Hamming-8/4 table.
				t.Fatalf("single-bit flip of 0x%02x (bit %d) decoded to 0x%02x, want 0x%02x or error", b, bit, got, want)
			}
		}
	}
}

func TestUnHam84Byte(t *testing.T) {
	// Find two bytes whose table entries are 0x3 and 0x7, confirm the
	// composed byte is 0x73.
	var b1, b2 byte
	found1, found2 := false, false
	for b := 0; b < 256; b++ {
		if unhamTab[b] == 0x03 && !found1 {
			b1 = byte(b)
			found1 = true
		}
		if unhamTab[b] == 0x07 && !found2 {
			b2 = byte(b)
			found2 = true
		}
	}
	if !found1 || !found2 {
		t.Fatal("could not find codewords for nibbles 0x3 and 0x7")
	}
	v, ok := UnHam84Byte(b1, b2)
	if !ok {
		t.Fatal("UnHam84Byte: expected ok")
	}
	if v != 0x73 {
		t.Errorf("UnHam84Byte(0x%02x,0x%02x) = 0x%02x, want 0x73", b1, b2, v)
	}
}

func TestUnHam84Byte_doubleError(t *testing.T) {
	v, ok := UnHam84Byte(0x01, 0x00)
	if ok {
		t.Errorf("expected double-error flag, got value 0x%02x", v)
	}
}

func TestBitDistance(t *testing.T) {
	for b := 0; b < 256; b++ {
		if d := BitDistance(byte(b), byte(b)); d != 0 {
			t.Errorf("BitDistance(0x%02x,0x%02x) = %d, want 0", b, b, d)
		}
	}
	if d1, d2 := BitDistance(0x00, 0xff), BitDistance(0xff, 0x00); d1 != d2 {
		t.Errorf("BitDistance not symmetric: %d vs %d", d1, d2)
	}
	if d := BitDistance(0x00, 0xff); d != 8 {
		t.Errorf("BitDistance(0x00,0xff) = %d, want 8", d)
	}
}

func TestReverseNibbleBits(t *testing.T) {
	cases := map[byte]byte{
		0x0: 0x0,
		0x1: 0x8,
		0x8: 0x1,
		0xf: 0xf,
		0x3: 0xc,
	}
	for in, want := range cases {
		if got := ReverseNibbleBits(in); got != want {
			t.Errorf("ReverseNibbleBits(0x%x) = 0x%x, want 0x%x", in, got, want)
		}
	}
}

func TestUnParityArray(t *testing.T) {
	src := []byte{0x41, 0x00, 0xff} // all three have even popcount (parity errors); expectation rebuilt per byte via UnParity
	dst, errCount := UnParityArray(src)
	if len(dst) != len(src) {
		t.Fatalf("len(dst) = %d, want %d", len(dst), len(src))
	}
	wantErrs := 0
	for i, b := range src {
		_, ok := UnParity(b)
		if !ok {
			wantErrs++
			if dst[i] != ' ' {
				t.Errorf("dst[%d] = 0x%02x, want space on parity error", i, dst[i])
			}
		}
	}
	if errCount != wantErrs {
		t.Errorf("errCount = %d, want %d", errCount, wantErrs)
	}
}

func popcount(b byte) int {
	n := 0
	for b != 0 {
		n += int(b & 1)
		b >>= 1
	}
	return n
}
