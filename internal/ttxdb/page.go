// Package ttxdb stores accepted teletext pages and exposes the read-only
// view the EPG scraper requires: decoded text/control renditions, the TOP
// navigation tables (BTT/MPT/AIT), and a Perl-compatible raw dump used for
// debugging and regression fixtures.
package ttxdb

import "time"

// NumLines is the number of packet rows kept per page: packet 0 (header)
// through packet 23 (last displayable row).
const NumLines = 24

// LineWidth is the teletext text-row width in bytes.
const LineWidth = 40

// Key identifies one page by its decimal page number and sub-page number.
type Key struct {
	Page uint16
	Sub  uint16
}

// Page is one full teletext page (TTX_DB_PAGE): up to 24 raw 40-byte rows,
// a G0 charset index, and acquisition bookkeeping. The ASCII and Latin-1
// renditions are derived caches, rebuilt lazily from the raw bytes.
type Page struct {
	Key
	Control   uint32
	Charset   int // 0..7, derived from control bits C12..C14
	Acquired  time.Time
	RepCount  int  // acquisition-repetition counter
	Erased    bool // C4 erase bit seen; payload invalid until re-acquired
	HaveLines [NumLines]bool
	Lines     [NumLines][LineWidth]byte

	asciiCache [NumLines]string
	asciiValid [NumLines]bool
	ctrlCache  [NumLines]string
	ctrlValid  [NumLines]bool
}

// charsetFromControl derives the 3-bit G0 national-option index from the
// page control word: bits C12..C14, transmitted LSB-first and therefore
// bit-reversed relative to their natural significance.
func charsetFromControl(control uint32) int {
	c12 := (control >> 11) & 1
	c13 := (control >> 12) & 1
	c14 := (control >> 13) & 1
	return int(c12 | c13<<1 | c14<<2)
}

// touch records a (re-)acquisition of packet 0 for this page: updates
// control/charset, bumps the repetition counter, and clears the erase flag
// (a fresh header always supersedes a pending erase).
func (p *Page) touch(control uint32, header [LineWidth]byte, when time.Time) {
	p.Control = control
	p.Charset = charsetFromControl(control)
	p.Acquired = when
	p.RepCount++
	p.Erased = false
	p.setLine(0, header)
}

// setLine stores packet payload for row idx (0 = header, 1..23 = body) and
// invalidates the derived text caches for that row.
func (p *Page) setLine(idx int, data [LineWidth]byte) {
	if idx < 0 || idx >= NumLines {
		return
	}
	p.Lines[idx] = data
	p.HaveLines[idx] = true
	p.asciiValid[idx] = false
	p.ctrlValid[idx] = false
}

// erase marks the page's content invalid (C4 bit) without dropping the
// (page,sub) identity slot itself; the next acquisition cycle starts fresh.
func (p *Page) erase() {
	p.Erased = true
	p.HaveLines = [NumLines]bool{}
	p.asciiValid = [NumLines]bool{}
	p.ctrlValid = [NumLines]bool{}
}

// GetText returns row idx rendered as ASCII: non-printable and teletext
// control bytes become spaces. National-option code points are resolved via
// the page's charset.
func (p *Page) GetText(idx int) string {
	if idx < 0 || idx >= NumLines || !p.HaveLines[idx] {
		return ""
	}
	if p.asciiValid[idx] {
		return p.asciiCache[idx]
	}
	out := make([]byte, LineWidth)
	for i, b := range p.Lines[idx] {
		c := b & 0x7f
		switch {
		case c < 0x20 || c == 0x7f:
			out[i] = ' '
		default:
			out[i] = remapG0(c, p.Charset)
		}
	}
	s := string(out)
	p.asciiCache[idx] = s
	p.asciiValid[idx] = true
	return s
}

// GetCtrl returns row idx rendered as Latin-1 with teletext control bytes
// preserved verbatim (0x00..0x07 colour/alpha-graphics, 0x10..0x17
// graphics-colour, 0x18 conceal, 0x1D bg-paint, ...).
func (p *Page) GetCtrl(idx int) string {
	if idx < 0 || idx >= NumLines || !p.HaveLines[idx] {
		return ""
	}
	if p.ctrlValid[idx] {
		return p.ctrlCache[idx]
	}
	out := make([]rune, LineWidth)
	for i, b := range p.Lines[idx] {
		c := b & 0x7f
		if c < 0x20 || c == 0x7f {
			out[i] = rune(c) // control code, preserved
			continue
		}
		out[i] = rune(remapG0(c, p.Charset))
	}
	s := string(out)
	p.ctrlCache[idx] = s
	p.ctrlValid[idx] = true
	return s
}

// ── G0 national-option table ─────────────────────────────────────────────
//
// Twelve column positions differ between national G0 variants: the set
// {0x23,0x24,0x40,0x5B,0x5C,0x5D,0x5E,0x5F,0x60,0x7B,0x7C,0x7D,0x7E} minus
// one reserved slot (0x7E, left out of g0Positions and passed through
// unchanged). charsetTable[set][pos] overrides the plain-ASCII byte
// at that code point; set 0 is English/Latin-1 and passes ASCII through
// unchanged.
var g0Positions = []byte{0x23, 0x24, 0x40, 0x5B, 0x5C, 0x5D, 0x5E, 0x5F, 0x60, 0x7B, 0x7C, 0x7D}

// charsetTable[n] lists, in the same order as g0Positions, the replacement
// rune for national-option set n (1..7); set 0 (English) needs no entries.
var charsetTable = [8][]rune{
	0: nil, // English / Latin-1
	1: {'$', '$', 'Ä', 'Ö', 'Ü', '^', '_', '`', 'ä', 'ö', 'ü', 'ß'}, // German
	2: {'$', '¤', 'É', 'Ä', 'Ö', 'Å', 'Ü', '_', 'é', 'ä', 'ö', 'å'}, // Swedish/Finnish/Hungarian
	3: {'£', '$', 'é', '°', 'ç', '»', '^', '_', 'ù', 'à', 'ò', 'è'}, // Italian
	4: {'é', 'ï', 'à', 'ë', 'ê', 'ù', 'î', '_', 'è', 'â', 'ô', 'û'}, // French
	5: {'ç', '$', 'á', '¿', 'é', 'í', 'ó', 'ú', 'ç', '¡', 'ñ', 'è'}, // Portuguese/Spanish
	6: {'#', 'ů', 'č', 'ť', 'ž', 'ý', 'í', 'ř', 'é', 'á', 'ě', 'ú'}, // Czech/Slovak
	7: {'$', 'ğ', 'İ', 'Ş', 'Ö', 'Ç', 'Ü', 'Ğ', 'ı', 'ş', 'ö', 'ç'}, // Turkish
}

func remapG0(c byte, charset int) byte {
	if charset < 0 || charset > 7 || charsetTable[charset] == nil {
		return c
	}
	for i, pos := range g0Positions {
		if pos == c {
			r := charsetTable[charset][i]
			if r <= 0xff {
				return byte(r)
			}
			return c // non-Latin1 replacement, GetText keeps the ASCII byte
		}
	}
	return c
}
