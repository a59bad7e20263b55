package ttxdb

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/snapetech/ttxepg/internal/archive"
)

// Dump writes a Perl-compatible raw serialization of the database: enough
// to round-trip page content and the CNI frequency map for debugging and
// regression fixtures (matches the nxtvepg test harness's $Pkg{}/$PgCnt{}
// dump format).
func (db *DB) Dump(w io.Writer) error {
	db.mu.RLock()
	defer db.mu.RUnlock()

	bw := bufio.NewWriter(w)

	for cni, n := range db.cniFreq {
		if _, err := fmt.Fprintf(bw, "$PkgCni{0x%04x} = %d;\n", cni, n); err != nil {
			return err
		}
	}

	keys := make([]Key, 0, len(db.pages))
	for k := range db.pages {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Page != keys[j].Page {
			return keys[i].Page < keys[j].Page
		}
		return keys[i].Sub < keys[j].Sub
	})

	for _, k := range keys {
		p := db.pages[k]
		id := pageID(k)
		if _, err := fmt.Fprintf(bw, "$PgCnt{0x%x} = %d;\n", id, p.RepCount); err != nil {
			return err
		}
		if _, err := fmt.Fprintf(bw, "$PgTime{0x%x} = %d;\n", id, p.Acquired.Unix()); err != nil {
			return err
		}
		for i := 0; i < NumLines; i++ {
			if !p.HaveLines[i] {
				continue
			}
			if _, err := fmt.Fprintf(bw, "$Pkg{0x%x}[%d] = \"%s\";\n", id, i, perlQuote(p.Lines[i][:])); err != nil {
				return err
			}
		}
	}
	return bw.Flush()
}

// DumpToFile writes the database's raw dump to path, transparently
// brotli-compressing it when path ends ".br" (see internal/archive).
func (db *DB) DumpToFile(path string) error {
	w, err := archive.CreateDumpWriter(path, 0)
	if err != nil {
		return err
	}
	if err := db.Dump(w); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}

// ImportFromFile loads a dump previously written by DumpToFile, transparently
// brotli-decompressing it when path ends ".br".
func (db *DB) ImportFromFile(path string) error {
	r, err := archive.OpenDumpReader(path)
	if err != nil {
		return err
	}
	defer r.Close()
	return db.Import(r)
}

// pageID folds (page,sub) into the single key nxtvepg-style dumps index
// page content by: page | (sub<<12).
func pageID(k Key) uint32 {
	return uint32(k.Page) | uint32(k.Sub)<<12
}

func pageFromID(id uint32) Key {
	return Key{Page: uint16(id & 0xfff), Sub: uint16(id >> 12)}
}

// perlQuote escapes raw bytes the way the Perl dump does: non-ASCII bytes
// become \xHH, and backslash plus the characters @$%" are backslash-escaped.
func perlQuote(data []byte) string {
	var b strings.Builder
	for _, c := range data {
		switch {
		case c == '\\' || c == '@' || c == '$' || c == '%' || c == '"':
			b.WriteByte('\\')
			b.WriteByte(c)
		case c < 0x20 || c >= 0x7f:
			fmt.Fprintf(&b, "\\x%02x", c)
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

var (
	reCni  = regexp.MustCompile(`^\$PkgCni\{0x([0-9a-fA-F]+)\}\s*=\s*(\d+);`)
	rePgt  = regexp.MustCompile(`^\$PgTime\{0x([0-9a-fA-F]+)\}\s*=\s*(\d+);`)
	rePkg  = regexp.MustCompile(`^\$Pkg\{0x([0-9a-fA-F]+)\}\[(\d+)\]\s*=\s*"(.*)";\s*$`)
	reHexB = regexp.MustCompile(`\\x([0-9a-fA-F]{2})`)
)

// Import reads a dump previously produced by Dump (or the Perl-compatible
// harness fixtures it mirrors) and merges it into the database.
func (db *DB) Import(r io.Reader) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for sc.Scan() {
		line := sc.Text()
		if m := reCni.FindStringSubmatch(line); m != nil {
			cni, _ := strconv.ParseUint(m[1], 16, 16)
			n, _ := strconv.Atoi(m[2])
			db.cniFreq[uint16(cni)] = n
			continue
		}
		if m := rePkg.FindStringSubmatch(line); m != nil {
			id, _ := strconv.ParseUint(m[1], 16, 32)
			row, _ := strconv.Atoi(m[2])
			data := perlUnquote(m[3])
			k := pageFromID(uint32(id))
			p, ok := db.pages[k]
			if !ok {
				p = &Page{Key: k}
				db.pages[k] = p
			}
			if row >= 0 && row < NumLines {
				var line40 [LineWidth]byte
				copy(line40[:], data)
				p.setLine(row, line40)
			}
			continue
		}
		if m := rePgt.FindStringSubmatch(line); m != nil {
			// acquisition timestamp; consumed but not required for scraping
			continue
		}
	}
	return sc.Err()
}

func perlUnquote(s string) []byte {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] != '\\' || i+1 >= len(s) {
			out = append(out, s[i])
			continue
		}
		if s[i+1] == 'x' && i+3 < len(s) {
			if m := reHexB.FindStringSubmatch(s[i:]); m != nil {
				v, _ := strconv.ParseUint(m[1], 16, 8)
				out = append(out, byte(v))
				i += 3
				continue
			}
		}
		out = append(out, s[i+1])
		i++
	}
	return out
}
