// Package epgscrape turns a teletext overview page range into programme
// slots: it autodetects the page's column layout, parses embedded dates in
// several languages, extracts (hour,minute,title) slots with their
// continuation lines, strips trailing feature tags, locates the
// description page for each slot, derives stop times, and drops expired
// programmes.
package epgscrape

import "time"

// Feature is a bitset over the presentation attributes a slot's trailing
// tag run can carry.
type Feature uint16

const (
	FeatSubtitles Feature = 1 << iota
	FeatTwoChan           // bilingual audio / audio description
	Feat169
	FeatBW
	FeatHD
	FeatDolby
	FeatMono
	FeatOMU // original language with subtitles
	FeatStereo
	FeatTip
)

func (f Feature) Has(bit Feature) bool { return f&bit != 0 }

// Slot is one extracted programme (OV_SLOT).
type Slot struct {
	Page, Sub uint16

	Hour, Minute       int
	HasEnd             bool
	EndHour, EndMinute int

	Start, Stop time.Time // resolved once the page's date is known
	DateOffset  int       // local date-wrap counter at the point this slot opened

	VPSLabel string

	DescPage uint16
	HaveDesc bool

	Tip bool

	RawTitleLines []string

	Title       string
	Subtitle    string
	Description string
	Features    Feature

	Skip bool // duplicate sub-page slot list; excluded from output
}

// Page is one teletext overview page interpreted as a slot list (OV_PAGE).
type Page struct {
	PageNo, SubNo uint16
	Date          time.Time
	DateKnown     bool
	DateOffset    int
	Slots         []Slot
	SkipCount     int
	HeadRow       int
	FootRow       int
}
