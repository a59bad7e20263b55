package epgscrape

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// language is a bitmask so a name shared across locales (rare, but some
// abbreviations collide) can be tagged with every language it belongs to.
type language int

const (
	langEnglish language = 1 << iota
	langGerman
	langFrench
)

// monthNames maps a lowercased month name or abbreviation to (language, 1-based month).
var monthNames = map[string]struct {
	lang  language
	month int
}{
	"january": {langEnglish, 1}, "jan": {langEnglish, 1},
	"february": {langEnglish, 2}, "feb": {langEnglish, 2},
	"march": {langEnglish, 3}, "mar": {langEnglish, 3},
	"april": {langEnglish, 4}, "apr": {langEnglish, 4},
	"may": {langEnglish, 5},
	"june": {langEnglish, 6}, "jun": {langEnglish, 6},
	"july": {langEnglish, 7}, "jul": {langEnglish, 7},
	"august": {langEnglish, 8}, "aug": {langEnglish, 8},
	"september": {langEnglish, 9}, "sep": {langEnglish, 9}, "sept": {langEnglish, 9},
	"october": {langEnglish, 10}, "oct": {langEnglish, 10},
	"november": {langEnglish, 11}, "nov": {langEnglish, 11},
	"december": {langEnglish, 12}, "dec": {langEnglish, 12},

	"januar": {langGerman, 1}, "jänner": {langGerman, 1},
	"februar": {langGerman, 2},
	"märz":    {langGerman, 3},
	"mai":     {langGerman, 5},
	"juni":    {langGerman, 6},
	"juli":    {langGerman, 7},
	"oktober": {langGerman, 10}, "okt": {langGerman, 10},
	"dezember": {langGerman, 12}, "dez": {langGerman, 12},

	"janvier":   {langFrench, 1},
	"février":   {langFrench, 2},
	"mars":      {langFrench, 3},
	"avril":     {langFrench, 4},
	// "mai" (May) is shared verbatim with German and already mapped above.
	"juin":      {langFrench, 6},
	"juillet":   {langFrench, 7},
	"août":      {langFrench, 8},
	"septembre": {langFrench, 9},
	"octobre":   {langFrench, 10},
	"novembre":  {langFrench, 11},
	"décembre":  {langFrench, 12},
}

// weekdayNames maps a lowercased weekday name/abbreviation to time.Weekday.
var weekdayNames = map[string]time.Weekday{
	"sunday": time.Sunday, "sun": time.Sunday, "sonntag": time.Sunday, "so": time.Sunday, "dimanche": time.Sunday, "dim": time.Sunday,
	"monday": time.Monday, "mon": time.Monday, "montag": time.Monday, "mo": time.Monday, "lundi": time.Monday, "lun": time.Monday,
	"tuesday": time.Tuesday, "tue": time.Tuesday, "dienstag": time.Tuesday, "di": time.Tuesday, "mardi": time.Tuesday, "mar": time.Tuesday,
	"wednesday": time.Wednesday, "wed": time.Wednesday, "mittwoch": time.Wednesday, "mi": time.Wednesday, "mercredi": time.Wednesday, "mer": time.Wednesday,
	"thursday": time.Thursday, "thu": time.Thursday, "donnerstag": time.Thursday, "do": time.Thursday, "jeudi": time.Thursday, "jeu": time.Thursday,
	"friday": time.Friday, "fri": time.Friday, "freitag": time.Friday, "fr": time.Friday, "vendredi": time.Friday, "ven": time.Friday,
	"saturday": time.Saturday, "sat": time.Saturday, "samstag": time.Saturday, "sa": time.Saturday, "samedi": time.Saturday, "sam": time.Saturday,
}

// relativeDayNames maps a relative-day word to a day offset from "today".
var relativeDayNames = map[string]int{
	"today": 0, "heute": 0, "aujourd'hui": 0,
	"tomorrow": 1, "morgen": 1, "demain": 1,
	"yesterday": -1, "gestern": -1, "hier": -1,
}

// ParsedDate is the result of matching one of the date patterns, with a
// priority so a caller scanning several lines can keep the highest-priority
// match seen.
type ParsedDate struct {
	Mday, Month, Year int // absolute date; Year==0 means "not given, use current/century-inferred"
	RelDayOffset      int // valid only when Relative is true
	Relative          bool
	Priority          int
}

var (
	reDMY        = regexp.MustCompile(`(?i)(?:(` + weekdayAlt + `),?\s+)?(\d{1,2})\.(\d{1,2})\.(\d{4}|\d{2})?`)
	reDayMonth   = regexp.MustCompile(`(?i)(\d{1,2})\.\s*(` + monthAlt + `)\.?\s*(\d{4})?`)
	reWdayDayMon = regexp.MustCompile(`(?i)(` + weekdayAlt + `)\s+(\d{1,2})\.?\s*(` + monthAlt + `)\.?\s*(\d{4})?`)
	reWdayTime   = regexp.MustCompile(`(?i)(` + weekdayAlt + `)\s+\d{1,2}[:.]\d{2}(-\d{1,2}[:.]\d{2})?`)
	reWdayAlone  = regexp.MustCompile(`(?i)(` + weekdayAlt + `)\b`)
	reRelative   = regexp.MustCompile(`(?i)\b(` + relativeAlt + `)\b`)
)

func alternationWeekday() string {
	keys := make([]string, 0, len(weekdayNames))
	for k := range weekdayNames {
		keys = append(keys, regexp.QuoteMeta(k))
	}
	return strings.Join(keys, "|")
}

func alternationMonth() string {
	keys := make([]string, 0, len(monthNames))
	for k := range monthNames {
		keys = append(keys, regexp.QuoteMeta(k))
	}
	return strings.Join(keys, "|")
}

func alternationRelative() string {
	keys := make([]string, 0, len(relativeDayNames))
	for k := range relativeDayNames {
		keys = append(keys, regexp.QuoteMeta(k))
	}
	return strings.Join(keys, "|")
}

var (
	weekdayAlt  = alternationWeekday()
	monthAlt    = alternationMonth()
	relativeAlt = alternationRelative()
)

// ParseDate tries each pattern in priority order against line (one header
// row of an overview page) and returns the highest-priority match.
func ParseDate(line string, now time.Time) (ParsedDate, bool) {
	var best ParsedDate
	haveBest := false

	consider := func(pd ParsedDate, ok bool) {
		if ok && (!haveBest || pd.Priority > best.Priority) {
			best, haveBest = pd, true
		}
	}

	consider(tryDMY(line, now))
	consider(tryDayMonth(line, now))
	consider(tryWdayDayMonth(line, now))
	consider(tryWdayTime(line, now))
	consider(tryWdayAlone(line, now))
	consider(tryRelative(line))

	return best, haveBest
}

func tryDMY(line string, now time.Time) (ParsedDate, bool) {
	m := reDMY.FindStringSubmatch(line)
	if m == nil {
		return ParsedDate{}, false
	}
	mday, _ := strconv.Atoi(m[2])
	month, _ := strconv.Atoi(m[3])
	year := resolveYear(m[4], now)
	if !validDate(mday, month) {
		return ParsedDate{}, false
	}
	return ParsedDate{Mday: mday, Month: month, Year: year, Priority: 3}, true
}

func tryDayMonth(line string, now time.Time) (ParsedDate, bool) {
	m := reDayMonth.FindStringSubmatch(line)
	if m == nil {
		return ParsedDate{}, false
	}
	mday, _ := strconv.Atoi(m[1])
	info, ok := monthNames[strings.ToLower(m[2])]
	if !ok || !validDate(mday, info.month) {
		return ParsedDate{}, false
	}
	year := resolveYear(m[3], now)
	return ParsedDate{Mday: mday, Month: info.month, Year: year, Priority: 3}, true
}

func tryWdayDayMonth(line string, now time.Time) (ParsedDate, bool) {
	m := reWdayDayMon.FindStringSubmatch(line)
	if m == nil {
		return ParsedDate{}, false
	}
	mday, _ := strconv.Atoi(m[2])
	info, ok := monthNames[strings.ToLower(m[3])]
	if !ok || !validDate(mday, info.month) {
		return ParsedDate{}, false
	}
	year := resolveYear(m[4], now)
	return ParsedDate{Mday: mday, Month: info.month, Year: year, Priority: 3}, true
}

func tryWdayTime(line string, now time.Time) (ParsedDate, bool) {
	m := reWdayTime.FindStringSubmatch(line)
	if m == nil {
		return ParsedDate{}, false
	}
	wd, ok := weekdayNames[strings.ToLower(m[1])]
	if !ok {
		return ParsedDate{}, false
	}
	return ParsedDate{RelDayOffset: dayOffsetForWeekday(now, wd), Relative: true, Priority: 2}, true
}

func tryWdayAlone(line string, now time.Time) (ParsedDate, bool) {
	m := reWdayAlone.FindStringSubmatch(line)
	if m == nil {
		return ParsedDate{}, false
	}
	wd, ok := weekdayNames[strings.ToLower(m[1])]
	if !ok {
		return ParsedDate{}, false
	}
	return ParsedDate{RelDayOffset: dayOffsetForWeekday(now, wd), Relative: true, Priority: 1}, true
}

func tryRelative(line string) (ParsedDate, bool) {
	m := reRelative.FindStringSubmatch(line)
	if m == nil {
		return ParsedDate{}, false
	}
	off, ok := relativeDayNames[strings.ToLower(m[1])]
	if !ok {
		return ParsedDate{}, false
	}
	return ParsedDate{RelDayOffset: off, Relative: true, Priority: 0}, true
}

func validDate(mday, month int) bool {
	return mday >= 1 && mday <= 31 && month >= 1 && month <= 12
}

// resolveYear expands a two-digit year to the century of now (the page's
// acquisition time, not wall-clock time -- a replayed capture's dates must
// resolve against when the page was captured); an empty match means "year
// not given" (Year==0, caller uses the acquisition year).
func resolveYear(s string, now time.Time) int {
	if s == "" {
		return 0
	}
	y, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	if len(s) == 2 {
		century := (now.Year() / 100) * 100
		return century + y
	}
	return y
}

// dayOffsetForWeekday returns how many days from now's weekday to wd,
// taking the closest future (or same-day) occurrence.
func dayOffsetForWeekday(now time.Time, wd time.Weekday) int {
	delta := int(wd) - int(now.Weekday())
	if delta < 0 {
		delta += 7
	}
	return delta
}

// Resolve turns a ParsedDate into an absolute (year,month,day), resolving
// relative offsets and missing years against the page's acquisition time.
func (pd ParsedDate) Resolve(acquired time.Time) (year, month, day int) {
	if pd.Relative {
		d := acquired.AddDate(0, 0, pd.RelDayOffset)
		return d.Year(), int(d.Month()), d.Day()
	}
	year = pd.Year
	if year == 0 {
		year = acquired.Year()
	}
	return year, pd.Month, pd.Mday
}
