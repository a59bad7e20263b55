package epgscrape

import (
	"context"
	"strings"
	"time"

	"github.com/snapetech/ttxepg/internal/metrics"
	"github.com/snapetech/ttxepg/internal/ratelimit"
	"github.com/snapetech/ttxepg/internal/ttxdb"
)

// DefaultExpireMinutes is how long a programme is kept after it ends before
// Scrape drops it from the result set.
const DefaultExpireMinutes = 90

// maxStopGap bounds how far Scrape will look into the next overview page to
// borrow a closing slot's start time as the current page's last stop time.
const maxStopGap = 9 * time.Hour

// Scrape walks each overview page number's sub-pages in db, extracts
// programme slots, resolves dates, strips feature tags, attaches
// description-page text, derives stop times, and drops anything expired as
// of now. Pages are returned in the same order as overviewPages. m may be
// nil; when set it counts overview pages whose format could not be
// autodetected. rl paces each referenced description-page lookup (nil
// disables pacing), standing in for the real acquisition-stream cost of
// fetching a page the live decoder has not captured yet.
func Scrape(db *ttxdb.DB, overviewPages []uint16, expireMin int, now time.Time, m *metrics.Metrics, rl *ratelimit.Limiter) []*Page {
	if expireMin <= 0 {
		expireMin = DefaultExpireMinutes
	}

	var result []*Page
	var lastKnownDate time.Time

	for _, pageNo := range overviewPages {
		subs := db.Subpages(pageNo)
		if len(subs) == 0 {
			continue
		}

		pages := scrapeOverviewPage(db, pageNo, subs, &lastKnownDate, m, rl)
		DetectDuplicateSubpages(pages)
		result = append(result, pages...)
	}

	deriveStopTimes(result)
	return filterExpired(result, expireMin, now)
}

func scrapeOverviewPage(db *ttxdb.DB, pageNo uint16, subs []uint16, lastKnownDate *time.Time, m *metrics.Metrics, rl *ratelimit.Limiter) []*Page {
	var allRows []string
	rowsBySub := map[uint16][]string{}
	for _, sub := range subs {
		p := db.Get(pageNo, sub)
		if p == nil {
			continue
		}
		rows := bodyRows(p)
		rowsBySub[sub] = rows
		allRows = append(allRows, rows...)
	}

	format, haveFormat := AutodetectFormat(allRows)
	refFmt, _ := AutodetectRefFormat(allRows)
	if !haveFormat {
		if m != nil {
			m.ScraperParseMisses.Inc()
		}
		return nil
	}

	var out []*Page
	for _, sub := range subs {
		p := db.Get(pageNo, sub)
		if p == nil {
			continue
		}
		rows, ok := rowsBySub[sub]
		if !ok {
			continue
		}

		acquired := p.Acquired
		if acquired.IsZero() {
			acquired = time.Now()
		}

		date, dateKnown := pageDate(p, acquired)
		if dateKnown {
			*lastKnownDate = date
		} else if !lastKnownDate.IsZero() {
			date = *lastKnownDate
			dateKnown = true
		}

		slots := ExtractSlots(rows, format, refFmt)
		finalizeSlots(slots, date, db, rl)

		out = append(out, &Page{
			PageNo:     pageNo,
			SubNo:      sub,
			Date:       date,
			DateKnown:  dateKnown,
			Slots:      slots,
			HeadRow:    0,
			FootRow:    detectFooter(rows),
		})
	}
	return out
}

// bodyRows returns packets 1..23 of p as ASCII text, the range ExtractSlots
// operates over (row 0 is the header and carries the page clock/date, not
// programme data).
func bodyRows(p *ttxdb.Page) []string {
	rows := make([]string, ttxdb.NumLines-1)
	for i := 1; i < ttxdb.NumLines; i++ {
		rows[i-1] = p.GetText(i)
	}
	return rows
}

// pageDate looks for an explicit date on the page header; if none is
// found it reports !ok so the caller can propagate the last known date.
func pageDate(p *ttxdb.Page, acquired time.Time) (time.Time, bool) {
	header := p.GetText(0)
	pd, ok := ParseDate(header, acquired)
	if !ok {
		return time.Time{}, false
	}
	y, m, d := pd.Resolve(acquired)
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, acquired.Location()), true
}

// finalizeSlots resolves each slot's title/features/description and its
// Start timestamp (date + hour:minute, rolling to the next day if the
// programme list wraps past midnight within one page).
func finalizeSlots(slots []Slot, date time.Time, db *ttxdb.DB, rl *ratelimit.Limiter) {
	dayOffset := 0
	prevMinutes := -1
	for i := range slots {
		s := &slots[i]

		title := strings.TrimSpace(strings.Join(s.RawTitleLines, " "))
		title, feat := ParseTrailingFeatures(title)
		if strings.HasPrefix(title, "!") {
			feat |= FeatTip
			title = strings.TrimSpace(strings.TrimPrefix(title, "!"))
		}
		s.Title = title
		s.Features = feat
		s.Tip = feat.Has(FeatTip)

		minutes := s.Hour*60 + s.Minute
		if prevMinutes >= 0 && minutes < prevMinutes {
			dayOffset++
		}
		prevMinutes = minutes
		s.DateOffset = dayOffset

		day := date.AddDate(0, 0, dayOffset)
		s.Start = time.Date(day.Year(), day.Month(), day.Day(), s.Hour, s.Minute, 0, 0, day.Location())
		if s.HasEnd {
			end := day
			if s.EndHour*60+s.EndMinute < minutes {
				end = end.AddDate(0, 0, 1)
			}
			s.Stop = time.Date(end.Year(), end.Month(), end.Day(), s.EndHour, s.EndMinute, 0, 0, end.Location())
		}

		if s.HaveDesc && db != nil {
			rl.Wait(context.Background())
			attachDescription(s, db)
		}
	}
}

func attachDescription(s *Slot, db *ttxdb.DB) {
	subs := db.Subpages(s.DescPage)
	if len(subs) == 0 {
		return
	}

	var rowSets [][]string
	for _, sub := range subs {
		if dp := db.Get(s.DescPage, sub); dp != nil {
			rowSets = append(rowSets, bodyRows(dp))
		}
	}
	if len(rowSets) == 0 {
		return
	}

	primary := rowSets[0]
	var siblings [][]string
	if len(rowSets) > 1 {
		siblings = rowSets[1:]
	}
	RefineFromDescription(s, primary, siblings)
}

// deriveStopTimes fills in Stop for any slot that closed without an
// explicit end time: the next slot's Start on the same page, or (if this is
// a page's last slot) the next page's first slot's Start provided the gap
// is under maxStopGap. A slot left with neither is "stop time undefined"
// per the scraper's own rules and is emitted with a zero Stop.
func deriveStopTimes(pages []*Page) {
	for pi, p := range pages {
		for si := range p.Slots {
			s := &p.Slots[si]
			if s.HasEnd || !s.Stop.IsZero() {
				continue
			}
			if si+1 < len(p.Slots) {
				s.Stop = p.Slots[si+1].Start
				continue
			}
			if next := nextPageFirstSlotStart(pages, pi); !next.IsZero() {
				if next.Sub(s.Start) < maxStopGap {
					s.Stop = next
				}
			}
		}
	}
}

func nextPageFirstSlotStart(pages []*Page, idx int) time.Time {
	for i := idx + 1; i < len(pages); i++ {
		if len(pages[i].Slots) > 0 {
			return pages[i].Slots[0].Start
		}
	}
	return time.Time{}
}

// filterExpired drops slots whose effective end (Stop, or Start+120min if
// Stop is undefined) is older than now minus expireMin; pages left with no
// surviving slots are dropped entirely.
func filterExpired(pages []*Page, expireMin int, now time.Time) []*Page {
	cutoff := now.Add(-time.Duration(expireMin) * time.Minute)

	var out []*Page
	for _, p := range pages {
		var kept []Slot
		for _, s := range p.Slots {
			if s.Skip {
				continue
			}
			effectiveEnd := s.Stop
			if effectiveEnd.IsZero() {
				effectiveEnd = s.Start.Add(120 * time.Minute)
			}
			if effectiveEnd.Before(cutoff) {
				continue
			}
			kept = append(kept, s)
		}
		if len(kept) == 0 {
			continue
		}
		p.Slots = kept
		out = append(out, p)
	}
	return out
}
