package xmltv

import (
	"regexp"
	"sort"
	"strings"
	"time"
)

// Merge combines a freshly scraped programme list with whatever was
// previously on disk for the same channel, expiring stale entries from the
// old list and preferring the new scrape's data except where the old
// entry's title is the same programme with richer text attached.
//
// oldProgrammes must already be sorted by Start; newProgrammes need not be.
func Merge(newProgrammes, oldProgrammes []Programme, expireBefore time.Time) []Programme {
	news := append([]Programme(nil), newProgrammes...)
	sort.Slice(news, func(i, j int) bool { return news[i].Start.Before(news[j].Start) })

	var olds []Programme
	for _, p := range oldProgrammes {
		end := p.Start
		if p.HasStop {
			end = p.Stop
		}
		if end.Before(expireBefore) {
			continue
		}
		olds = append(olds, p)
	}
	sort.Slice(olds, func(i, j int) bool { return olds[i].Start.Before(olds[j].Start) })

	newByKey := map[string]bool{}
	for _, p := range news {
		newByKey[p.Key()] = true
	}

	var out []Programme
	ni, oi := 0, 0
	for ni < len(news) && oi < len(olds) {
		n, o := news[ni], olds[oi]

		if n.Start.Before(o.Start) || n.overlaps(o) {
			if titleEquivalentAndShorter(o.Title, n.Title) {
				n.Subtitle = o.Subtitle
				n.Description = o.Description
			}
			out = append(out, n)
			ni++
			for oi < len(olds) && olds[oi].overlaps(n) {
				oi++
			}
			continue
		}

		if !newByKey[o.Key()] {
			out = append(out, o)
		}
		oi++
	}
	out = append(out, news[ni:]...)
	for ; oi < len(olds); oi++ {
		if !newByKey[olds[oi].Key()] {
			out = append(out, olds[oi])
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out
}

var nonAlnum = regexp.MustCompile(`[^\p{L}\p{N}]+`)

func normAlnum(s string) string {
	return strings.ToLower(nonAlnum.ReplaceAllString(s, ""))
}

// titleEquivalentAndShorter reports whether newTitle is the alnum-equal,
// same-or-shorter form of oldTitle -- the signal that oldTitle's richer
// subtitle/description still describes the same programme.
func titleEquivalentAndShorter(oldTitle, newTitle string) bool {
	if oldTitle == "" || newTitle == "" {
		return false
	}
	if normAlnum(oldTitle) != normAlnum(newTitle) {
		return false
	}
	return len(newTitle) <= len(oldTitle)
}
