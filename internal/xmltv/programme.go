// Package xmltv writes one XMLTV guide file per broadcaster: a title/desc
// listing merged against whatever file was already on disk, so programmes
// already exported keep their richer text when a re-scrape only turns up a
// shorter title for the same slot.
package xmltv

import (
	"fmt"
	"strings"
	"time"
)

// Channel identifies the single channel an XMLTV file is written for.
type Channel struct {
	ID          string // SID_<service_id> for DVB, sanitized name for analog
	DisplayName string
}

// DVBChannelID returns the "SID_<service_id>" channel-ID form.
func DVBChannelID(serviceID int) string {
	return fmt.Sprintf("SID_%d", serviceID)
}

// AnalogChannelID sanitizes a tuner channel name into an XMLTV channel id by
// replacing every byte outside [A-Za-z0-9] with '_'.
func AnalogChannelID(name string) string {
	var b strings.Builder
	for _, r := range name {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	return b.String()
}

// Programme is one exportable slot.
type Programme struct {
	Start, Stop time.Time
	HasStop     bool
	PDCStart    time.Time
	HasPDC      bool
	Channel     string

	Title       string
	Subtitle    string
	Description string

	Video, Audio string
	SubtitleType string // "onscreen" | "teletext"
	StarRating   string // "n/m", empty if none
}

// Key returns the merge key "{epoch_start};{channel_id}".
func (p Programme) Key() string {
	return fmt.Sprintf("%d;%s", p.Start.Unix(), p.Channel)
}

func (p Programme) overlaps(other Programme) bool {
	end := p.Stop
	if !p.HasStop {
		end = p.Start.Add(2 * time.Hour)
	}
	oEnd := other.Stop
	if !other.HasStop {
		oEnd = other.Start.Add(2 * time.Hour)
	}
	return p.Start.Before(oEnd) && other.Start.Before(end)
}
