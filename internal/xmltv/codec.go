package xmltv

import (
	"bufio"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/html/charset"
)

const timeLayout = "20060102150405 -0700"

// escapeText applies the three HTML entities the format requires on output.
func escapeText(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	return s
}

// unescapeText reverses escapeText for imported text content.
func unescapeText(s string) string {
	s = strings.ReplaceAll(s, "&lt;", "<")
	s = strings.ReplaceAll(s, "&gt;", ">")
	s = strings.ReplaceAll(s, "&amp;", "&")
	return s
}

var (
	reChannel   = regexp.MustCompile(`<channel\s+id="([^"]*)"\s*>\s*<display-name>(.*?)</display-name>\s*</channel>`)
	reProgStart = regexp.MustCompile(`<programme\s+start="([^"]*)"(?:\s+stop="([^"]*)")?(?:\s+pdc-start="([^"]*)")?\s+channel="([^"]*)"\s*>`)
	reTitle     = regexp.MustCompile(`(?s)<title[^>]*>(.*?)</title>`)
	reSubtitle  = regexp.MustCompile(`(?s)<sub-title[^>]*>(.*?)</sub-title>`)
	reDesc      = regexp.MustCompile(`(?s)<desc[^>]*>(.*?)</desc>`)
)

// Decode line-scans an existing XMLTV file for <channel> and <programme>
// blocks, per the merge rule's explicit "line-scan, don't require a strict
// parser" contract -- upstream feeds routinely carry minor DTD deviations
// that a strict xml.Decoder would choke on.
func Decode(r io.Reader) (Channel, []Programme, error) {
	var ch Channel
	var progs []Programme

	// Prior output declares ISO-8859-1, but a harvester's own upstream feed
	// (what it reimports as "old" on the next merge) may carry a BOM or a
	// different declared charset; auto-detect and transcode to UTF-8 before
	// line-scanning rather than assuming our own declared encoding.
	utf8Reader, err := charset.NewReader(r, "application/xml")
	if err != nil {
		utf8Reader = r
	}

	sc := bufio.NewScanner(utf8Reader)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	var sb strings.Builder
	for sc.Scan() {
		sb.WriteString(sc.Text())
		sb.WriteByte('\n')
	}
	body := sb.String()

	if m := reChannel.FindStringSubmatch(body); m != nil {
		ch = Channel{ID: m[1], DisplayName: unescapeText(m[2])}
	}

	starts := reProgStart.FindAllStringSubmatchIndex(body, -1)
	for i, loc := range starts {
		m := reProgStart.FindStringSubmatch(body[loc[0]:loc[1]])
		blockEnd := len(body)
		if i+1 < len(starts) {
			blockEnd = starts[i+1][0]
		}
		block := body[loc[1]:blockEnd]

		p := Programme{Channel: m[4]}
		if t, err := time.Parse(timeLayout, m[1]); err == nil {
			p.Start = t
		} else {
			continue
		}
		if m[2] != "" {
			if t, err := time.Parse(timeLayout, m[2]); err == nil {
				p.Stop, p.HasStop = t, true
			}
		}
		if m[3] != "" {
			if t, err := time.Parse(timeLayout, m[3]); err == nil {
				p.PDCStart, p.HasPDC = t, true
			}
		}
		if tm := reTitle.FindStringSubmatch(block); tm != nil {
			p.Title = unescapeText(strings.TrimSpace(tm[1]))
		}
		if sm := reSubtitle.FindStringSubmatch(block); sm != nil {
			p.Subtitle = unescapeText(strings.TrimSpace(sm[1]))
		}
		if dm := reDesc.FindStringSubmatch(block); dm != nil {
			p.Description = unescapeText(strings.TrimSpace(dm[1]))
		}
		progs = append(progs, p)
	}

	return ch, progs, sc.Err()
}

// Encode writes the full XMLTV document: DOCTYPE header, one <channel>
// element, then one <programme> element per entry in programmes (callers
// must pass them pre-sorted by start time).
func Encode(w io.Writer, generator, generatorURL string, ch Channel, programmes []Programme) error {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="ISO-8859-1"?>` + "\n")
	b.WriteString(`<!DOCTYPE tv SYSTEM "xmltv.dtd">` + "\n")
	b.WriteString(`<tv generator-info-name="` + escapeText(generator) + `" generator-info-url="` + escapeText(generatorURL) + `" source-info-name="teletext">` + "\n")
	b.WriteString(`  <channel id="` + escapeText(ch.ID) + `"><display-name>` + escapeText(ch.DisplayName) + `</display-name></channel>` + "\n")

	for _, p := range programmes {
		b.WriteString(`  <programme start="` + p.Start.UTC().Format(timeLayout) + `"`)
		if p.HasStop {
			b.WriteString(` stop="` + p.Stop.UTC().Format(timeLayout) + `"`)
		}
		if p.HasPDC {
			b.WriteString(` pdc-start="` + p.PDCStart.UTC().Format(timeLayout) + `"`)
		}
		b.WriteString(` channel="` + escapeText(p.Channel) + `">` + "\n")
		b.WriteString(`    <title>` + escapeText(p.Title) + `</title>` + "\n")
		if p.Subtitle != "" {
			b.WriteString(`    <sub-title>` + escapeText(p.Subtitle) + `</sub-title>` + "\n")
		}
		if p.Description != "" {
			b.WriteString(`    <desc>` + escapeText(p.Description) + `</desc>` + "\n")
		}
		if p.Video != "" {
			b.WriteString(`    <video>` + escapeText(p.Video) + `</video>` + "\n")
		}
		if p.Audio != "" {
			b.WriteString(`    <audio>` + escapeText(p.Audio) + `</audio>` + "\n")
		}
		if p.SubtitleType != "" {
			b.WriteString(`    <subtitles type="` + escapeText(p.SubtitleType) + `"/>` + "\n")
		}
		if p.StarRating != "" {
			b.WriteString(`    <star-rating><value>` + escapeText(p.StarRating) + `</value></star-rating>` + "\n")
		}
		b.WriteString("  </programme>\n")
	}
	b.WriteString("</tv>\n")

	_, err := io.WriteString(w, b.String())
	return err
}

// parseEpoch is exposed for tests that want to construct the merge key
// without going through Decode.
func parseEpoch(s string) (int64, error) {
	return strconv.ParseInt(s, 10, 64)
}
