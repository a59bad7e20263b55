package epgscrape

import (
	"regexp"
	"strings"
)

// featureTokens maps a lowercased trailing token to the feature bit it
// sets, grounded on the broadcaster-specific tag vocabulary (including the
// ORF "DS/SS/DD/ZS" localizations for Dolby/bilingual audio).
var featureTokens = map[string]Feature{
	"untertitel": FeatSubtitles,
	"ut":         FeatSubtitles,
	"omu":        FeatOMU,
	"sw":         FeatBW,
	"s/w":        FeatBW,
	"hd":         FeatHD,
	"breitbild":  Feat169,
	"16:9":       Feat169,
	"4:3":        0,
	"oo":         FeatStereo,
	"stereo":     FeatStereo,
	"ad":         FeatTwoChan,
	"hörfilm":    FeatTwoChan,
	"hf":         FeatTwoChan,
	"2k":         FeatTwoChan,
	"2k-ton":     FeatTwoChan,
	"dolby":      FeatDolby,
	"surround":   FeatDolby,
	"mono":       FeatMono,
	"tipp":       FeatTip,
	"tipp!":      FeatTip,
	// ORF
	"ds": FeatDolby,
	"ss": FeatDolby,
	"dd": FeatDolby,
	"zs": FeatTwoChan,
}

// featurePattern recognizes one trailing feature token, including the
// "UT [auf] NNN" subtitle-page variant and "Wh./Wdh./Whg." repeat markers
// (which carry no bit but must still be stripped from the title).
var featurePattern = regexp.MustCompile(`(?i)^(UT( (auf )?[1-8][0-9]{2})?|Untertitel|Hörfilm|HF|AD|S/?W|OmU|4:3|16:9|HD|Breitbild|2K(-Ton)?|Mono|Stereo|Dolby|Surround|DS|SS|DD|ZS|Wh\.?|Wdh\.?|Whg\.?|Tipp!?)$`)

// trailingRunSplit splits a title's trailing "(tag, tag/tag)" or
// " tag tag" run into individual tokens, which allFeatureTokens then
// checks one by one against featurePattern.
var trailingRunSplit = regexp.MustCompile(`[ ,/]+`)

// ParseTrailingFeatures strips a trailing run of feature tags from title
// (parenthesised, or separated by space/comma/slash) and returns the
// cleaned title plus the extracted feature bitset. A leading "!" on the
// title sets the tip flag independently of the trailing-tag run.
func ParseTrailingFeatures(title string) (string, Feature) {
	var feat Feature
	title = strings.TrimRight(title, " ")

	if strings.HasPrefix(title, "!") {
		feat |= FeatTip
		title = strings.TrimPrefix(title, "!")
		title = strings.TrimLeft(title, " ")
	}

	// Parenthesised run: "Title (16:9, UT)"
	if m := parenRun.FindStringSubmatch(title); m != nil {
		tokens := trailingRunSplit.Split(m[2], -1)
		if allFeatureTokens(tokens) {
			for _, tok := range tokens {
				feat |= lookupFeature(tok)
			}
			title = strings.TrimRight(m[1], " ")
			return title, feat
		}
	}

	// Bare trailing run: "Title 16:9 UT"
	words := strings.Fields(title)
	end := len(words)
	for end > 0 && featurePattern.MatchString(words[end-1]) {
		feat |= lookupFeature(words[end-1])
		end--
	}
	if end < len(words) {
		title = strings.Join(words[:end], " ")
	}
	return strings.TrimRight(title, " "), feat
}

var parenRun = regexp.MustCompile(`^(.*?)\s*\(([^()]+)\)\s*$`)

func allFeatureTokens(tokens []string) bool {
	if len(tokens) == 0 {
		return false
	}
	for _, t := range tokens {
		if t == "" || !featurePattern.MatchString(t) {
			return false
		}
	}
	return true
}

func lookupFeature(tok string) Feature {
	return featureTokens[strings.ToLower(strings.TrimSuffix(tok, "."))]
}
