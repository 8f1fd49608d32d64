package extract

import "strings"

// PunctTag is the label for tags that consist of non-word characters only.
const PunctTag = "PUNCT"

// CanonicalTag strips non-word characters (anything but ASCII letters,
// digits and underscore) from tag. A tag left empty becomes PunctTag.
func CanonicalTag(tag string) string {
	var b strings.Builder
	for i := 0; i < len(tag); i++ {
		c := tag[i]
		if c == '_' || ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z') || ('0' <= c && c <= '9') {
			b.WriteByte(c)
		}
	}
	if b.Len() == 0 {
		return PunctTag
	}
	return b.String()
}

// countTags canonicalizes and counts tags, skipping those outside allow
// when allow is non-empty.
func countTags(tags []string, allow map[string]struct{}, normalize bool) TagCounts {
	counts := make(map[string]int)
	for _, t := range tags {
		tag := CanonicalTag(t)
		if len(allow) > 0 {
			if _, ok := allow[tag]; !ok {
				continue
			}
		}
		counts[tag]++
	}
	return TagCounts{Counts: counts, Total: len(tags), Normalized: normalize}
}
