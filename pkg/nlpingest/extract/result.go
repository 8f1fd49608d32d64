package extract

// Result is one of EntitySet, TagCounts or AnnotatedText.
type Result interface {
	result()
}

// Mention is one occurrence of an entity in the source text.
type Mention struct {
	Text  string
	Start int // byte offset
	End   int // byte offset, exclusive
}

// EntitySet holds the distinct values found for one entity kind,
// in order of first appearance.
type EntitySet struct {
	Kind     string
	Values   []string
	Mentions []Mention
}

// Empty reports whether nothing was found.
func (s EntitySet) Empty() bool { return len(s.Values) == 0 }

// TagCounts holds part-of-speech tag counts for one text.
type TagCounts struct {
	Counts map[string]int
	// Total is the number of tagged tokens before any allow-list filtering.
	Total      int
	Normalized bool
}

// Value returns the count of tag, or its share of Total when normalized.
func (c TagCounts) Value(tag string) float64 {
	n := c.Counts[tag]
	if c.Normalized {
		if c.Total == 0 {
			return 0
		}
		return float64(n) / float64(c.Total)
	}
	return float64(n)
}

// Values returns the document representation: int counts, or float64
// fractions when normalized.
func (c TagCounts) Values() map[string]any {
	out := make(map[string]any, len(c.Counts))
	for tag, n := range c.Counts {
		if c.Normalized {
			out[tag] = c.Value(tag)
		} else {
			out[tag] = n
		}
	}
	return out
}

// Annotation marks one span of AnnotatedText.
type Annotation struct {
	Kind string
	Mention
}

// AnnotatedText is the source text with entities marked inline as
// [surface](kind).
type AnnotatedText struct {
	Text        string
	Annotations []Annotation
}

func (EntitySet) result()     {}
func (TagCounts) result()     {}
func (AnnotatedText) result() {}
