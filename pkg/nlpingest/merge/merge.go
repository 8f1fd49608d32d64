package merge

import (
	"fmt"
	"strings"

	"github.com/cognicore/nlpingest/pkg/nlpingest/nlperr"
)

// TagPolicy decides how new tag counts combine with stored ones.
type TagPolicy string

const (
	// TagsOverwrite replaces the value of every tag that was counted again.
	TagsOverwrite TagPolicy = "overwrite"
	// TagsAccumulate adds new counts to numeric stored values.
	TagsAccumulate TagPolicy = "accumulate"
)

// ParseTagPolicy validates a configured policy name. Empty means overwrite.
func ParseTagPolicy(s string) (TagPolicy, error) {
	switch TagPolicy(strings.ToLower(s)) {
	case "", TagsOverwrite:
		return TagsOverwrite, nil
	case TagsAccumulate:
		return TagsAccumulate, nil
	}
	return "", fmt.Errorf("%w: unknown tag merge policy %q", nlperr.ErrInvalidConfig, s)
}

// Entities merges newValues for kind into existing and returns the result.
// Stored values come first, followed by new values not seen before. Empty
// newValues leave kind as it was. Kinds with an empty stored list are
// dropped. Neither input is modified.
func Entities(existing map[string][]string, kind string, newValues []string) map[string][]string {
	out := make(map[string][]string, len(existing)+1)
	for k, v := range existing {
		if len(v) == 0 {
			continue
		}
		out[k] = v
	}
	if len(newValues) == 0 {
		return out
	}

	current := existing[kind]
	merged := make([]string, 0, len(current)+len(newValues))
	seen := make(map[string]struct{}, len(current)+len(newValues))
	for _, list := range [][]string{current, newValues} {
		for _, v := range list {
			if _, dup := seen[v]; dup {
				continue
			}
			seen[v] = struct{}{}
			merged = append(merged, v)
		}
	}
	out[kind] = merged
	return out
}

// Tags merges counts into existing under policy and returns the result.
// Keys not present in counts keep their stored value.
func Tags(existing, counts map[string]any, policy TagPolicy) map[string]any {
	out := make(map[string]any, len(existing)+len(counts))
	for k, v := range existing {
		out[k] = v
	}
	for tag, v := range counts {
		if policy == TagsAccumulate {
			if total, ok := add(out[tag], v); ok {
				out[tag] = total
				continue
			}
		}
		out[tag] = v
	}
	return out
}

// add sums two numeric values. The result stays an int when both are integers.
func add(a, b any) (any, bool) {
	ia, aInt := integer(a)
	ib, bInt := integer(b)
	if aInt && bInt {
		return ia + ib, true
	}
	fa, aNum := number(a)
	fb, bNum := number(b)
	if !aNum || !bNum {
		return nil, false
	}
	return fa + fb, true
}

func integer(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case int32:
		return int(n), true
	}
	return 0, false
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	case float64:
		return n, true
	case float32:
		return float64(n), true
	}
	return 0, false
}
