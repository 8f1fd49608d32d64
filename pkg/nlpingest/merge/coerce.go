package merge

import "fmt"

// EntityMap converts a stored target value into kind -> values. Lists may be
// []string or []any of strings. A nil value gives an empty map.
func EntityMap(v any) (map[string][]string, error) {
	out := make(map[string][]string)
	if v == nil {
		return out, nil
	}
	m, ok := v.(map[string]any)
	if !ok {
		if typed, ok := v.(map[string][]string); ok {
			for k, vals := range typed {
				out[k] = vals
			}
			return out, nil
		}
		return nil, fmt.Errorf("expected an object, got %T", v)
	}
	for kind, raw := range m {
		vals, err := StringList(raw)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", kind, err)
		}
		out[kind] = vals
	}
	return out, nil
}

// SplitEntities converts a stored target object kind by kind. Entries that
// hold string lists go into entities; any other entry is returned untouched
// in rest. It fails only when v is not an object.
func SplitEntities(v any) (entities map[string][]string, rest map[string]any, err error) {
	entities = make(map[string][]string)
	rest = make(map[string]any)
	switch m := v.(type) {
	case nil:
	case map[string][]string:
		for k, vals := range m {
			entities[k] = vals
		}
	case map[string]any:
		for kind, raw := range m {
			vals, err := StringList(raw)
			if err != nil {
				rest[kind] = raw
				continue
			}
			entities[kind] = vals
		}
	default:
		return nil, nil, fmt.Errorf("expected an object, got %T", v)
	}
	return entities, rest, nil
}

// StringList converts a stored list into []string. A single string becomes a
// one element list.
func StringList(v any) ([]string, error) {
	switch list := v.(type) {
	case nil:
		return nil, nil
	case string:
		return []string{list}, nil
	case []string:
		return list, nil
	case []any:
		out := make([]string, 0, len(list))
		for i, item := range list {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("item %d: expected a string, got %T", i, item)
			}
			out = append(out, s)
		}
		return out, nil
	}
	return nil, fmt.Errorf("expected a list of strings, got %T", v)
}

// EntityDoc converts kind -> values back into the document representation.
// Kinds without values are left out.
func EntityDoc(m map[string][]string) map[string]any {
	out := make(map[string]any, len(m))
	for kind, vals := range m {
		if len(vals) == 0 {
			continue
		}
		list := make([]any, len(vals))
		for i, s := range vals {
			list[i] = s
		}
		out[kind] = list
	}
	return out
}

// TagMap converts a stored target value into a tag map. A nil value gives an
// empty map.
func TagMap(v any) (map[string]any, error) {
	switch m := v.(type) {
	case nil:
		return map[string]any{}, nil
	case map[string]any:
		return m, nil
	}
	return nil, fmt.Errorf("expected an object, got %T", v)
}
