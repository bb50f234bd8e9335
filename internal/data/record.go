package data

// Record is a database entry as decoded from an MMDB file. Nested values are
// map[string]any and []any; leaves are strings, float64, uint64 and so on.
type Record map[string]any

// Path walks r along path and returns the value found there. String steps
// index maps, int steps index slices. It reports false when any step is
// missing, when an intermediate value is not the container the step expects,
// or when the leaf is not a T.
func Path[T any](r Record, path ...any) (T, bool) {
	var zero T
	var cur any = map[string]any(r)
	for _, step := range path {
		switch key := step.(type) {
		case string:
			m, ok := asMap(cur)
			if !ok {
				return zero, false
			}
			if cur, ok = m[key]; !ok {
				return zero, false
			}
		case int:
			s, ok := cur.([]any)
			if !ok || key < 0 || key >= len(s) {
				return zero, false
			}
			cur = s[key]
		default:
			return zero, false
		}
	}
	v, ok := cur.(T)
	return v, ok
}

// PathOr is Path with a fallback for anything absent.
func PathOr[T any](r Record, def T, path ...any) T {
	if v, ok := Path[T](r, path...); ok {
		return v
	}
	return def
}

func asMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case Record:
		return m, true
	}
	return nil, false
}
