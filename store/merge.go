package store

// Merge overlays overlay onto base and returns a new tree. Nested objects
// merge key by key; scalars, arrays and nulls from overlay replace. Keys
// present only in base survive. Neither input is modified.
func Merge(base, overlay map[string]any) map[string]any {
	out := make(map[string]any, len(base)+len(overlay))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range overlay {
		if sub, ok := v.(map[string]any); ok {
			if existing, ok := out[k].(map[string]any); ok {
				out[k] = Merge(existing, sub)
				continue
			}
		}
		out[k] = v
	}
	return out
}
