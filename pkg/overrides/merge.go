package overrides

import "maps"

// Merge overlays override onto base without modifying either. When both are
// objects they are merged key by key; otherwise override wins, including
// arrays and explicit null. Absent overrides keep the base value.
func Merge(base, override Value) Value {
	if override.kind == KindAbsent {
		return base
	}
	if base.kind != KindObject || override.kind != KindObject {
		return override
	}
	out := make(map[string]Value, len(base.fields)+len(override.fields))
	maps.Copy(out, base.fields)
	for key, ov := range override.fields {
		if ov.kind == KindAbsent {
			continue
		}
		out[key] = Merge(base.fields[key], ov)
	}
	return Object(out)
}

// MergeOnto overlays an override tree onto host configuration data. Base
// leaves of any type pass through untouched and base is never modified. An
// empty tree returns base itself.
func MergeOnto(base map[string]any, override Value) map[string]any {
	if override.kind != KindObject || len(override.fields) == 0 {
		return base
	}
	merged, ok := mergeAny(base, override).(map[string]any)
	if !ok {
		return base
	}
	return merged
}

func mergeAny(base any, override Value) any {
	baseMap, ok := base.(map[string]any)
	if !ok || override.kind != KindObject {
		return override.Any()
	}
	out := make(map[string]any, len(baseMap)+len(override.fields))
	maps.Copy(out, baseMap)
	for key, ov := range override.fields {
		if ov.kind == KindAbsent {
			continue
		}
		out[key] = mergeAny(baseMap[key], ov)
	}
	return out
}
