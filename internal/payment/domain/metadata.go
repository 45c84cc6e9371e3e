package domain

import "regexp"

var metadataKeyPattern = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// Metadata is the caller-supplied scalar bag attached to a payment.
// Values are restricted to string, float64, and bool so the aggregate
// stays trivially serializable for the outbox payload.
type Metadata map[string]any

// SanitizeMetadata coerces a raw metadata map: keys must match
// [A-Za-z0-9_]+ and be at most 128 chars; values are kept as string
// (truncated to 1000 chars), float64, or bool, anything else dropped.
// Unlike field validation elsewhere, a malformed entry is silently
// dropped rather than rejected.
func SanitizeMetadata(in map[string]any) Metadata {
	out := make(Metadata, len(in))
	for k, v := range in {
		if len(k) == 0 || len(k) > 128 || !metadataKeyPattern.MatchString(k) {
			continue
		}
		switch val := v.(type) {
		case string:
			if len(val) > 1000 {
				val = val[:1000]
			}
			out[k] = val
		case float64:
			out[k] = val
		case int:
			out[k] = float64(val)
		case bool:
			out[k] = val
		default:
			continue
		}
	}
	return out
}
