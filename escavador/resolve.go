package escavador

// RawLawsuit is one lawsuit-like object as returned by the external API. The
// upstream schema is not stable, so values are kept loose and interpreted by
// the normalizer downstream.
type RawLawsuit map[string]any

// Outcome is the result of resolving an arbitrary upstream payload.
//
// Exactly one of three shapes holds: Records is non-empty (detail available),
// CountOnly is set (the payload advertised a total without record detail), or
// neither (nothing usable in the payload).
type Outcome struct {
	Records   []RawLawsuit
	CountOnly bool
	Total     int
}

// candidateKeys are tried in order; the first key whose value is a non-empty
// list wins. The order is load-bearing: upstream revisions answered under
// different keys and callers depend on a deterministic pick.
var candidateKeys = [...]string{"data", "processos", "results", "lawsuits", "dados"}

// Resolve locates the lawsuit list inside a deserialized JSON payload. The
// root value itself is the last candidate, covering responses that are a bare
// array. Payloads with only aggregate counters produce a count-only outcome.
func Resolve(payload any) Outcome {
	if records := asRecordList(payload); len(records) > 0 {
		return Outcome{Records: records}
	}

	obj, ok := payload.(map[string]any)
	if !ok {
		return Outcome{}
	}

	for _, key := range candidateKeys {
		if records := asRecordList(obj[key]); len(records) > 0 {
			return Outcome{Records: records}
		}
	}

	if total, ok := aggregateTotal(obj); ok {
		return Outcome{CountOnly: true, Total: total}
	}

	return Outcome{}
}

func asRecordList(v any) []RawLawsuit {
	list, ok := v.([]any)
	if !ok || len(list) == 0 {
		return nil
	}

	records := make([]RawLawsuit, 0, len(list))
	for _, item := range list {
		if obj, ok := item.(map[string]any); ok {
			records = append(records, RawLawsuit(obj))
		}
	}
	return records
}

func aggregateTotal(obj map[string]any) (int, bool) {
	for _, key := range [...]string{"total", "count"} {
		if v, ok := obj[key]; ok {
			if n, ok := v.(float64); ok {
				return int(n), true
			}
		}
	}
	return 0, false
}
