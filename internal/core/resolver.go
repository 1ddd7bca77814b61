package core

import "strings"

// Column names the engine looks for. Matching is by normalized substring, so
// headers such as "SURCHARGEMULTIPLIER (x)" still resolve.
const (
	ColTrackedValue   = "SURCHARGEMULTIPLIER"
	ColPayorAgreement = "PAYORAGREECODE"
	ColBillingGroup   = "BILLINGGROUPCODE"
	ColOrderItem      = "ORDERITEMCODE"
	ColActiveTo       = "ACTIVETO"
	ColActiveFrom     = "ACTIVEFROM"
)

// normalizeHeader upper-cases and trims a header cell or target name.
func normalizeHeader(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// ResolveColumn returns the index of the first header cell whose normalized
// form contains the normalized target. ok is false when nothing matches; that
// means the sheet does not apply, never that something went wrong.
func ResolveColumn(header []string, target string) (idx int, ok bool) {
	want := normalizeHeader(target)
	if want == "" {
		return -1, false
	}
	for i, h := range header {
		norm := normalizeHeader(h)
		if norm == "" {
			continue
		}
		if strings.Contains(norm, want) {
			return i, true
		}
	}
	return -1, false
}
