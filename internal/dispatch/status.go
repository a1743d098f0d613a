package dispatch

import (
	"strings"

	"golang.org/x/text/cases"
)

// Classify maps the dispatch-plan label and the raw upstream transaction
// status to a lifecycle stage. A missing plan always wins; otherwise the raw
// status decides, defaulting to For Dispatch.
func Classify(dispatchLabel, rawStatus string) Status {
	label := strings.TrimSpace(dispatchLabel)
	if label == "" || strings.EqualFold(label, UnlinkedLabel) {
		return StatusUnlinked
	}
	normalized := fold(cases.Fold(), rawStatus)
	switch {
	case strings.Contains(normalized, "clear"):
		return StatusCleared
	case strings.Contains(normalized, "inbound"):
		return StatusInbound
	default:
		return StatusForDispatch
	}
}

// fold trims and case-folds s. Casers are stateful, so callers own one each.
func fold(c cases.Caser, s string) string {
	return c.String(strings.TrimSpace(s))
}
