package dispatch

import (
	"sort"
	"strings"
)

// LinkageLabels maps invoice ids to their joined dispatch-plan doc numbers.
type LinkageLabels map[int64]string

// Label returns the plan label of invoiceID, or UnlinkedLabel.
func (l LinkageLabels) Label(invoiceID int64) string {
	if label, ok := l[invoiceID]; ok && label != "" {
		return label
	}
	return UnlinkedLabel
}

// ResolveLinkage performs the invoice -> link -> plan join. When scope is
// non-nil, links for invoices outside it are ignored.
func ResolveLinkage(links []LinkRecord, plans map[int64]Plan, scope []int64) LinkageLabels {
	docNos := make(map[int64]string, len(plans))
	for id, p := range plans {
		if doc := p.DocNo.String(); doc != "" {
			docNos[id] = doc
		}
	}

	var inScope map[int64]struct{}
	if scope != nil {
		inScope = make(map[int64]struct{}, len(scope))
		for _, id := range scope {
			inScope[id] = struct{}{}
		}
	}

	sets := make(map[int64]map[string]struct{})
	for _, link := range links {
		invoiceID := int64(link.InvoiceID)
		if invoiceID == 0 {
			continue
		}
		if inScope != nil {
			if _, ok := inScope[invoiceID]; !ok {
				continue
			}
		}
		doc, ok := docNos[int64(link.PlanID)]
		if !ok {
			continue
		}
		set, ok := sets[invoiceID]
		if !ok {
			set = make(map[string]struct{}, 1)
			sets[invoiceID] = set
		}
		set[doc] = struct{}{}
	}

	labels := make(LinkageLabels, len(sets))
	for invoiceID, set := range sets {
		docs := make([]string, 0, len(set))
		for doc := range set {
			docs = append(docs, doc)
		}
		sort.Strings(docs)
		labels[invoiceID] = strings.Join(docs, ", ")
	}
	return labels
}

// linkedPlanIDs collects the distinct plan ids referenced by links.
func linkedPlanIDs(links []LinkRecord) []int64 {
	ids := make([]int64, 0, len(links))
	for _, link := range links {
		ids = append(ids, int64(link.PlanID))
	}
	return distinct(ids)
}
