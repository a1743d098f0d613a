package remote

import (
	"encoding/json"
	"net/url"
	"sort"
	"strings"
)

// Query narrows a collection read on the server side.
type Query struct {
	Filter map[string]string
	Fields []string
	Sort   []string
}

// Eq adds a filter[field][_eq]=value clause.
func (q Query) Eq(field, value string) Query {
	return q.with("filter["+field+"][_eq]", value)
}

// In adds a filter[field][_in]=v1,v2 clause. Values containing a comma
// cannot be expressed in the list and are left out; read them with Eq.
func (q Query) In(field string, values []string) Query {
	listed, _ := SplitListable(values)
	return q.with("filter["+field+"][_in]", strings.Join(listed, ","))
}

// SplitListable separates values that can travel in an _in list from
// those that contain the list separator.
func SplitListable(values []string) (listed, single []string) {
	for _, v := range values {
		if strings.Contains(v, ",") {
			single = append(single, v)
			continue
		}
		listed = append(listed, v)
	}
	return listed, single
}

func (q Query) with(key, value string) Query {
	filter := make(map[string]string, len(q.Filter)+1)
	for k, v := range q.Filter {
		filter[k] = v
	}
	filter[key] = value
	q.Filter = filter
	return q
}

// Values encodes q as URL parameters.
func (q Query) Values() url.Values {
	params := url.Values{}
	keys := make([]string, 0, len(q.Filter))
	for k := range q.Filter {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		params.Set(k, q.Filter[k])
	}
	if len(q.Fields) > 0 {
		params.Set("fields", strings.Join(q.Fields, ","))
	}
	if len(q.Sort) > 0 {
		params.Set("sort", strings.Join(q.Sort, ","))
	}
	return params
}

// Decode unmarshals each raw record into T. Records that do not decode are
// skipped; the number skipped is returned alongside.
func Decode[T any](records []json.RawMessage) ([]T, int) {
	out := make([]T, 0, len(records))
	skipped := 0
	for _, raw := range records {
		var v T
		if err := json.Unmarshal(raw, &v); err != nil {
			skipped++
			continue
		}
		out = append(out, v)
	}
	return out, skipped
}
