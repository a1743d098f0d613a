package dispatchhttp

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/odyssey-erp/dispatch-recon/internal/dispatch"
)

const (
	defaultPage  = 1
	defaultLimit = 20
)

// filterParams is the raw query string before normalization.
type filterParams struct {
	Status       string `validate:"omitempty,dispatch_status"`
	SalesmanID   string `validate:"omitempty,number|eq=all"`
	CustomerCode string `validate:"max=64"`
	From         string `validate:"omitempty,datetime=2006-01-02"`
	To           string `validate:"omitempty,datetime=2006-01-02"`
	Search       string `validate:"max=200"`
}

var paramNames = map[string]string{
	"Status":       "status",
	"SalesmanID":   "salesmanId",
	"CustomerCode": "customerCode",
	"From":         "from",
	"To":           "to",
	"Search":       "search",
}

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("dispatch_status", func(fl validator.FieldLevel) bool {
		_, ok := dispatch.ParseStatus(fl.Field().String())
		return ok
	})
	return v
}

func readFilterParams(q url.Values) filterParams {
	get := func(key string) string { return strings.TrimSpace(q.Get(key)) }
	return filterParams{
		Status:       get("status"),
		SalesmanID:   strings.ToLower(get("salesmanId")),
		CustomerCode: get("customerCode"),
		From:         get("from"),
		To:           get("to"),
		Search:       get("search"),
	}
}

// IgnoredParamsHeader lists query parameters dropped as invalid.
const IgnoredParamsHeader = "X-Ignored-Params"

const maxSearch = 200

// parseFilters normalizes the filter parameters. Invalid values never fail
// the request: they are dropped (or truncated, for search) and reported in
// the returned list. "all" sentinels disable their filter. An inverted range
// is kept and simply matches nothing.
func (h *Handler) parseFilters(r *http.Request) (dispatch.Filters, []string) {
	p := readFilterParams(r.URL.Query())
	ignored := h.dropInvalid(&p)

	status, _ := dispatch.ParseStatus(p.Status)
	f := dispatch.Filters{
		Status: status,
		From:   p.From,
		To:     p.To,
		Search: p.Search,
	}
	if p.SalesmanID != "" && p.SalesmanID != dispatch.AllSentinel {
		id, err := strconv.ParseInt(p.SalesmanID, 10, 64)
		if err != nil {
			ignored = appendParam(ignored, paramNames["SalesmanID"])
		} else {
			f.SalesmanID = id
		}
	}
	if !strings.EqualFold(p.CustomerCode, dispatch.AllSentinel) {
		f.CustomerCode = p.CustomerCode
	}
	return f, ignored
}

// dropInvalid clears every field of p that fails validation and returns the
// query names of those fields, sorted.
func (h *Handler) dropInvalid(p *filterParams) []string {
	err := h.validate.Struct(p)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		*p = filterParams{}
		return []string{"filters"}
	}
	var ignored []string
	for _, fe := range verrs {
		switch fe.Field() {
		case "Status":
			p.Status = ""
		case "SalesmanID":
			p.SalesmanID = ""
		case "CustomerCode":
			p.CustomerCode = ""
		case "From":
			p.From = ""
		case "To":
			p.To = ""
		case "Search":
			p.Search = truncateRunes(p.Search, maxSearch)
		}
		name := paramNames[fe.Field()]
		if name == "" {
			name = fe.Field()
		}
		ignored = appendParam(ignored, name)
	}
	return ignored
}

func appendParam(params []string, name string) []string {
	for _, p := range params {
		if p == name {
			return params
		}
	}
	params = append(params, name)
	sort.Strings(params)
	return params
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return strings.TrimSpace(string(runes[:n]))
}

// filters parses the request filters and reports dropped parameters in a
// response header.
func (h *Handler) filters(w http.ResponseWriter, r *http.Request) dispatch.Filters {
	f, ignored := h.parseFilters(r)
	if len(ignored) > 0 {
		w.Header().Set(IgnoredParamsHeader, strings.Join(ignored, ", "))
		h.logger.Info("ignored invalid query parameters",
			slog.String("path", r.URL.Path), slog.Any("params", ignored))
	}
	return f
}

// listQuery adds page and limit. Both fall back to defaults when unparsable
// and are clamped downstream.
func (h *Handler) listQuery(w http.ResponseWriter, r *http.Request) dispatch.ListQuery {
	f := h.filters(w, r)
	q := r.URL.Query()
	return dispatch.ListQuery{
		Filters: f,
		Page:    intParam(q.Get("page"), defaultPage),
		Limit:   intParam(q.Get("limit"), defaultLimit),
	}
}

func intParam(raw string, fallback int) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return fallback
	}
	return n
}

// filterKey renders f canonically for cache and singleflight keys.
func filterKey(f dispatch.Filters) string {
	v := url.Values{}
	v.Set("status", string(f.Status))
	v.Set("salesman", strconv.FormatInt(f.SalesmanID, 10))
	v.Set("customer", f.CustomerCode)
	v.Set("from", f.From)
	v.Set("to", f.To)
	v.Set("q", strings.ToLower(f.Search))
	return v.Encode()
}
