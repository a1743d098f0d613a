package dispatch

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Upstream records carry numbers as strings, strings as numbers and nulls
// almost anywhere. The types below accept all of those without failing the
// surrounding record.

// Flex is a string field that may arrive as a JSON number.
type Flex string

// UnmarshalJSON implements json.Unmarshaler.
func (f *Flex) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			*f = ""
			return nil
		}
		*f = Flex(strings.TrimSpace(s))
		return nil
	}
	if data[0] == '{' || data[0] == '[' {
		*f = ""
		return nil
	}
	*f = Flex(string(data))
	return nil
}

// String returns the trimmed value.
func (f Flex) String() string { return strings.TrimSpace(string(f)) }

// FlexInt is an integer identifier that may arrive as a string, a float or a
// relation object carrying an id.
type FlexInt int64

// UnmarshalJSON implements json.Unmarshaler.
func (i *FlexInt) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	*i = 0
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	if data[0] == '{' {
		var rel struct {
			ID FlexInt `json:"id"`
		}
		if err := json.Unmarshal(data, &rel); err == nil {
			*i = rel.ID
		}
		return nil
	}
	var f Flex
	_ = f.UnmarshalJSON(data)
	*i = FlexInt(parseID(f.String()))
	return nil
}

func parseID(s string) int64 {
	if s == "" {
		return 0
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n
	}
	d, err := decimal.NewFromString(s)
	if err != nil || !d.Equal(d.Truncate(0)) {
		return 0
	}
	return d.IntPart()
}

// Amount is a monetary field. Garbage, null and non-finite values read as zero.
type Amount struct {
	decimal.Decimal
	Valid bool
}

// UnmarshalJSON implements json.Unmarshaler.
func (a *Amount) UnmarshalJSON(data []byte) error {
	var f Flex
	_ = f.UnmarshalJSON(data)
	*a = ParseAmount(f.String())
	return nil
}

// maxAmount bounds accepted magnitudes. Anything larger is a corrupt value
// and would overflow float64 once exposed.
var maxAmount = decimal.New(1, 15)

// ParseAmount leniently parses s ("1,250.50", "  12 ", "NaN"). Values beyond
// ±maxAmount read as an invalid zero.
func ParseAmount(s string) Amount {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return Amount{Decimal: decimal.Zero}
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		// decimal rejects NaN/Inf which is what we want.
		return Amount{Decimal: decimal.Zero}
	}
	if d.Abs().GreaterThan(maxAmount) {
		return Amount{Decimal: decimal.Zero}
	}
	return Amount{Decimal: d, Valid: true}
}

// Or returns a when it was present upstream, otherwise fallback.
func (a Amount) Or(fallback decimal.Decimal) decimal.Decimal {
	if a.Valid {
		return a.Decimal
	}
	return fallback
}

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05.000",
}

// normalizeDate returns s as YYYY-MM-DD, or "" when it does not parse.
func normalizeDate(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(dateLayout)
		}
	}
	return ""
}

// firstDate walks candidates in order and returns the first parsable date.
func firstDate(candidates ...Flex) string {
	for _, c := range candidates {
		if d := normalizeDate(c.String()); d != "" {
			return d
		}
	}
	return ""
}
