// Package format renders amounts and timestamps the way the loan portal displays them.
package format

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// IST is the display zone for every date shown to applicants.
var IST = time.FixedZone("IST", 5*60*60+30*60)

var (
	crore = decimal.NewFromInt(10000000)
	lakh  = decimal.NewFromInt(100000)
)

// INR formats amount as whole rupees with Indian digit grouping, e.g. ₹75,00,000.
func INR(amount decimal.Decimal) string {
	rounded := amount.Round(0)
	sign := ""
	if rounded.IsNegative() {
		sign = "-"
	}
	return sign + "₹" + groupIndian(rounded.Abs().String())
}

// INRInt is INR for integral rupee amounts.
func INRInt(amount int64) string {
	return INR(decimal.NewFromInt(amount))
}

// CompactINR abbreviates large amounts to crores or lakhs with two decimals.
func CompactINR(amount decimal.Decimal) string {
	abs := amount.Abs()
	switch {
	case abs.GreaterThanOrEqual(crore):
		return fmt.Sprintf("₹%s Cr", amount.Div(crore).StringFixed(2))
	case abs.GreaterThanOrEqual(lakh):
		return fmt.Sprintf("₹%s L", amount.Div(lakh).StringFixed(2))
	default:
		return INR(amount)
	}
}

func Date(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.In(IST).Format("2 Jan 2006")
}

func DateTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.In(IST).Format("2 Jan 2006, 03:04 PM")
}

// ISODate is the IST calendar date used in exported file names, matching the
// dates printed inside the export.
func ISODate(t time.Time) string {
	return t.In(IST).Format("2006-01-02")
}

// ParseISODate accepts the timestamp shapes the data store hands back.
func ParseISODate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05.999999", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid_date: %q", s)
}

func groupIndian(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	head, tail := digits[:len(digits)-3], digits[len(digits)-3:]
	parts := make([]string, 0, len(head)/2+1)
	for len(head) > 2 {
		parts = append([]string{head[len(head)-2:]}, parts...)
		head = head[:len(head)-2]
	}
	if head != "" {
		parts = append([]string{head}, parts...)
	}
	return strings.Join(parts, ",") + "," + tail
}
