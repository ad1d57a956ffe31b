// Package htmlutil provides the small library of pure functions over a
// parsed AiSEG2 page described in spec §4.2: text/number extraction by CSS
// selector. The concrete pages and selectors are owned by the collectors
// in internal/aiseg/collectors; this package knows nothing about them.
package htmlutil

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// ParseDocument parses raw HTML bytes into a queryable document.
func ParseDocument(body []byte) (*goquery.Document, error) {
	return goquery.NewDocumentFromReader(strings.NewReader(string(body)))
}

// Finder is satisfied by both *goquery.Document and *goquery.Selection, so
// the helpers below work equally against a whole page or a row scoped to
// one repeating element (e.g. one circuit's table row).
type Finder interface {
	Find(selector string) *goquery.Selection
}

// SelectText returns the trimmed text of the first node matching selector,
// or false if nothing matched.
func SelectText(scope Finder, selector string) (string, bool) {
	sel := scope.Find(selector).First()
	if sel.Length() == 0 {
		return "", false
	}
	return strings.TrimSpace(sel.Text()), true
}

// SelectAllText returns the trimmed text of every node matching selector,
// in document order.
func SelectAllText(scope Finder, selector string) []string {
	var out []string
	scope.Find(selector).Each(func(_ int, s *goquery.Selection) {
		out = append(out, strings.TrimSpace(s.Text()))
	})
	return out
}

var unitSuffixes = []string{"kWh", "kwh", "W", "℃", "°C", "%", "L", "m3", "㎥"}

// ParseNumeric strips thousands separators, known unit suffixes, and
// whitespace from s and parses the remainder as a float. It returns false
// on failure rather than an error, matching the "tolerant parsing, skip
// unparseable rows" behavior collectors rely on (spec §4.3).
func ParseNumeric(s string) (float64, bool) {
	cleaned := strings.TrimSpace(s)
	cleaned = strings.ReplaceAll(cleaned, ",", "")
	for _, suffix := range unitSuffixes {
		cleaned = strings.TrimSuffix(cleaned, suffix)
	}
	cleaned = strings.TrimSpace(cleaned)
	if cleaned == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// digitValueClass matches AiSEG2's convention of encoding a digit widget's
// current value as a "val_N" class token, distinct from the selector class
// that merely identifies the widget's position (e.g. "temp_d1").
var digitValueClass = regexp.MustCompile(`(?:^|\s)val_(\d)(?:\s|$)`)

// ExtractDigits reconstructs a decimal value from AiSEG2's climate widgets,
// which render one HTML element per digit rather than a plain text node
// (original_source's extract_numeric_from_digit_elements). selectors must
// be given most-significant digit first; the last selector is treated as
// the tenths place after the decimal point. Each matched element's value
// is read from a "val_N" class token, not the selector's own class name.
func ExtractDigits(scope Finder, selectors ...string) (float64, bool) {
	if len(selectors) < 2 {
		return 0, false
	}
	digits := make([]byte, len(selectors))
	for i, sel := range selectors {
		class, ok := scope.Find(sel).First().Attr("class")
		if !ok {
			return 0, false
		}
		match := digitValueClass.FindStringSubmatch(class)
		if match == nil {
			return 0, false
		}
		digits[i] = match[1][0]
	}

	whole := string(digits[:len(digits)-1])
	tenths := string(digits[len(digits)-1])
	return ParseNumeric(whole + "." + tenths)
}

// DayOfBeginning normalizes t to local midnight, used by the total
// collectors to timestamp a day's aggregate at the day boundary rather
// than the moment of collection (spec §4.3, original_source's
// day_of_beginning).
func DayOfBeginning(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, t.Location())
}
