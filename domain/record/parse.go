package record

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/luizvinicius2219/planimport/domain/schema"
)

// Locale fixes how numbers and dates are read. It comes from configuration
// and the schema contract, never from sniffing cell contents.
type Locale struct {
	DecimalComma bool // "1.234,56" style when true, "1,234.56" when false
	DayFirst     bool // "02/01/2006" reads as January 2nd when true
}

// Date layouts tried in order. Two-digit years are deliberately absent:
// their century is ambiguous and ambiguous input is rejected, not guessed.
var (
	isoLayouts = []string{
		"2006-01-02",
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05",
		time.RFC3339,
		"2006/01/02",
		"20060102",
	}
	dayFirstLayouts = []string{
		"2/1/2006",
		"2-1-2006",
		"2.1.2006",
		"2/1/2006 15:04:05",
		"2/1/2006 15:04",
	}
	monthFirstLayouts = []string{
		"1/2/2006",
		"1-2-2006",
		"1.2.2006",
		"1/2/2006 15:04:05",
		"1/2/2006 15:04",
	}
)

// excelEpoch is day zero of the 1900 date system used by xlsx serials
var excelEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

// maxExcelSerial is the serial for 9999-12-31
const maxExcelSerial = 2958465

// CleanCell strips spreadsheet export artifacts from a raw cell:
// surrounding whitespace and the ="..." formula wrapper some tools
// emit to protect leading zeros.
func CleanCell(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, `="`) && strings.HasSuffix(s, `"`) && len(s) >= 3 {
		s = s[2 : len(s)-1]
	}
	return s
}

// Coerce converts one cleaned, non-empty cell into a typed value
func Coerce(raw string, typ schema.ColumnType, loc Locale) (Value, error) {
	switch typ {
	case schema.TypeString:
		return NewStringValue(raw), nil
	case schema.TypeInteger:
		n, err := parseInteger(raw, loc)
		if err != nil {
			return Value{}, err
		}
		return NewIntegerValue(n), nil
	case schema.TypeDecimal:
		f, err := parseDecimal(raw, loc)
		if err != nil {
			return Value{}, err
		}
		return NewDecimalValue(f), nil
	case schema.TypeDate:
		t, err := parseDate(raw, loc)
		if err != nil {
			return Value{}, err
		}
		return NewDateValue(t), nil
	}
	return Value{}, fmt.Errorf("unknown column type %q", typ)
}

// stripAccounting trims the value and unwraps the accounting negative
// form "(123,45)" into its sign
func stripAccounting(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") && len(s) > 2 {
		return strings.TrimSpace(s[1 : len(s)-1]), true
	}
	return s, false
}

// stripCurrency removes a leading currency marker ("R$ 1.234,56", "$9.99")
func stripCurrency(s string) string {
	lower := strings.ToLower(s)
	for _, sym := range []string{"r$", "$"} {
		if strings.HasPrefix(lower, sym) {
			return strings.TrimSpace(s[len(sym):])
		}
	}
	return s
}

// splitNumber separates a numeric literal into integer and fraction digits
// under the locale's separators. Grouping separators must sit in valid
// three-digit group positions; anything else is rejected rather than
// reinterpreted.
func splitNumber(s string, loc Locale) (intPart, fracPart string, err error) {
	decimalSep, groupSep := ".", ","
	if loc.DecimalComma {
		decimalSep, groupSep = ",", "."
	}

	if strings.Count(s, decimalSep) > 1 {
		return "", "", fmt.Errorf("multiple %q separators", decimalSep)
	}
	if i := strings.Index(s, decimalSep); i >= 0 {
		intPart, fracPart = s[:i], s[i+1:]
		if fracPart == "" || !allDigits(fracPart) {
			return "", "", fmt.Errorf("bad fraction %q", fracPart)
		}
	} else {
		intPart = s
	}

	intPart = strings.TrimPrefix(intPart, "+")
	neg := strings.HasPrefix(intPart, "-")
	digits := strings.TrimPrefix(intPart, "-")

	if digits == "" && fracPart != "" {
		// ",5" / ".5" style
		intPart = sign(neg) + "0"
		return intPart, fracPart, nil
	}
	if !validGrouping(digits, groupSep) {
		return "", "", fmt.Errorf("bad digit grouping in %q", digits)
	}
	digits = strings.ReplaceAll(digits, groupSep, "")
	digits = strings.ReplaceAll(digits, " ", "")
	if digits == "" || !allDigits(digits) {
		return "", "", fmt.Errorf("not a number")
	}
	return sign(neg) + digits, fracPart, nil
}

// validGrouping accepts plain digit runs and runs grouped in threes by the
// group separator or by spaces
func validGrouping(digits, groupSep string) bool {
	if allDigits(digits) {
		return true
	}
	for _, sep := range []string{groupSep, " "} {
		groups := strings.Split(digits, sep)
		if len(groups) < 2 {
			continue
		}
		ok := len(groups[0]) >= 1 && len(groups[0]) <= 3 && allDigits(groups[0])
		for _, g := range groups[1:] {
			if len(g) != 3 || !allDigits(g) {
				ok = false
				break
			}
		}
		if ok {
			return true
		}
	}
	return false
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func sign(neg bool) string {
	if neg {
		return "-"
	}
	return ""
}

func parseInteger(raw string, loc Locale) (int64, error) {
	s, neg := stripAccounting(raw)
	intPart, fracPart, err := splitNumber(s, loc)
	if err != nil {
		return 0, err
	}
	// a zero fraction ("123,0") still names an integer
	if fracPart != "" && strings.Trim(fracPart, "0") != "" {
		return 0, fmt.Errorf("fractional value %q", raw)
	}
	n, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return 0, err
	}
	if neg {
		n = -n
	}
	return n, nil
}

func parseDecimal(raw string, loc Locale) (float64, error) {
	s, neg := stripAccounting(raw)
	s = stripCurrency(s)
	intPart, fracPart, err := splitNumber(s, loc)
	if err != nil {
		// Raw workbook numerics arrive machine-formatted ("10.5") whatever
		// the locale. Accept them only when the locale reading is
		// impossible, so "1.234" under a decimal comma stays 1234.
		if f, ok := machineDecimal(s); ok {
			if neg {
				f = -f
			}
			return f, nil
		}
		return 0, err
	}
	lit := intPart
	if fracPart != "" {
		lit += "." + fracPart
	}
	f, err := strconv.ParseFloat(lit, 64)
	if err != nil {
		return 0, err
	}
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, fmt.Errorf("value %q out of range", raw)
	}
	if neg {
		f = -f
	}
	return f, nil
}

// machineDecimal reads a plain dot-decimal literal, the form stored inside
// xlsx files. No grouping, no exponent.
func machineDecimal(s string) (float64, bool) {
	body := strings.TrimPrefix(strings.TrimPrefix(s, "+"), "-")
	intPart, fracPart, dotted := strings.Cut(body, ".")
	if !allDigits(intPart) || (dotted && !allDigits(fracPart)) {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, false
	}
	return f, true
}

func parseDate(raw string, loc Locale) (time.Time, error) {
	s := strings.TrimSpace(raw)

	// bare numbers are xlsx date serials when they fall in the
	// representable range
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		if f >= 1 && f <= maxExcelSerial {
			return excelEpoch.AddDate(0, 0, int(f)), nil
		}
		if len(s) != 8 {
			return time.Time{}, fmt.Errorf("number %q is not a date serial", s)
		}
		// 8-digit numbers fall through to the 20060102 layout
	}

	layouts := make([]string, 0, len(isoLayouts)+len(dayFirstLayouts))
	layouts = append(layouts, isoLayouts...)
	if loc.DayFirst {
		layouts = append(layouts, dayFirstLayouts...)
	} else {
		layouts = append(layouts, monthFirstLayouts...)
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}
