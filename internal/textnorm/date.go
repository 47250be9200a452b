package textnorm

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var monthNames = [...]string{
	"january", "february", "march", "april", "may", "june",
	"july", "august", "september", "october", "november", "december",
}

var (
	ordinalSuffix   = regexp.MustCompile(`(\d)(st|nd|rd|th)\b`)
	digitsLetters   = regexp.MustCompile(`^(\d+)([a-z]+)$`)
	lettersDigits   = regexp.MustCompile(`^([a-z]+)(\d+)$`)
	wordSeparators  = regexp.MustCompile(`[-/.]`)
	hasLetter       = regexp.MustCompile(`[a-z]`)
	allDigits       = regexp.MustCompile(`^\d+$`)
	fallbackLayouts = []string{
		"2006-1-2",
		"20060102",
		"2006/1/2",
		"2-1-2006",
		"2/1/2006",
		"1/2/2006",
		"2-1-06",
		"2/1/06",
		"1/2/06",
	}
)

// ParseDate resolves raw into a calendar date, using the current year when
// raw omits one. ok is false when no interpretation succeeds.
func ParseDate(raw string) (time.Time, bool) {
	return ParseDateAt(raw, time.Now())
}

// ParseDateAt is ParseDate with an explicit reference time; the result is
// midnight in ref's location.
func ParseDateAt(raw string, ref time.Time) (time.Time, bool) {
	loc := ref.Location()
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return time.Time{}, false
	}

	tokens := strings.Fields(cleanDate(trimmed))

	if len(tokens) == 1 && len(tokens[0]) == 4 && allDigits.MatchString(tokens[0]) {
		year, _ := strconv.Atoi(tokens[0])
		return time.Date(year, time.January, 1, 0, 0, 0, 0, loc), true
	}

	if len(tokens) == 2 {
		if d, ok := monthDayPair(tokens[0], tokens[1], ref.Year(), loc); ok {
			return d, true
		}
	}

	if d, ok := scanTokens(tokens, ref.Year(), loc); ok {
		return d, true
	}

	for _, layout := range fallbackLayouts {
		if t, err := time.ParseInLocation(layout, trimmed, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func cleanDate(s string) string {
	s = strings.ToLower(s)
	s = strings.ReplaceAll(s, ",", " ")
	s = ordinalSuffix.ReplaceAllString(s, "$1")
	// "31-may-2025" and "may/31" split like their spaced forms; purely numeric
	// forms keep their separators for the layout fallback.
	if hasLetter.MatchString(s) {
		s = wordSeparators.ReplaceAllString(s, " ")
	}
	s = strings.TrimSpace(s)
	if !strings.ContainsAny(s, " \t") {
		if m := digitsLetters.FindStringSubmatch(s); m != nil {
			s = m[1] + " " + m[2]
		} else if m := lettersDigits.FindStringSubmatch(s); m != nil {
			s = m[1] + " " + m[2]
		}
	}
	return s
}

// parseMonth accepts 1-12, a month name, or any fragment of one of at least
// three letters ("sept", "ma" is too short).
func parseMonth(tok string) (time.Month, bool) {
	if allDigits.MatchString(tok) {
		n, err := strconv.Atoi(tok)
		if err != nil || n < 1 || n > 12 || len(tok) > 2 {
			return 0, false
		}
		return time.Month(n), true
	}
	if len(tok) < 3 || !isLetters(tok) {
		return 0, false
	}
	for i, name := range monthNames {
		if strings.Contains(name, tok) {
			return time.Month(i + 1), true
		}
	}
	return 0, false
}

func parseDay(tok string) (int, bool) {
	if len(tok) == 0 || len(tok) > 2 || !allDigits.MatchString(tok) {
		return 0, false
	}
	n, _ := strconv.Atoi(tok)
	return n, n >= 1 && n <= 31
}

func isLetters(s string) bool {
	for _, r := range s {
		if r < 'a' || r > 'z' {
			return false
		}
	}
	return true
}

// monthDayPair handles two-token input such as "31 may", "may 31" or "31 05".
// Day-first is tried before month-first.
func monthDayPair(a, b string, year int, loc *time.Location) (time.Time, bool) {
	if m, ok := parseMonth(b); ok {
		if d, ok := parseDay(a); ok {
			if t, ok := buildDate(year, m, d, loc); ok {
				return t, true
			}
		}
	}
	if m, ok := parseMonth(a); ok {
		if d, ok := parseDay(b); ok {
			if t, ok := buildDate(year, m, d, loc); ok {
				return t, true
			}
		}
	}
	return time.Time{}, false
}

// scanTokens looks for a four digit year, a month and a day anywhere in the
// tokens. Named months win over numeric ones; the day is the shortest
// remaining one or two digit token.
func scanTokens(tokens []string, defaultYear int, loc *time.Location) (time.Time, bool) {
	if len(tokens) < 2 {
		return time.Time{}, false
	}

	year, yearIdx := defaultYear, -1
	for i, tok := range tokens {
		if len(tok) == 4 && allDigits.MatchString(tok) {
			year, _ = strconv.Atoi(tok)
			yearIdx = i
			break
		}
	}

	monthIdx := -1
	var month time.Month
	for i, tok := range tokens {
		if i == yearIdx || allDigits.MatchString(tok) {
			continue
		}
		if m, ok := parseMonth(tok); ok {
			month, monthIdx = m, i
			break
		}
	}

	if monthIdx == -1 {
		// numeric month: day-first order, so the second numeric token is the month
		var nums []int
		for i, tok := range tokens {
			if i != yearIdx && allDigits.MatchString(tok) && len(tok) <= 2 {
				nums = append(nums, i)
			}
		}
		if len(nums) < 2 {
			return time.Time{}, false
		}
		for _, order := range [][2]int{{nums[0], nums[1]}, {nums[1], nums[0]}} {
			d, okD := parseDay(tokens[order[0]])
			m, okM := parseMonth(tokens[order[1]])
			if okD && okM {
				if t, ok := buildDate(year, m, d, loc); ok {
					return t, true
				}
			}
		}
		return time.Time{}, false
	}

	dayIdx := -1
	for i, tok := range tokens {
		if i == yearIdx || i == monthIdx {
			continue
		}
		if _, ok := parseDay(tok); ok {
			if dayIdx == -1 || len(tok) < len(tokens[dayIdx]) {
				dayIdx = i
			}
		}
	}
	if dayIdx == -1 {
		return time.Time{}, false
	}
	day, _ := parseDay(tokens[dayIdx])
	return buildDate(year, month, day, loc)
}

// buildDate rejects dates that time.Date would normalise, such as 31 June.
func buildDate(year int, month time.Month, day int, loc *time.Location) (time.Time, bool) {
	t := time.Date(year, month, day, 0, 0, 0, 0, loc)
	if t.Year() != year || t.Month() != month || t.Day() != day {
		return time.Time{}, false
	}
	return t, true
}
