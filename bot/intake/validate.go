package intake

import (
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// ValidEmail checks for a standard local@domain.tld shape.
func ValidEmail(text string) bool {
	return validate.Var(strings.TrimSpace(text), "required,email") == nil
}

var dateSkipWords = []string{"pular", "nao sei", "naosei", "skip", "depois"}

var dateLayouts = []string{"02/01/2006", "02-01-2006", "2006-01-02", "02/01/06"}

// ParseMovingDate validates an estimated moving date. Skip keywords are
// accepted and stored as "no date" (empty string). Otherwise the text must
// parse as a real calendar date (time.Parse rejects Feb 30 and friends) that
// is not before today's UTC calendar day; it is normalized to YYYY-MM-DD.
func ParseMovingDate(text string, now time.Time) (string, bool) {
	normalized := normalizeText(text)
	for _, w := range dateSkipWords {
		if normalized == w {
			return "", true
		}
	}

	raw := strings.TrimSpace(text)
	var parsed time.Time
	var err error
	for _, layout := range dateLayouts {
		parsed, err = time.Parse(layout, raw)
		if err == nil {
			break
		}
	}
	if err != nil {
		return "", false
	}

	// Calendar-day comparison in UTC, not wall clock.
	y, m, d := now.UTC().Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	if parsed.Before(today) {
		return "", false
	}

	return parsed.Format("2006-01-02"), true
}

// MatchOption maps a reply to one of the stage's option IDs: the ID
// verbatim (case- and accent-insensitive) or a 1-based ordinal typed as
// digits.
func MatchOption(text string, ids []string) (string, bool) {
	normalized := normalizeText(text)
	if normalized == "" {
		return "", false
	}

	for _, id := range ids {
		if normalized == normalizeText(id) {
			return id, true
		}
	}

	if num, err := strconv.Atoi(normalized); err == nil && num >= 1 && num <= len(ids) {
		return ids[num-1], true
	}

	return "", false
}

// MatchYesNo resolves a yes/no button reply. Accepts the option IDs, a few
// common typed variants and the 1-based ordinal.
func MatchYesNo(text string) (bool, bool) {
	switch normalizeText(text) {
	case OptionYes, "s", "yes", "y", "1":
		return true, true
	case OptionNo, "n", "no", "2":
		return false, true
	}
	return false, false
}
