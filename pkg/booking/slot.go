package booking

import (
	"regexp"
	"slices"
	"strings"
	"time"
)

// SlotLayout is the format of a slot token: local date and start time.
const SlotLayout = "2006-01-02 15:04"

var slotPattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2} \d{2}:\d{2}$`)

// ValidSlot reports whether s is a well-formed slot naming a real date and
// time.
func ValidSlot(s string) bool {
	if !slotPattern.MatchString(s) {
		return false
	}
	_, err := time.Parse(SlotLayout, s)
	return err == nil
}

// normalizeSlots validates, dedupes and sorts. The slot format sorts
// chronologically as plain strings.
func normalizeSlots(slots []string) ([]string, error) {
	out := make([]string, 0, len(slots))
	for _, s := range slots {
		s = strings.TrimSpace(s)
		if !ValidSlot(s) {
			return nil, invalidf("invalid slot %q, use YYYY-MM-DD HH:MM", s)
		}
		out = append(out, s)
	}
	slices.Sort(out)
	return slices.Compact(out), nil
}
