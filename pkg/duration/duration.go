package duration

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseISO8601 parses the subset of ISO-8601 durations the YouTube API
// emits (PnWnDTnHnMnS) and returns the total length in seconds. Live
// streams report "P0D", which parses to 0. Year and month designators are
// rejected: they have no fixed length in seconds.
func ParseISO8601(s string) (int, error) {
	if len(s) < 2 || s[0] != 'P' {
		return 0, fmt.Errorf("invalid duration %q", s)
	}

	total := 0
	inTime := false
	num := strings.Builder{}
	sawComponent := false

	for _, r := range s[1:] {
		switch {
		case r >= '0' && r <= '9':
			num.WriteRune(r)
		case r == 'T':
			if inTime || num.Len() > 0 {
				return 0, fmt.Errorf("invalid duration %q", s)
			}
			inTime = true
		default:
			if num.Len() == 0 {
				return 0, fmt.Errorf("invalid duration %q", s)
			}
			n, err := strconv.Atoi(num.String())
			if err != nil {
				return 0, fmt.Errorf("invalid duration %q", s)
			}
			num.Reset()
			sawComponent = true

			mult, err := designatorSeconds(r, inTime)
			if err != nil {
				return 0, fmt.Errorf("invalid duration %q: %w", s, err)
			}
			total += n * mult
		}
	}

	if num.Len() > 0 || !sawComponent {
		return 0, fmt.Errorf("invalid duration %q", s)
	}
	return total, nil
}

func designatorSeconds(r rune, inTime bool) (int, error) {
	if inTime {
		switch r {
		case 'H':
			return 3600, nil
		case 'M':
			return 60, nil
		case 'S':
			return 1, nil
		}
		return 0, fmt.Errorf("unknown time designator %q", r)
	}
	switch r {
	case 'W':
		return 7 * 86400, nil
	case 'D':
		return 86400, nil
	case 'Y', 'M':
		return 0, fmt.Errorf("calendar designator %q not supported", r)
	}
	return 0, fmt.Errorf("unknown date designator %q", r)
}
