package core

import "fmt"

// PeriodLabel derives the display label identifying which recurrence interval
// a bill with the given due date belongs to. A bill without a due date has no
// period.
func PeriodLabel(p Periodicity, due Date) string {
	if due.IsEmpty() {
		return ""
	}
	year := due.Year()
	month := int(due.Month())

	switch p {
	case Monthly:
		return fmt.Sprintf("%d-%02d", year, month)
	case BiMonthly:
		return fmt.Sprintf("%d-%dB", year, ceilDiv(month, 2))
	case Quarterly:
		return fmt.Sprintf("%d-Q%d", year, ceilDiv(month, 3))
	case SemiAnnually:
		return fmt.Sprintf("%d-H%d", year, ceilDiv(month, 6))
	case Annually:
		return fmt.Sprintf("%d", year)
	default:
		// one-off and anything unrecognised
		return due.Format(dateLayout)
	}
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}
