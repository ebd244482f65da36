package service

import (
	"time"

	"github.com/noah-isme/foi-request-api/internal/models"
)

const (
	// StatutoryResponseDays is the response window granted by every supported statute.
	StatutoryResponseDays = 30
	// ExtensionDays is added to the current due date when an extension is granted.
	ExtensionDays = 30
	// AtRiskThresholdDays marks open requests due within this many days as urgent.
	AtRiskThresholdDays = 5
)

// feeSchedule holds the flat application fee per statute.
var feeSchedule = map[models.Legislation]int{
	models.LegislationFIPPA:  30,
	models.LegislationMFIPPA: 5,
}

// ComputeDueDate returns the statutory due date for a request received on the given date.
// The window is identical for all statutes; legislation is accepted so the rule can diverge later.
func ComputeDueDate(received models.Date, _ models.Legislation) models.Date {
	return received.AddDays(StatutoryResponseDays)
}

// ComputeFee estimates the application fee. Personal health information requested
// under PHIPA is always free.
func ComputeFee(requestType models.RequestType, legislation models.Legislation) int {
	if requestType == models.RequestTypePersonalHealth && legislation == models.LegislationPHIPA {
		return 0
	}
	return feeSchedule[legislation]
}

const secondsPerDay = 24 * 60 * 60

// DaysRemaining counts whole calendar days from now until due. Past due dates yield negatives.
func DaysRemaining(due models.Date, now time.Time) int {
	today := models.DateOf(now)
	// Both dates sit on UTC midnight, so the difference is a whole number of days.
	return int((due.Time().Unix() - today.Time().Unix()) / secondsPerDay)
}
