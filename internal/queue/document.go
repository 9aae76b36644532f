package queue

import (
	"sort"
	"time"

	"github.com/samber/lo"

	"clinic-service/internal/apperr"
	"clinic-service/internal/models"
)

// activeVisit returns the index of patientID's waiting or in-progress visit, or -1.
func activeVisit(visits []models.Visit, patientID string) int {
	for i := range visits {
		if visits[i].PatientID == patientID && visits[i].Status.Active() {
			return i
		}
	}
	return -1
}

// visitForUpdate picks the visit a status change applies to: the active one
// when present, otherwise the patient's most recently booked visit.
func visitForUpdate(visits []models.Visit, patientID string) int {
	if i := activeVisit(visits, patientID); i >= 0 {
		return i
	}
	latest := -1
	for i := range visits {
		if visits[i].PatientID != patientID {
			continue
		}
		if latest < 0 || !visits[i].BookedAt.Before(visits[latest].BookedAt) {
			latest = i
		}
	}
	return latest
}

func visitsWithStatus(visits []models.Visit, status models.VisitStatus) []models.Visit {
	return lo.Filter(visits, func(v models.Visit, _ int) bool { return v.Status == status })
}

func visitsOfPatient(visits []models.Visit, patientID string) []models.Visit {
	return lo.Filter(visits, func(v models.Visit, _ int) bool { return v.PatientID == patientID })
}

func statsOf(visits []models.Visit) models.QueueStats {
	count := func(s models.VisitStatus) int {
		return lo.CountBy(visits, func(v models.Visit) bool { return v.Status == s })
	}
	return models.QueueStats{
		Waiting:    count(models.VisitWaiting),
		InProgress: count(models.VisitInProgress),
		Completed:  count(models.VisitCompleted),
		Cancelled:  count(models.VisitCancelled),
		Total:      len(visits),
	}
}

func addStats(a, b models.QueueStats) models.QueueStats {
	return models.QueueStats{
		Waiting:    a.Waiting + b.Waiting,
		InProgress: a.InProgress + b.InProgress,
		Completed:  a.Completed + b.Completed,
		Cancelled:  a.Cancelled + b.Cancelled,
		Total:      a.Total + b.Total,
	}
}

// nextWaiting returns the waiting visit booked earliest. Ties keep booking order.
func nextWaiting(visits []models.Visit) (models.Visit, bool) {
	waiting := visitsWithStatus(visits, models.VisitWaiting)
	if len(waiting) == 0 {
		return models.Visit{}, false
	}
	sort.SliceStable(waiting, func(i, j int) bool {
		return waiting[i].BookedAt.Before(waiting[j].BookedAt)
	})
	return waiting[0], true
}

// applyTransition moves v to status. Moving to the current non-terminal
// status only replaces the notes.
func applyTransition(v *models.Visit, to models.VisitStatus, notes string, now time.Time) error {
	from := v.Status
	if !to.Valid() {
		return apperr.Validation("unknown status %q", to)
	}
	if !from.Active() {
		return apperr.Validation("visit is already %s", from)
	}

	switch {
	case from == to:
	case to == models.VisitInProgress && from == models.VisitWaiting:
		if v.StartedAt == nil {
			t := now
			v.StartedAt = &t
		}
	case to == models.VisitCompleted && from == models.VisitInProgress:
		if v.CompletedAt == nil {
			t := now
			v.CompletedAt = &t
		}
	case to == models.VisitCancelled:
	default:
		return apperr.Validation("cannot move visit from %s to %s", from, to)
	}

	v.Status = to
	if notes != "" {
		v.Notes = notes
	}
	return nil
}
