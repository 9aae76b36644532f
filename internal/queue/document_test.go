package queue

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clinic-service/internal/apperr"
	"clinic-service/internal/models"
)

func TestApplyTransitionTable(t *testing.T) {
	now := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	statuses := []models.VisitStatus{
		models.VisitWaiting, models.VisitInProgress, models.VisitCompleted, models.VisitCancelled,
	}
	allowed := map[models.VisitStatus]map[models.VisitStatus]bool{
		models.VisitWaiting: {
			models.VisitWaiting: true, models.VisitInProgress: true, models.VisitCancelled: true,
		},
		models.VisitInProgress: {
			models.VisitInProgress: true, models.VisitCompleted: true, models.VisitCancelled: true,
		},
	}

	for _, from := range statuses {
		for _, to := range statuses {
			v := models.Visit{Status: from}
			err := applyTransition(&v, to, "", now)
			if allowed[from][to] {
				require.NoError(t, err, "%s -> %s", from, to)
				assert.Equal(t, to, v.Status)
				continue
			}
			assert.ErrorIs(t, err, apperr.ErrValidation, "%s -> %s", from, to)
			assert.Equal(t, from, v.Status)
		}
	}
}

func TestApplyTransitionKeepsFirstTimestamps(t *testing.T) {
	first := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	later := first.Add(time.Hour)

	v := models.Visit{Status: models.VisitWaiting}
	require.NoError(t, applyTransition(&v, models.VisitInProgress, "", first))
	require.NoError(t, applyTransition(&v, models.VisitInProgress, "bp normal", later))
	assert.Equal(t, first, *v.StartedAt)
	assert.Equal(t, "bp normal", v.Notes)

	require.NoError(t, applyTransition(&v, models.VisitCompleted, "", later))
	assert.Equal(t, later, *v.CompletedAt)
	assert.Equal(t, "bp normal", v.Notes)
}

func TestVisitForUpdatePrefersActive(t *testing.T) {
	t0 := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	visits := []models.Visit{
		{PatientID: "p1", Status: models.VisitCompleted, BookedAt: t0},
		{PatientID: "p1", Status: models.VisitWaiting, BookedAt: t0.Add(time.Hour)},
		{PatientID: "p2", Status: models.VisitCancelled, BookedAt: t0},
		{PatientID: "p2", Status: models.VisitCompleted, BookedAt: t0.Add(2 * time.Hour)},
	}
	assert.Equal(t, 1, visitForUpdate(visits, "p1"))
	assert.Equal(t, 3, visitForUpdate(visits, "p2"))
	assert.Equal(t, -1, visitForUpdate(visits, "p3"))
}

func TestNextWaitingStableOnTies(t *testing.T) {
	t0 := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	visits := []models.Visit{
		{PatientID: "late", Status: models.VisitWaiting, BookedAt: t0.Add(time.Minute)},
		{PatientID: "first", Status: models.VisitWaiting, BookedAt: t0},
		{PatientID: "second", Status: models.VisitWaiting, BookedAt: t0},
		{PatientID: "busy", Status: models.VisitInProgress, BookedAt: t0.Add(-time.Hour)},
	}
	next, ok := nextWaiting(visits)
	require.True(t, ok)
	assert.Equal(t, "first", next.PatientID)

	_, ok = nextWaiting(visits[3:])
	assert.False(t, ok)
}

func TestStatsOfTotals(t *testing.T) {
	visits := []models.Visit{
		{Status: models.VisitWaiting},
		{Status: models.VisitWaiting},
		{Status: models.VisitInProgress},
		{Status: models.VisitCompleted},
		{Status: models.VisitCancelled},
	}
	stats := statsOf(visits)
	assert.Equal(t, models.QueueStats{Waiting: 2, InProgress: 1, Completed: 1, Cancelled: 1, Total: 5}, stats)
	assert.Equal(t, models.QueueStats{Waiting: 4, InProgress: 2, Completed: 2, Cancelled: 2, Total: 10}, addStats(stats, stats))
}
