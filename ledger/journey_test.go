package ledger

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rivulet/traceledger/repository/models"
)

func TestAddCheckpointUnknownProduct(t *testing.T) {
	l := newTestLedger(t)

	_, lerr := l.AddCheckpoint(99, "Harvesting", "Farm", "completed", "", "partner")
	require.NotNil(t, lerr)
	assert.Equal(t, ErrCodeNotFound, lerr.Code)

	// The rejected append must leave no trace once the product exists
	id, lerr := l.Register(testInput("journey-none"))
	require.Nil(t, lerr)
	journey, lerr := l.GetJourney(id)
	require.Nil(t, lerr)
	assert.Empty(t, journey)
}

func TestAddCheckpointValidation(t *testing.T) {
	l := newTestLedger(t)
	id, lerr := l.Register(testInput("journey-validation"))
	require.Nil(t, lerr)

	_, lerr = l.AddCheckpoint(id, "", "Farm", "completed", "", "")
	require.NotNil(t, lerr)
	assert.Equal(t, ErrCodeValidation, lerr.Code)

	_, lerr = l.AddCheckpoint(id, "Harvesting", "", "completed", "", "")
	require.NotNil(t, lerr)
	assert.Equal(t, ErrCodeValidation, lerr.Code)

	_, lerr = l.AddCheckpoint(id, "Harvesting", "Farm", "", "", "")
	require.NotNil(t, lerr)
	assert.Equal(t, ErrCodeValidation, lerr.Code)
}

func TestGetJourneyPreservesAppendOrder(t *testing.T) {
	l := newTestLedger(t)
	id, lerr := l.Register(testInput("journey-order"))
	require.Nil(t, lerr)

	steps := []string{"Harvesting", "Washing", "Drying", "Roasting", "Packaging"}
	for _, step := range steps {
		_, lerr := l.AddCheckpoint(id, step, "Facility", "completed", "", "partner")
		require.Nil(t, lerr)
	}

	// Repeated reads return the same order with no duplication
	for iter := 0; iter < 2; iter++ {
		journey, lerr := l.GetJourney(id)
		require.Nil(t, lerr)
		require.Len(t, journey, len(steps))
		for i, checkpoint := range journey {
			assert.Equal(t, steps[i], checkpoint.Step)
			assert.Equal(t, uint64(i), checkpoint.Seq)
		}
	}
}

func TestGetJourneyUnknownProduct(t *testing.T) {
	l := newTestLedger(t)

	_, lerr := l.GetJourney(7)
	require.NotNil(t, lerr)
	assert.Equal(t, ErrCodeNotFound, lerr.Code)
}

func TestCheckpointTimestampsAreMonotonic(t *testing.T) {
	l := newTestLedger(t)
	id, lerr := l.Register(testInput("journey-clock"))
	require.Nil(t, lerr)

	base := time.Unix(1700000000, 0)
	l.now = func() time.Time { return base }

	ts1, lerr := l.AddCheckpoint(id, "Harvesting", "Farm", "completed", "", "")
	require.Nil(t, lerr)
	assert.Equal(t, base.Unix(), ts1)

	// Same wall-clock second is fine: non-decreasing, not strictly increasing
	ts2, lerr := l.AddCheckpoint(id, "Washing", "Farm", "completed", "", "")
	require.Nil(t, lerr)
	assert.Equal(t, ts1, ts2)

	// A clock regression is clamped to last+1, not rejected
	l.now = func() time.Time { return base.Add(-time.Hour) }
	ts3, lerr := l.AddCheckpoint(id, "Drying", "Farm", "completed", "", "")
	require.Nil(t, lerr)
	assert.Equal(t, ts2+1, ts3)

	journey, lerr := l.GetJourney(id)
	require.Nil(t, lerr)
	for i := 1; i < len(journey); i++ {
		assert.GreaterOrEqual(t, journey[i].Timestamp, journey[i-1].Timestamp)
	}
}

func TestJourneysAreIndependentAcrossProducts(t *testing.T) {
	l := newTestLedger(t)

	idA, lerr := l.Register(testInput("journey-a"))
	require.Nil(t, lerr)
	idB, lerr := l.Register(testInput("journey-b"))
	require.Nil(t, lerr)

	for i := 0; i < 3; i++ {
		_, lerr := l.AddCheckpoint(idA, fmt.Sprintf("A-step-%d", i), "Site A", "completed", "", "")
		require.Nil(t, lerr)
	}
	_, lerr = l.AddCheckpoint(idB, "B-only", "Site B", "pending", "", "")
	require.Nil(t, lerr)

	journeyA, lerr := l.GetJourney(idA)
	require.Nil(t, lerr)
	journeyB, lerr := l.GetJourney(idB)
	require.Nil(t, lerr)
	assert.Len(t, journeyA, 3)
	require.Len(t, journeyB, 1)
	assert.Equal(t, "B-only", journeyB[0].Step)
}

func TestStatsForJourney(t *testing.T) {
	journey := []struct {
		status string
	}{
		{"completed"}, {"Completed"}, {"in-progress"}, {"In Progress"}, {"pending"}, {"held at customs"},
	}

	checkpoints := make([]models.Checkpoint, 0, len(journey))
	for i, c := range journey {
		checkpoints = append(checkpoints, models.Checkpoint{Seq: uint64(i), Status: c.status})
	}

	stats := StatsForJourney(checkpoints)
	assert.Equal(t, 6, stats.Total)
	assert.Equal(t, 2, stats.Completed)
	assert.Equal(t, 2, stats.InProgress)
	assert.Equal(t, 2, stats.Pending)
	assert.InDelta(t, 2.0/6.0, stats.Progress, 1e-9)
}
