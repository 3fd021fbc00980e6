package ledger

import (
	"testing"
	"time"

	cmtlog "github.com/cometbft/cometbft/libs/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rivulet/traceledger/repository/models"
)

// stallMirror blocks inside every mirrored call until released, to observe
// which locks a writer still holds while mirroring.
type stallMirror struct {
	entered chan struct{}
	release chan struct{}
}

func newStallMirror() *stallMirror {
	return &stallMirror{
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
}

func (m *stallMirror) stall() {
	m.entered <- struct{}{}
	<-m.release
}

func (m *stallMirror) MirrorProduct(p *models.Product) error       { m.stall(); return nil }
func (m *stallMirror) MirrorCheckpoint(c *models.Checkpoint) error { m.stall(); return nil }
func (m *stallMirror) MirrorCertification(c *models.Certification) error {
	m.stall()
	return nil
}

// waitEntered fails the test if no writer reaches its mirror call in time,
// which is what happens when the writer is stuck waiting on a lock.
func (m *stallMirror) waitEntered(t *testing.T, what string) {
	t.Helper()
	select {
	case <-m.entered:
	case <-time.After(5 * time.Second):
		t.Fatalf("%s never reached the mirror", what)
	}
}

func newStalledLedger(t *testing.T) (*Ledger, *stallMirror) {
	t.Helper()
	mirror := newStallMirror()
	l, err := Open(Config{Mirror: mirror}, cmtlog.NewNopLogger())
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, l.Close())
	})
	return l, mirror
}

func waitDone(t *testing.T, done chan struct{}, what string) {
	t.Helper()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatalf("%s still blocked after 5s", what)
	}
}

func TestRegisterNotSerializedBehindMirror(t *testing.T) {
	l, mirror := newStalledLedger(t)

	firstDone := make(chan struct{})
	go func() {
		defer close(firstDone)
		_, lerr := l.Register(testInput("stall-1"))
		assert.Nil(t, lerr)
	}()
	mirror.waitEntered(t, "first registration") // committed, stuck in its mirror call

	// A second registration must commit while the first is still mirroring:
	// the registration lock is released before the mirror fan-out.
	secondDone := make(chan struct{})
	go func() {
		defer close(secondDone)
		_, lerr := l.Register(testInput("stall-2"))
		assert.Nil(t, lerr)
	}()
	mirror.waitEntered(t, "second registration")

	mirror.release <- struct{}{}
	mirror.release <- struct{}{}
	waitDone(t, firstDone, "first registration")
	waitDone(t, secondDone, "second registration")

	count, lerr := l.Count()
	require.Nil(t, lerr)
	assert.Equal(t, uint64(2), count)
}

func TestCheckpointAppendNotSerializedBehindMirror(t *testing.T) {
	l, mirror := newStalledLedger(t)

	registerDone := make(chan struct{})
	var id uint64
	go func() {
		defer close(registerDone)
		registered, lerr := l.Register(testInput("stall-cp"))
		assert.Nil(t, lerr)
		id = registered
	}()
	mirror.waitEntered(t, "registration")
	mirror.release <- struct{}{}
	waitDone(t, registerDone, "registration")

	firstDone := make(chan struct{})
	go func() {
		defer close(firstDone)
		_, lerr := l.AddCheckpoint(id, "Harvesting", "Farm", "Completed", "", "farmer-1")
		assert.Nil(t, lerr)
	}()
	mirror.waitEntered(t, "first checkpoint append")

	// A second append to the SAME product must commit while the first is
	// still mirroring: the per-product lock is released before mirroring.
	secondDone := make(chan struct{})
	go func() {
		defer close(secondDone)
		_, lerr := l.AddCheckpoint(id, "Roasting", "Roastery", "In Progress", "", "roaster-1")
		assert.Nil(t, lerr)
	}()
	mirror.waitEntered(t, "second checkpoint append")

	mirror.release <- struct{}{}
	mirror.release <- struct{}{}
	waitDone(t, firstDone, "first checkpoint append")
	waitDone(t, secondDone, "second checkpoint append")

	journey, lerr := l.GetJourney(id)
	require.Nil(t, lerr)
	require.Len(t, journey, 2)
	assert.Equal(t, "Harvesting", journey[0].Step)
	assert.Equal(t, "Roasting", journey[1].Step)
}
