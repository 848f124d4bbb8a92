package lockout

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestTracker(t *testing.T) *Tracker {
	t.Helper()
	tr, err := Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(
		func() {
			require.NoError(t, tr.Close())
		},
	)
	return tr
}

func TestRecordFailureIncrements(t *testing.T) {
	tr := openTestTracker(t)

	assert.Equal(t, 1, tr.RecordFailure("alice"))
	assert.Equal(t, 2, tr.RecordFailure("alice"))
	assert.Equal(t, 3, tr.RecordFailure("alice"))

	// Counters are independent per username.
	assert.Equal(t, 1, tr.RecordFailure("bob"))

	count, err := tr.Failures("alice")
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestClearResetsCounter(t *testing.T) {
	tr := openTestTracker(t)

	tr.RecordFailure("alice")
	tr.RecordFailure("alice")
	require.NoError(t, tr.Clear("alice"))

	count, err := tr.Failures("alice")
	require.NoError(t, err)
	assert.Equal(t, 0, count)
	assert.Equal(t, 1, tr.RecordFailure("alice"))
}

func TestClearUnknownUsernameIsNoop(t *testing.T) {
	tr := openTestTracker(t)
	require.NoError(t, tr.Clear("nobody"))
}

func TestFailuresOfUnknownUsernameIsZero(t *testing.T) {
	tr := openTestTracker(t)
	count, err := tr.Failures("nobody")
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

// Concurrent failures for the same username must not lose increments.
func TestConcurrentRecordFailure(t *testing.T) {
	tr := openTestTracker(t)

	const attempts = 50
	var wg sync.WaitGroup
	wg.Add(attempts)
	for i := 0; i < attempts; i++ {
		go func() {
			defer wg.Done()
			tr.RecordFailure("alice")
		}()
	}
	wg.Wait()

	count, err := tr.Failures("alice")
	require.NoError(t, err)
	assert.Equal(t, attempts, count)
}

func TestCounterSurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	tr, err := Open(dir)
	require.NoError(t, err)
	tr.RecordFailure("alice")
	tr.RecordFailure("alice")
	require.NoError(t, tr.Close())

	tr, err = Open(dir)
	require.NoError(t, err)
	defer func() { require.NoError(t, tr.Close()) }()

	count, err := tr.Failures("alice")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.Equal(t, 3, tr.RecordFailure("alice"))
}
