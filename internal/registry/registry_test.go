package registry

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/cuongbtq/transcribe-bot/internal/elevateai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_InsertGetRemove(t *testing.T) {
	reg := New()
	now := time.Now()

	require.NoError(t, reg.Insert(Record{
		Identifier: "job-1",
		Owner:      "user-1",
		Status:     elevateai.StatusDeclared,
		LastUpdate: now,
	}))

	rec, ok := reg.Get("job-1")
	require.True(t, ok)
	assert.Equal(t, "user-1", rec.Owner)
	assert.Equal(t, elevateai.StatusDeclared, rec.Status)
	assert.Equal(t, 1, reg.Len())

	assert.True(t, reg.Remove("job-1"))
	assert.False(t, reg.Remove("job-1"))

	_, ok = reg.Get("job-1")
	assert.False(t, ok)
	assert.Zero(t, reg.Len())
}

func TestRegistry_InsertDuplicate(t *testing.T) {
	reg := New()
	require.NoError(t, reg.Insert(Record{Identifier: "job-1", Owner: "a"}))

	err := reg.Insert(Record{Identifier: "job-1", Owner: "b"})

	assert.ErrorIs(t, err, ErrDuplicate)
	rec, _ := reg.Get("job-1")
	assert.Equal(t, "a", rec.Owner)
}

func TestRegistry_UpdateStatus(t *testing.T) {
	reg := New()
	declared := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	require.NoError(t, reg.Insert(Record{Identifier: "job-1", Status: elevateai.StatusDeclared, LastUpdate: declared}))

	later := declared.Add(30 * time.Second)
	require.NoError(t, reg.UpdateStatus("job-1", elevateai.StatusProcessing, later))

	rec, _ := reg.Get("job-1")
	assert.Equal(t, elevateai.StatusProcessing, rec.Status)
	assert.Equal(t, later, rec.LastUpdate)

	assert.ErrorIs(t, reg.UpdateStatus("missing", elevateai.StatusProcessing, later), ErrNotFound)
}

func TestRegistry_GetReturnsCopy(t *testing.T) {
	reg := New()
	require.NoError(t, reg.Insert(Record{Identifier: "job-1", Status: elevateai.StatusDeclared}))

	rec, _ := reg.Get("job-1")
	rec.Status = elevateai.StatusProcessed

	stored, _ := reg.Get("job-1")
	assert.Equal(t, elevateai.StatusDeclared, stored.Status)
}

func TestRegistry_List(t *testing.T) {
	reg := New()
	base := time.Now()
	require.NoError(t, reg.Insert(Record{Identifier: "b", DeclaredAt: base.Add(time.Second)}))
	require.NoError(t, reg.Insert(Record{Identifier: "a", DeclaredAt: base.Add(2 * time.Second)}))
	require.NoError(t, reg.Insert(Record{Identifier: "c", DeclaredAt: base}))

	list := reg.List()

	require.Len(t, list, 3)
	assert.Equal(t, []string{"c", "b", "a"}, []string{list[0].Identifier, list[1].Identifier, list[2].Identifier})
}

func TestRegistry_ConcurrentWritersPerKey(t *testing.T) {
	reg := New()
	const jobs = 50

	var wg sync.WaitGroup
	for i := 0; i < jobs; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			id := fmt.Sprintf("job-%d", n)
			require.NoError(t, reg.Insert(Record{Identifier: id}))
			for j := 0; j < 20; j++ {
				require.NoError(t, reg.UpdateStatus(id, elevateai.StatusProcessing, time.Now()))
				_, _ = reg.Get(id)
				_ = reg.List()
			}
			if n%2 == 0 {
				reg.Remove(id)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, jobs/2, reg.Len())
	seen := make(map[string]bool)
	for _, rec := range reg.List() {
		assert.False(t, seen[rec.Identifier], "identifier listed twice")
		seen[rec.Identifier] = true
	}
}
