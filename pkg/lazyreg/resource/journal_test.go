package resource

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJournal_Log(t *testing.T) {
	var buf bytes.Buffer
	out := slog.New(slog.NewJSONHandler(&buf, nil))

	var j Journal
	require.NoError(t, j.Init(JournalConfig{}, out))
	assert.NotEmpty(t, j.ID())

	j.Log("user created", "user", "ada")
	j.Log("user deleted")

	assert.Equal(t, []string{"user created", "user deleted"}, j.Logs())
	assert.Equal(t, 2, j.Len())
	assert.Contains(t, buf.String(), `"msg":"user created"`)
	assert.Contains(t, buf.String(), `"user":"ada"`)
}

func TestJournal_LogsReturnsCopy(t *testing.T) {
	var j Journal
	require.NoError(t, j.Init(JournalConfig{}, nil))
	j.Log("first")

	logs := j.Logs()
	logs[0] = "changed"
	assert.Equal(t, []string{"first"}, j.Logs())
}

func TestJournal_Capacity(t *testing.T) {
	var j Journal
	require.NoError(t, j.Init(JournalConfig{Capacity: 3}, nil))

	for i := range 5 {
		j.Log(fmt.Sprintf("entry %d", i))
	}

	assert.Equal(t, []string{"entry 2", "entry 3", "entry 4"}, j.Logs())
	assert.Equal(t, 2, j.Dropped())
}

func TestJournal_InitIsIdempotent(t *testing.T) {
	var j Journal
	require.NoError(t, j.Init(JournalConfig{Capacity: 10}, nil))
	id := j.ID()
	j.Log("kept")

	require.NoError(t, j.Init(JournalConfig{Capacity: 1}, nil))
	assert.Equal(t, id, j.ID())
	assert.Equal(t, []string{"kept"}, j.Logs())
}

func TestJournal_LogBeforeInit(t *testing.T) {
	var buf bytes.Buffer
	out := slog.New(slog.NewJSONHandler(&buf, nil))

	var j Journal
	j.Log("early")
	require.NoError(t, j.Init(JournalConfig{}, out))
	j.Log("late")

	assert.Equal(t, []string{"early", "late"}, j.Logs())
	assert.NotContains(t, buf.String(), "early")
	assert.Contains(t, buf.String(), `"msg":"late"`)
}

func TestJournal_LogBeforeInitRespectsCapacity(t *testing.T) {
	var j Journal
	for i := range 4 {
		j.Log(fmt.Sprintf("entry %d", i))
	}
	require.NoError(t, j.Init(JournalConfig{Capacity: 2}, nil))

	assert.Equal(t, []string{"entry 2", "entry 3"}, j.Logs())
	assert.Equal(t, 2, j.Dropped())
}

func TestJournal_ConcurrentLog(t *testing.T) {
	j, err := NewJournal(JournalConfig{}, nil)(context.Background())
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			j.Log(fmt.Sprintf("msg %d", i))
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 50, j.Len())
}
