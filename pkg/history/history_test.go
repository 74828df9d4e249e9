package history_test

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xhad/reviews/internal/models"
	"github.com/xhad/reviews/pkg/history"
)

func pair(n int) []models.Turn {
	return []models.Turn{
		{Role: models.RoleUser, Content: fmt.Sprintf("question %d", n)},
		{Role: models.RoleAssistant, Content: fmt.Sprintf("answer %d", n)},
	}
}

func TestGetLazilyCreatesEmptyHistory(t *testing.T) {
	s := history.New(0)
	assert.Empty(t, s.Get("never-seen"))
}

func TestAppendPreservesOrder(t *testing.T) {
	s := history.New(0)
	for i := 0; i < 3; i++ {
		s.Append("s1", pair(i)...)
	}

	turns := s.Get("s1")
	require.Len(t, turns, 6)
	for i := 0; i < 3; i++ {
		assert.Equal(t, fmt.Sprintf("question %d", i), turns[2*i].Content)
		assert.Equal(t, fmt.Sprintf("answer %d", i), turns[2*i+1].Content)
	}
}

func TestSessionIsolation(t *testing.T) {
	s := history.New(0)
	s.Append("a", pair(1)...)
	s.Append("b", pair(2)...)

	a := s.Get("a")
	b := s.Get("b")
	require.Len(t, a, 2)
	require.Len(t, b, 2)
	assert.Equal(t, "question 1", a[0].Content)
	assert.Equal(t, "question 2", b[0].Content)
}

func TestGetReturnsCopy(t *testing.T) {
	s := history.New(0)
	s.Append("s1", pair(1)...)

	turns := s.Get("s1")
	turns[0].Content = "mutated"

	assert.Equal(t, "question 1", s.Get("s1")[0].Content)
}

func TestMaxTurnsBound(t *testing.T) {
	s := history.New(4)
	for i := 0; i < 5; i++ {
		s.Append("s1", pair(i)...)
	}

	turns := s.Get("s1")
	require.Len(t, turns, 4)
	// The two oldest pairs are gone; history still starts at a user turn.
	assert.Equal(t, models.RoleUser, turns[0].Role)
	assert.Equal(t, "question 3", turns[0].Content)
	assert.Equal(t, "answer 4", turns[3].Content)
}

func TestConcurrentAppends(t *testing.T) {
	s := history.New(0)
	const sessions = 8
	const appends = 50

	var wg sync.WaitGroup
	for i := 0; i < sessions; i++ {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			for j := 0; j < appends; j++ {
				s.Append(id, pair(j)...)
			}
		}(fmt.Sprintf("session-%d", i))
	}
	wg.Wait()

	for i := 0; i < sessions; i++ {
		turns := s.Get(fmt.Sprintf("session-%d", i))
		assert.Len(t, turns, 2*appends)
	}
}

func TestConcurrentSameSessionKeepsPairsIntact(t *testing.T) {
	s := history.New(0)
	const writers = 4
	const appends = 25

	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < appends; j++ {
				s.Append("shared", pair(n)...)
			}
		}(i)
	}
	wg.Wait()

	turns := s.Get("shared")
	require.Len(t, turns, 2*writers*appends)
	for i := 0; i < len(turns); i += 2 {
		assert.Equal(t, models.RoleUser, turns[i].Role)
		assert.Equal(t, models.RoleAssistant, turns[i+1].Role)
		// A pair appended together is never split by another writer.
		assert.Equal(t,
			turns[i].Content[len("question "):],
			turns[i+1].Content[len("answer "):],
		)
	}
}
