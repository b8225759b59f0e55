package assets

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCompletionsRunOnlyInPoll(t *testing.T) {
	l := NewLoader()
	var got []string

	Request(l, "terrain", func() (string, error) { return "terrain-model", nil }, func(s string) {
		got = append(got, s)
	})
	l.Wait()

	assert.Empty(t, got, "completion must wait for Poll")
	assert.Equal(t, 1, l.Pending())

	assert.Equal(t, 1, l.Poll())
	assert.Equal(t, []string{"terrain-model"}, got)
	assert.Equal(t, 0, l.Pending())

	assert.Equal(t, 0, l.Poll())
}

func TestFailedLoadNeverRunsCallback(t *testing.T) {
	l := NewLoader()
	called := false

	Request(l, "character", func() (int, error) { return 0, errors.New("unsupported model format") }, func(int) {
		called = true
	})
	l.Wait()

	assert.Equal(t, 0, l.Poll())
	assert.False(t, called)
	assert.Equal(t, 0, l.Pending())
}

func TestManyRequests(t *testing.T) {
	l := NewLoader()
	sum := 0
	for i := 1; i <= 7; i++ {
		i := i
		Request(l, "asset", func() (int, error) { return i, nil }, func(v int) { sum += v })
	}
	l.Wait()

	assert.Equal(t, 7, l.Poll())
	assert.Equal(t, 28, sum)
}
