package presence

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterOverwritesHandle(t *testing.T) {
	r := NewRegistry()

	r.Register("u1", "conn-a")
	r.Register("u1", "conn-b")

	handle, ok := r.Lookup("u1")
	require.True(t, ok)
	assert.Equal(t, "conn-b", handle)
	assert.Equal(t, 1, r.Count())
}

func TestUnregisterAbsentIsNoop(t *testing.T) {
	r := NewRegistry()
	r.Unregister("ghost")
	assert.Equal(t, 0, r.Count())
	assert.False(t, r.IsOnline("ghost"))
}

func TestUnregisterHandleKeepsNewerConnection(t *testing.T) {
	r := NewRegistry()
	r.Register("u1", "old")
	r.Register("u1", "new")

	assert.False(t, r.UnregisterHandle("u1", "old"))
	assert.True(t, r.IsOnline("u1"))

	assert.True(t, r.UnregisterHandle("u1", "new"))
	assert.False(t, r.IsOnline("u1"))
}

func TestOnlineSorted(t *testing.T) {
	r := NewRegistry()
	r.Register("u3", "c3")
	r.Register("u1", "c1")
	r.Register("u2", "c2")

	assert.Equal(t, []string{"u1", "u2", "u3"}, r.Online())
}

func TestConcurrentRegisterUnregister(t *testing.T) {
	r := NewRegistry()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		id := fmt.Sprintf("u%d", i)
		wg.Add(2)
		go func() {
			defer wg.Done()
			r.Register(id, "c-"+id)
		}()
		go func() {
			defer wg.Done()
			_ = r.IsOnline(id)
			_ = r.Count()
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, r.Count())

	for i := 0; i < 50; i++ {
		id := fmt.Sprintf("u%d", i)
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.Unregister(id)
		}()
	}
	wg.Wait()
	assert.Equal(t, 0, r.Count())
}
