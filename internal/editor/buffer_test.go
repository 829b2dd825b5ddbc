package editor

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuffer_Defaults(t *testing.T) {
	b := NewBuffer()
	assert.Equal(t, "", b.Content())
	assert.Equal(t, DefaultKind, b.Kind())
	assert.Zero(t, b.Version())
}

func TestBuffer_SetBumpsVersionOnlyOnChange(t *testing.T) {
	b := NewBuffer()

	b.Set("A")
	assert.Equal(t, uint64(1), b.Version())
	b.Set("A")
	assert.Equal(t, uint64(1), b.Version())
	b.Set("B")
	assert.Equal(t, uint64(2), b.Version())
	assert.Equal(t, "B", b.Content())
}

func TestBuffer_Load(t *testing.T) {
	b := NewBuffer()
	b.Load("sheet", 4)

	assert.Equal(t, "sheet", b.Content())
	assert.Equal(t, 4, b.Kind())

	b.SetKind(2)
	assert.Equal(t, 2, b.Kind())
	assert.Equal(t, "sheet", b.Content())
}

func TestBuffer_CurrentContent(t *testing.T) {
	b := NewBuffer()
	b.Set("A")

	got, err := b.CurrentContent(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "A", got)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = b.CurrentContent(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBuffer_ConcurrentAccess(t *testing.T) {
	b := NewBuffer()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				b.Set(string(rune('a' + (i+j)%26)))
			}
		}(i)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_, err := b.CurrentContent(ctx)
				assert.NoError(t, err)
			}
		}()
	}
	wg.Wait()
	assert.Len(t, b.Content(), 1)
}
