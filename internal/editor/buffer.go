// Package editor holds the in-memory sheet being edited.
package editor

import (
	"context"
	"sync"
)

// DefaultKind is the bill type of a fresh buffer.
const DefaultKind = 1

// Buffer is the serialized editor state shared between the UI and the
// autosave scheduler.
type Buffer struct {
	mu      sync.RWMutex
	content string
	kind    int
	version uint64
}

func NewBuffer() *Buffer {
	return &Buffer{kind: DefaultKind}
}

// Set replaces the content. Setting the same content again is not an edit.
func (b *Buffer) Set(content string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if content == b.content {
		return
	}
	b.content = content
	b.version++
}

// Load replaces both content and kind, as when opening a document.
func (b *Buffer) Load(content string, kind int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.content = content
	b.kind = kind
	b.version++
}

func (b *Buffer) Content() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.content
}

// CurrentContent satisfies autosave.Editor.
func (b *Buffer) CurrentContent(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return b.Content(), nil
}

func (b *Buffer) Kind() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.kind
}

func (b *Buffer) SetKind(kind int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.kind = kind
}

// Version increases on every change to the content.
func (b *Buffer) Version() uint64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.version
}
