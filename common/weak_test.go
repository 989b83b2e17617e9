package common

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
)

type box struct {
	name string
	next *box
}

func TestWeakRefAlive(t *testing.T) {
	b := &box{name: "alive"}
	ref := NewWeakRef(b, func(p *box) string { return p.name })

	v, ok := ref.Value()
	assert.True(t, ok)
	assert.Equal(t, "alive", v)
	runtime.KeepAlive(b)
}

func TestWeakRefCollected(t *testing.T) {
	ref := NewWeakRef(&box{name: "gone"}, func(p *box) string { return p.name })

	for i := 0; i < 5; i++ {
		runtime.GC()
		if _, ok := ref.Value(); !ok {
			return
		}
	}
	t.Fatal("weak reference outlived its target")
}

func TestZeroWeakRef(t *testing.T) {
	var ref WeakRef[string]
	v, ok := ref.Value()
	assert.False(t, ok)
	assert.Empty(t, v)
}
