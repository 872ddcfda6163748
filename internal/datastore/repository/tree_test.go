package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type visit struct {
	id    uint
	depth int
}

func TestArenaWalk(t *testing.T) {
	a := NewArena[string]()
	a.Add(1, "root")
	a.Add(2, "a")
	a.Add(3, "b")
	a.Add(4, "shared")
	a.Link(1, 2)
	a.Link(1, 3)
	a.Link(2, 4)
	a.Link(3, 4)
	a.Link(1, 2)

	var got []visit
	a.Walk(func(id uint, _ string, depth int) bool {
		got = append(got, visit{id, depth})
		return true
	})
	assert.Equal(t, []visit{{1, 0}, {2, 1}, {4, 2}, {3, 1}}, got)
	assert.Equal(t, []uint{2, 3}, a.Children(1))
	assert.Equal(t, []uint{2, 3}, a.Parents(4))
}

func TestArenaWalkTerminatesOnCycle(t *testing.T) {
	a := NewArena[string]()
	a.Add(1, "x")
	a.Add(2, "y")
	a.Add(3, "z")
	a.Link(1, 2)
	a.Link(2, 3)
	a.Link(3, 1)

	assert.Empty(t, a.Roots())

	var ids []uint
	a.Walk(func(id uint, _ string, _ int) bool {
		ids = append(ids, id)
		return true
	})
	assert.Equal(t, []uint{1, 2, 3}, ids)
}

func TestArenaWalkStops(t *testing.T) {
	a := NewArena[int]()
	for i := uint(1); i <= 5; i++ {
		a.Add(i, int(i))
	}

	count := 0
	a.Walk(func(uint, int, int) bool {
		count++
		return count < 2
	})
	assert.Equal(t, 2, count)
}

func TestArenaRootsIgnoreMissingParents(t *testing.T) {
	a := NewArena[string]()
	a.Add(10, "orphan")
	a.Link(99, 10)

	assert.Equal(t, []uint{10}, a.Roots())
	node, ok := a.Node(10)
	assert.True(t, ok)
	assert.Equal(t, "orphan", node)
	_, ok = a.Node(99)
	assert.False(t, ok)
}
