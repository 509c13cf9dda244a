package reactively_test

import (
	"strings"
	"testing"

	"github.com/delaneyj/signalbind/pkg/reactively"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type change struct {
	newValue, oldValue int
}

func TestReaction(t *testing.T) {
	t.Run("effect receives new and old values", func(t *testing.T) {
		rctx := &reactively.ReactiveContext{}
		count := reactively.Signal(rctx, 1)
		var changes []change

		r := reactively.NewReaction(rctx,
			func(r *reactively.Reaction) int {
				return count.Read() * 10
			},
			func(newValue, oldValue int, r *reactively.Reaction) {
				changes = append(changes, change{newValue, oldValue})
			},
		)
		assert.Empty(t, changes)

		count.Write(2)
		count.Write(3)
		assert.Equal(t, []change{{20, 10}, {30, 20}}, changes)

		r.Dispose()
		assert.True(t, r.Disposed())
		count.Write(4)
		assert.Len(t, changes, 2)
	})

	t.Run("equal results do not fire", func(t *testing.T) {
		rctx := &reactively.ReactiveContext{}
		count := reactively.Signal(rctx, 1)
		fired := 0
		reactively.NewReaction(rctx,
			func(r *reactively.Reaction) bool {
				return count.Read() > 0
			},
			func(newValue, oldValue bool, r *reactively.Reaction) {
				fired++
			},
		)

		count.Write(2)
		count.Write(3)
		assert.Equal(t, 0, fired)
		count.Write(-3)
		assert.Equal(t, 1, fired)
	})

	t.Run("structural equality by default", func(t *testing.T) {
		rctx := &reactively.ReactiveContext{}
		first := reactively.Signal(rctx, "a")
		last := reactively.Signal(rctx, "b")
		fired := 0
		reactively.NewReaction(rctx,
			func(r *reactively.Reaction) []string {
				return []string{strings.ToUpper(first.Read()), last.Read()}
			},
			func(newValue, oldValue []string, r *reactively.Reaction) {
				fired++
			},
		)

		first.Write("A")
		assert.Equal(t, 0, fired)
		last.Write("c")
		assert.Equal(t, 1, fired)
	})

	t.Run("custom equality", func(t *testing.T) {
		rctx := &reactively.ReactiveContext{}
		count := reactively.Signal(rctx, 1)
		fired := 0
		reactively.NewReaction(rctx,
			func(r *reactively.Reaction) int {
				return count.Read()
			},
			func(newValue, oldValue int, r *reactively.Reaction) {
				fired++
			},
			reactively.WithEquals(func(a, b any) bool {
				return a.(int)/10 == b.(int)/10
			}),
		)

		count.Write(5)
		assert.Equal(t, 0, fired)
		count.Write(15)
		assert.Equal(t, 1, fired)
	})

	t.Run("fire immediately", func(t *testing.T) {
		rctx := &reactively.ReactiveContext{}
		count := reactively.Signal(rctx, 7)
		var changes []change
		reactively.NewReaction(rctx,
			func(r *reactively.Reaction) int {
				return count.Read()
			},
			func(newValue, oldValue int, r *reactively.Reaction) {
				changes = append(changes, change{newValue, oldValue})
			},
			reactively.FireImmediately(),
			reactively.WithName("count"),
		)
		assert.Equal(t, []change{{7, 0}}, changes)
	})

	t.Run("effect is untracked and may dispose", func(t *testing.T) {
		rctx := &reactively.ReactiveContext{}
		count := reactively.Signal(rctx, 1)
		other := reactively.Signal(rctx, 1)
		fired := 0
		r := reactively.NewReaction(rctx,
			func(r *reactively.Reaction) int {
				return count.Read()
			},
			func(newValue, oldValue int, r *reactively.Reaction) {
				other.Read()
				fired++
				if newValue >= 3 {
					r.Dispose()
				}
			},
			reactively.WithName("disposing"),
		)
		assert.Equal(t, "disposing", r.Name())

		other.Write(2)
		assert.Equal(t, 0, fired)
		count.Write(2)
		count.Write(3)
		count.Write(4)
		assert.Equal(t, 2, fired)
		assert.True(t, r.Disposed())
	})

	t.Run("effect writing its own source settles", func(t *testing.T) {
		rctx := &reactively.ReactiveContext{}
		count := reactively.Signal(rctx, 0)
		var seen []int
		reactively.NewReaction(rctx,
			func(r *reactively.Reaction) int {
				return count.Read()
			},
			func(newValue, oldValue int, r *reactively.Reaction) {
				seen = append(seen, newValue)
				if newValue < 3 {
					count.Write(newValue + 1)
				}
			},
		)

		count.Write(1)
		assert.Equal(t, []int{1, 2, 3}, seen)
	})

	t.Run("panics in the expression propagate", func(t *testing.T) {
		rctx := &reactively.ReactiveContext{}
		require.PanicsWithValue(t, "bad expression", func() {
			reactively.NewReaction(rctx,
				func(r *reactively.Reaction) int {
					panic("bad expression")
				},
				func(newValue, oldValue int, r *reactively.Reaction) {},
			)
		})
		assert.False(t, rctx.Tracking())
	})
}

func TestTracker(t *testing.T) {
	rctx := &reactively.ReactiveContext{}
	name := reactively.Signal(rctx, "ada")
	unrelated := reactively.Signal(rctx, 0)
	invalidations := 0
	tr := reactively.NewTracker(rctx, func() {
		invalidations++
	})

	var out string
	tr.Track(func() {
		out = "hello " + name.Read()
	})
	assert.Equal(t, "hello ada", out)
	assert.Equal(t, 1, tr.Dependencies())

	unrelated.Write(1)
	assert.Equal(t, 0, invalidations)

	name.Write("grace")
	assert.Equal(t, 1, invalidations)
	// the tracker never re-runs on its own
	assert.Equal(t, "hello ada", out)

	tr.Track(func() {
		out = "hello " + name.Read()
	})
	assert.Equal(t, "hello grace", out)

	tr.Dispose()
	assert.True(t, tr.Disposed())
	name.Write("linus")
	assert.Equal(t, 1, invalidations)

	tr.Track(func() {
		out = "bye " + name.Read()
	})
	assert.Equal(t, "bye linus", out)
	assert.Equal(t, 0, tr.Dependencies())
}
