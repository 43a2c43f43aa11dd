package reflist

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type testItem struct {
	name string
}

// callCounter tracks retain/release invocations per item.
type callCounter struct {
	total    int
	retains  map[*testItem]int
	releases map[*testItem]int
}

func newCallCounter() *callCounter {
	return &callCounter{
		retains:  make(map[*testItem]int),
		releases: make(map[*testItem]int),
	}
}

func (c *callCounter) retain(it *testItem) {
	c.total++
	c.retains[it]++
}

func (c *callCounter) release(it *testItem) {
	c.total--
	c.releases[it]++
}

func newCountingList(t *testing.T) (*List[*testItem], *callCounter) {
	t.Helper()
	c := newCallCounter()
	return New(c.retain, c.release), c
}

func names(items []*testItem) []string {
	res := make([]string, len(items))
	for i := range items {
		res[i] = items[i].name
	}
	return res
}

func TestNew(t *testing.T) {
	l := New[*testItem](nil, nil)
	require.Equal(t, 1, l.Refs())
	require.Equal(t, 0, l.Len())
	require.Empty(t, l.Items())
}

func TestAddRemoveDestroy(t *testing.T) {
	var (
		a = &testItem{"A"}
		b = &testItem{"B"}
	)
	l, c := newCountingList(t)

	require.NoError(t, l.Add(a))
	require.Equal(t, 1, c.total)
	require.Equal(t, []string{"A"}, names(l.Items()))

	require.NoError(t, l.Add(b))
	require.Equal(t, 2, c.total)
	require.Equal(t, []string{"B", "A"}, names(l.Items()))

	require.NoError(t, l.Remove(a))
	require.Equal(t, 1, c.total)
	require.Equal(t, []string{"B"}, names(l.Items()))

	require.NoError(t, l.Destroy())
	require.Equal(t, 0, c.total)
	require.Equal(t, 1, c.releases[b])
	require.Equal(t, 0, l.Len())
}

func TestRemoveAllMatching(t *testing.T) {
	a := &testItem{"A"}
	l, c := newCountingList(t)

	require.NoError(t, l.Add(a))
	require.NoError(t, l.Add(a))
	require.Equal(t, 2, l.Count(a))
	require.Equal(t, 2, c.retains[a])

	require.NoError(t, l.Remove(a))
	require.Equal(t, 0, l.Len())
	require.Equal(t, 2, c.releases[a])
	require.False(t, l.Contains(a))
}

func TestRemoveInterleaved(t *testing.T) {
	var (
		a = &testItem{"A"}
		b = &testItem{"B"}
	)
	l, c := newCountingList(t)
	for _, it := range []*testItem{a, b, a, b, a} {
		require.NoError(t, l.Add(it))
	}
	require.NoError(t, l.Remove(a))
	require.Equal(t, []string{"B", "B"}, names(l.Items()))
	require.Equal(t, 3, c.releases[a])
	require.Equal(t, 0, c.releases[b])

	require.NoError(t, l.Remove(b))
	require.Equal(t, 0, l.Len())
	require.Equal(t, 0, c.total)
}

func TestRemoveAbsent(t *testing.T) {
	var (
		a = &testItem{"A"}
		x = &testItem{"X"}
	)
	l, c := newCountingList(t)
	require.NoError(t, l.Add(a))

	require.NoError(t, l.Remove(x))
	require.Equal(t, []string{"A"}, names(l.Items()))
	require.Equal(t, 0, c.releases[x])
	require.Equal(t, 0, c.releases[a])
}

func TestNoCallbacks(t *testing.T) {
	a := &testItem{"A"}
	l := New[*testItem](nil, nil)

	require.NoError(t, l.Add(a))
	require.NoError(t, l.Add(a))
	require.NoError(t, l.Remove(a))
	require.Equal(t, 0, l.Len())
	require.NoError(t, l.Add(a))
	require.NoError(t, l.Release())
}

func TestOnlyOneCallback(t *testing.T) {
	var (
		a        = &testItem{"A"}
		released int
	)
	l := New(nil, func(*testItem) { released++ })
	require.NoError(t, l.Add(a))
	require.NoError(t, l.Remove(a))
	require.Equal(t, 1, released)
}

func TestCallbackAccounting(t *testing.T) {
	var (
		a = &testItem{"A"}
		b = &testItem{"B"}
	)
	l, c := newCountingList(t)

	ops := []struct {
		add  bool
		item *testItem
	}{
		{true, a}, {true, b}, {true, a}, {false, b}, {true, b},
		{true, a}, {false, a}, {true, a}, {false, a}, {false, a}, {true, b},
	}
	var adds, removedMatches = map[*testItem]int{}, map[*testItem]int{}
	for _, op := range ops {
		if op.add {
			require.NoError(t, l.Add(op.item))
			adds[op.item]++
			continue
		}
		removedMatches[op.item] += l.Count(op.item)
		require.NoError(t, l.Remove(op.item))
		require.Equal(t, 0, l.Count(op.item))
	}
	for _, it := range []*testItem{a, b} {
		require.Equal(t, adds[it], c.retains[it])
		require.Equal(t, removedMatches[it], c.releases[it])
		require.Equal(t, adds[it]-removedMatches[it], l.Count(it))
	}

	present := map[*testItem]int{a: l.Count(a), b: l.Count(b)}
	require.NoError(t, l.Destroy())
	for _, it := range []*testItem{a, b} {
		require.Equal(t, removedMatches[it]+present[it], c.releases[it])
		require.Equal(t, c.retains[it], c.releases[it])
	}
}

func TestApply(t *testing.T) {
	var (
		a = &testItem{"A"}
		b = &testItem{"B"}
		c = &testItem{"C"}
	)

	t.Run("sum and info", func(t *testing.T) {
		l := New[*testItem](nil, nil)
		for _, it := range []*testItem{c, b, a} {
			require.NoError(t, l.Add(it))
		}
		var visited []string
		res, err := l.Apply("ctx", func(it *testItem, info any) int {
			require.Equal(t, "ctx", info)
			visited = append(visited, it.name)
			return len(it.name) + 1
		})
		require.NoError(t, err)
		require.Equal(t, 6, res)
		require.Equal(t, []string{"A", "B", "C"}, visited)
	})
	t.Run("empty", func(t *testing.T) {
		l := New[*testItem](nil, nil)
		res, err := l.Apply(nil, func(*testItem, any) int { return 1 })
		require.NoError(t, err)
		require.Equal(t, 0, res)
	})
	t.Run("remove current", func(t *testing.T) {
		l, cnt := newCountingList(t)
		for _, it := range []*testItem{c, b, a} {
			require.NoError(t, l.Add(it))
		}
		var visited []string
		res, err := l.Apply(l, func(it *testItem, info any) int {
			visited = append(visited, it.name)
			require.NoError(t, info.(*List[*testItem]).Remove(it))
			return 0
		})
		require.NoError(t, err)
		require.Equal(t, 0, res)
		require.Equal(t, []string{"A", "B", "C"}, visited)
		require.Equal(t, 0, l.Len())
		require.Equal(t, 0, cnt.total)
	})
	t.Run("remove only the first visited", func(t *testing.T) {
		l := New[*testItem](nil, nil)
		for _, it := range []*testItem{c, b, a} {
			require.NoError(t, l.Add(it))
		}
		var visited []string
		_, err := l.Apply(nil, func(it *testItem, _ any) int {
			visited = append(visited, it.name)
			if it == a {
				require.NoError(t, l.Remove(a))
			}
			return 0
		})
		require.NoError(t, err)
		require.Equal(t, []string{"A", "B", "C"}, visited)
		require.Equal(t, []string{"B", "C"}, names(l.Items()))
	})
	t.Run("additions are not visited", func(t *testing.T) {
		l := New[*testItem](nil, nil)
		require.NoError(t, l.Add(a))
		res, err := l.Apply(nil, func(it *testItem, _ any) int {
			require.NoError(t, l.Add(b))
			return 1
		})
		require.NoError(t, err)
		require.Equal(t, 1, res)
		require.Equal(t, []string{"B", "A"}, names(l.Items()))
	})
	t.Run("removed ahead is skipped", func(t *testing.T) {
		l := New[*testItem](nil, nil)
		for _, it := range []*testItem{c, b, a} {
			require.NoError(t, l.Add(it))
		}
		var visited []string
		_, err := l.Apply(nil, func(it *testItem, _ any) int {
			visited = append(visited, it.name)
			if it == a {
				require.NoError(t, l.Remove(b))
			}
			return 0
		})
		require.NoError(t, err)
		require.Equal(t, []string{"A", "C"}, visited)
	})
	t.Run("destroy stops the walk", func(t *testing.T) {
		l := New[*testItem](nil, nil)
		for _, it := range []*testItem{c, b, a} {
			require.NoError(t, l.Add(it))
		}
		var n int
		_, err := l.Apply(nil, func(*testItem, any) int {
			n++
			require.NoError(t, l.Destroy())
			return 0
		})
		require.NoError(t, err)
		require.Equal(t, 1, n)
	})
}

func TestListRefs(t *testing.T) {
	for _, n := range []int{0, 1, 5} {
		a := &testItem{"A"}
		l, c := newCountingList(t)
		require.NoError(t, l.Add(a))
		for i := 0; i < n; i++ {
			require.NoError(t, l.Retain())
		}
		require.Equal(t, n+1, l.Refs())
		for i := 0; i < n; i++ {
			require.NoError(t, l.Release())
			require.Equal(t, 1, l.Len(), "destroyed too early")
			require.Equal(t, 0, c.releases[a])
		}
		require.NoError(t, l.Release())
		require.Equal(t, 0, l.Refs())
		require.Equal(t, 1, c.releases[a])
		require.ErrorIs(t, l.Release(), ErrFault)
	}
}

func TestDestroyEmpty(t *testing.T) {
	l := New[*testItem](nil, nil)
	require.NoError(t, l.Destroy())
	require.ErrorIs(t, l.Destroy(), ErrFault)
}

func TestDestroyIgnoresRefs(t *testing.T) {
	a := &testItem{"A"}
	l, c := newCountingList(t)
	require.NoError(t, l.Retain())
	require.NoError(t, l.Add(a))
	require.NoError(t, l.Destroy())
	require.Equal(t, 1, c.releases[a])
	require.ErrorIs(t, l.Release(), ErrFault)
}

func TestPreconditions(t *testing.T) {
	var (
		a   = &testItem{"A"}
		fn  = func(*testItem, any) int { return 1 }
		nl  *List[*testItem]
		obs zapcore.Core
		log *observer.ObservedLogs
	)

	t.Run("nil list", func(t *testing.T) {
		require.ErrorIs(t, nl.Add(a), ErrFault)
		require.ErrorIs(t, nl.Remove(a), ErrFault)
		require.ErrorIs(t, nl.Retain(), ErrFault)
		require.ErrorIs(t, nl.Release(), ErrFault)
		require.ErrorIs(t, nl.Destroy(), ErrFault)
		_, err := nl.Apply(nil, fn)
		require.ErrorIs(t, err, ErrFault)
		require.Equal(t, 0, nl.Len())
		require.Equal(t, 0, nl.Refs())
		require.Nil(t, nl.Items())
		require.False(t, nl.Contains(a))
	})

	obs, log = observer.New(zapcore.ErrorLevel)
	l, c := newCountingList(t)
	l.log = zap.New(obs)
	require.NoError(t, l.Add(a))

	t.Run("zero item", func(t *testing.T) {
		require.ErrorIs(t, l.Add(nil), ErrInvalidArgument)
		require.ErrorIs(t, l.Remove(nil), ErrInvalidArgument)
		require.Equal(t, 1, l.Len())
		require.Equal(t, 1, c.total)
	})
	t.Run("nil func", func(t *testing.T) {
		res, err := l.Apply(nil, nil)
		require.ErrorIs(t, err, ErrInvalidArgument)
		require.Equal(t, 0, res)
	})
	t.Run("reported", func(t *testing.T) {
		entries := log.FilterField(zap.String("op", "add")).All()
		require.Len(t, entries, 1)
		require.Equal(t, "EINVAL", entries[0].ContextMap()["kind"])
		require.Equal(t, 3, log.Len())
	})
	t.Run("destroyed list", func(t *testing.T) {
		require.NoError(t, l.Destroy())
		require.ErrorIs(t, l.Add(a), ErrFault)
		require.ErrorIs(t, l.Remove(a), ErrFault)
		require.ErrorIs(t, l.Retain(), ErrFault)
		_, err := l.Apply(nil, fn)
		require.ErrorIs(t, err, ErrFault)
		require.Equal(t, 0, c.total)
		require.Equal(t, 4, log.FilterField(zap.Stringer("kind", KindFault)).Len())
	})
}

type selfCounted struct {
	refs int
}

func (s *selfCounted) Retain()  { s.refs++ }
func (s *selfCounted) Release() { s.refs-- }

func TestNewRefCounted(t *testing.T) {
	var (
		a = &selfCounted{refs: 1}
		b = &selfCounted{refs: 1}
	)
	l := NewRefCounted[*selfCounted]()
	require.NoError(t, l.Add(a))
	require.NoError(t, l.Add(a))
	require.NoError(t, l.Add(b))
	require.Equal(t, 3, a.refs)
	require.Equal(t, 2, b.refs)

	require.NoError(t, l.Remove(a))
	require.Equal(t, 1, a.refs)
	require.NoError(t, l.Release())
	require.Equal(t, 1, b.refs)
}

func TestUncomparableItems(t *testing.T) {
	t.Run("interface", func(t *testing.T) {
		var retained int
		l := New[any](func(any) { retained++ }, nil)
		require.ErrorIs(t, l.Add([]int{1}), ErrInvalidArgument)
		require.ErrorIs(t, l.Add(map[string]int{}), ErrInvalidArgument)
		require.Equal(t, 0, retained)

		require.NoError(t, l.Add(1))
		require.NoError(t, l.Add("one"))
		require.NotPanics(t, func() {
			require.NoError(t, l.Remove([]int{1}))
			require.Equal(t, 0, l.Count([]int{1}))
			require.False(t, l.Contains([]int{1}))
		})
		require.Equal(t, 2, l.Len())
		require.NoError(t, l.Remove(1))
		require.Equal(t, []any{"one"}, l.Items())
	})
	t.Run("struct with interface field", func(t *testing.T) {
		type holder struct {
			v any
		}
		l := New[holder](nil, nil)
		require.ErrorIs(t, l.Add(holder{v: []int{1}}), ErrInvalidArgument)
		require.NoError(t, l.Add(holder{v: 1}))
		require.True(t, l.Contains(holder{v: 1}))
	})
}
