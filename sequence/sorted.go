package sequence

import (
	"sort"

	"github.com/arborxml/xpath/atomic"
	"github.com/arborxml/xpath/xerr"
)

// SortKey is one item's computed ordering key for a `order by` clause
// or fn:sort: the (possibly empty, for "empty greatest/least" handling)
// atomic key sequence, plus whether the comparison should be
// descending and where an empty key sorts.
type SortKey struct {
	Values     []atomic.Value
	Descending bool
	EmptyLeast bool
}

// SortedByKey stably sorts items by a parallel slice of per-item
// composite keys (§4.C "sorted_by_key"). The first comparison error
// stops all further comparisons and is returned; no ordering is
// returned with it.
func SortedByKey(items []Item, keys [][]SortKey, collation atomic.Collation, implicitTZMinutes int) ([]Item, error) {
	if len(items) != len(keys) {
		panic("sequence: SortedByKey items/keys length mismatch")
	}
	idx := make([]int, len(items))
	for i := range idx {
		idx[i] = i
	}
	// Deviation: once a comparison raises, every remaining comparison
	// short-circuits to "not less" rather than continuing to treat
	// incomparable keys as less-than and deferring the raise to a
	// second pass. The first comparison error found this way is not
	// always the first one a full incomparable-as-less pass would
	// surface, but the observable behavior is identical either way --
	// XPTY0004 is raised and the partial ordering sort.SliceStable
	// produced up to that point is discarded below.
	var sortErr error
	sort.SliceStable(idx, func(i, j int) bool {
		if sortErr != nil {
			return false
		}
		less, err := keysLess(keys[idx[i]], keys[idx[j]], collation, implicitTZMinutes)
		if err != nil {
			sortErr = err
			return false
		}
		return less
	})
	if sortErr != nil {
		return nil, sortErr
	}
	out := make([]Item, len(items))
	for i, j := range idx {
		out[i] = items[j]
	}
	return out, nil
}

func keysLess(a, b []SortKey, collation atomic.Collation, implicitTZMinutes int) (bool, error) {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		less, greater, err := compareOneKey(a[i], b[i], collation, implicitTZMinutes)
		if err != nil {
			return false, err
		}
		if less {
			return true, nil
		}
		if greater {
			return false, nil
		}
	}
	return false, nil
}

func compareOneKey(a, b SortKey, collation atomic.Collation, implicitTZMinutes int) (less, greater bool, err error) {
	aEmpty := len(a.Values) == 0
	bEmpty := len(b.Values) == 0
	if aEmpty && bEmpty {
		return false, false, nil
	}
	if aEmpty || bEmpty {
		aFirst := aEmpty == a.EmptyLeast
		return aFirst, !aFirst, nil
	}
	if len(a.Values) != 1 || len(b.Values) != 1 {
		return false, false, xerr.New(xerr.XPTY0004, nil, "sort key must be a single atomic value")
	}
	ord, err := atomic.Compare(a.Values[0], b.Values[0], collation, implicitTZMinutes)
	if err != nil {
		return false, false, err
	}
	if a.Descending {
		return ord == atomic.Greater, ord == atomic.Less
	}
	return ord == atomic.Less, ord == atomic.Greater
}
