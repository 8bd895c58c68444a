package thermal

import (
	"errors"
	"sort"
)

type point struct{ key, value float64 }

// linearTable interpolates piecewise-linearly between sorted points and
// extrapolates past either end with the edge segment's slope.
type linearTable struct {
	keys   []float64
	values []float64
}

func newLinearTable(points []point) (*linearTable, error) {
	if len(points) < 2 {
		return nil, errors.New("need at least two calibration points")
	}
	sorted := make([]point, len(points))
	copy(sorted, points)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].key < sorted[j].key })

	t := &linearTable{}
	for i, p := range sorted {
		if i > 0 && p.key <= sorted[i-1].key {
			return nil, errors.New("duplicate calibration key")
		}
		t.keys = append(t.keys, p.key)
		t.values = append(t.values, p.value)
	}
	return t, nil
}

func (t *linearTable) at(key float64) float64 {
	i := sort.SearchFloat64s(t.keys, key)
	switch {
	case i <= 0:
		i = 1
	case i >= len(t.keys):
		i = len(t.keys) - 1
	}
	k0, k1 := t.keys[i-1], t.keys[i]
	v0, v1 := t.values[i-1], t.values[i]
	return v0 + (key-k0)*(v1-v0)/(k1-k0)
}

// inverse swaps keys and values. The table must be strictly monotonic.
func (t *linearTable) inverse() (*linearTable, error) {
	pts := make([]point, len(t.keys))
	for i := range t.keys {
		pts[i] = point{key: t.values[i], value: t.keys[i]}
	}
	return newLinearTable(pts)
}
