package trait

import (
	"fmt"
	"strings"
)

// Series groups scalar and vector traits into one logical numeric sequence.
// Vector lengths vary per organism, so element counts and index lookups are
// recomputed against each data map rather than cached.
type Series struct {
	layout *Layout
	ids    []ID
}

// NewSeries builds a series from a comma-separated list of trait names.
// Unknown names error; an empty list yields an empty series.
func NewSeries(l *Layout, names string) (*Series, error) {
	s := &Series{layout: l}
	for _, raw := range strings.Split(names, ",") {
		name := strings.TrimSpace(raw)
		if name == "" {
			continue
		}
		id, ok := l.ID(name)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownTrait, name)
		}
		s.ids = append(s.ids, id)
	}
	return s, nil
}

func (s *Series) IDs() []ID { return append([]ID(nil), s.ids...) }

func (s *Series) NumTraits() int { return len(s.ids) }

// CountValues returns the flattened element count for one organism.
func (s *Series) CountValues(dm *DataMap) int {
	n := 0
	for _, id := range s.ids {
		v, err := dm.Value(id)
		if err != nil {
			continue
		}
		n += v.Len()
	}
	return n
}

// Values flattens the series to float64s for one organism.
func (s *Series) Values(dm *DataMap) ([]float64, error) {
	out := make([]float64, 0, len(s.ids))
	for _, id := range s.ids {
		v, err := dm.Value(id)
		if err != nil {
			return nil, err
		}
		for i := 0; i < v.Len(); i++ {
			f, err := v.FloatAt(i)
			if err != nil {
				return nil, fmt.Errorf("trait %q: %w", s.layout.Name(id), err)
			}
			out = append(out, f)
		}
	}
	return out, nil
}

// GetIndex addresses into the flattened series for one organism.
func (s *Series) GetIndex(dm *DataMap, idx int) (float64, error) {
	if idx < 0 {
		return 0, fmt.Errorf("trait series index %d out of range", idx)
	}
	rest := idx
	for _, id := range s.ids {
		v, err := dm.Value(id)
		if err != nil {
			return 0, err
		}
		n := v.Len()
		if rest < n {
			return v.FloatAt(rest)
		}
		rest -= n
	}
	return 0, fmt.Errorf("trait series index %d out of range", idx)
}
