package audio

import (
	"fmt"
	"sort"
)

// IndexedSource pairs a Source with its position in the caller's input
// list. The index is threaded through every downstream stage so results
// can be scattered back into the caller's order.
type IndexedSource struct {
	Index  int
	Source Source
}

// Order pairs each source with its original index and, when requested,
// sorts ascending by a duration proxy so that similarly short items land
// in the same batch. The sort is stable: equal durations keep their
// insertion order.
//
// The proxy depends on the representation: probed file duration for
// paths, raw sample count for waveforms, reported duration for cuts. A
// list mixing representations is rejected with MixedTypeError before any
// batch work begins.
func Order(items []Source, sortByDuration bool) ([]IndexedSource, error) {
	ordered := make([]IndexedSource, len(items))
	for i, it := range items {
		if it.Kind() == KindNone {
			return nil, &UnsupportedAudioError{Reason: fmt.Sprintf("item %d holds no audio", i)}
		}
		ordered[i] = IndexedSource{Index: i, Source: it}
	}
	if len(items) == 0 || !sortByDuration {
		return ordered, nil
	}

	kind := items[0].Kind()
	for _, it := range items[1:] {
		if it.Kind() != kind {
			return nil, &MixedTypeError{Kinds: presentKinds(items)}
		}
	}

	proxies := make([]float64, len(items))
	for i, it := range items {
		p, err := durationProxy(it)
		if err != nil {
			return nil, err
		}
		proxies[i] = p
	}
	sort.SliceStable(ordered, func(a, b int) bool {
		return proxies[ordered[a].Index] < proxies[ordered[b].Index]
	})
	return ordered, nil
}

// durationProxy returns a sortable stand-in for the item's duration.
// Proxies are only compared between items of the same kind.
func durationProxy(s Source) (float64, error) {
	switch s.Kind() {
	case KindPath:
		return ProbeDuration(s.path)
	case KindWaveform:
		return float64(len(s.waveform)), nil
	case KindCut:
		return s.cut.Duration(), nil
	default:
		return 0, &UnsupportedAudioError{Reason: "source holds no audio"}
	}
}

func presentKinds(items []Source) []Kind {
	seen := make(map[Kind]bool)
	var kinds []Kind
	for _, it := range items {
		if !seen[it.Kind()] {
			seen[it.Kind()] = true
			kinds = append(kinds, it.Kind())
		}
	}
	return kinds
}
