package handler

import "slices"

// span is the half open byte range [start, end).
type span struct {
	start, end uint64
}

// segmentTracker records which byte ranges of a file arrived.
// Ranges are kept sorted and merged.
type segmentTracker struct {
	spans []span
}

func (s *segmentTracker) add(start, end uint64) {
	if end <= start {
		return
	}
	i, _ := slices.BinarySearchFunc(s.spans, start, func(sp span, v uint64) int {
		switch {
		case sp.end < v:
			return -1
		case sp.start > v:
			return 1
		}
		return 0
	})
	j := i
	for j < len(s.spans) && s.spans[j].start <= end {
		start = min(start, s.spans[j].start)
		end = max(end, s.spans[j].end)
		j++
	}
	s.spans = slices.Replace(s.spans, i, j, span{start, end})
}

// received is the number of distinct bytes that arrived.
func (s *segmentTracker) received() uint64 {
	var n uint64
	for _, sp := range s.spans {
		n += sp.end - sp.start
	}
	return n
}

// end is the offset after the last received byte.
func (s *segmentTracker) end() uint64 {
	if len(s.spans) == 0 {
		return 0
	}
	return s.spans[len(s.spans)-1].end
}

// missing lists the gaps in [0, size), at most limit of them if limit > 0.
func (s *segmentTracker) missing(size uint64, limit int) []span {
	var gaps []span
	pos := uint64(0)
	for _, sp := range s.spans {
		if sp.start >= size {
			break
		}
		if sp.start > pos {
			gaps = append(gaps, span{pos, sp.start})
		}
		pos = max(pos, sp.end)
	}
	if pos < size {
		gaps = append(gaps, span{pos, size})
	}
	if limit > 0 && len(gaps) > limit {
		gaps = gaps[:limit]
	}
	return gaps
}

// complete reports whether every byte in [0, size) arrived.
func (s *segmentTracker) complete(size uint64) bool {
	if size == 0 {
		return true
	}
	return len(s.spans) > 0 && s.spans[0].start == 0 && s.spans[0].end >= size
}

func (s *segmentTracker) reset() {
	s.spans = s.spans[:0]
}
