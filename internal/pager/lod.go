package pager

import (
	"strconv"

	"github.com/Faultbox/buildings/internal/style"
)

// MaxLOD is the exclusive ceiling of the level scan.
const MaxLOD = 30

// StyleName is the style bucket consulted for a level of detail.
func StyleName(lod uint32) string {
	return strconv.FormatUint(uint64(lod), 10)
}

// LODRange scans levels 0..MaxLOD-1 for styles named after them. The
// first level found is the minimum and the second the maximum; a single
// level yields min == max. ok is false when no level has a style.
func LODRange(session *style.Session) (min, max uint32, ok bool) {
	found := 0
	for i := uint32(0); i < MaxLOD; i++ {
		if session.Style(StyleName(i)) == nil {
			continue
		}
		switch found {
		case 0:
			min = i
		case 1:
			max = i
		}
		found++
	}
	switch found {
	case 0:
		return 0, 0, false
	case 1:
		max = min
	}
	return min, max, true
}
