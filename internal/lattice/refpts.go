package lattice

import "fmt"

// URefPts validates a reference point selection for a ring of n elements and
// returns it in index form. A nil selection defaults to the end of the ring.
// Indices must be ascending, non-negative and not greater than n.
func URefPts(refs []int, n int) ([]int, error) {
	if refs == nil {
		return []int{n}, nil
	}
	prev := -1
	for _, r := range refs {
		if r < 0 || r > n || r < prev {
			return nil, fmt.Errorf("refpts must be ascending and less than or equal to %d", n)
		}
		prev = r
	}
	out := make([]int, len(refs))
	copy(out, refs)
	return out, nil
}

// BoolRefPts converts an index-form selection into a boolean mask of length
// n+1 where selected points are true.
func BoolRefPts(refs []int, n int) []bool {
	mask := make([]bool, n+1)
	for _, r := range refs {
		mask[r] = true
	}
	return mask
}

// MaskRefPts converts a boolean mask into index form.
func MaskRefPts(mask []bool) []int {
	var refs []int
	for i, sel := range mask {
		if sel {
			refs = append(refs, i)
		}
	}
	return refs
}
