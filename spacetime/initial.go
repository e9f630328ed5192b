package spacetime

// Initial describes the infinite t = 0 row:
//
//	..., LeftCycle, LeftCycle, Center, RightCycle, RightCycle, ...
//
// Center[0] sits at x = 0. LeftCycle[k-1] sits at x = -1 and RightCycle[0]
// at x = len(Center). An empty cycle means a single false cell.
type Initial struct {
	Center     []bool
	LeftCycle  []bool
	RightCycle []bool
}

// normalized returns a copy with empty cycles replaced by [false].
func (in Initial) normalized() Initial {
	out := Initial{
		Center:     append([]bool(nil), in.Center...),
		LeftCycle:  append([]bool(nil), in.LeftCycle...),
		RightCycle: append([]bool(nil), in.RightCycle...),
	}
	if len(out.LeftCycle) == 0 {
		out.LeftCycle = []bool{false}
	}
	if len(out.RightCycle) == 0 {
		out.RightCycle = []bool{false}
	}
	return out
}

// CellAt returns the t = 0 state of cell x.
func (in Initial) CellAt(x int64) bool {
	n := int64(len(in.Center))
	switch {
	case x < 0:
		k := int64(len(in.LeftCycle))
		if k == 0 {
			return false
		}
		return in.LeftCycle[((x%k)+k)%k]
	case x < n:
		return in.Center[x]
	default:
		k := int64(len(in.RightCycle))
		if k == 0 {
			return false
		}
		return in.RightCycle[(x-n)%k]
	}
}
