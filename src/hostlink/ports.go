package hostlink

const (
	DefaultPortStart = 49600
	DefaultPortEnd   = 49650
)

// Range is an inclusive TCP port range on the loopback interface.
type Range struct {
	Start int
	End   int
}

func DefaultRange() Range { return Range{Start: DefaultPortStart, End: DefaultPortEnd} }

// Normalized fills zero values with defaults, clamps to [1024, 65535] and
// orders the bounds.
func (r Range) Normalized() Range {
	if r.Start == 0 {
		r.Start = DefaultPortStart
	}
	if r.End == 0 {
		r.End = DefaultPortEnd
	}
	if r.Start < 1024 {
		r.Start = 1024
	}
	if r.End > 65535 {
		r.End = 65535
	}
	if r.End < r.Start {
		r.Start, r.End = r.End, r.Start
	}
	return r
}
