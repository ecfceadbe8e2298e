package batch

// Group is a half-open range [Start, End) of job positions.
type Group struct {
	Start int
	End   int
}

// Size returns the number of jobs in the group.
func (g Group) Size() int {
	return g.End - g.Start
}

// Groups partitions n jobs into ceil(n/size) contiguous groups in input
// order. A size below 1 is treated as 1.
func Groups(n, size int) []Group {
	if n <= 0 {
		return nil
	}
	size = max(size, 1)
	out := make([]Group, 0, (n+size-1)/size)
	for start := 0; start < n; start += size {
		out = append(out, Group{Start: start, End: min(start+size, n)})
	}
	return out
}
