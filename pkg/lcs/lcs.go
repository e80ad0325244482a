// Package lcs computes shortest edit scripts between two sequences.
package lcs

// OpType classifies an element in an edit script.
type OpType int

const (
	Equal  OpType = iota // Element is unchanged between a and b.
	Insert               // Element was inserted (present in b only).
	Delete               // Element was deleted (present in a only).
)

func (t OpType) String() string {
	switch t {
	case Equal:
		return "equal"
	case Insert:
		return "insert"
	case Delete:
		return "delete"
	}
	return "unknown"
}

// Op is a single operation in an edit script produced by MyersDiff.
// AIndex and BIndex locate the element in a and b; the index of the side
// an element is absent from is -1.
type Op[T comparable] struct {
	Type   OpType
	Value  T
	AIndex int
	BIndex int
}

// MyersDiff computes the shortest edit script to transform a into b using
// the Myers diff algorithm.
//
// The algorithm runs in O((N+M)*D) time where N and M are the lengths of a
// and b, and D is the size of the minimum edit script.
func MyersDiff[T comparable](a, b []T) []Op[T] {
	n := len(a)
	m := len(b)

	if n == 0 && m == 0 {
		return nil
	}
	if n == 0 {
		ops := make([]Op[T], m)
		for i, v := range b {
			ops[i] = Op[T]{Type: Insert, Value: v, AIndex: -1, BIndex: i}
		}
		return ops
	}
	if m == 0 {
		ops := make([]Op[T], n)
		for i, v := range a {
			ops[i] = Op[T]{Type: Delete, Value: v, AIndex: i, BIndex: -1}
		}
		return ops
	}

	max := n + m
	size := 2*max + 1
	v := make([]int, size)

	// trace[d] holds a snapshot of v after processing edit distance d.
	var trace [][]int

	for d := 0; d <= max; d++ {
		for k := -d; k <= d; k += 2 {
			idx := k + max
			var x int
			if k == -d || (k != d && v[idx-1] < v[idx+1]) {
				x = v[idx+1] // down (insert)
			} else {
				x = v[idx-1] + 1 // right (delete)
			}
			y := x - k

			for x < n && y < m && a[x] == b[y] {
				x++
				y++
			}

			v[idx] = x

			if x >= n && y >= m {
				snap := make([]int, size)
				copy(snap, v)
				trace = append(trace, snap)
				return backtrack(trace, a, b, d)
			}
		}

		snap := make([]int, size)
		copy(snap, v)
		trace = append(trace, snap)
	}

	return nil
}

// backtrack reconstructs the edit script from the trace of v snapshots.
func backtrack[T comparable](trace [][]int, a, b []T, dFinal int) []Op[T] {
	max := len(a) + len(b)
	x := len(a)
	y := len(b)

	var ops []Op[T]
	equal := func() {
		x--
		y--
		ops = append(ops, Op[T]{Type: Equal, Value: a[x], AIndex: x, BIndex: y})
	}

	for d := dFinal; d > 0; d-- {
		k := x - y
		idx := k + max
		vPrev := trace[d-1]

		var prevK int
		if k == -d || (k != d && vPrev[idx-1] < vPrev[idx+1]) {
			prevK = k + 1
		} else {
			prevK = k - 1
		}

		prevX := vPrev[prevK+max]
		prevY := prevX - prevK

		for x > prevX && y > prevY {
			equal()
		}

		if k == prevK+1 {
			x--
			ops = append(ops, Op[T]{Type: Delete, Value: a[x], AIndex: x, BIndex: -1})
		} else {
			y--
			ops = append(ops, Op[T]{Type: Insert, Value: b[y], AIndex: -1, BIndex: y})
		}
	}

	for x > 0 && y > 0 {
		equal()
	}

	for i, j := 0, len(ops)-1; i < j; i, j = i+1, j-1 {
		ops[i], ops[j] = ops[j], ops[i]
	}
	return ops
}
