package bspline

// span finds the knot span index containing u for a basis of degree p over
// n+1 control points (The NURBS Book A2.1). u is clamped to the domain.
func span(knots []float64, p, n int, u float64) int {
	if u >= knots[n+1] {
		return n
	}
	if u <= knots[p] {
		return p
	}
	low, high := p, n+1
	mid := (low + high) / 2
	for u < knots[mid] || u >= knots[mid+1] {
		if u < knots[mid] {
			high = mid
		} else {
			low = mid
		}
		mid = (low + high) / 2
	}
	return mid
}

// basis returns the p+1 non-zero basis functions of degree p at u in span
// s: N[j] is N_{s-p+j,p}(u) (A2.2).
func basis(knots []float64, s, p int, u float64) []float64 {
	n := make([]float64, p+1)
	left := make([]float64, p+1)
	right := make([]float64, p+1)
	n[0] = 1
	for j := 1; j <= p; j++ {
		left[j] = u - knots[s+1-j]
		right[j] = knots[s+j] - u
		saved := 0.0
		for r := 0; r < j; r++ {
			d := right[r+1] + left[j-r]
			temp := 0.0
			if d != 0 {
				temp = n[r] / d
			}
			n[r] = saved + right[r+1]*temp
			saved = left[j-r] * temp
		}
		n[j] = saved
	}
	return n
}

// basisDerivs returns the basis functions and their first derivatives at u
// in span s. Derivatives come from the degree p-1 basis:
//
//	N'_{i,p} = p/(t_{i+p}-t_i) N_{i,p-1} - p/(t_{i+p+1}-t_{i+1}) N_{i+1,p-1}
func basisDerivs(knots []float64, s, p int, u float64) (n, dn []float64) {
	n = basis(knots, s, p, u)
	dn = make([]float64, p+1)
	if p == 0 {
		return n, dn
	}
	lower := basis(knots, s, p-1, u) // lower[k] = N_{s-p+1+k,p-1}
	fp := float64(p)
	for j := 0; j <= p; j++ {
		i := s - p + j
		var d float64
		if j > 0 {
			if den := knots[i+p] - knots[i]; den != 0 {
				d += fp * lower[j-1] / den
			}
		}
		if j < p {
			if den := knots[i+p+1] - knots[i+1]; den != 0 {
				d -= fp * lower[j] / den
			}
		}
		dn[j] = d
	}
	return n, dn
}

// axisBasis caches span and basis values of one axis for a parameter list.
type axisBasis struct {
	first []int // index of the first contributing control point
	n     [][]float64
	dn    [][]float64
}

func newAxisBasis(knots []float64, p, count int, params []float64) axisBasis {
	ab := axisBasis{
		first: make([]int, len(params)),
		n:     make([][]float64, len(params)),
		dn:    make([][]float64, len(params)),
	}
	for k, u := range params {
		s := span(knots, p, count-1, u)
		ab.first[k] = s - p
		ab.n[k], ab.dn[k] = basisDerivs(knots, s, p, u)
	}
	return ab
}

// constBasis stands in for an unused axis.
func constBasis(samples int) axisBasis {
	ab := axisBasis{
		first: make([]int, samples),
		n:     make([][]float64, samples),
		dn:    make([][]float64, samples),
	}
	for k := range ab.n {
		ab.n[k] = []float64{1}
		ab.dn[k] = []float64{0}
	}
	return ab
}
