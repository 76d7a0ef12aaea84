package acf

import (
	"cmp"
	"context"
	"math"
	"slices"

	"gonum.org/v1/gonum/mat"

	"github.com/couchcryptid/meteor-ke-sweep/internal/domain"
)

// PairEstimator fits the symmetric wind covariance C of a bin from pairs of
// echoes. For a pair (i, j) close in time and space,
//
//	E[v_i v_j] = k_iᵀ C k_j
//
// which is linear in the six independent entries of C. Every pair with
// i <= j contributes one row; the system is solved by least squares.
type PairEstimator struct {
	// MaxPairs caps the rows of one fit; zero means unlimited.
	MaxPairs int
}

// Compute implements domain.ACFEstimator.
func (e PairEstimator) Compute(ctx context.Context, set domain.MeasurementSet, bin domain.BinSpec) (domain.Estimate, error) {
	var members []domain.Measurement
	for _, m := range set.Measurements {
		if bin.Contains(m) {
			members = append(members, m)
		}
	}
	est := domain.Estimate{Measurements: len(members)}
	if len(members) == 0 {
		return est, nil
	}
	slices.SortStableFunc(members, func(a, b domain.Measurement) int {
		return cmp.Compare(a.T, b.T)
	})

	rows, rhs, err := e.pairRows(ctx, members, bin)
	if err != nil {
		return domain.Estimate{}, err
	}
	est.Pairs = len(rhs)
	if len(rhs) <= domain.NumACFComponents {
		return est, nil
	}

	acf, sigma, ok := solve(rows, rhs)
	if !ok {
		return est, nil
	}
	est.ACF = acf
	est.Err = sigma
	est.Solved = true
	return est, nil
}

// pairRows builds the design rows and right-hand side for members, which must
// be ordered by time.
func (e PairEstimator) pairRows(ctx context.Context, members []domain.Measurement, bin domain.BinSpec) ([]float64, []float64, error) {
	var (
		rows []float64
		rhs  []float64
	)
	lag := bin.TimeLag.Seconds()
	for i := range members {
		if i%256 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, nil, err
			}
		}
		a := members[i]
		for j := i; j < len(members); j++ {
			b := members[j]
			if b.T-a.T > lag {
				break
			}
			if math.Abs(b.Up-a.Up) > bin.VerticalResolution {
				continue
			}
			d := math.Hypot(b.East-a.East, b.North-a.North)
			if d > bin.HorizontalScale {
				continue
			}
			w := 1.0
			if bin.HorizontalWeighting {
				w = math.Exp(-(d / bin.HorizontalScale) * (d / bin.HorizontalScale))
			}
			sw := math.Sqrt(w)
			row := pairRow(a.K, b.K)
			for c := range row {
				rows = append(rows, sw*row[c])
			}
			rhs = append(rhs, sw*a.V*b.V)
			if e.MaxPairs > 0 && len(rhs) >= e.MaxPairs {
				return rows, rhs, nil
			}
		}
	}
	return rows, rhs, nil
}

// pairRow expands k_iᵀ C k_j into coefficients of (uu, vv, ww, uv, uw, vw).
func pairRow(ki, kj [3]float64) [domain.NumACFComponents]float64 {
	return [domain.NumACFComponents]float64{
		ki[0] * kj[0],
		ki[1] * kj[1],
		ki[2] * kj[2],
		ki[0]*kj[1] + ki[1]*kj[0],
		ki[0]*kj[2] + ki[2]*kj[0],
		ki[1]*kj[2] + ki[2]*kj[1],
	}
}

// solve returns the least-squares solution and its standard errors
// sqrt(diag(s² (AᵀA)⁻¹)). ok is false when AᵀA is singular.
func solve(rows, rhs []float64) (acf, sigma [domain.NumACFComponents]float64, ok bool) {
	n := len(rhs)
	a := mat.NewDense(n, domain.NumACFComponents, rows)
	b := mat.NewVecDense(n, rhs)

	var ata mat.Dense
	ata.Mul(a.T(), a)
	var inv mat.Dense
	if err := inv.Inverse(&ata); err != nil {
		return acf, sigma, false
	}

	var atb mat.VecDense
	atb.MulVec(a.T(), b)
	var x mat.VecDense
	x.MulVec(&inv, &atb)

	var fit mat.VecDense
	fit.MulVec(a, &x)
	var resid mat.VecDense
	resid.SubVec(b, &fit)
	s2 := mat.Dot(&resid, &resid) / float64(n-domain.NumACFComponents)

	for c := 0; c < domain.NumACFComponents; c++ {
		acf[c] = x.AtVec(c)
		v := s2 * inv.At(c, c)
		if v < 0 {
			v = 0
		}
		sigma[c] = math.Sqrt(v)
		if math.IsNaN(acf[c]) || math.IsInf(acf[c], 0) {
			return [domain.NumACFComponents]float64{}, [domain.NumACFComponents]float64{}, false
		}
	}
	return acf, sigma, true
}
