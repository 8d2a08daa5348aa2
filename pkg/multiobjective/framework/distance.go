package framework

import (
	"github.com/sourcegraph/conc/iter"
	"gonum.org/v1/gonum/floats"
)

// PerpendicularDistanceFunc computes the matrix of orthogonal distances from
// every point to the ray through the origin along every direction. The result
// has one row per point and one column per direction. Implementations are
// pluggable so a vectorized or accelerated variant can be swapped in.
type PerpendicularDistanceFunc func(points, directions [][]float64) [][]float64

// PerpendicularDistances is the reference implementation: for a point p and a
// direction d it returns ||p - (p·d̂)d̂|| with d̂ = d/||d||. Directions are rays
// from the origin, not line segments.
func PerpendicularDistances(points, directions [][]float64) [][]float64 {
	dist := make([][]float64, len(points))
	for i := range points {
		dist[i] = perpendicularDistanceRow(points[i], directions)
	}
	return dist
}

// ParallelPerpendicularDistances computes the same matrix with one task per
// point. Row results are independent, so the output is identical to the
// serial version.
func ParallelPerpendicularDistances(points, directions [][]float64) [][]float64 {
	dist := make([][]float64, len(points))
	iter.ForEachIdx(points, func(i int, p *[]float64) {
		dist[i] = perpendicularDistanceRow(*p, directions)
	})
	return dist
}

func perpendicularDistanceRow(point []float64, directions [][]float64) []float64 {
	row := make([]float64, len(directions))
	diff := make([]float64, len(point))
	for j, dir := range directions {
		norm := floats.Norm(dir, 2)
		proj := floats.Dot(point, dir) / norm
		for k := range point {
			diff[k] = point[k] - proj*dir[k]/norm
		}
		row[j] = floats.Norm(diff, 2)
	}
	return row
}
