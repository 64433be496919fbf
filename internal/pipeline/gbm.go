// Cantine - School Canteen Attendance Forecasting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cantine

package pipeline

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// maxBins bounds the histogram resolution of each feature.
const maxBins = 255

// GradientBoosting fits an additive model of shallow regression trees to the
// squared-error residuals. Split search runs on per-feature histograms, so a
// tree costs O(rows × features × depth).
type GradientBoosting struct {
	NEstimators    int
	MaxDepth       int
	LearningRate   float64
	MinSamplesLeaf int

	Base  float64
	Trees []Tree
}

// Tree is a binary regression tree stored as a flat node list; node 0 is the root.
type Tree struct {
	Nodes []Node
}

// Node is an internal split (x[Feature] <= Threshold goes Left) or a leaf.
type Node struct {
	Leaf      bool
	Feature   int
	Threshold float64
	Left      int
	Right     int
	Value     float64
}

// NewGradientBoosting validates the hyperparameters.
func NewGradientBoosting(nEstimators, maxDepth, minSamplesLeaf int, learningRate float64) (*GradientBoosting, error) {
	switch {
	case nEstimators < 1:
		return nil, configErr("gbm", "n_estimators must be positive, got %d", nEstimators)
	case maxDepth < 1:
		return nil, configErr("gbm", "max_depth must be positive, got %d", maxDepth)
	case minSamplesLeaf < 1:
		return nil, configErr("gbm", "min_samples_leaf must be positive, got %d", minSamplesLeaf)
	case learningRate <= 0 || learningRate > 1:
		return nil, configErr("gbm", "learning_rate must be in (0, 1], got %f", learningRate)
	}
	return &GradientBoosting{
		NEstimators:    nEstimators,
		MaxDepth:       maxDepth,
		LearningRate:   learningRate,
		MinSamplesLeaf: minSamplesLeaf,
	}, nil
}

// Fit grows NEstimators trees.
func (g *GradientBoosting) Fit(X *mat.Dense, y []float64) error {
	n, p := X.Dims()
	if n != len(y) {
		return fmt.Errorf("gbm: %d rows but %d targets", n, len(y))
	}

	edges := make([][]float64, p)
	bins := make([][]uint8, p)
	col := make([]float64, n)
	for j := 0; j < p; j++ {
		mat.Col(col, j, X)
		edges[j] = binEdges(col)
		bins[j] = make([]uint8, n)
		for i, v := range col {
			bins[j][i] = uint8(sort.SearchFloat64s(edges[j], v))
		}
	}

	g.Base = stat.Mean(y, nil)
	pred := make([]float64, n)
	for i := range pred {
		pred[i] = g.Base
	}
	resid := make([]float64, n)
	all := make([]int, n)
	for i := range all {
		all[i] = i
	}

	b := &treeBuilder{bins: bins, edges: edges, resid: resid, maxDepth: g.MaxDepth, minLeaf: g.MinSamplesLeaf}
	g.Trees = make([]Tree, 0, g.NEstimators)
	for t := 0; t < g.NEstimators; t++ {
		for i := range resid {
			resid[i] = y[i] - pred[i]
		}
		b.nodes = nil
		b.grow(append([]int(nil), all...), 0)
		tree := Tree{Nodes: b.nodes}
		for i := 0; i < n; i++ {
			pred[i] += g.LearningRate * tree.predict(X.RawRowView(i))
		}
		g.Trees = append(g.Trees, tree)
	}
	return nil
}

// Predict sums the scaled tree outputs.
func (g *GradientBoosting) Predict(X *mat.Dense) ([]float64, error) {
	n, _ := X.Dims()
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		row := X.RawRowView(i)
		v := g.Base
		for t := range g.Trees {
			v += g.LearningRate * g.Trees[t].predict(row)
		}
		out[i] = v
	}
	return out, nil
}

func (t *Tree) predict(row []float64) float64 {
	i := 0
	for {
		nd := &t.Nodes[i]
		if nd.Leaf {
			return nd.Value
		}
		if row[nd.Feature] <= nd.Threshold {
			i = nd.Left
		} else {
			i = nd.Right
		}
	}
}

// binEdges returns ascending split candidates for one feature: midpoints
// between distinct values, or quantile cuts when there are too many.
func binEdges(col []float64) []float64 {
	vals := present(col)
	sort.Float64s(vals)
	uniq := vals[:0:0]
	for i, v := range vals {
		if i == 0 || v != vals[i-1] {
			uniq = append(uniq, v)
		}
	}
	if len(uniq) < 2 {
		return nil
	}
	var edges []float64
	if len(uniq) <= maxBins {
		for i := 0; i+1 < len(uniq); i++ {
			edges = append(edges, (uniq[i]+uniq[i+1])/2)
		}
		return edges
	}
	for k := 1; k < maxBins; k++ {
		cut := vals[k*len(vals)/maxBins]
		if len(edges) == 0 || cut > edges[len(edges)-1] {
			edges = append(edges, cut)
		}
	}
	return edges
}

type treeBuilder struct {
	bins     [][]uint8
	edges    [][]float64
	resid    []float64
	maxDepth int
	minLeaf  int
	nodes    []Node
}

// grow appends the subtree for idx and returns its node index.
func (b *treeBuilder) grow(idx []int, depth int) int {
	var sum float64
	for _, i := range idx {
		sum += b.resid[i]
	}
	n := float64(len(idx))
	self := len(b.nodes)
	b.nodes = append(b.nodes, Node{Leaf: true, Value: sum / n})

	if depth >= b.maxDepth || len(idx) < 2*b.minLeaf {
		return self
	}

	bestGain, bestFeature, bestBin := 1e-12, -1, 0
	var hSum [maxBins + 1]float64
	var hCnt [maxBins + 1]int
	for f := range b.bins {
		nb := len(b.edges[f]) + 1
		if nb < 2 {
			continue
		}
		for k := 0; k < nb; k++ {
			hSum[k], hCnt[k] = 0, 0
		}
		for _, i := range idx {
			k := b.bins[f][i]
			hSum[k] += b.resid[i]
			hCnt[k]++
		}
		var ls float64
		var lc int
		for k := 0; k < nb-1; k++ {
			ls += hSum[k]
			lc += hCnt[k]
			rc := len(idx) - lc
			if lc < b.minLeaf || rc < b.minLeaf {
				continue
			}
			rs := sum - ls
			gain := ls*ls/float64(lc) + rs*rs/float64(rc) - sum*sum/n
			if gain > bestGain {
				bestGain, bestFeature, bestBin = gain, f, k
			}
		}
	}
	if bestFeature < 0 || math.IsNaN(bestGain) {
		return self
	}

	var left, right []int
	for _, i := range idx {
		if int(b.bins[bestFeature][i]) <= bestBin {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	l := b.grow(left, depth+1)
	r := b.grow(right, depth+1)
	b.nodes[self] = Node{
		Feature:   bestFeature,
		Threshold: b.edges[bestFeature][bestBin],
		Left:      l,
		Right:     r,
	}
	return self
}
