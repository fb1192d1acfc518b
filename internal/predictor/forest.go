package predictor

import (
	"errors"
	"fmt"
	"math/rand"
	"sort"
)

var (
	ErrModelNotFitted = errors.New("regression model is not fitted")
	ErrFeatureShape   = errors.New("feature vector has unexpected length")
	ErrCorruptModel   = errors.New("regression model is corrupt")
)

// ForestConfig controls how a Forest is grown.
type ForestConfig struct {
	Trees           int
	MaxDepth        int
	MinSamplesSplit int
	MinSamplesLeaf  int
	Seed            int64
}

// DefaultForestConfig grows 100 fully developed trees with a fixed seed.
var DefaultForestConfig = ForestConfig{
	Trees:           100,
	MaxDepth:        32,
	MinSamplesSplit: 2,
	MinSamplesLeaf:  1,
	Seed:            42,
}

// Forest is a bagged ensemble of regression trees. Trees are stored as flat node
// slices so the whole model survives serialization unchanged.
type Forest struct {
	Features int    `json:"features"`
	Trees    []Tree `json:"trees"`
}

// Tree is a regression tree rooted at Nodes[0].
type Tree struct {
	Nodes []Node `json:"nodes"`
}

// Node is a split when Feature >= 0 and a leaf otherwise.
type Node struct {
	Feature   int     `json:"f"`
	Threshold float64 `json:"t,omitempty"`
	Left      int     `json:"l,omitempty"`
	Right     int     `json:"r,omitempty"`
	Value     float64 `json:"v,omitempty"`
}

// FitForest grows a forest on X -> y. Each tree sees a bootstrap sample of the rows.
func FitForest(X [][]float64, y []float64, cfg ForestConfig) (*Forest, error) {
	if len(X) == 0 || len(X) != len(y) {
		return nil, fmt.Errorf("fit forest: %d rows, %d targets", len(X), len(y))
	}
	width := len(X[0])
	for i, row := range X {
		if len(row) != width {
			return nil, fmt.Errorf("fit forest: row %d: %w", i, ErrFeatureShape)
		}
	}
	cfg = cfg.withDefaults()

	rng := rand.New(rand.NewSource(cfg.Seed))
	forest := &Forest{Features: width, Trees: make([]Tree, 0, cfg.Trees)}
	for t := 0; t < cfg.Trees; t++ {
		sample := make([]int, len(X))
		for i := range sample {
			sample[i] = rng.Intn(len(X))
		}
		b := treeBuilder{X: X, y: y, cfg: cfg}
		b.grow(sample, 0)
		forest.Trees = append(forest.Trees, Tree{Nodes: b.nodes})
	}
	return forest, nil
}

// Predict averages the trees' outputs for a single feature vector.
func (f *Forest) Predict(x []float64) (float64, error) {
	if f == nil || len(f.Trees) == 0 {
		return 0, ErrModelNotFitted
	}
	if len(x) != f.Features {
		return 0, fmt.Errorf("%w: got %d, want %d", ErrFeatureShape, len(x), f.Features)
	}
	var sum float64
	for i := range f.Trees {
		v, err := f.Trees[i].predict(x)
		if err != nil {
			return 0, fmt.Errorf("tree %d: %w", i, err)
		}
		sum += v
	}
	return sum / float64(len(f.Trees)), nil
}

func (t *Tree) predict(x []float64) (float64, error) {
	i := 0
	for steps := 0; steps <= len(t.Nodes); steps++ {
		if i < 0 || i >= len(t.Nodes) {
			return 0, ErrCorruptModel
		}
		n := t.Nodes[i]
		if n.Feature < 0 {
			return n.Value, nil
		}
		if n.Feature >= len(x) {
			return 0, ErrCorruptModel
		}
		if x[n.Feature] <= n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
	return 0, ErrCorruptModel
}

func (c ForestConfig) withDefaults() ForestConfig {
	if c.Trees <= 0 {
		c.Trees = DefaultForestConfig.Trees
	}
	if c.MaxDepth <= 0 {
		c.MaxDepth = DefaultForestConfig.MaxDepth
	}
	if c.MinSamplesSplit < 2 {
		c.MinSamplesSplit = 2
	}
	if c.MinSamplesLeaf < 1 {
		c.MinSamplesLeaf = 1
	}
	return c
}

type treeBuilder struct {
	X     [][]float64
	y     []float64
	cfg   ForestConfig
	nodes []Node
}

// grow appends the subtree for rows and returns the index of its root.
func (b *treeBuilder) grow(rows []int, depth int) int {
	pos := len(b.nodes)
	b.nodes = append(b.nodes, Node{Feature: -1, Value: b.mean(rows)})

	if len(rows) < b.cfg.MinSamplesSplit || depth >= b.cfg.MaxDepth || b.pure(rows) {
		return pos
	}
	feature, threshold, ok := b.bestSplit(rows)
	if !ok {
		return pos
	}

	left := make([]int, 0, len(rows))
	right := make([]int, 0, len(rows))
	for _, r := range rows {
		if b.X[r][feature] <= threshold {
			left = append(left, r)
		} else {
			right = append(right, r)
		}
	}
	l := b.grow(left, depth+1)
	r := b.grow(right, depth+1)
	b.nodes[pos] = Node{Feature: feature, Threshold: threshold, Left: l, Right: r}
	return pos
}

func (b *treeBuilder) mean(rows []int) float64 {
	var sum float64
	for _, r := range rows {
		sum += b.y[r]
	}
	return sum / float64(len(rows))
}

func (b *treeBuilder) pure(rows []int) bool {
	first := b.y[rows[0]]
	for _, r := range rows[1:] {
		if b.y[r] != first {
			return false
		}
	}
	return true
}

// bestSplit maximizes the variance reduction over every feature and every
// boundary between distinct sorted values.
func (b *treeBuilder) bestSplit(rows []int) (int, float64, bool) {
	n := len(rows)
	var total float64
	for _, r := range rows {
		total += b.y[r]
	}
	// sum^2/n of the parent; a split must beat it
	bestScore := total * total / float64(n)
	const eps = 1e-12
	bestFeature, bestThreshold, found := -1, 0.0, false

	sorted := make([]int, n)
	minLeaf := b.cfg.MinSamplesLeaf
	for f := 0; f < len(b.X[rows[0]]); f++ {
		copy(sorted, rows)
		sort.SliceStable(sorted, func(i, j int) bool {
			return b.X[sorted[i]][f] < b.X[sorted[j]][f]
		})

		var leftSum float64
		for k := 1; k < n; k++ {
			leftSum += b.y[sorted[k-1]]
			if k < minLeaf || n-k < minLeaf {
				continue
			}
			lo, hi := b.X[sorted[k-1]][f], b.X[sorted[k]][f]
			if lo == hi {
				continue
			}
			rightSum := total - leftSum
			score := leftSum*leftSum/float64(k) + rightSum*rightSum/float64(n-k)
			if score > bestScore+eps {
				threshold := lo + (hi-lo)/2
				if threshold >= hi {
					threshold = lo
				}
				bestScore, bestFeature, bestThreshold, found = score, f, threshold, true
			}
		}
	}
	return bestFeature, bestThreshold, found
}
