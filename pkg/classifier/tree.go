package classifier

import (
	"cmp"
	"math/rand/v2"
	"slices"
)

const leaf = -1

// Node is one node of a binary decision tree stored in a flat slice.
// Leaves have Feature == -1 and carry Value; internal nodes send rows with
// x[Feature] <= Threshold to Left and the rest to Right.
type Node struct {
	Feature   int     `json:"f"`
	Threshold float64 `json:"t,omitempty"`
	Left      int     `json:"l,omitempty"`
	Right     int     `json:"r,omitempty"`
	Value     float64 `json:"v,omitempty"`
}

// Tree is a fitted decision tree. Nodes[0] is the root.
type Tree struct {
	Nodes []Node `json:"nodes"`
}

// Eval returns the leaf value reached by row.
func (t *Tree) Eval(row []float64) float64 {
	n := t.Nodes[0]
	for n.Feature != leaf {
		if row[n.Feature] <= n.Threshold {
			n = t.Nodes[n.Left]
		} else {
			n = t.Nodes[n.Right]
		}
	}
	return n.Value
}

// splitter holds the state shared by the classification and gradient tree builders.
type splitter struct {
	cols       [][]float64
	maxDepth   int
	importance []float64
	nodes      []Node
	order      []int
}

func (s *splitter) addNode(n Node) int {
	s.nodes = append(s.nodes, n)
	return len(s.nodes) - 1
}

// sortedBy returns idx ordered by the value of feature f, ties by row.
func (s *splitter) sortedBy(idx []int, f int) []int {
	s.order = append(s.order[:0], idx...)
	col := s.cols[f]
	slices.SortFunc(s.order, func(a, b int) int {
		if c := cmp.Compare(col[a], col[b]); c != 0 {
			return c
		}
		return cmp.Compare(a, b)
	})
	return s.order
}

func (s *splitter) partition(idx []int, f int, t float64) (left, right []int) {
	col := s.cols[f]
	left = make([]int, 0, len(idx))
	right = make([]int, 0, len(idx))
	for _, i := range idx {
		if col[i] <= t {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	return left, right
}

func midpoint(a, b float64) float64 {
	m := a + (b-a)/2
	if m >= b {
		return a
	}
	return m
}

// giniTree grows a CART classification tree on weighted rows.
// Leaf values are the weighted share of class 1.
type giniTree struct {
	splitter
	y               []int
	w               []float64
	count           []int
	maxFeatures     int
	minSamplesSplit int
	minSamplesLeaf  int
	rng             *rand.Rand
}

type giniStats struct {
	w, w1 float64
	n     int
}

func (g giniStats) impurity() float64 {
	if g.w == 0 {
		return 0
	}
	p := g.w1 / g.w
	return 1 - p*p - (1-p)*(1-p)
}

func (t *giniTree) stats(idx []int) giniStats {
	var s giniStats
	for _, i := range idx {
		s.w += t.w[i]
		s.n += t.count[i]
		if t.y[i] == 1 {
			s.w1 += t.w[i]
		}
	}
	return s
}

func (t *giniTree) grow(idx []int) Tree {
	t.build(idx, 0)
	return Tree{Nodes: t.nodes}
}

func (t *giniTree) build(idx []int, depth int) int {
	node := t.stats(idx)
	value := 0.0
	if node.w > 0 {
		value = node.w1 / node.w
	}

	if (t.maxDepth > 0 && depth >= t.maxDepth) ||
		node.n < t.minSamplesSplit ||
		node.n < 2*t.minSamplesLeaf ||
		node.impurity() == 0 {
		return t.addNode(Node{Feature: leaf, Value: value})
	}

	feature, thr, decrease, ok := t.bestSplit(idx, node)
	if !ok {
		return t.addNode(Node{Feature: leaf, Value: value})
	}
	t.importance[feature] += decrease

	id := t.addNode(Node{Feature: feature, Threshold: thr})
	left, right := t.partition(idx, feature, thr)
	l := t.build(left, depth+1)
	r := t.build(right, depth+1)
	t.nodes[id].Left = l
	t.nodes[id].Right = r
	return id
}

// bestSplit evaluates features in random order until maxFeatures non-constant
// features have been examined, returning the split with the lowest weighted
// child impurity and its weighted impurity decrease.
func (t *giniTree) bestSplit(idx []int, node giniStats) (feature int, thr, decrease float64, ok bool) {
	parent := node.w * node.impurity()
	best := parent
	visited := 0

	for _, f := range t.rng.Perm(len(t.cols)) {
		if visited >= t.maxFeatures {
			break
		}
		sorted := t.sortedBy(idx, f)
		col := t.cols[f]
		if col[sorted[0]] == col[sorted[len(sorted)-1]] {
			continue
		}
		visited++

		var left giniStats
		for k := 0; k < len(sorted)-1; k++ {
			i := sorted[k]
			left.w += t.w[i]
			left.n += t.count[i]
			if t.y[i] == 1 {
				left.w1 += t.w[i]
			}

			a, b := col[i], col[sorted[k+1]]
			if a == b {
				continue
			}
			if left.n < t.minSamplesLeaf || node.n-left.n < t.minSamplesLeaf {
				continue
			}

			right := giniStats{w: node.w - left.w, w1: node.w1 - left.w1, n: node.n - left.n}
			score := left.w*left.impurity() + right.w*right.impurity()
			if score < best {
				best = score
				feature, thr, ok = f, midpoint(a, b), true
			}
		}
	}

	return feature, thr, parent - best, ok
}

// gradientTree grows a regression tree on first and second order gradients
// of the logistic loss. Leaf values are Newton steps scaled by the learning rate.
type gradientTree struct {
	splitter
	grad           []float64
	hess           []float64
	lambda         float64
	minChildWeight float64
	learningRate   float64
}

func (t *gradientTree) grow(idx []int) Tree {
	t.build(idx, 0)
	return Tree{Nodes: t.nodes}
}

func (t *gradientTree) sums(idx []int) (g, h float64) {
	for _, i := range idx {
		g += t.grad[i]
		h += t.hess[i]
	}
	return g, h
}

func (t *gradientTree) score(g, h float64) float64 {
	return g * g / (h + t.lambda)
}

func (t *gradientTree) build(idx []int, depth int) int {
	g, h := t.sums(idx)
	value := -g / (h + t.lambda) * t.learningRate

	if depth >= t.maxDepth || len(idx) < 2 || h < 2*t.minChildWeight {
		return t.addNode(Node{Feature: leaf, Value: value})
	}

	parent := t.score(g, h)
	var (
		bestGain float64
		feature  int
		thr      float64
		found    bool
	)

	for f := range t.cols {
		sorted := t.sortedBy(idx, f)
		col := t.cols[f]

		var gl, hl float64
		for k := 0; k < len(sorted)-1; k++ {
			i := sorted[k]
			gl += t.grad[i]
			hl += t.hess[i]

			a, b := col[i], col[sorted[k+1]]
			if a == b {
				continue
			}
			gr, hr := g-gl, h-hl
			if hl < t.minChildWeight || hr < t.minChildWeight {
				continue
			}

			gain := 0.5 * (t.score(gl, hl) + t.score(gr, hr) - parent)
			if gain > bestGain {
				bestGain = gain
				feature, thr, found = f, midpoint(a, b), true
			}
		}
	}

	if !found {
		return t.addNode(Node{Feature: leaf, Value: value})
	}
	t.importance[feature] += bestGain

	id := t.addNode(Node{Feature: feature, Threshold: thr})
	left, right := t.partition(idx, feature, thr)
	l := t.build(left, depth+1)
	r := t.build(right, depth+1)
	t.nodes[id].Left = l
	t.nodes[id].Right = r
	return id
}
