package ml

import (
	"errors"
	"fmt"
	"math"
)

type DecisionTree struct {
	nodes []TreeNode
}

type TreeNode struct {
	FeatureIdx    int       `json:"feature_idx"`
	Threshold     float64   `json:"threshold"`
	LeftChild     int       `json:"left_child"`
	RightChild    int       `json:"right_child"`
	IsLeaf        bool      `json:"is_leaf"`
	Probabilities []float64 `json:"probabilities,omitempty"`
}

// NewDecisionTree validates a flattened tree whose root is nodes[0].
func NewDecisionTree(nodes []TreeNode) (*DecisionTree, error) {
	if len(nodes) == 0 {
		return nil, errors.New("tree has no nodes")
	}
	for i, node := range nodes {
		if node.IsLeaf {
			if err := checkLeaf(node.Probabilities); err != nil {
				return nil, fmt.Errorf("node %d: %w", i, err)
			}
			continue
		}
		if node.FeatureIdx < 0 || node.FeatureIdx >= FeatureCount {
			return nil, fmt.Errorf("node %d: feature index %d out of range", i, node.FeatureIdx)
		}
		// children always follow their parent, so walks terminate
		if node.LeftChild <= i || node.LeftChild >= len(nodes) {
			return nil, fmt.Errorf("node %d: invalid left child %d", i, node.LeftChild)
		}
		if node.RightChild <= i || node.RightChild >= len(nodes) {
			return nil, fmt.Errorf("node %d: invalid right child %d", i, node.RightChild)
		}
	}
	return &DecisionTree{nodes: append([]TreeNode(nil), nodes...)}, nil
}

func (dt *DecisionTree) Predict(features []float64) (int, []float64, error) {
	if len(dt.nodes) == 0 {
		return 0, nil, ErrModelNotLoaded
	}
	if len(features) != FeatureCount {
		return 0, nil, fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, len(features), FeatureCount)
	}
	idx := 0
	for {
		node := dt.nodes[idx]
		if node.IsLeaf {
			probabilities := append([]float64(nil), node.Probabilities...)
			return argmax(probabilities), probabilities, nil
		}
		if features[node.FeatureIdx] <= node.Threshold {
			idx = node.LeftChild
		} else {
			idx = node.RightChild
		}
	}
}

func checkLeaf(probabilities []float64) error {
	if len(probabilities) != 2 {
		return fmt.Errorf("leaf needs 2 probabilities, got %d", len(probabilities))
	}
	sum := 0.0
	for _, p := range probabilities {
		if p < 0 || p > 1 || math.IsNaN(p) {
			return fmt.Errorf("probability %v out of range", p)
		}
		sum += p
	}
	if math.Abs(sum-1) > 1e-6 {
		return fmt.Errorf("leaf probabilities sum to %v", sum)
	}
	return nil
}
