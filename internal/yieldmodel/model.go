package yieldmodel

import (
	"fmt"
	"math"
)

// Model is a loaded regressor. It is immutable after Load and safe for concurrent use.
type Model struct {
	kind        Kind
	features    []string
	reg         regressor
	importances []float64
}

type regressor interface {
	predict(x []float64) float64
}

// NewConstant builds a model that always predicts v. Used where no trained artifact
// exists, e.g. smoke deployments and tests.
func NewConstant(features []string, v float64) *Model {
	return &Model{kind: KindConstant, features: append([]string(nil), features...), reg: constant(v)}
}

func (m *Model) Kind() Kind { return m.kind }

// Features returns the input column order.
func (m *Model) Features() []string { return append([]string(nil), m.features...) }

// Predict evaluates the model on one row laid out in Features order.
func (m *Model) Predict(x []float64) (float64, error) {
	if len(x) != len(m.features) {
		return 0, fmt.Errorf("input has %d values, model expects %d", len(x), len(m.features))
	}
	for i, v := range x {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, fmt.Errorf("input %s is not finite", m.features[i])
		}
	}
	y := m.reg.predict(x)
	if math.IsNaN(y) || math.IsInf(y, 0) {
		return 0, fmt.Errorf("model produced non-finite output")
	}
	return y, nil
}

// FeatureImportances returns a copy of the per-feature importances, in Features order.
// ok is false for model kinds that do not expose them.
func (m *Model) FeatureImportances() (imp []float64, ok bool) {
	if m.importances == nil {
		return nil, false
	}
	return append([]float64(nil), m.importances...), true
}

type constant float64

func (c constant) predict([]float64) float64 { return float64(c) }

type linear struct {
	coef      []float64
	intercept float64
}

func (l linear) predict(x []float64) float64 {
	y := l.intercept
	for i, c := range l.coef {
		y += c * x[i]
	}
	return y
}

type forest struct{ trees []tree }

func (f forest) predict(x []float64) float64 {
	var sum float64
	for _, t := range f.trees {
		sum += t.eval(x)
	}
	return sum / float64(len(f.trees))
}

type boosted struct {
	init  float64
	rate  float64
	trees []tree
}

func (b boosted) predict(x []float64) float64 {
	y := b.init
	for _, t := range b.trees {
		y += b.rate * t.eval(x)
	}
	return y
}

func (t tree) eval(x []float64) float64 {
	i := 0
	for {
		nd := t.Nodes[i]
		if nd.Left == -1 {
			return nd.Value
		}
		if x[nd.Feature] <= nd.Threshold {
			i = nd.Left
		} else {
			i = nd.Right
		}
	}
}
