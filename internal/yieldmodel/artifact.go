// Package yieldmodel loads the serialized yield regressor and evaluates it.
//
// The artifact is a JSON document exported from the training notebook:
//
//	{
//	  "format": "agripredict/v1",
//	  "kind": "random_forest",
//	  "feature_names": ["Crop_Type", ..., "year"],
//	  "trees": [{"nodes": [{"feature": 2, "threshold": 6.1, "left": 1, "right": 2}, ...]}],
//	  "feature_importances": [0.08, ...]
//	}
//
// Tree nodes use the scikit-learn layout: a node whose left child is -1 is a leaf and
// carries "value"; an internal node sends x[feature] <= threshold to the left.
package yieldmodel

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
)

const FormatV1 = "agripredict/v1"

type Kind string

const (
	KindRandomForest     Kind = "random_forest"
	KindGradientBoosting Kind = "gradient_boosting"
	KindLinear           Kind = "linear"
	KindConstant         Kind = "constant"
)

// ErrArtifactMissing is returned by Load when there is no file at the given path.
var ErrArtifactMissing = errors.New("model artifact not found")

type artifact struct {
	Format       string    `json:"format"`
	Kind         Kind      `json:"kind"`
	FeatureNames []string  `json:"feature_names"`
	Trees        []tree    `json:"trees,omitempty"`
	LearningRate float64   `json:"learning_rate,omitempty"`
	InitValue    float64   `json:"init_value,omitempty"`
	Coefficients []float64 `json:"coefficients,omitempty"`
	Intercept    float64   `json:"intercept,omitempty"`
	Value        float64   `json:"value,omitempty"`
	Importances  []float64 `json:"feature_importances,omitempty"`
}

type tree struct {
	Nodes []node `json:"nodes"`
}

type node struct {
	Feature   int     `json:"feature"`
	Threshold float64 `json:"threshold"`
	Left      int     `json:"left"`
	Right     int     `json:"right"`
	Value     float64 `json:"value"`
}

// Load reads and validates the artifact at path. expected is the column order the
// caller will feed to Predict.
func Load(path string, expected []string) (*Model, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrArtifactMissing, path)
		}
		return nil, fmt.Errorf("open model artifact: %w", err)
	}
	defer f.Close()

	m, err := Parse(f, expected)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// Parse decodes an artifact from r.
func Parse(r io.Reader, expected []string) (*Model, error) {
	var a artifact
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&a); err != nil {
		return nil, fmt.Errorf("decode model artifact: %w", err)
	}
	return build(a, expected)
}

func build(a artifact, expected []string) (*Model, error) {
	if a.Format != FormatV1 {
		return nil, fmt.Errorf("unsupported artifact format %q", a.Format)
	}
	if err := checkFeatureNames(a.FeatureNames, expected); err != nil {
		return nil, err
	}
	n := len(a.FeatureNames)

	var reg regressor
	switch a.Kind {
	case KindRandomForest, KindGradientBoosting:
		if len(a.Trees) == 0 {
			return nil, fmt.Errorf("%s artifact has no trees", a.Kind)
		}
		for i, t := range a.Trees {
			if err := t.validate(n); err != nil {
				return nil, fmt.Errorf("tree %d: %w", i, err)
			}
		}
		if a.Kind == KindRandomForest {
			reg = forest{trees: a.Trees}
		} else {
			if a.LearningRate <= 0 {
				return nil, fmt.Errorf("gradient_boosting artifact needs a positive learning_rate")
			}
			reg = boosted{init: a.InitValue, rate: a.LearningRate, trees: a.Trees}
		}
	case KindLinear:
		if len(a.Coefficients) != n {
			return nil, fmt.Errorf("linear artifact has %d coefficients for %d features", len(a.Coefficients), n)
		}
		reg = linear{coef: a.Coefficients, intercept: a.Intercept}
	case KindConstant:
		reg = constant(a.Value)
	default:
		return nil, fmt.Errorf("unknown model kind %q", a.Kind)
	}

	var importances []float64
	if len(a.Importances) > 0 {
		if a.Kind != KindRandomForest && a.Kind != KindGradientBoosting {
			return nil, fmt.Errorf("%s models do not carry feature importances", a.Kind)
		}
		if len(a.Importances) != n {
			return nil, fmt.Errorf("%d feature importances for %d features", len(a.Importances), n)
		}
		for i, v := range a.Importances {
			if v < 0 {
				return nil, fmt.Errorf("negative importance for %s", a.FeatureNames[i])
			}
		}
		importances = append([]float64(nil), a.Importances...)
	}

	return &Model{
		kind:        a.Kind,
		features:    append([]string(nil), a.FeatureNames...),
		reg:         reg,
		importances: importances,
	}, nil
}

func checkFeatureNames(got, want []string) error {
	if len(got) != len(want) {
		return fmt.Errorf("artifact has %d features, expected %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			return fmt.Errorf("feature %d is %q, expected %q", i, got[i], want[i])
		}
	}
	return nil
}

func (t tree) validate(nFeatures int) error {
	if len(t.Nodes) == 0 {
		return errors.New("empty tree")
	}
	for i, nd := range t.Nodes {
		if nd.Left == -1 {
			continue
		}
		if nd.Feature < 0 || nd.Feature >= nFeatures {
			return fmt.Errorf("node %d splits on feature %d", i, nd.Feature)
		}
		// Children always come after their parent, which also rules out cycles.
		if nd.Left <= i || nd.Left >= len(t.Nodes) || nd.Right <= i || nd.Right >= len(t.Nodes) {
			return fmt.Errorf("node %d has invalid children %d/%d", i, nd.Left, nd.Right)
		}
	}
	return nil
}
