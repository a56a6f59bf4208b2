// Package pipeline chains a transformer in front of a classifier so the pair
// can be cross-validated as one estimator, refitting the transformer on every
// training fold.
package pipeline

import (
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/featsel/core/model"
	"github.com/YuminosukeSato/featsel/pkg/errors"
)

// Pipeline applies Transformer then Classifier. It implements
// model.Classifier.
type Pipeline struct {
	transformer model.Transformer
	classifier  model.Classifier
}

// MakePipeline builds an unfitted pipeline.
func MakePipeline(t model.Transformer, c model.Classifier) *Pipeline {
	return &Pipeline{transformer: t, classifier: c}
}

// Factory returns a ClassifierFactory that builds a fresh pipeline from the
// given component factories on every call.
func Factory(t model.TransformerFactory, c model.ClassifierFactory) model.ClassifierFactory {
	return func() model.Classifier {
		return MakePipeline(t(), c())
	}
}

// Fit fits the transformer on X, then the classifier on the transformed X.
func (p *Pipeline) Fit(X, y mat.Matrix) error {
	Xt, err := p.transformer.FitTransform(X)
	if err != nil {
		return errors.Wrap(err, "pipeline: transformer")
	}
	if err := p.classifier.Fit(Xt, y); err != nil {
		return errors.Wrap(err, "pipeline: classifier")
	}
	return nil
}

// Predict implements model.Predictor.
func (p *Pipeline) Predict(X mat.Matrix) (mat.Matrix, error) {
	Xt, err := p.transformer.Transform(X)
	if err != nil {
		return nil, err
	}
	return p.classifier.Predict(Xt)
}

// PredictProba implements model.Classifier.
func (p *Pipeline) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	Xt, err := p.transformer.Transform(X)
	if err != nil {
		return nil, err
	}
	return p.classifier.PredictProba(Xt)
}

// Classes implements model.Classifier.
func (p *Pipeline) Classes() []int {
	return p.classifier.Classes()
}

// GetParams merges the step parameters under "scaler__" and "clf__"
// prefixes. Steps that do not expose parameters contribute nothing.
func (p *Pipeline) GetParams() map[string]interface{} {
	params := make(map[string]interface{})
	for prefix, step := range map[string]interface{}{"scaler": p.transformer, "clf": p.classifier} {
		if g, ok := step.(model.ParameterGetter); ok {
			for k, v := range g.GetParams() {
				params[prefix+"__"+k] = v
			}
		}
	}
	return params
}

// Classifier returns the final estimator.
func (p *Pipeline) Classifier() model.Classifier {
	return p.classifier
}
