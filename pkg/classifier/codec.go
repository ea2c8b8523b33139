package classifier

import (
	"encoding/json"
	"fmt"
)

type envelope struct {
	Family Family          `json:"family"`
	Model  json.RawMessage `json:"model"`
}

// Marshal encodes a fitted classifier with its family tag.
func Marshal(c Classifier) ([]byte, error) {
	model, err := json.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("encode %s model: %w", c.Family(), err)
	}
	return json.Marshal(envelope{Family: c.Family(), Model: model})
}

// Unmarshal decodes a classifier written by Marshal.
func Unmarshal(data []byte) (Classifier, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode model envelope: %w", err)
	}

	var c Classifier
	switch env.Family {
	case RandomForest:
		c = &Forest{}
	case GradientBoosting:
		c = &Boosting{}
	case LogisticRegression:
		c = &Logistic{}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFamily, env.Family)
	}

	if err := json.Unmarshal(env.Model, c); err != nil {
		return nil, fmt.Errorf("decode %s model: %w", env.Family, err)
	}
	return c, nil
}
