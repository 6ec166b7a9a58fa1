package segeval

import (
	"encoding/json"
	"fmt"
	"os"
)

// ModelMeta is the JSON sidecar that carries what the original tool kept in
// the model's user metadata: the class mapping the network was trained with
// and the input geometry expected by its first layer.
type ModelMeta struct {
	ClassMapping ClassMapping `json:"class_mapping"`
	// Input geometry: channels, height, width. Zero height/width means the
	// network accepts variable spatial size.
	Channels int `json:"channels"`
	Height   int `json:"height,omitempty"`
	Width    int `json:"width,omitempty"`
	// LineWidth is the stroke width baselines were rasterized with during
	// training. Dataset loaders use it to rasterize ground truth the same
	// way.
	LineWidth int `json:"line_width,omitempty"`
}

// LoadModelMeta reads and validates a model metadata sidecar.
func LoadModelMeta(path string) (*ModelMeta, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading model metadata: %w", err)
	}
	var meta ModelMeta
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidModel, err)
	}
	if len(meta.ClassMapping) == 0 {
		return nil, fmt.Errorf("%w: metadata has no class mapping", ErrInvalidModel)
	}
	if err := meta.ClassMapping.Validate(); err != nil {
		return nil, err
	}
	if meta.Channels <= 0 {
		return nil, fmt.Errorf("%w: channels must be positive, got %d", ErrInvalidModel, meta.Channels)
	}
	return &meta, nil
}
