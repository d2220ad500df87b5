package platform

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/ventlogic/ventlogic-core/internal/catalog"
)

// document is the retained discovery payload describing one managed
// resource. Downstream consumers (dashboards, the home-automation hub)
// read these to materialise entities.
type document struct {
	ID        string `json:"id"`
	Kind      string `json:"kind"`
	Name      string `json:"name"`
	FeatureID string `json:"feature_id"`
	TargetID  string `json:"target_id"`
	Source    string `json:"source"`
	CreatedAt string `json:"created_at"`
}

func buildDocument(r catalog.Resource) ([]byte, error) {
	doc := document{
		ID:        r.ID,
		Kind:      string(r.Kind),
		Name:      r.Name,
		FeatureID: r.FeatureID,
		TargetID:  r.TargetID,
		Source:    "ventlogic",
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
	}

	payload, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("marshalling resource document: %w", err)
	}
	return payload, nil
}
