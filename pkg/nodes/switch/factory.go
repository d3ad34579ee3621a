// Package switchnode provides the switch node factory for registry
// integration.
package switchnode

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/docpipe/docpipe/pkg/models"
	"github.com/docpipe/docpipe/pkg/protocol"
)

// SwitchNodeFactory creates switch node payloads.
type SwitchNodeFactory struct{}

// Create builds a switch node. Branch conditions are decoded through the
// tagged condition envelope, so an unknown condition kind fails here.
func (f *SwitchNodeFactory) Create(_ context.Context, config map[string]any) (models.NodeData, error) {
	name, _ := config["name"].(string)

	raw, err := json.Marshal(config)
	if err != nil {
		return nil, fmt.Errorf("invalid switch configuration: %w", err)
	}

	var parsed struct {
		Definition models.SwitchDefinition `json:"definition"`
	}

	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("invalid switch configuration: %w", err)
	}

	if len(parsed.Definition.Branches) == 0 {
		return nil, fmt.Errorf("switch requires at least one branch")
	}

	return models.SwitchData{Name: name, Definition: parsed.Definition}, nil
}

// ID returns the factory ID.
func (f *SwitchNodeFactory) ID() string {
	return "switch"
}

// Name returns the factory name.
func (f *SwitchNodeFactory) Name() string {
	return "Switch"
}

// Description returns the factory description.
func (f *SwitchNodeFactory) Description() string {
	return "Routes each item down the first branch whose condition matches, with an optional default"
}

// Schema returns the JSON schema for switch node configuration.
func (f *SwitchNodeFactory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"name": map[string]any{
				"type":        "string",
				"description": "Display name of the switch",
			},
			"definition": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"branches": map[string]any{
						"type":        "array",
						"minItems":    1,
						"description": "Ordered branches, evaluated first match wins",
						"items": map[string]any{
							"type": "object",
							"properties": map[string]any{
								"condition": map[string]any{
									"type":        "object",
									"description": "Condition, discriminated by the kind field",
									"properties": map[string]any{
										"kind": map[string]any{"type": "string"},
									},
									"required": []string{"kind"},
								},
								"target": map[string]any{
									"type":        "string",
									"description": "Output port taken when the condition matches",
								},
							},
							"required": []string{"condition", "target"},
						},
					},
					"default": map[string]any{
						"type":        "string",
						"description": "Output port taken when no branch matches",
					},
				},
				"required": []string{"branches"},
			},
		},
		"required": []string{"definition"},
	}
}

// NewSwitchNodeFactory creates a new factory instance.
func NewSwitchNodeFactory() protocol.NodeFactory {
	return &SwitchNodeFactory{}
}
