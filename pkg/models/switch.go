package models

import (
	"encoding/json"
)

// SwitchBranch is one case of a switch definition: a condition and the output
// target (port name) taken when the condition matches.
type SwitchBranch struct {
	Condition SwitchCondition
	Target    string
}

type switchBranchEnvelope struct {
	Condition json.RawMessage `json:"condition"`
	Target    string          `json:"target"`
}

func (b SwitchBranch) MarshalJSON() ([]byte, error) {
	condition, err := MarshalCondition(b.Condition)
	if err != nil {
		return nil, err
	}

	return json.Marshal(switchBranchEnvelope{
		Condition: condition,
		Target:    b.Target,
	})
}

func (b *SwitchBranch) UnmarshalJSON(data []byte) error {
	var envelope switchBranchEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		return err
	}

	condition, err := UnmarshalCondition(envelope.Condition)
	if err != nil {
		return err
	}

	b.Condition = condition
	b.Target = envelope.Target

	return nil
}

// SwitchDefinition is the declarative, serializable form of a routing rule:
// an ordered list of branches plus an optional default target. Branch order is
// semantically significant; evaluation is first-match-wins.
type SwitchDefinition struct {
	Branches []SwitchBranch `json:"branches"          validate:"min=1,dive"`
	Default  string         `json:"default,omitempty"`
}

// Targets returns every output target the switch can route to, default
// included, deduplicated in declaration order.
func (d SwitchDefinition) Targets() []string {
	seen := make(map[string]struct{}, len(d.Branches)+1)
	targets := make([]string, 0, len(d.Branches)+1)

	for _, branch := range d.Branches {
		if _, ok := seen[branch.Target]; ok {
			continue
		}

		seen[branch.Target] = struct{}{}
		targets = append(targets, branch.Target)
	}

	if d.Default != "" {
		if _, ok := seen[d.Default]; !ok {
			targets = append(targets, d.Default)
		}
	}

	return targets
}
