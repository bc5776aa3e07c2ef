package shipping

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// CostRuleKind discriminates the cost rule union.
type CostRuleKind string

const (
	// CostFixed charges a flat amount for the whole group.
	CostFixed CostRuleKind = "fixed"

	// CostPerItem charges per unit of quantity in the group.
	CostPerItem CostRuleKind = "per_item"

	// CostPercentage charges a percentage of the order subtotal.
	CostPercentage CostRuleKind = "percentage"

	// CostShippingCharged derives the cost from what the customer was
	// charged for shipping, plus an adjustment, clamped at zero.
	CostShippingCharged CostRuleKind = "based_on_shipping_charged"

	// CostConditional evaluates an ordered list of expression-guarded
	// amounts and returns the first whose guard holds.
	CostConditional CostRuleKind = "conditional"
)

// CostCondition is one entry of a conditional cost rule. The If
// expression is evaluated against the numeric cost context; when it
// holds, Then is the cost. Else, when present on the last entry,
// is the fallback for the whole rule.
type CostCondition struct {
	If   string   `json:"if" yaml:"if"`
	Then float64  `json:"then" yaml:"then"`
	Else *float64 `json:"else,omitempty" yaml:"else,omitempty"`
}

// CostRule is the cost half of a shipping profile, a tagged union over
// the five rule kinds. Only the fields belonging to Kind are
// meaningful; the rest stay at their zero values.
type CostRule struct {
	Kind        CostRuleKind
	BaseCost    float64
	PerItemCost float64
	Percentage  float64
	Adjustment  float64
	Conditions  []CostCondition
}

// costRuleWire is the serialized form shared by JSON and YAML. The
// field names match the original rule-authoring format.
type costRuleWire struct {
	Type        string          `json:"type" yaml:"type"`
	BaseCost    float64         `json:"base_cost,omitempty" yaml:"base_cost,omitempty"`
	PerItemCost float64         `json:"per_item_cost,omitempty" yaml:"per_item_cost,omitempty"`
	Percentage  float64         `json:"percentage,omitempty" yaml:"percentage,omitempty"`
	Adjustment  float64         `json:"adjustment,omitempty" yaml:"adjustment,omitempty"`
	Conditions  []CostCondition `json:"conditions,omitempty" yaml:"conditions,omitempty"`
}

// UnknownCostRuleError reports a cost rule whose type is not one of the
// known kinds. It is returned at deserialization time so malformed
// profiles are rejected at the boundary.
type UnknownCostRuleError struct {
	Type string
}

// Error returns the error message.
func (e *UnknownCostRuleError) Error() string {
	return fmt.Sprintf("unknown cost rule type %q", e.Type)
}

// resolveKind maps a wire type string to a CostRuleKind. An empty type
// resolves to "fixed", matching how historical profiles were authored.
func resolveKind(t string) (CostRuleKind, error) {
	switch CostRuleKind(t) {
	case CostFixed, CostPerItem, CostPercentage, CostShippingCharged, CostConditional:
		return CostRuleKind(t), nil
	case "":
		return CostFixed, nil
	default:
		return "", &UnknownCostRuleError{Type: t}
	}
}

func (r *CostRule) fromWire(w costRuleWire) error {
	kind, err := resolveKind(w.Type)
	if err != nil {
		return err
	}

	*r = CostRule{
		Kind:        kind,
		BaseCost:    w.BaseCost,
		PerItemCost: w.PerItemCost,
		Percentage:  w.Percentage,
		Adjustment:  w.Adjustment,
		Conditions:  w.Conditions,
	}
	return nil
}

func (r CostRule) toWire() costRuleWire {
	return costRuleWire{
		Type:        string(r.Kind),
		BaseCost:    r.BaseCost,
		PerItemCost: r.PerItemCost,
		Percentage:  r.Percentage,
		Adjustment:  r.Adjustment,
		Conditions:  r.Conditions,
	}
}

// UnmarshalJSON decodes a cost rule and resolves its kind, rejecting
// unknown types.
func (r *CostRule) UnmarshalJSON(data []byte) error {
	var w costRuleWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	return r.fromWire(w)
}

// MarshalJSON encodes the cost rule in its wire form.
func (r CostRule) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.toWire())
}

// UnmarshalYAML decodes a cost rule from a YAML node and resolves its
// kind, rejecting unknown types.
func (r *CostRule) UnmarshalYAML(node *yaml.Node) error {
	var w costRuleWire
	if err := node.Decode(&w); err != nil {
		return err
	}
	return r.fromWire(w)
}

// MarshalYAML encodes the cost rule in its wire form.
func (r CostRule) MarshalYAML() (interface{}, error) {
	return r.toWire(), nil
}
