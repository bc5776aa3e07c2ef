package shipping

import "time"

// Operator identifies how a match condition compares a field value
// against the condition value.
type Operator string

const (
	// OperatorContains matches when the field value contains the
	// condition value as a substring. An empty condition value always
	// matches.
	OperatorContains Operator = "contains"

	// OperatorEquals matches on exact string equality.
	OperatorEquals Operator = "equals"

	// OperatorStartsWith matches when the field value starts with the
	// condition value.
	OperatorStartsWith Operator = "starts_with"

	// OperatorEndsWith matches when the field value ends with the
	// condition value.
	OperatorEndsWith Operator = "ends_with"

	// OperatorRegex compiles the condition value as a regular
	// expression and matches when it finds the pattern anywhere in the
	// field value.
	OperatorRegex Operator = "regex"
)

// MatchCondition is the predicate half of a shipping profile. It tests
// one field of the merged order+item record against a value.
type MatchCondition struct {
	// Field is the key into the merged record (e.g. "product_title").
	Field string `json:"field" yaml:"field"`

	// Operator selects the comparison. An unrecognized operator never
	// matches.
	Operator Operator `json:"operator" yaml:"operator"`

	// Value is the comparison value.
	Value string `json:"value" yaml:"value"`

	// CaseSensitive disables the default case-insensitive comparison.
	CaseSensitive bool `json:"case_sensitive,omitempty" yaml:"case_sensitive,omitempty"`
}

// Profile is a user-authored shipping rule: a match condition paired
// with a cost rule, plus precedence and lifecycle metadata.
type Profile struct {
	ID          string `json:"id" yaml:"id"`
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`

	// Priority orders profiles during resolution; a lower number wins.
	Priority int `json:"priority" yaml:"priority"`

	// Active profiles participate in resolution; inactive ones are
	// skipped entirely.
	Active bool `json:"is_active" yaml:"is_active"`

	// Default marks the fallback profile applied when no condition
	// matches an item. At most one profile should be flagged.
	Default bool `json:"is_default" yaml:"is_default"`

	MatchConditions MatchCondition `json:"match_conditions" yaml:"match_conditions"`
	CostRules       CostRule       `json:"cost_rules" yaml:"cost_rules"`

	CreatedAt time.Time `json:"created_at,omitempty" yaml:"created_at,omitempty"`
	UpdatedAt time.Time `json:"updated_at,omitempty" yaml:"updated_at,omitempty"`
}

// LineItem is one line of a storefront order.
type LineItem struct {
	ProductID    string  `json:"product_id,omitempty" yaml:"product_id,omitempty"`
	VariantID    string  `json:"variant_id,omitempty" yaml:"variant_id,omitempty"`
	ProductTitle string  `json:"product_title" yaml:"product_title"`
	VariantTitle string  `json:"variant_title,omitempty" yaml:"variant_title,omitempty"`
	Quantity     int     `json:"quantity" yaml:"quantity"`
	Price        float64 `json:"price" yaml:"price"`
	Total        float64 `json:"total" yaml:"total"`
}

// Order is a storefront order as loaded by a collaborator. The engine
// reads it as an immutable snapshot; only the persistence layer writes
// the estimated cost back.
type Order struct {
	ID            string `json:"id" yaml:"id"`
	OrderNumber   int    `json:"order_number,omitempty" yaml:"order_number,omitempty"`
	OrderDate     string `json:"order_date,omitempty" yaml:"order_date,omitempty"`
	CustomerEmail string `json:"customer_email,omitempty" yaml:"customer_email,omitempty"`

	Subtotal        float64 `json:"subtotal" yaml:"subtotal"`
	TotalPrice      float64 `json:"total_price,omitempty" yaml:"total_price,omitempty"`
	ShippingCharged float64 `json:"shipping_charged" yaml:"shipping_charged"`

	// ShippingCostEstimated is nil until a calculation has been stored
	// for the order.
	ShippingCostEstimated *float64 `json:"shipping_cost_estimated,omitempty" yaml:"shipping_cost_estimated,omitempty"`

	Currency          string `json:"currency,omitempty" yaml:"currency,omitempty"`
	FinancialStatus   string `json:"financial_status,omitempty" yaml:"financial_status,omitempty"`
	FulfillmentStatus string `json:"fulfillment_status,omitempty" yaml:"fulfillment_status,omitempty"`

	Items []LineItem `json:"items,omitempty" yaml:"items,omitempty"`
}

// Breakdown is one entry of a calculation result: the items that
// resolved to a single profile together with their aggregated subtotal
// and the cost that profile's rule produced.
type Breakdown struct {
	ProfileID   string   `json:"profile_id"`
	ProfileName string   `json:"profile_name"`
	Items       []string `json:"items"`
	Subtotal    float64  `json:"subtotal"`
	Cost        float64  `json:"cost"`
}

// MatchedItem is the audit record of which profile, if any, was applied
// to a line item.
type MatchedItem struct {
	Item LineItem `json:"item"`

	// ProfileID is nil when no profile (including the default) applied.
	ProfileID *string `json:"profile_id"`

	// ProfileName is "No Rule Match" when ProfileID is nil.
	ProfileName string `json:"profile_name"`
}

// CalculationResult is the output of one engine run over an order.
type CalculationResult struct {
	OrderID      string        `json:"order_id,omitempty"`
	TotalCost    float64       `json:"total_cost"`
	Breakdown    []Breakdown   `json:"breakdown"`
	MatchedItems []MatchedItem `json:"matched_items"`
}
