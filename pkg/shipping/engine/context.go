package engine

import (
	"strconv"

	"parcelhq/meridian/pkg/shipping"
)

// Well-known cost context variable names, available to guard
// expressions in conditional cost rules.
const (
	VarOrderSubtotal   = "order_subtotal"
	VarGroupSubtotal   = "group_subtotal"
	VarItemCount       = "item_count"
	VarQuantity        = "quantity"
	VarShippingCharged = "shipping_charged"
)

// CostContext carries the numeric inputs for cost rule evaluation.
// A key that is absent is distinct from a key that is zero: PerItem
// rules, for example, default quantity to 1 only when the key is
// absent entirely.
type CostContext map[string]float64

// MergedRecord builds the record a match condition is evaluated
// against: the order's fields overlaid by the item's fields, with the
// item winning on any key collision. All values are stringified.
func MergedRecord(order shipping.Order, item shipping.LineItem) map[string]string {
	record := map[string]string{
		"id":                 order.ID,
		"order_number":       strconv.Itoa(order.OrderNumber),
		"order_date":         order.OrderDate,
		"customer_email":     order.CustomerEmail,
		"subtotal":           formatNumber(order.Subtotal),
		"total_price":        formatNumber(order.TotalPrice),
		"shipping_charged":   formatNumber(order.ShippingCharged),
		"currency":           order.Currency,
		"financial_status":   order.FinancialStatus,
		"fulfillment_status": order.FulfillmentStatus,
	}

	record["product_id"] = item.ProductID
	record["variant_id"] = item.VariantID
	record["product_title"] = item.ProductTitle
	record["variant_title"] = item.VariantTitle
	record["quantity"] = strconv.Itoa(item.Quantity)
	record["price"] = formatNumber(item.Price)
	record["total"] = formatNumber(item.Total)

	return record
}

// RecordFromMap stringifies an arbitrary test-data map into a match
// record, for dry-running a candidate profile against synthetic data.
func RecordFromMap(data map[string]interface{}) map[string]string {
	record := make(map[string]string, len(data))
	for k, v := range data {
		switch val := v.(type) {
		case string:
			record[k] = val
		case float64:
			record[k] = formatNumber(val)
		case int:
			record[k] = strconv.Itoa(val)
		case bool:
			record[k] = strconv.FormatBool(val)
		case nil:
			record[k] = ""
		default:
			// Nested structures have no stringified form a condition
			// could usefully match.
		}
	}
	return record
}

// ContextFromMap extracts the numeric values of a test-data map into a
// cost context, for dry-running a candidate profile.
func ContextFromMap(data map[string]interface{}) CostContext {
	cctx := make(CostContext)
	for k, v := range data {
		switch val := v.(type) {
		case float64:
			cctx[k] = val
		case int:
			cctx[k] = float64(val)
		}
	}
	return cctx
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
