// Meridian is a shipping rule matching and cost evaluation service.
//
// It resolves storefront order line items against prioritized shipping
// profiles and evaluates their cost rules, exposing the results over an
// HTTP API and a background sweep that fills in estimates for orders
// without one.
//
// Usage:
//
//	# Start the server with default configuration
//	meridian run
//
//	# Start with a custom configuration file
//	meridian run --config /etc/meridian/config.yaml
//
//	# Dry-run a profile against sample data
//	meridian test --profile profile.yaml --data order.yaml
//
//	# Show version information
//	meridian version
package main

func main() {
	Execute()
}
