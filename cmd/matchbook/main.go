// Matchbook evaluates loan scenarios against a catalog of lender programs
// and returns ranked, explainable matches.
//
// Usage:
//
//	# Start the evaluation service with default configuration
//	matchbook run
//
//	# Start with a custom configuration file
//	matchbook run --config /path/to/matchbook.yaml
//
//	# Evaluate a scenario fixture against a catalog from the command line
//	matchbook evaluate --catalog catalog.yaml --scenario scenario.yaml
//
//	# Validate a catalog document
//	matchbook catalog validate catalog.yaml
//
//	# Verify the audit ledger's hash chain
//	matchbook ledger verify --db ledger.db
//
//	# Show version information
//	matchbook version
package main

func main() {
	Execute()
}
