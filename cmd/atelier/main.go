// Atelier is an HTTP proxy in front of a generative-image API.
//
// It accepts edit and generate requests from a browser client, validates
// them, rate limits each client IP, forwards one request upstream with a
// server-held credential and returns a normalized result.
//
// Usage:
//
//	# Start the proxy with config.yaml from the working directory
//	atelier run
//
//	# Start with a custom configuration file
//	atelier run --config /etc/atelier/config.yaml
//
//	# Check a configuration file and the upstream credential
//	atelier validate --check-key
//
//	# Show version information
//	atelier version
package main

func main() {
	Execute()
}
