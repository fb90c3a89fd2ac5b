/*
Package security holds the proxy's credential and transport concerns.

  - secrets: resolves the upstream Gemini key from the environment and
    checks its shape
  - auth: the Authenticator seam in front of the API routes
  - tls: optional HTTPS termination with certificate hot reload

Typical startup:

	key, _ := secrets.LookupAPIKey()
	if err := secrets.ValidateAPIKey(key); err != nil {
		log.Warn("upstream key unusable", "source", secrets.APIKeySource(), "error", err)
	}
*/
package security
