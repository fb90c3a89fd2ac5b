// Package providers defines the error types shared by upstream clients.
//
// The Gemini client in the gemini subpackage returns *ProviderError for
// non-2xx answers and transport failures and *TimeoutError when its deadline
// passes. The proxy error classifier maps both to external service errors.
package providers
