// Package handlers provides the HTTP handlers of the image proxy.
//
//   - GeminiHandler: POST /api/gemini, the edit and generate actions
//   - ConfigHandler: GET /api/config (features and limits) and POST
//     /api/config (live credential check)
//   - GeminiHealthCheck: the upstream probe registered with the health checker
//
// # Request Flow
//
//  1. Rate limiting and CORS have already run as middleware.
//  2. The body is read, bounded by proxy.max_body_bytes.
//  3. The payload is validated as a whole into an EditRequest or GenerateRequest.
//  4. The server credential is checked.
//  5. The upstream is called exactly once on a context that ignores client
//     disconnects.
//  6. The result is written in the success envelope; every failure goes
//     through proxy.WriteError.
package handlers
