// Package gemini holds the request and result model of the image proxy.
//
// Validator.Parse turns a request body into either an *EditRequest or a
// *GenerateRequest. Normalize turns an upstream response body into a Result.
// Both report failures as classified *types.APIError values.
package gemini
