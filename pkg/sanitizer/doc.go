// Package sanitizer normalizes customer-supplied booking data before
// validation and storage.
//
// All normalization functions are idempotent - applying them multiple times
// produces the same result. Invalid input is handled gracefully, typically
// by returning an empty string rather than an error.
//
// Normalization includes:
//   - Phone numbers: convert to E.164 format with IN as the default region
//   - Names: collapse whitespace, trim leading/trailing spaces
//   - Emails: trim and lowercase
package sanitizer
