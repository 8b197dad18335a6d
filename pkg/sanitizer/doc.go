// Package sanitizer normalizes free-form booking input before validation and
// storage.
//
// Normalization is idempotent. Strings have whitespace collapsed and
// trimmed; phone numbers are parsed against a default region and rendered in
// E.164 (+[country][number]).
package sanitizer
