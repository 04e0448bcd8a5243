// Package lectern extracts readable books from arbitrary web pages.
// It resolves page encodings, locates the narrative content block,
// classifies chapter links, normalizes chapter text and caches the
// result locally so reading survives restarts and flaky networks.
//
// This package contains domain types, interfaces and the pure text
// heuristics following Ben Johnson's Standard Package Layout.
// Implementations live in subdirectories named after their primary
// dependency (e.g., goquery/, sqlite/, prometheus/).
package lectern
