// Package parse turns raw model output into usable Go values.
//
// Model responses rarely arrive as clean JSON: they come wrapped in markdown
// code fences, surrounded by prose, with single quotes or trailing commas,
// or with values nested inside schema-like {"type": ..., "value": ...}
// structures. This package deals with all of that so callers don't have to.
//
// CodeText extracts the body of a fenced code block (preferring a specific
// language tag when given), and JSONAs combines fence extraction, JSON
// repair via the jsonrepair library, and schema unwrapping into a single
// generic entry point:
//
//	plan, err := parse.JSONAs[Plan](response)
package parse
