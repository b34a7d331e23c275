// Package token provides local token estimation and per-model token limits.
//
// Estimates use a character heuristic (roughly one token per four characters
// of English text) rather than a model-specific encoder, which keeps the
// package dependency-free and fast. They back usage accounting whenever a
// provider response carries no usage block, so small inaccuracies only affect
// bookkeeping, never the request itself.
package token
