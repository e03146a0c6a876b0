// Package diag defines the diagnostic model shared by every pipeline phase.
//
// # Purpose
//
//   - Provide deterministic, serialisable records for findings produced by
//     the translator, the linker and the virtual machine.
//   - Offer light-weight utilities (Reporter, Bag) that let producers emit
//     diagnostics without coupling to storage or formatting.
//
// # Scope
//
// Package diag does not perform formatting or IO. Rendering lives in
// internal/diagfmt; orchestration and collection per file lives in
// internal/driver.
//
// # Data model
//
// Diagnostic is the central record:
//
//   - Severity – tri-level enum (Info, Warning, Error).
//   - Code – compact numeric identifier with a stable string form (SYN2001).
//   - Message – human oriented text; keep it short and actionable.
//   - Primary – the source.Span pointing at the offending line or token.
//   - Notes – optional secondary spans with additional context.
//
// Parse and VM findings are recoverable by construction: the producer reports
// them and carries on. Fatal conditions are ordinary Go errors returned by the
// phase that detects them.
package diag
