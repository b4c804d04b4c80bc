// Package domain defines the core business entities for helpdesk.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - StructuredSection: A headed (or leading unheaded) span of page text
//   - Chunk: A retrieval-sized unit of section text with its token count
//   - ChunkDocument: A chunk plus embedding and provenance, as stored in the index
//   - SourceDocument: A retrieval hit projected back out of the index
//   - Intent / AnswerType: Closed enumerations driving the answer state machine
//   - AnswerDecision: The single outcome of one user turn
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
