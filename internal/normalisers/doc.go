// Package normalisers turns raw knowledge-base markup into structured text.
//
// Each normaliser package exposes an implementation of the SectionExtractor
// port for one markup format.
package normalisers
