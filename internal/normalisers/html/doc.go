// Package html extracts ordered, heading-delimited sections from HTML and
// Confluence storage-format markup. Scripts, styles and page chrome are
// dropped, text is whitespace-normalised, and malformed markup degrades to
// less text rather than an error.
package html
