// Package services implements the driving port interfaces.
// Services hold the help-desk logic: intent routing, retrieval, grounded
// generation, confidence gating and ingestion. They orchestrate calls to
// driven ports and never import an adapter.
package services
