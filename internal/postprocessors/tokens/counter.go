// Package tokens measures text on the generation-context budget scale.
//
// A single Counter is shared by both chunking passes so split and merge
// decisions are compared on the same scale.
package tokens

import (
	"sync"

	"github.com/pkoukk/tiktoken-go"

	"github.com/custodia-labs/helpdesk/internal/core/ports/driven"
)

// DefaultEncoding is the tokenizer used by the chat and embedding models.
const DefaultEncoding = "cl100k_base"

// charsPerToken is the fallback approximation for English text.
const charsPerToken = 4

// Ensure Counter implements the interface.
var _ driven.TokenCounter = (*Counter)(nil)

// Counter counts tokens with a BPE encoding, falling back to a
// four-characters-per-token approximation when the encoding cannot be loaded.
// The encoding is loaded lazily on first use.
type Counter struct {
	encoding string
	once     sync.Once
	enc      *tiktoken.Tiktoken
	approx   bool
}

// New creates a counter for the default encoding.
func New() *Counter {
	return &Counter{encoding: DefaultEncoding}
}

// NewWithEncoding creates a counter for a named encoding.
func NewWithEncoding(encoding string) *Counter {
	return &Counter{encoding: encoding}
}

// NewApprox creates a counter that always uses the character approximation.
func NewApprox() *Counter {
	c := &Counter{approx: true}
	c.once.Do(func() {})
	return c
}

// Count returns the number of tokens in text.
func (c *Counter) Count(text string) int {
	c.load()
	if c.enc == nil {
		return Approx(text)
	}
	return len(c.enc.Encode(text, nil, nil))
}

// Exact reports whether the BPE encoding is in use.
func (c *Counter) Exact() bool {
	c.load()
	return c.enc != nil
}

func (c *Counter) load() {
	c.once.Do(func() {
		if c.approx {
			return
		}
		enc, err := tiktoken.GetEncoding(c.encoding)
		if err != nil {
			return
		}
		c.enc = enc
	})
}

// Approx is the character-based approximation.
func Approx(text string) int {
	return len(text) / charsPerToken
}
