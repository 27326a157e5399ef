// Package tokenizer implements the C1 contract: deterministic token
// counting under a named model or encoding identifier.
package tokenizer

import (
	"context"

	"github.com/pkoukk/tiktoken-go"

	"github.com/aicontext-go/core/errs"
)

// Tokenizer counts tokens in a string under a fixed encoding.
type Tokenizer interface {
	// CountTokens returns the token count for text. Empty input is always 0.
	CountTokens(text string) (int, error)
	// CountTokensContext is the cancellable variant: ctx is checked once
	// before counting; the count itself runs to completion.
	CountTokensContext(ctx context.Context, text string) (int, error)
}

// modelEncodings lists every model/encoding identifier this factory
// recognizes.
var modelEncodings = map[string]bool{
	"gpt-4":                  true,
	"gpt-3.5-turbo":          true,
	"text-embedding-ada-002": true,
	"text-embedding-3-small": true,
	"text-embedding-3-large": true,
	"cl100k_base":            true,
}

// New constructs a Tokenizer for the given model or encoding name. An
// unrecognized identifier is a construction-time failure
// (errs.UnsupportedEncoding).
func New(modelOrEncoding string) (Tokenizer, error) {
	if !modelEncodings[modelOrEncoding] {
		return nil, errs.Newf(errs.UnsupportedEncoding, "unknown tokenizer model/encoding %q", modelOrEncoding)
	}

	var enc *tiktoken.Tiktoken
	var err error
	if modelOrEncoding == "cl100k_base" {
		enc, err = tiktoken.GetEncoding(modelOrEncoding)
	} else {
		enc, err = tiktoken.EncodingForModel(modelOrEncoding)
	}
	if err != nil {
		return nil, errs.Wrap(errs.UnsupportedEncoding, "load tiktoken encoding for "+modelOrEncoding, err)
	}
	return &tiktokenCounter{enc: enc}, nil
}

type tiktokenCounter struct {
	enc *tiktoken.Tiktoken
}

func (t *tiktokenCounter) CountTokens(text string) (int, error) {
	if text == "" {
		return 0, nil
	}
	return len(t.enc.Encode(text, nil, nil)), nil
}

// CountTokensContext is CountTokens with a cancellation check before the
// (CPU-only, run-to-completion) encode call.
func (t *tiktokenCounter) CountTokensContext(ctx context.Context, text string) (int, error) {
	if err := errs.FromContext(ctx); err != nil {
		return 0, err
	}
	return t.CountTokens(text)
}
