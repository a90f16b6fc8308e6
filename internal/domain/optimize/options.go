package optimize

import "github.com/okian/draftrank/internal/domain/vocab"

// Option applies a configuration option to the Optimizer.
type Option func(*Optimizer)

// WithVocabulary replaces the embedded vocabulary used for essential metrics
// and score aliases.
func WithVocabulary(v *vocab.Vocabulary) Option {
	return func(o *Optimizer) {
		if v != nil {
			o.vocab = v
		}
	}
}

// WithNoteLimit sets the maximum note length in characters.
func WithNoteLimit(n int) Option {
	return func(o *Optimizer) {
		if n > 0 {
			o.noteLimit = n
		}
	}
}
