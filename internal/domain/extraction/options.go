package extraction

import "github.com/okian/draftrank/internal/domain/vocab"

// Option applies a configuration option to the Extractor.
type Option func(*Extractor)

// WithVocabulary replaces the embedded vocabulary.
func WithVocabulary(v *vocab.Vocabulary) Option {
	return func(e *Extractor) {
		if v != nil {
			e.vocab = v
		}
	}
}
