package model

// BM25Document is one document in the lexical inverted index: its raw and
// tokenized content, length (for BM25 length normalization), and carried
// metadata.
type BM25Document struct {
	ID               string
	RawContent       string
	TokenizedContent []string
	DocLength        int
	Metadata         map[string]string
}
