// Package llm defines the model-inference boundary used by the chunker's
// agentic strategy and the graph builder's SPO extraction. Prompt formatting
// and the HTTP client behind Client are out of scope here — callers inject
// their own implementation.
package llm

import "context"

// Client invokes a language model with a single prompt and returns its raw
// text completion. Implementations own retries against their own transport;
// callers here only retry via internal/retry at the kernelerr.KindLLMFailed
// boundary.
type Client interface {
	Invoke(ctx context.Context, prompt string) (string, error)
}
