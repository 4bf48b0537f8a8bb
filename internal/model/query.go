package model

// QueryType classifies a ProcessedQuery for strategy selection (spec.md §4.8).
type QueryType string

const (
	QueryDefinition        QueryType = "definition"
	QueryEvaluation        QueryType = "evaluation"
	QueryMethod            QueryType = "method"
	QueryFunction          QueryType = "function"
	QueryFeature           QueryType = "feature"
	QueryGeneral           QueryType = "general"
	QueryGreeting          QueryType = "greeting"
	QueryMeaningless       QueryType = "meaningless"
	QuerySpecificInquiry   QueryType = "specific_inquiry"
	QueryCommitmentInquiry QueryType = "commitment_inquiry"
	QueryEnumeration       QueryType = "enumeration"
	QueryClassification    QueryType = "classification"
	QueryServiceInquiry    QueryType = "service_inquiry"
)

// ProcessedQuery is the output of the query analyzer (C9).
type ProcessedQuery struct {
	Original      string
	Normalized    string
	Keywords      []string
	Entities      []string
	ExpandedTerms []string
	QueryType     QueryType
	Confidence    float64
	// SubQueries holds clauses split out of a compound query (SPEC_FULL §3
	// supplement); empty unless the query contains a coordinating-conjunction
	// split point with more than one extracted entity cluster.
	SubQueries []string
}

// RetrievalStrategy is one rung of the fallback ladder (spec.md §4.6).
type RetrievalStrategy struct {
	Name            string
	VectorThreshold float64
	GraphThreshold  float64
	BM25MinScore    float64
	TopK            int
	Description     string
}

// RetrievalReport is emitted alongside every retrieval call (spec.md §3, §7).
type RetrievalReport struct {
	OriginalQuery  string
	ProcessedQuery ProcessedQuery
	SearchQueries  []string
	StrategyUsed   string
	TotalResults   int
	Success        bool
	Error          string
}
