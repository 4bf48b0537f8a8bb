// Package queryanalyzer implements C9: query normalization, classification,
// keyword/entity extraction and synonym expansion ahead of retrieval.
package queryanalyzer

import (
	"regexp"
	"sort"
	"strings"

	"github.com/yanyiwu/gojieba"

	"github.com/DemonDamon/AgenticX-GraphRAG/internal/model"
)

// fullWidthPunctuation maps common full-width punctuation to its ASCII form.
var fullWidthPunctuation = strings.NewReplacer(
	"？", "?",
	"！", "!",
	"，", ",",
	"。", ".",
	"：", ":",
	"；", ";",
	"（", "(",
	"）", ")",
	"“", "\"",
	"”", "\"",
	"‘", "'",
	"’", "'",
)

// colloquialisms maps colloquial particles/contractions to their formal form.
var colloquialisms = map[string]string{
	"是啥":  "是什么",
	"咋样":  "怎么样",
	"咋办":  "怎么办",
	"啥意思": "什么意思",
}

var whitespaceRun = regexp.MustCompile(`\s+`)

// questionPattern pairs a regex with the query_type and confidence it yields
// when matched. Evaluated in order; first match wins.
type questionPattern struct {
	pattern    *regexp.Regexp
	queryType  model.QueryType
	confidence float64
}

var questionPatterns = []questionPattern{
	{regexp.MustCompile(`.+是什么`), model.QueryDefinition, 0.9},
	{regexp.MustCompile(`.+是啥`), model.QueryDefinition, 0.9},
	{regexp.MustCompile(`什么是.+`), model.QueryDefinition, 0.9},
	{regexp.MustCompile(`.+怎么样`), model.QueryEvaluation, 0.9},
	{regexp.MustCompile(`.+如何`), model.QueryMethod, 0.9},
	{regexp.MustCompile(`.+的作用`), model.QueryFunction, 0.9},
	{regexp.MustCompile(`.+的特点`), model.QueryFeature, 0.9},
}

// keywordFallbacks is consulted when no questionPattern matches; the first
// rule with any trigger word contained in the query wins, and a query that
// matches no rule is "general".
var keywordFallbacks = []struct {
	words      []string
	queryType  model.QueryType
	confidence float64
}{
	// The five "complex" query types spec.md §4.8 names (consumed by
	// internal/fallback's relaxed-start routing rule) trigger on words that
	// name the inquiry itself, since no question-mark-anchored regex fits
	// their variety of phrasing the way questionPatterns does.
	{[]string{"有哪些", "都有什么", "包括哪些", "列举"}, model.QueryEnumeration, 0.7},
	{[]string{"属于", "哪一类", "哪种类型", "分类"}, model.QueryClassification, 0.7},
	{[]string{"承诺", "保证", "能否", "能不能", "是否可以"}, model.QueryCommitmentInquiry, 0.7},
	{[]string{"提供什么服务", "支持哪些", "服务范围"}, model.QueryServiceInquiry, 0.7},
	{[]string{"具体来说", "具体是", "详细说明"}, model.QuerySpecificInquiry, 0.7},
	{[]string{"什么", "是", "定义"}, model.QueryDefinition, 0.7},
	{[]string{"如何", "怎么", "方法"}, model.QueryMethod, 0.7},
}

var greetingWords = []string{"你好", "hi", "hello", "早上好", "晚上好", "嗨"}
var meaninglessWords = []string{"测试", "test", "随便问问", "沙发"}

var stopWords = map[string]struct{}{
	"的": {}, "了": {}, "在": {}, "是": {}, "我": {}, "有": {}, "和": {}, "就": {},
	"不": {}, "人": {}, "都": {}, "一": {}, "一个": {}, "上": {}, "也": {}, "很": {},
	"到": {}, "说": {}, "要": {}, "去": {}, "你": {}, "会": {}, "着": {}, "没有": {},
	"看": {}, "好": {}, "自己": {}, "这": {},
}

// synonyms expands a keyword that matches exactly into a fixed set of
// alternate phrasings.
var synonyms = map[string][]string{
	"是啥":  {"是什么", "是", "定义", "含义"},
	"怎么样": {"如何", "怎样", "效果"},
	"作用":  {"功能", "用途", "目的"},
	"特点":  {"特征", "性质", "属性"},
}

// entityHints maps a category of entity (detected by suffix) to words added
// to the expanded term set.
var entityHints = []struct {
	suffixes []string
	hints    []string
}{
	{[]string{"公司", "企业", "集团"}, []string{"业务", "服务", "产品"}},
	{[]string{"技术", "系统", "平台"}, []string{"应用", "功能", "特点"}},
}

// entity extraction patterns (spec.md §4.8): ASCII word sequences, CJK runs
// tagged with an institutional suffix, and bare CJK n-grams of length >= 2.
var (
	asciiEntity       = regexp.MustCompile(`[A-Z][a-zA-Z]*(?:\s+[A-Z][a-zA-Z]*)*`)
	cjkSuffixedEntity = regexp.MustCompile(`[\x{4e00}-\x{9fff}]{2,}(?:公司|企业|集团|技术|系统|平台)`)
	cjkEntity         = regexp.MustCompile(`[\x{4e00}-\x{9fff}]{2,}`)
)

// coordinatingConjunctions are split points for compound-query decomposition
// (SPEC_FULL.md §3 supplement, grounded on query_decomposer.py's multi-entity
// heuristic).
var coordinatingConjunctions = []string{"和", "与", "以及", "还有", "对比", "比较", " and "}

// Analyzer classifies and expands queries. It wraps a jieba segmenter for
// Chinese word-splitting (the original's query_processor.py segments with
// jieba; gojieba is its Go/cgo binding), so an Analyzer must be closed to
// release the segmenter's dictionary memory.
type Analyzer struct {
	seg *gojieba.Jieba
}

// New builds an Analyzer and loads its word-segmentation dictionary.
func New() *Analyzer {
	return &Analyzer{seg: gojieba.NewJieba()}
}

// Close releases the segmenter. Safe to call once per Analyzer.
func (a *Analyzer) Close() {
	a.seg.Free()
}

// Process runs the full C9 pipeline over one raw query.
func (a *Analyzer) Process(query string) model.ProcessedQuery {
	normalized := normalize(query)
	queryType, confidence := classify(normalized)
	keywords := a.extractKeywords(normalized)
	entities := extractEntities(normalized)
	expanded := expandTerms(keywords, entities)
	subQueries := decompose(normalized, entities)

	return model.ProcessedQuery{
		Original:      query,
		Normalized:    normalized,
		Keywords:      keywords,
		Entities:      entities,
		ExpandedTerms: expanded,
		QueryType:     queryType,
		Confidence:    confidence,
		SubQueries:    subQueries,
	}
}

func normalize(query string) string {
	normalized := whitespaceRun.ReplaceAllString(strings.TrimSpace(query), " ")
	normalized = fullWidthPunctuation.Replace(normalized)
	for old, new := range colloquialisms {
		normalized = strings.ReplaceAll(normalized, old, new)
	}
	return normalized
}

func classify(query string) (model.QueryType, float64) {
	lower := strings.ToLower(query)
	for _, g := range greetingWords {
		if strings.Contains(lower, g) {
			return model.QueryGreeting, 0.9
		}
	}
	for _, m := range meaninglessWords {
		if strings.Contains(lower, m) {
			return model.QueryMeaningless, 0.8
		}
	}
	for _, qp := range questionPatterns {
		if qp.pattern.MatchString(query) {
			return qp.queryType, qp.confidence
		}
	}
	for _, fb := range keywordFallbacks {
		for _, w := range fb.words {
			if strings.Contains(query, w) {
				return fb.queryType, fb.confidence
			}
		}
	}
	return model.QueryGeneral, 0.5
}

// nonWordRun matches runs that consist entirely of punctuation/whitespace,
// used to discard non-lexical tokens produced by jieba's segmentation.
var nonWordRun = regexp.MustCompile(`^[\s\p{P}]+$`)

func (a *Analyzer) extractKeywords(query string) []string {
	words := a.seg.Cut(query, true)
	var keywords []string
	for _, w := range words {
		w = strings.TrimSpace(w)
		if w == "" {
			continue
		}
		if _, stop := stopWords[w]; stop {
			continue
		}
		if nonWordRun.MatchString(w) {
			continue
		}
		if len([]rune(w)) <= 1 {
			continue
		}
		keywords = append(keywords, w)
	}
	return keywords
}

func extractEntities(query string) []string {
	var entities []string
	seen := map[string]struct{}{}
	add := func(matches []string) {
		for _, m := range matches {
			if len([]rune(m)) <= 1 {
				continue
			}
			if _, ok := seen[m]; ok {
				continue
			}
			seen[m] = struct{}{}
			entities = append(entities, m)
		}
	}
	add(asciiEntity.FindAllString(query, -1))
	add(cjkSuffixedEntity.FindAllString(query, -1))
	add(cjkEntity.FindAllString(query, -1))
	return entities
}

func expandTerms(keywords, entities []string) []string {
	expanded := map[string]struct{}{}
	for _, k := range keywords {
		expanded[k] = struct{}{}
	}
	for _, e := range entities {
		expanded[e] = struct{}{}
	}
	for _, k := range keywords {
		if syns, ok := synonyms[k]; ok {
			for _, s := range syns {
				expanded[s] = struct{}{}
			}
		}
	}
	for _, e := range entities {
		for _, hint := range entityHints {
			if hasAnySuffix(e, hint.suffixes) {
				for _, h := range hint.hints {
					expanded[h] = struct{}{}
				}
			}
		}
	}

	out := make([]string, 0, len(expanded))
	for term := range expanded {
		out = append(out, term)
	}
	sort.Strings(out)
	return out
}

func hasAnySuffix(s string, suffixes []string) bool {
	for _, suf := range suffixes {
		if strings.Contains(s, suf) {
			return true
		}
	}
	return false
}

// ShouldUseFuzzySearch reports whether q warrants the fuzzy rung of the
// fallback ladder (spec.md §4.8).
func ShouldUseFuzzySearch(q model.ProcessedQuery) bool {
	return len([]rune(q.Original)) < 5 || q.Confidence < 0.6 || len(q.Keywords) < 2
}

// GenerateSearchQueries builds the ordered, deduplicated candidate query
// list C11 fans out over: original, normalized (if different), keyword join,
// each long-enough entity, and a capped blend of expanded terms (spec.md
// §4.6 step 3).
func GenerateSearchQueries(q model.ProcessedQuery) []string {
	var queries []string
	seen := map[string]struct{}{}
	add := func(s string) {
		s = strings.TrimSpace(s)
		if s == "" {
			return
		}
		if _, ok := seen[s]; ok {
			return
		}
		seen[s] = struct{}{}
		queries = append(queries, s)
	}

	add(q.Original)
	if q.Normalized != q.Original {
		add(q.Normalized)
	}
	// A compound query's sub-clauses (SPEC_FULL.md §3 supplement) are treated
	// the same as any other expanded query: the fallback controller (C11)
	// fans out over whatever this function returns and still caps the total
	// at maxExpandedQueries, so a non-empty SubQueries list competes for
	// those slots rather than bypassing the cap.
	for _, sq := range q.SubQueries {
		add(sq)
	}
	if len(q.Keywords) > 1 {
		add(strings.Join(q.Keywords, " "))
	}
	for _, e := range q.Entities {
		if len([]rune(e)) > 2 {
			add(e)
		}
	}
	if len(q.ExpandedTerms) > 0 {
		var important []string
		for _, t := range q.ExpandedTerms {
			if len([]rune(t)) <= 2 {
				continue
			}
			if contains(q.Keywords, t) {
				continue
			}
			important = append(important, t)
			if len(important) == 3 {
				break
			}
		}
		if len(important) > 0 {
			add(strings.Join(important, " "))
		}
	}
	return queries
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
