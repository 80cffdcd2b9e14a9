package summarizer

import (
	"math"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"
)

var sentencePattern = regexp.MustCompile(`(?m)(?U)([^.!?]+[.!?])`)

// TermCount is a word and its number of occurrences.
type TermCount struct {
	Term  string `json:"term"`
	Count int    `json:"count"`
}

// FrequencySummarizer builds the upload overview: a few representative
// sentences and the term counts behind the word cloud.
type FrequencySummarizer struct {
	tokenPattern *regexp.Regexp
	stopwords    map[string]struct{}
}

// NewFrequencySummarizer creates a frequency-based sentence ranker summarizer.
func NewFrequencySummarizer() *FrequencySummarizer {
	return &FrequencySummarizer{
		tokenPattern: regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*`),
		stopwords:    defaultStopwords(),
	}
}

type rankedSentence struct {
	pos   int
	score float64
}

// Summarize picks the maxSentences sentences whose terms weigh most across
// the whole text and returns them in text order. A term weighs its
// TopTerms count divided by the highest count, so the summary and the term
// list agree on what the document is about.
func (s *FrequencySummarizer) Summarize(text string, maxSentences int) (string, error) {
	if maxSentences <= 0 {
		maxSentences = 5
	}
	sentences := sentencePattern.FindAllString(text, -1)
	if len(sentences) == 0 {
		return strings.TrimSpace(text), nil
	}

	counts := s.termCounts(text)
	top := 0
	for _, c := range counts {
		top = max(top, c)
	}

	ranked := make([]rankedSentence, len(sentences))
	for i, sent := range sentences {
		toks := s.tokens(sent)
		score := 0.0
		if top > 0 {
			for _, tok := range toks {
				score += float64(counts[tok]) / float64(top)
			}
		}
		// damp long sentences
		if len(toks) > 0 {
			score /= math.Sqrt(float64(len(toks)))
		}
		ranked[i] = rankedSentence{pos: i, score: score}
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].score > ranked[j].score })
	ranked = ranked[:min(maxSentences, len(ranked))]
	sort.Slice(ranked, func(i, j int) bool { return ranked[i].pos < ranked[j].pos })

	parts := make([]string, len(ranked))
	for i, r := range ranked {
		parts[i] = strings.TrimSpace(sentences[r.pos])
	}
	return strings.Join(parts, " "), nil
}

// TopTerms returns the n most frequent non-stopword terms of text, most
// frequent first. Ties are ordered alphabetically.
func (s *FrequencySummarizer) TopTerms(text string, n int) []TermCount {
	counts := s.termCounts(text)
	terms := make([]TermCount, 0, len(counts))
	for t, c := range counts {
		terms = append(terms, TermCount{Term: t, Count: c})
	}
	sort.Slice(terms, func(i, j int) bool {
		if terms[i].Count != terms[j].Count {
			return terms[i].Count > terms[j].Count
		}
		return terms[i].Term < terms[j].Term
	})
	if n > 0 && n < len(terms) {
		terms = terms[:n]
	}
	return terms
}

// termCounts counts the terms of text, skipping stopwords and single letters.
func (s *FrequencySummarizer) termCounts(text string) map[string]int {
	counts := map[string]int{}
	for _, tok := range s.tokens(text) {
		if _, ok := s.stopwords[tok]; ok {
			continue
		}
		if utf8.RuneCountInString(tok) < 2 {
			continue
		}
		counts[tok]++
	}
	return counts
}

func (s *FrequencySummarizer) tokens(text string) []string {
	lower := strings.ToLower(text)
	return s.tokenPattern.FindAllString(lower, -1)
}

func defaultStopwords() map[string]struct{} {
	words := []string{
		"a", "an", "the", "and", "or", "but", "if", "then", "else", "for", "to", "of", "in", "on", "at", "by", "with", "as", "is", "are", "was", "were", "be", "been", "being", "it", "this", "that", "these", "those", "from", "up", "down", "over", "under", "again", "further", "than", "so", "such", "into", "about", "between", "through", "during", "before", "after", "above", "below", "out", "off", "own", "same", "too", "very", "can", "will", "just", "don", "should", "now",
	}
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}
