// Package corpus loads and normalizes the article collection that gets
// embedded and ranked. Articles arrive as JSON lines; order of arrival is
// identity for ranking, so loading never reorders.
package corpus

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// Article is one corpus entry.
type Article struct {
	ID    uuid.UUID `json:"id"`
	Title string    `json:"title"`
	Text  string    `json:"text"`
}

// Content joins title and body into the string that gets embedded.
func (a Article) Content() string {
	if a.Title == "" {
		return a.Text
	}
	if a.Text == "" {
		return a.Title
	}
	return a.Title + " " + a.Text
}

// Load reads JSON-lines articles from r, one object per line. Blank lines
// and articles with no content are skipped. Articles without an ID get one.
func Load(r io.Reader) ([]Article, error) {
	var articles []Article
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	line := 0
	for scanner.Scan() {
		line++
		raw := strings.TrimSpace(scanner.Text())
		if raw == "" {
			continue
		}
		var a Article
		if err := json.Unmarshal([]byte(raw), &a); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if strings.TrimSpace(a.Content()) == "" {
			continue
		}
		if a.ID == uuid.Nil {
			a.ID = uuid.New()
		}
		articles = append(articles, a)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return articles, nil
}

var (
	urlPattern     = regexp.MustCompile(`https?://\S+`)
	nonLetterRuns  = regexp.MustCompile(`[^a-zA-Z0-9]+`)
	whitespaceRuns = regexp.MustCompile(`\s+`)
)

// Clean normalizes article text before embedding: URLs stripped, punctuation
// runs collapsed to single spaces, lowercased, trimmed. The cleaned string is
// also the cache key and the duplicate-detection key, so two articles that
// differ only in punctuation or case count as the same text.
func Clean(s string) string {
	s = urlPattern.ReplaceAllString(s, " ")
	s = nonLetterRuns.ReplaceAllString(s, " ")
	s = whitespaceRuns.ReplaceAllString(s, " ")
	return strings.ToLower(strings.TrimSpace(s))
}

// Sample picks n articles without replacement using the given seed, keeping
// the original relative order. n >= len(articles) returns the input as is.
func Sample(articles []Article, n int, seed int64) []Article {
	if n <= 0 {
		return nil
	}
	if n >= len(articles) {
		return articles
	}
	rng := rand.New(rand.NewSource(seed))
	picked := rng.Perm(len(articles))[:n]

	keep := make(map[int]bool, n)
	for _, i := range picked {
		keep[i] = true
	}
	out := make([]Article, 0, n)
	for i, a := range articles {
		if keep[i] {
			out = append(out, a)
		}
	}
	return out
}
