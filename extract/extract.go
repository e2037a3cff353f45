// Package extract turns raw HTML into a single normalized text blob,
// steered by URL-matched selector rules.
package extract

import (
	"bytes"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/antchfx/htmlquery"
	"go.uber.org/zap"
)

// Document is the extraction output for one page. Text may be empty;
// an empty page is a valid page.
type Document struct {
	Title string
	Text  string
}

type Extractor struct {
	rules  []*Rule
	logger *zap.Logger
}

// NewExtractor builds an extractor over an already-loaded rule set.
// With no rules every page goes through the default paragraph strategy.
func NewExtractor(rules []*Rule, logger *zap.Logger) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Extractor{rules: rules, logger: logger}
}

// Extract never fails: a page that defeats its matched rule degrades to
// the default strategy, and a page that defeats the parser yields an
// empty Document.
func (e *Extractor) Extract(raw []byte, srcURL string) Document {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(raw))
	if err != nil {
		e.logger.Warn("html parse failed",
			zap.String("url", srcURL),
			zap.Error(err))

		return Document{Title: srcURL}
	}

	title := strings.TrimSpace(doc.Find("title").First().Text())
	if title == "" {
		title = srcURL
	}

	var text string

	if rule := selectRule(e.rules, srcURL); rule != nil {
		text = e.applyRule(rule, doc, srcURL)
	}

	if text == "" {
		text = paragraphText(doc)
	}

	return Document{Title: title, Text: text}
}

func (e *Extractor) applyRule(rule *Rule, doc *goquery.Document, srcURL string) string {
	var text string

	switch rule.Kind {
	case KindCSS:
		text = matcherText(doc, rule.css)
	case KindXPath:
		text = xpathText(doc, rule)
	}

	if text == "" {
		e.logger.Debug("rule produced no text, using default strategy",
			zap.String("url", srcURL),
			zap.String("pattern", rule.Pattern),
			zap.String("kind", rule.Kind.String()))
	}

	return text
}

func matcherText(doc *goquery.Document, m goquery.Matcher) string {
	var blocks []string

	doc.FindMatcher(m).Each(func(i int, s *goquery.Selection) {
		if t := normalize(s.Text()); t != "" {
			blocks = append(blocks, t)
		}
	})

	return strings.Join(blocks, "\n")
}

func xpathText(doc *goquery.Document, rule *Rule) string {
	root := doc.Get(0)
	if root == nil {
		return ""
	}

	var blocks []string

	for _, node := range htmlquery.QuerySelectorAll(root, rule.xp) {
		if t := normalize(htmlquery.InnerText(node)); t != "" {
			blocks = append(blocks, t)
		}
	}

	return strings.Join(blocks, "\n")
}

// paragraphText is the default strategy: every paragraph in document
// order, one line per paragraph.
func paragraphText(doc *goquery.Document) string {
	var blocks []string

	doc.Find("p").Each(func(i int, s *goquery.Selection) {
		if t := normalize(s.Text()); t != "" {
			blocks = append(blocks, t)
		}
	})

	return strings.Join(blocks, "\n")
}

// normalize collapses runs of whitespace to single spaces.
func normalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
