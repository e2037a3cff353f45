package extract

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"

	"github.com/andybalholm/cascadia"
	"github.com/antchfx/xpath"
	"go.uber.org/zap"
)

// RuleKind selects the extraction mechanism of a Rule. The kind is
// fixed when the rules file is loaded, never inferred per document.
type RuleKind int

const (
	KindCSS RuleKind = iota
	KindXPath
)

func (k RuleKind) String() string {
	if k == KindXPath {
		return "xpath"
	}

	return "css"
}

// Rule binds a URL pattern to one extraction selector. Both the pattern
// and the selector are compiled at load time, so a rule that made it
// into the set is always usable at extraction time.
type Rule struct {
	Pattern  string
	Kind     RuleKind
	Selector string

	re  *regexp.Regexp
	css cascadia.Selector
	xp  *xpath.Expr
}

// Match reports whether the rule's pattern is found anywhere in the URL.
func (r *Rule) Match(url string) bool {
	return r.re.MatchString(url)
}

type ruleSpec struct {
	CSSSelector string `json:"css_selector"`
	XPath       string `json:"xpath"`
}

// LoadRules reads a rules file: a JSON object mapping URL regex patterns
// to {"css_selector": ...} or {"xpath": ...} objects. File order is kept
// so that rule selection stays deterministic when pattern lengths tie.
// Entries with an invalid pattern or selector are logged and dropped.
func LoadRules(path string, logger *zap.Logger) ([]*Rule, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open rules file failed:%w", err)
	}
	defer f.Close()

	dec := json.NewDecoder(f)

	// A json.Decoder token walk instead of a map: Go maps lose the
	// file order the tie-break depends on.
	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("read rules file failed:%w", err)
	}

	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("rules file must be a JSON object, got %v", tok)
	}

	var rules []*Rule

	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("read rules file failed:%w", err)
		}

		pattern := tok.(string)

		var spec ruleSpec
		if err := dec.Decode(&spec); err != nil {
			return nil, fmt.Errorf("decode rule %q failed:%w", pattern, err)
		}

		rule, err := compileRule(pattern, spec)
		if err != nil {
			logger.Warn("dropping unusable rule",
				zap.String("pattern", pattern),
				zap.Error(err))

			continue
		}

		rules = append(rules, rule)
	}

	return rules, nil
}

func compileRule(pattern string, spec ruleSpec) (*Rule, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid pattern:%w", err)
	}

	r := &Rule{Pattern: pattern, re: re}

	switch {
	case spec.CSSSelector != "":
		r.Kind = KindCSS
		r.Selector = spec.CSSSelector

		r.css, err = cascadia.Compile(spec.CSSSelector)
		if err != nil {
			return nil, fmt.Errorf("invalid css selector:%w", err)
		}
	case spec.XPath != "":
		r.Kind = KindXPath
		r.Selector = spec.XPath

		r.xp, err = xpath.Compile(spec.XPath)
		if err != nil {
			return nil, fmt.Errorf("invalid xpath:%w", err)
		}
	default:
		return nil, fmt.Errorf("rule has neither css_selector nor xpath")
	}

	return r, nil
}

// selectRule picks the matching rule with the longest pattern string.
// On a length tie the earlier rule wins, so selection is deterministic
// for a fixed rules file.
func selectRule(rules []*Rule, url string) *Rule {
	var best *Rule

	for _, r := range rules {
		if !r.Match(url) {
			continue
		}

		if best == nil || len(r.Pattern) > len(best.Pattern) {
			best = r
		}
	}

	return best
}
