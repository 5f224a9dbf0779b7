package diagnostics

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
)

type CleanConfig struct {
	TagsToRemove  []string
	AttrsToRemove []string
	MaxOutputSize int
}

var DefaultCleanConfig = CleanConfig{
	TagsToRemove: []string{
		"script", "style", "noscript", "svg", "iframe", "link", "meta",
	},
	AttrsToRemove: []string{
		"style", "srcset", "sizes", "loading", "decoding", "fetchpriority",
	},
	MaxOutputSize: 500_000,
}

const redacted = "[redacted]"

// CleanHTML strips noise from a page snapshot and blanks the value attribute of
// password inputs. Text typed into a field lives in the DOM property, not the
// markup, so it never reaches the snapshot in the first place. Unparseable
// input is returned unchanged.
func CleanHTML(rawHTML string, cfg *CleanConfig) string {
	if cfg == nil {
		cfg = &DefaultCleanConfig
	}

	doc, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return rawHTML
	}

	cleanNode(doc, cfg)

	var sb strings.Builder
	if err := html.Render(&sb, doc); err != nil {
		return rawHTML
	}
	return truncate(sb.String(), cfg.MaxOutputSize)
}

func cleanNode(n *html.Node, cfg *CleanConfig) {
	if n.Type == html.CommentNode {
		if n.Parent != nil {
			n.Parent.RemoveChild(n)
		}
		return
	}
	if n.Type == html.ElementNode {
		if isOneOf(n.Data, cfg.TagsToRemove...) {
			if n.Parent != nil {
				n.Parent.RemoveChild(n)
			}
			return
		}
		n.Attr = filterAttributes(n, cfg)
	}

	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		cleanNode(c, cfg)
		c = next
	}
}

func filterAttributes(n *html.Node, cfg *CleanConfig) []html.Attribute {
	secret := n.Data == "input" && attr(n, "type") == "password"

	var kept []html.Attribute
	for _, a := range n.Attr {
		if isOneOf(a.Key, cfg.AttrsToRemove...) || strings.HasPrefix(a.Key, "on") {
			continue
		}
		if secret && a.Key == "value" {
			a.Val = redacted
		}
		kept = append(kept, a)
	}
	return kept
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return strings.ToLower(a.Val)
		}
	}
	return ""
}

// truncate cuts s to at most max bytes without splitting a rune.
func truncate(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "\n<!-- truncated -->"
}

func isOneOf(s string, candidates ...string) bool {
	for _, c := range candidates {
		if s == c {
			return true
		}
	}
	return false
}
