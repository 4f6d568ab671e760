package integration

import (
	"strings"

	"golang.org/x/net/html"
)

// matcher selects element nodes.
type matcher func(n *html.Node) bool

func tag(name string) matcher {
	return func(n *html.Node) bool {
		return n.Type == html.ElementNode && n.Data == name
	}
}

func class(name string) matcher {
	return func(n *html.Node) bool {
		return n.Type == html.ElementNode && hasClass(n, name)
	}
}

func tagClass(tagName, className string) matcher {
	return func(n *html.Node) bool {
		return n.Type == html.ElementNode && n.Data == tagName && hasClass(n, className)
	}
}

// classContains matches elements with any class attribute containing one of
// the fragments, like the [class*=x] selector.
func classContains(fragments ...string) matcher {
	return func(n *html.Node) bool {
		if n.Type != html.ElementNode {
			return false
		}
		c := strings.ToLower(attr(n, "class"))
		if c == "" {
			return false
		}
		for _, f := range fragments {
			if strings.Contains(c, f) {
				return true
			}
		}
		return false
	}
}

func metaNamed(attrName, value string) matcher {
	return func(n *html.Node) bool {
		return n.Type == html.ElementNode && n.Data == "meta" && attr(n, attrName) == value
	}
}

func hasClass(n *html.Node, name string) bool {
	for _, c := range strings.Fields(attr(n, "class")) {
		if c == name {
			return true
		}
	}
	return false
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// findAll returns every descendant of root (excluding root) matching m, in
// document order.
func findAll(root *html.Node, m matcher) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if m(c) {
				out = append(out, c)
			}
			walk(c)
		}
	}
	walk(root)
	return out
}

// findPath works like a descendant selector chain ("a b c") and returns the
// first node matching the last step.
func findPath(root *html.Node, steps ...matcher) *html.Node {
	if len(steps) == 0 {
		return root
	}
	for _, n := range findAll(root, steps[0]) {
		if found := findPath(n, steps[1:]...); found != nil {
			return found
		}
	}
	return nil
}

// firstText returns the trimmed text of the first match of any matcher
// that has non-empty text.
func firstText(root *html.Node, m matcher) string {
	for _, n := range findAll(root, m) {
		if t := nodeText(n); t != "" {
			return t
		}
	}
	return ""
}

// nodeText returns the collapsed text content of n, skipping scripts and
// styles.
func nodeText(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style" || n.Data == "noscript") {
			return
		}
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
			b.WriteString(" ")
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return collapseSpace(b.String())
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// truncateRunes cuts s to at most n runes.
func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
