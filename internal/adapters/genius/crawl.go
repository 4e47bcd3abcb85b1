package genius

import (
	"strings"

	"golang.org/x/net/html"

	"github.com/onemusic/pipeline/internal/core/ports"
)

// extractLyrics collects the text of every lyrics container on the page,
// turning <br> into newlines. Returns "" for blank pages.
func extractLyrics(doc *html.Node) string {
	var parts []string
	for _, container := range findAll(doc, func(n *html.Node) bool {
		return n.Type == html.ElementNode && n.Data == "div" && attr(n, "data-lyrics-container") == "true"
	}) {
		parts = append(parts, nodeText(container))
	}

	return strings.TrimSpace(strings.Join(parts, "\n"))
}

// extractTranslations walks the lyrics-controls menu for translation items.
func extractTranslations(doc *html.Node) []ports.Translation {
	controls := findFirst(doc, func(n *html.Node) bool {
		return n.Type == html.ElementNode && n.Data == "div" &&
			strings.Contains(attr(n, "class"), "LyricsControls__Container")
	})
	if controls == nil || !strings.Contains(nodeText(controls), "Translations") {
		return nil
	}

	var translations []ports.Translation
	for _, item := range findAll(controls, func(n *html.Node) bool {
		return n.Type == html.ElementNode && n.Data == "li" &&
			strings.Contains(attr(n, "class"), "LyricsControls__DropdownItem")
	}) {
		anchor := findFirst(item, func(n *html.Node) bool {
			return n.Type == html.ElementNode && n.Data == "a"
		})
		if anchor == nil {
			continue
		}

		label := ""
		if inner := findFirst(anchor, func(n *html.Node) bool {
			return n.Type == html.ElementNode && n.Data == "div"
		}); inner != nil {
			label = strings.TrimSpace(nodeText(inner))
		}

		translations = append(translations, ports.Translation{
			URL:   attr(anchor, "href"),
			Label: label,
		})
	}

	return translations
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func findFirst(root *html.Node, pred func(*html.Node) bool) *html.Node {
	if pred(root) {
		return root
	}
	for child := root.FirstChild; child != nil; child = child.NextSibling {
		if found := findFirst(child, pred); found != nil {
			return found
		}
	}
	return nil
}

func findAll(root *html.Node, pred func(*html.Node) bool) []*html.Node {
	var found []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if pred(n) {
			found = append(found, n)
			return
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(root)
	return found
}

// nodeText flattens a node's text content, rendering <br> as a newline.
func nodeText(root *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch {
		case n.Type == html.TextNode:
			sb.WriteString(n.Data)
		case n.Type == html.ElementNode && n.Data == "br":
			sb.WriteString("\n")
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(root)
	return sb.String()
}
