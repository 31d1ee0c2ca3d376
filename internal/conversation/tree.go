package conversation

import (
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"golang.org/x/term"
)

// treeNode is one response in the rendered branch tree.
type treeNode struct {
	id       string
	prompt   string
	children []*treeNode
}

// buildTree assembles the branch forest of a loaded conversation. Legacy
// rows without an explicit parent link are chained chronologically, the
// same inference the backfill persists.
func buildTree(l Loaded) []*treeNode {
	ordered := sortResponses(l.Responses)

	nodes := make(map[string]*treeNode, len(ordered))
	for _, r := range ordered {
		nodes[r.ID] = &treeNode{id: r.ID, prompt: r.Prompt}
	}

	var roots []*treeNode
	for _, r := range ordered {
		parent := effectiveParent(r, ordered)
		if p, ok := nodes[parent]; ok {
			p.children = append(p.children, nodes[r.ID])
		} else {
			roots = append(roots, nodes[r.ID])
		}
	}
	return roots
}

// FormatTree renders the conversation's branch structure with the head
// marked. Lines are truncated to width; pass 0 to auto-detect the
// terminal width (falling back to 80 when stdout is not a terminal).
func FormatTree(l Loaded, width int) string {
	if width <= 0 {
		width = 80
		if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
			width = w
		}
	}

	var b strings.Builder
	header := fmt.Sprintf("Conversation: %s (%s)", l.Conversation.Name, l.Conversation.ID)
	b.WriteString(truncate(header, width))
	b.WriteString("\n")
	for _, root := range buildTree(l) {
		renderNode(&b, root, "", l.HeadID, width)
	}
	return b.String()
}

func renderNode(b *strings.Builder, n *treeNode, indent string, headID string, width int) {
	marker := "  "
	if n.id == headID {
		marker = "→ "
	}

	snippet := n.prompt
	if i := strings.IndexByte(snippet, '\n'); i >= 0 {
		snippet = snippet[:i]
	}
	line := fmt.Sprintf("%s%s%s  %s", marker, indent, n.id, snippet)
	b.WriteString(truncate(line, width))
	b.WriteString("\n")

	for _, child := range n.children {
		renderNode(b, child, indent+"  ", headID, width)
	}
}

// truncate cuts s to at most width bytes without splitting a rune.
func truncate(s string, width int) string {
	if len(s) <= width {
		return s
	}
	cut := width
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
