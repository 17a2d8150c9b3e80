// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package bugui

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/alecthomas/chroma/v2/quick"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/muesli/termenv"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
)

var (
	markdownParser     goldmark.Markdown
	markdownParserOnce sync.Once
)

func getMarkdownParser() goldmark.Markdown {
	markdownParserOnce.Do(func() {
		markdownParser = goldmark.New(goldmark.WithExtensions(extension.GFM))
	})
	return markdownParser
}

// wrapBreakpoints are the characters ansi.Wrap may break a line after
// in addition to spaces.
const wrapBreakpoints = " ,.;-+|/"

// renderMarkdown renders a bug description as styled terminal text
// wrapped to width. Soft line breaks become spaces so descriptions
// typed into a narrow browser textarea reflow to the terminal.
func renderMarkdown(input string, theme Theme, width int) string {
	if strings.TrimSpace(input) == "" {
		return ""
	}
	if width < 20 {
		width = 20
	}
	source := []byte(input)
	document := getMarkdownParser().Parser().Parse(text.NewReader(source))

	// The output always lands in the bubbletea view, so force a color
	// profile instead of detecting one from stderr (which is not a
	// terminal under test).
	styles := lipgloss.NewRenderer(os.Stderr, termenv.WithProfile(termenv.ANSI256))
	styles.SetColorProfile(termenv.ANSI256)

	renderer := &descriptionRenderer{source: source, theme: theme, styles: styles}
	renderer.blocks(document, "", width, false)
	return strings.Join(renderer.lines, "\n")
}

// descriptionRenderer turns a goldmark block tree into lines. Each
// block renders its inline content to one styled string and then
// wraps it with the container's indent.
type descriptionRenderer struct {
	source []byte
	theme  Theme
	styles *lipgloss.Renderer
	lines  []string
}

func (r *descriptionRenderer) style() lipgloss.Style {
	return r.styles.NewStyle()
}

func (r *descriptionRenderer) blocks(parent ast.Node, indent string, width int, tight bool) {
	first := true
	for child := parent.FirstChild(); child != nil; child = child.NextSibling() {
		if !first && !tight {
			r.blank(indent)
		}
		r.block(child, indent, width)
		first = false
	}
}

func (r *descriptionRenderer) block(node ast.Node, indent string, width int) {
	switch node := node.(type) {
	case *ast.Heading:
		heading := r.style().Bold(true).Foreground(r.theme.HeadingColor)
		if node.Level == 1 {
			heading = heading.Underline(true)
		}
		r.wrap(indent, heading.Render(r.plain(node)), width)

	case *ast.Paragraph, *ast.TextBlock:
		r.wrap(indent, r.inline(node), width)

	case *ast.FencedCodeBlock:
		r.code(indent, r.blockText(node), string(node.Language(r.source)))

	case *ast.CodeBlock:
		r.code(indent, r.blockText(node), "")

	case *ast.Blockquote:
		bar := r.style().Foreground(r.theme.QuoteColor).Render("│ ")
		r.blocks(node, indent+bar, width-2, false)

	case *ast.List:
		r.list(node, indent, width)

	case *ast.ThematicBreak:
		rule := strings.Repeat("─", max(width-ansi.StringWidth(indent), 1))
		r.lines = append(r.lines, indent+r.style().Foreground(r.theme.BorderColor).Render(rule))

	case *ast.HTMLBlock:
		faint := r.style().Foreground(r.theme.FaintText)
		for _, line := range strings.Split(strings.TrimRight(r.blockText(node), "\n"), "\n") {
			r.lines = append(r.lines, indent+faint.Render(line))
		}

	case *extast.Table:
		r.table(node, indent)

	default:
		r.blocks(node, indent, width, false)
	}
}

// list renders each item with its marker on the item's first line and
// the marker's width of padding on the rest.
func (r *descriptionRenderer) list(node *ast.List, indent string, width int) {
	number := node.Start
	marker := r.style().Foreground(r.theme.AccentColor)
	first := true
	for item := node.FirstChild(); item != nil; item = item.NextSibling() {
		if !first && !node.IsTight {
			r.blank(indent)
		}
		first = false

		bullet := "• "
		if node.IsOrdered() {
			bullet = fmt.Sprintf("%d. ", number)
			number++
		}
		pad := strings.Repeat(" ", len([]rune(bullet)))
		start := len(r.lines)
		r.blocks(item, indent+pad, width-len(pad), node.IsTight)
		if start < len(r.lines) {
			r.lines[start] = indent + marker.Render(bullet) + strings.TrimPrefix(r.lines[start], indent+pad)
		}
	}
}

func (r *descriptionRenderer) code(indent, source, language string) {
	source = strings.TrimRight(source, "\n")
	var highlighted bytes.Buffer
	rendered := source
	if language != "" {
		if err := quick.Highlight(&highlighted, source, language, "terminal256", r.theme.ChromaStyle); err == nil {
			rendered = strings.TrimRight(highlighted.String(), "\n")
		}
	}
	if rendered == source {
		rendered = r.style().Foreground(r.theme.CodeColor).Render(source)
	}
	for _, line := range strings.Split(rendered, "\n") {
		r.lines = append(r.lines, indent+"  "+line)
	}
}

// table lays out cells in columns sized to the widest plain-text cell.
func (r *descriptionRenderer) table(node *extast.Table, indent string) {
	var rows [][]string
	var widths []int
	for row := node.FirstChild(); row != nil; row = row.NextSibling() {
		var cells []string
		for cell := row.FirstChild(); cell != nil; cell = cell.NextSibling() {
			value := r.plain(cell)
			if column := len(cells); column >= len(widths) {
				widths = append(widths, 0)
			}
			widths[len(cells)] = max(widths[len(cells)], ansi.StringWidth(value))
			cells = append(cells, value)
		}
		rows = append(rows, cells)
	}

	separator := r.style().Foreground(r.theme.BorderColor).Render(" │ ")
	header := r.style().Bold(true)
	for index, cells := range rows {
		padded := make([]string, len(cells))
		for column, value := range cells {
			value += strings.Repeat(" ", widths[column]-ansi.StringWidth(value))
			if index == 0 {
				value = header.Render(value)
			}
			padded[column] = value
		}
		r.lines = append(r.lines, indent+strings.Join(padded, separator))
	}
}

func (r *descriptionRenderer) wrap(indent, content string, width int) {
	limit := max(width-ansi.StringWidth(indent), 10)
	for _, line := range strings.Split(ansi.Wrap(content, limit, wrapBreakpoints), "\n") {
		r.lines = append(r.lines, indent+strings.TrimRight(line, " "))
	}
}

// blank separates blocks. Inside a quote the bar continues through the
// blank line.
func (r *descriptionRenderer) blank(indent string) {
	r.lines = append(r.lines, strings.TrimRight(indent, " "))
}

// inline renders the styled inline content of a block.
func (r *descriptionRenderer) inline(parent ast.Node) string {
	var out strings.Builder
	for child := parent.FirstChild(); child != nil; child = child.NextSibling() {
		switch node := child.(type) {
		case *ast.Text:
			out.Write(node.Segment.Value(r.source))
			switch {
			case node.HardLineBreak():
				out.WriteByte('\n')
			case node.SoftLineBreak():
				out.WriteByte(' ')
			}
		case *ast.String:
			out.Write(node.Value)
		case *ast.CodeSpan:
			out.WriteString(r.style().Foreground(r.theme.CodeColor).Render(r.plain(node)))
		case *ast.Emphasis:
			emphasis := r.style().Italic(true)
			if node.Level >= 2 {
				emphasis = r.style().Bold(true)
			}
			out.WriteString(emphasis.Render(r.plain(node)))
		case *extast.Strikethrough:
			out.WriteString(r.style().Strikethrough(true).Render(r.plain(node)))
		case *ast.Link:
			label := r.plain(node)
			out.WriteString(r.style().Foreground(r.theme.LinkColor).Underline(true).Render(label))
			if destination := string(node.Destination); destination != "" && destination != label {
				out.WriteString(r.style().Foreground(r.theme.FaintText).Render(" (" + destination + ")"))
			}
		case *ast.AutoLink:
			out.WriteString(r.style().Foreground(r.theme.LinkColor).Underline(true).Render(string(node.URL(r.source))))
		case *ast.Image:
			out.WriteString(r.style().Foreground(r.theme.FaintText).Render("[image: " + r.plain(node) + "]"))
		case *ast.RawHTML:
		default:
			out.WriteString(r.inline(child))
		}
	}
	return out.String()
}

// plain returns the unstyled text of an inline subtree.
func (r *descriptionRenderer) plain(parent ast.Node) string {
	var out strings.Builder
	for child := parent.FirstChild(); child != nil; child = child.NextSibling() {
		switch node := child.(type) {
		case *ast.Text:
			out.Write(node.Segment.Value(r.source))
			if node.SoftLineBreak() || node.HardLineBreak() {
				out.WriteByte(' ')
			}
		case *ast.String:
			out.Write(node.Value)
		default:
			out.WriteString(r.plain(child))
		}
	}
	return out.String()
}

func (r *descriptionRenderer) blockText(node ast.Node) string {
	var out strings.Builder
	lines := node.Lines()
	for index := 0; index < lines.Len(); index++ {
		segment := lines.At(index)
		out.Write(segment.Value(r.source))
	}
	return out.String()
}
