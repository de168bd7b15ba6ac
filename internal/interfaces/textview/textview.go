// Package textview turns the chat's HTML bubbles into aligned plain text for
// front-ends that cannot render HTML tables (Telegram, the terminal).
package textview

import (
	"orderchat/internal/entities"
	"strconv"
	"strings"

	"github.com/mattn/go-runewidth"
	"golang.org/x/net/html"
)

const columnGap = "  "

type cell struct {
	text   string
	span   int
	header bool
}

// Plain returns the message text, converting HTML bubbles to text
func Plain(msg entities.Message) string {
	if !msg.IsHTML {
		return msg.Text
	}
	return Render(msg.Text)
}

// Render converts an HTML fragment to text. Tables become aligned columns with
// a dashed rule under the header row; anything else is reduced to its text.
func Render(fragment string) string {
	doc, err := html.Parse(strings.NewReader(fragment))
	if err != nil {
		return fragment
	}

	table := find(doc, "table")
	if table == nil {
		return collapse(textOf(doc))
	}
	return renderTable(collectRows(table))
}

func find(n *html.Node, tag string) *html.Node {
	if n.Type == html.ElementNode && n.Data == tag {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := find(c, tag); found != nil {
			return found
		}
	}
	return nil
}

func collectRows(table *html.Node) [][]cell {
	var rows [][]cell
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "tr" {
			var row []cell
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				if c.Type != html.ElementNode || (c.Data != "td" && c.Data != "th") {
					continue
				}
				row = append(row, cell{
					text:   collapse(textOf(c)),
					span:   colspan(c),
					header: c.Data == "th",
				})
			}
			if len(row) > 0 {
				rows = append(rows, row)
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(table)
	return rows
}

func colspan(n *html.Node) int {
	for _, a := range n.Attr {
		if a.Key == "colspan" {
			if v, err := strconv.Atoi(a.Val); err == nil && v > 1 {
				return v
			}
		}
	}
	return 1
}

func textOf(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var sb strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		sb.WriteString(textOf(c))
		sb.WriteString(" ")
	}
	return sb.String()
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func renderTable(rows [][]cell) string {
	cols := 0
	for _, row := range rows {
		n := 0
		for _, c := range row {
			n += c.span
		}
		if n > cols {
			cols = n
		}
	}
	widths := make([]int, cols)

	// single-column cells first, then widen the last column of a span if needed
	for _, row := range rows {
		col := 0
		for _, c := range row {
			if c.span == 1 {
				widths[col] = max(widths[col], runewidth.StringWidth(c.text))
			}
			col += c.span
		}
	}
	for _, row := range rows {
		col := 0
		for _, c := range row {
			if c.span > 1 {
				if need := runewidth.StringWidth(c.text) - spanWidth(widths[col:col+c.span]); need > 0 {
					widths[col+c.span-1] += need
				}
			}
			col += c.span
		}
	}

	var sb strings.Builder
	for i, row := range rows {
		var parts []string
		col := 0
		for _, c := range row {
			parts = append(parts, runewidth.FillRight(c.text, spanWidth(widths[col:col+c.span])))
			col += c.span
		}
		sb.WriteString(strings.TrimRight(strings.Join(parts, columnGap), " "))
		sb.WriteString("\n")

		if i == 0 && row[0].header {
			sb.WriteString(strings.Repeat("-", spanWidth(widths)))
			sb.WriteString("\n")
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}

func spanWidth(widths []int) int {
	total := 0
	for _, w := range widths {
		total += w
	}
	return total + len(columnGap)*(len(widths)-1)
}
