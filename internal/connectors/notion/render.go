package notion

import (
	"html"
	"strings"

	"github.com/jomei/notionapi"
)

// renderBlock converts one block to HTML. Unsupported blocks render empty.
func renderBlock(block notionapi.Block) string {
	switch b := block.(type) {
	case *notionapi.Heading1Block:
		return element("h1", b.Heading1.RichText)
	case *notionapi.Heading2Block:
		return element("h2", b.Heading2.RichText)
	case *notionapi.Heading3Block:
		return element("h3", b.Heading3.RichText)
	case *notionapi.ParagraphBlock:
		return element("p", b.Paragraph.RichText)
	case *notionapi.BulletedListItemBlock:
		return element("li", b.BulletedListItem.RichText)
	case *notionapi.NumberedListItemBlock:
		return element("li", b.NumberedListItem.RichText)
	case *notionapi.ToDoBlock:
		mark := "[ ] "
		if b.ToDo.Checked {
			mark = "[x] "
		}
		return wrap("li", mark+plainText(b.ToDo.RichText))
	case *notionapi.ToggleBlock:
		return element("p", b.Toggle.RichText)
	case *notionapi.QuoteBlock:
		return element("blockquote", b.Quote.RichText)
	case *notionapi.CalloutBlock:
		return element("p", b.Callout.RichText)
	case *notionapi.CodeBlock:
		return element("pre", b.Code.RichText)
	case *notionapi.TableRowBlock:
		cells := make([]string, 0, len(b.TableRow.Cells))
		for _, cell := range b.TableRow.Cells {
			if text := plainText(cell); text != "" {
				cells = append(cells, text)
			}
		}
		return wrap("p", strings.Join(cells, " | "))
	case *notionapi.BookmarkBlock:
		if caption := plainText(b.Bookmark.Caption); caption != "" {
			return wrap("p", caption+" ("+b.Bookmark.URL+")")
		}
		return wrap("p", b.Bookmark.URL)
	case *notionapi.ChildPageBlock:
		return wrap("p", b.ChildPage.Title)
	default:
		return ""
	}
}

func element(tag string, rich []notionapi.RichText) string {
	return wrap(tag, plainText(rich))
}

func wrap(tag, text string) string {
	if strings.TrimSpace(text) == "" {
		return ""
	}
	return "<" + tag + ">" + escape(text) + "</" + tag + ">\n"
}

func plainText(rich []notionapi.RichText) string {
	var sb strings.Builder
	for _, rt := range rich {
		sb.WriteString(rt.PlainText)
	}
	return sb.String()
}

func escape(s string) string {
	return html.EscapeString(s)
}
