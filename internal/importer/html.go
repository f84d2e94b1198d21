package importer

import (
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/nikbrunner/li/internal/model"
)

// ParseHTMLBookmarks parses a Netscape bookmark file. Every <A HREF> becomes
// a record: the anchor text is its title (the URL when blank), the TAGS
// attribute and the names of the enclosing folders become tags, and a <DD>
// right after the anchor becomes its description.
//
// Anchors whose HREF is not an absolute URL with a host (place:, javascript:)
// are returned in skipped. An URL appearing in several folders yields one
// record carrying the tags of every occurrence.
func ParseHTMLBookmarks(r io.Reader) (records []model.Record, skipped []string, err error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, nil, err
	}

	byURL := make(map[string]int)
	var folderStack []string // names of the enclosing folders, outermost first
	var pendingFolder *string // folder waiting to be pushed on next DL
	last := -1                // index of the record a following DD describes

	var parse func(*html.Node)
	parse = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.DataAtom {
			case atom.H3:
				if name := getTextContent(n); name != "" {
					pendingFolder = &name
				}
				last = -1
				return

			case atom.A:
				last = -1
				href := getAttr(n, "href")
				if href == "" {
					return
				}
				canonical, err := model.ParseURL(href)
				if err != nil {
					skipped = append(skipped, href)
					return
				}

				tags := strings.Split(getAttr(n, "tags"), ",")
				tags = model.CleanTags(append(tags, folderStack...))

				if i, ok := byURL[canonical]; ok {
					records[i].Tags = model.MergeTags(records[i].Tags, tags)
					last = i
					return
				}

				title := model.NormalizeTitle(getTextContent(n))
				if title == "" {
					title = canonical
				}
				records = append(records, model.Record{
					Title: title,
					URL:   canonical,
					Tags:  tags,
				})
				last = len(records) - 1
				byURL[canonical] = last
				return

			case atom.Dd:
				if last >= 0 && records[last].Description == nil {
					desc := ownText(n)
					records[last].Description = &desc
				}
				last = -1
				// A DD may wrap the next DL; keep walking.

			case atom.Dl:
				last = -1
				pushed := false
				if pendingFolder != nil {
					folderStack = append(folderStack, *pendingFolder)
					pendingFolder = nil
					pushed = true
				}

				for c := n.FirstChild; c != nil; c = c.NextSibling {
					parse(c)
				}

				if pushed {
					folderStack = folderStack[:len(folderStack)-1]
				}
				return
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			parse(c)
		}
	}

	parse(doc)
	if records == nil {
		records = []model.Record{}
	}
	return records, skipped, nil
}

// getTextContent returns the trimmed text content of a node.
func getTextContent(n *html.Node) string {
	var text strings.Builder
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.TextNode {
			text.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(n)
	return strings.TrimSpace(text.String())
}

// ownText returns the trimmed text of n's direct text children.
func ownText(n *html.Node) string {
	var text strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			text.WriteString(c.Data)
		}
	}
	return strings.TrimSpace(text.String())
}

// getAttr returns the value of an attribute; the parser lowercases keys.
func getAttr(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}
