package extract

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// ParseDestinations returns the non-empty option values of a destinations
// response, verbatim and in the order the endpoint returned them.
func ParseDestinations(body string) ([]string, error) {
	container := &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div}
	nodes, err := html.ParseFragment(strings.NewReader(body), container)
	if err != nil {
		return nil, NewExtractError(ErrCodeParseError, "invalid destination markup", fmt.Errorf("%w: %v", ErrParseFailed, err))
	}

	root := &html.Node{Type: html.DocumentNode}
	for _, n := range nodes {
		root.AppendChild(n)
	}
	doc := goquery.NewDocumentFromNode(root)

	ids := []string{}
	doc.Find("option").Each(func(i int, sel *goquery.Selection) {
		if v, ok := sel.Attr("value"); ok && v != "" {
			ids = append(ids, v)
		}
	})
	return ids, nil
}

// JoinDestinations renders destination ids as the comma-joined dest field
func JoinDestinations(ids []string) string {
	return strings.Join(ids, ",")
}
