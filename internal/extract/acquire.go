package extract

import (
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/law-makers/ferryroutes/pkg/models"
)

// Default selectors for the ticket search form
const (
	DefaultTokenSelector  = "input[name='_token']"
	DefaultOriginSelector = "select[name='ticket_org'] option"
)

// Acquirer reads the anti-forgery token and the origin options from a rendered page.
type Acquirer struct {
	TokenSelector  string
	OriginSelector string
}

// NewAcquirer returns an Acquirer, falling back to the default selectors for empty arguments
func NewAcquirer(tokenSelector, originSelector string) *Acquirer {
	if tokenSelector == "" {
		tokenSelector = DefaultTokenSelector
	}
	if originSelector == "" {
		originSelector = DefaultOriginSelector
	}
	return &Acquirer{
		TokenSelector:  tokenSelector,
		OriginSelector: originSelector,
	}
}

// AcquireHTML parses page markup and extracts the session context from it
func (a *Acquirer) AcquireHTML(r io.Reader) (*models.SessionContext, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse page HTML: %w", err)
	}
	return a.Acquire(doc)
}

// Acquire extracts the token and every origin option with a non-empty value.
// A missing token is fatal since no dependent request could be authorized.
func (a *Acquirer) Acquire(doc *goquery.Document) (*models.SessionContext, error) {
	token := ""
	if sel := doc.Find(a.TokenSelector).First(); sel.Length() > 0 {
		v, _ := sel.Attr("value")
		token = strings.TrimSpace(v)
	}
	if token == "" {
		return nil, NewExtractError(ErrCodeMissingToken, "no token on page", ErrMissingToken).
			WithDetail("selector", a.TokenSelector)
	}

	origins := []models.OriginOption{}
	doc.Find(a.OriginSelector).Each(func(i int, sel *goquery.Selection) {
		value, _ := sel.Attr("value")
		if value == "" {
			return
		}
		origins = append(origins, models.OriginOption{
			Value: value,
			Label: sel.Text(),
		})
	})

	return &models.SessionContext{
		Token:   token,
		Origins: origins,
	}, nil
}
