// Package extract turns result-page markup into procurement records.
package extract

import (
	"errors"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/law-makers/marches/pkg/models"
	"github.com/rs/zerolog/log"
)

var (
	// ErrEmptyCard is returned when the card selection holds no node.
	ErrEmptyCard = errors.New("empty card selection")
	// ErrMalformedCard wraps a failure raised while walking a card.
	ErrMalformedCard = errors.New("malformed card")
)

// Extractor reads records out of parsed result pages.
// It holds no mutable state and is safe for concurrent use.
type Extractor struct {
	layout Layout
}

// New creates an Extractor for the given layout.
func New(layout Layout) *Extractor {
	return &Extractor{layout: layout}
}

// ExtractPage returns one record per card found in doc.
// Cards that fail to extract are logged and skipped.
func (e *Extractor) ExtractPage(doc *goquery.Document) []models.Record {
	if doc == nil {
		return nil
	}

	return e.extractCards(doc.Find(e.layout.Card))
}

func (e *Extractor) extractCards(cards *goquery.Selection) []models.Record {
	records := make([]models.Record, 0, cards.Length())

	cards.Each(func(i int, card *goquery.Selection) {
		rec, err := e.ExtractCard(card)
		if err != nil {
			log.Debug().
				Err(err).
				Int("card", i).
				Msg("Skipping card")
			return
		}
		records = append(records, rec)
	})

	return records
}

// ExtractCard builds a record from a single card. Missing fields are left nil;
// only a card that cannot be walked at all yields an error.
func (e *Extractor) ExtractCard(card *goquery.Selection) (rec models.Record, err error) {
	if card == nil || card.Length() == 0 {
		return models.Record{}, ErrEmptyCard
	}

	defer func() {
		if r := recover(); r != nil {
			rec = models.Record{}
			err = fmt.Errorf("%w: %v", ErrMalformedCard, r)
		}
	}()

	l := e.layout

	rec.Reference = clean(card.Find(l.Reference).First(), l.ReferencePrefix)
	rec.ObjectDescription = clean(card.Find(l.Object).First(), l.ObjectPrefix)
	rec.Buyer = clean(labeledSpan(card, l.BuyerLabel).Parent(), l.BuyerPrefix)
	rec.PublicationDate = clean(labeledSpan(card, l.DateLabel).Parent(), l.DatePrefix)

	e.award(card, &rec)

	return rec, nil
}

// award fills the quote count and award fields from the right-hand sub-card.
func (e *Extractor) award(card *goquery.Selection, rec *models.Record) {
	l := e.layout

	panel := card.Find(l.AwardPanel).First()
	if panel.Length() == 0 {
		return
	}

	if containsText(panel, l.QuoteLabel) {
		rec.QuoteCount = clean(panel.Find(l.QuoteValue).First(), "")
	}

	spans := panel.ChildrenFiltered("span")
	if spans.Length() < 3 {
		return
	}

	company := clean(spans.Eq(1).Find(l.Bold).First(), "")
	amount := clean(spans.Eq(2).Find(l.Bold).First(), "")

	// Both values or neither: a company without an amount is not an award.
	if company == nil || amount == nil {
		return
	}

	rec.IsAwarded = true
	rec.AwardedCompany = company
	rec.AwardAmount = amount
}

// clean returns the trimmed text of sel with prefix removed, or nil when
// sel is empty or nothing remains.
func clean(sel *goquery.Selection, prefix string) *string {
	if sel == nil || sel.Length() == 0 {
		return nil
	}

	text := strings.TrimSpace(sel.Text())
	if prefix != "" {
		text = strings.ReplaceAll(text, prefix, "")
	}
	text = strings.TrimSpace(text)

	if text == "" {
		return nil
	}
	return &text
}
