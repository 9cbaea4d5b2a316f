package extract

// Layout describes where each field of a result card lives in the portal markup.
type Layout struct {
	Card       string // one listing
	Reference  string
	Object     string
	AwardPanel string
	QuoteValue string
	Bold       string

	ReferencePrefix string
	ObjectPrefix    string
	BuyerLabel      string
	BuyerPrefix     string
	DateLabel       string
	DatePrefix      string
	QuoteLabel      string
}

// DefaultLayout returns the selectors and labels used by the procurement portal.
func DefaultLayout() Layout {
	return Layout{
		Card:       ".entreprise__card",
		Reference:  ".font-bold.table__links",
		Object:     `[data-bs-toggle="tooltip"]`,
		AwardPanel: ".entreprise__rightSubCard--top",
		QuoteValue: "span span.font-bold",
		Bold:       "span.font-bold",

		ReferencePrefix: "Référence :",
		ObjectPrefix:    "Objet :",
		BuyerLabel:      "Acheteur",
		BuyerPrefix:     "Acheteur :",
		DateLabel:       "Date de publication",
		DatePrefix:      "Date de publication du résultat :",
		QuoteLabel:      "Nombre de devis reçus",
	}
}
