package database

// DeckInfo is the stored header of a generated deck.
type DeckInfo struct {
	ID            string
	Title         string
	SourceName    *string
	SourceKind    *string
	SlideCount    int
	DegradedCount int
	GeneratedAt   string
}

// Stats contains aggregate database statistics.
type Stats struct {
	TotalDecks      int
	TotalSlides     int
	DegradedSlides  int
	LastGeneratedAt *string
}
