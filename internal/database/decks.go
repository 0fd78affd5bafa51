package database

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/nikhil7591/slidex/internal/deck"
)

const timeLayout = "2006-01-02 15:04:05"

// InsertDeck persists a finished deck and all of its slides in one transaction.
// Returns the generated deck ID.
func (db *DB) InsertDeck(d *deck.Deck, sourceName, sourceKind string) (string, error) {
	id := uuid.NewString()

	tx, err := db.conn.Begin()
	if err != nil {
		return "", fmt.Errorf("begin insert: %w", err)
	}
	defer tx.Rollback() //nolint: errcheck

	generatedAt := d.Metadata.GeneratedAt
	if generatedAt.IsZero() {
		generatedAt = time.Now()
	}

	_, err = tx.Exec(
		`INSERT INTO decks (id, title, source_name, source_kind, slide_count, degraded_count, generated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, d.Metadata.Title, nullable(sourceName), nullable(sourceKind),
		len(d.Slides), len(d.Degraded), generatedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return "", fmt.Errorf("inserting deck: %w", err)
	}

	for _, es := range d.Slides {
		bullets, err := json.Marshal(es.Slide.Bullets)
		if err != nil {
			return "", fmt.Errorf("encoding bullets: %w", err)
		}
		questions, err := json.Marshal(es.Explanation.SuggestedQuestions)
		if err != nil {
			return "", fmt.Errorf("encoding questions: %w", err)
		}

		var reason *string
		for _, g := range d.Degraded {
			if g.Index == es.Slide.OutlineIndex {
				r := g.Reason
				reason = &r
				break
			}
		}

		_, err = tx.Exec(
			`INSERT INTO deck_slides (deck_id, outline_index, title, bullets, presenter_notes,
			detail, context, example, suggested_questions, degraded_reason)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			id, es.Slide.OutlineIndex, es.Slide.Title, string(bullets), es.Slide.PresenterNotes,
			es.Explanation.Detail, es.Explanation.Context, es.Explanation.Example,
			string(questions), reason,
		)
		if err != nil {
			return "", fmt.Errorf("inserting slide %d: %w", es.Slide.OutlineIndex, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit insert: %w", err)
	}
	return id, nil
}

// GetDeckInfo returns summary information for a single deck, or nil if not found.
func (db *DB) GetDeckInfo(id string) (*DeckInfo, error) {
	row := db.conn.QueryRow(
		`SELECT id, title, source_name, source_kind, slide_count, degraded_count, generated_at
		FROM decks WHERE id = ?`, id,
	)
	var info DeckInfo
	err := row.Scan(&info.ID, &info.Title, &info.SourceName, &info.SourceKind,
		&info.SlideCount, &info.DegradedCount, &info.GeneratedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &info, nil
}

// ListDecks returns all decks, newest first.
func (db *DB) ListDecks() ([]DeckInfo, error) {
	rows, err := db.conn.Query(
		`SELECT id, title, source_name, source_kind, slide_count, degraded_count, generated_at
		FROM decks ORDER BY generated_at DESC, id`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var decks []DeckInfo
	for rows.Next() {
		var info DeckInfo
		if err := rows.Scan(&info.ID, &info.Title, &info.SourceName, &info.SourceKind,
			&info.SlideCount, &info.DegradedCount, &info.GeneratedAt); err != nil {
			return nil, err
		}
		decks = append(decks, info)
	}
	return decks, rows.Err()
}

// LoadDeck reconstructs a full deck from storage, or returns nil if not found.
func (db *DB) LoadDeck(id string) (*deck.Deck, error) {
	info, err := db.GetDeckInfo(id)
	if err != nil {
		return nil, err
	}
	if info == nil {
		return nil, nil
	}

	d := &deck.Deck{
		Metadata: deck.Metadata{Title: info.Title},
	}
	if t, err := time.Parse(timeLayout, info.GeneratedAt); err == nil {
		d.Metadata.GeneratedAt = t
	}

	rows, err := db.conn.Query(
		`SELECT outline_index, title, bullets, presenter_notes,
		detail, context, example, suggested_questions, degraded_reason
		FROM deck_slides WHERE deck_id = ? ORDER BY outline_index`, id,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var es deck.ExplainedSlide
		var bullets, questions string
		var reason *string
		if err := rows.Scan(&es.Slide.OutlineIndex, &es.Slide.Title, &bullets,
			&es.Slide.PresenterNotes, &es.Explanation.Detail, &es.Explanation.Context,
			&es.Explanation.Example, &questions, &reason); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(bullets), &es.Slide.Bullets); err != nil {
			return nil, fmt.Errorf("decoding bullets for slide %d: %w", es.Slide.OutlineIndex, err)
		}
		if err := json.Unmarshal([]byte(questions), &es.Explanation.SuggestedQuestions); err != nil {
			return nil, fmt.Errorf("decoding questions for slide %d: %w", es.Slide.OutlineIndex, err)
		}
		es.Explanation.SlideIndex = es.Slide.OutlineIndex
		if reason != nil {
			d.Degraded = append(d.Degraded, deck.DegradedSlide{
				Index:  es.Slide.OutlineIndex,
				Reason: *reason,
			})
		}
		d.Slides = append(d.Slides, es)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return d, nil
}

// DeleteDeck removes a deck and its slides. Returns true if a deck was deleted.
func (db *DB) DeleteDeck(id string) (bool, error) {
	result, err := db.conn.Exec("DELETE FROM decks WHERE id = ?", id)
	if err != nil {
		return false, err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// GetStats returns aggregate counts across all stored decks.
func (db *DB) GetStats() (*Stats, error) {
	var s Stats
	err := db.conn.QueryRow(
		`SELECT COUNT(*), COALESCE(SUM(slide_count), 0), COALESCE(SUM(degraded_count), 0),
		MAX(generated_at) FROM decks`,
	).Scan(&s.TotalDecks, &s.TotalSlides, &s.DegradedSlides, &s.LastGeneratedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
