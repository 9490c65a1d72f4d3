package storage

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/margin-review/margin/models"
)

// SQLiteStore implements the Store interface using SQLite
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite store
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

// initSchema creates the database tables if they don't exist
func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS reviews (
		id TEXT PRIMARY KEY,
		document_id TEXT NOT NULL,
		mode TEXT NOT NULL,
		query TEXT,
		critique TEXT,
		issue_count INTEGER,
		rewrite_count INTEGER,
		section_count INTEGER,
		critical_count INTEGER,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS review_issues (
		review_id TEXT NOT NULL,
		issue_index INTEGER NOT NULL,
		category TEXT,
		severity TEXT,
		snippet TEXT,
		suggestion TEXT,
		page_hint INTEGER,
		PRIMARY KEY (review_id, issue_index),
		FOREIGN KEY (review_id) REFERENCES reviews(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS review_rewrites (
		review_id TEXT NOT NULL,
		rewrite_index INTEGER NOT NULL,
		original TEXT,
		suggested TEXT,
		explanation TEXT,
		page_number INTEGER,
		PRIMARY KEY (review_id, rewrite_index),
		FOREIGN KEY (review_id) REFERENCES reviews(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS review_sections (
		review_id TEXT NOT NULL,
		section_index INTEGER NOT NULL,
		section TEXT,
		page_number INTEGER,
		strengths TEXT,
		issues TEXT,
		suggestions TEXT,
		score INTEGER,
		PRIMARY KEY (review_id, section_index),
		FOREIGN KEY (review_id) REFERENCES reviews(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_reviews_document_id ON reviews(document_id);
	`

	_, err := s.db.Exec(schema)
	return err
}

// SaveReview stores a completed review and returns its review ID
func (s *SQLiteStore) SaveReview(ctx context.Context, record *models.ReviewRecord) (string, error) {
	reviewID := record.ReviewID
	if reviewID == "" {
		reviewID = generateReviewID(record)
	}
	createdAt := record.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stats := record.Findings.Stats()
	_, err = tx.ExecContext(ctx, `
		INSERT OR REPLACE INTO reviews (id, document_id, mode, query, critique, issue_count, rewrite_count, section_count, critical_count, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, reviewID, record.DocumentID, string(record.Mode), record.Query, record.Critique,
		stats.Issues, stats.Rewrites, stats.SectionSummaries, stats.CriticalIssues, createdAt)
	if err != nil {
		return "", fmt.Errorf("failed to insert review: %w", err)
	}

	for i, issue := range record.Findings.Issues {
		_, err = tx.ExecContext(ctx, `
			INSERT OR REPLACE INTO review_issues (review_id, issue_index, category, severity, snippet, suggestion, page_hint)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, reviewID, i, string(issue.Category), string(issue.Severity), issue.Snippet, issue.Suggestion, nullableInt(issue.PageHint))
		if err != nil {
			return "", fmt.Errorf("failed to insert issue %d: %w", i, err)
		}
	}

	for i, rewrite := range record.Findings.Rewrites {
		_, err = tx.ExecContext(ctx, `
			INSERT OR REPLACE INTO review_rewrites (review_id, rewrite_index, original, suggested, explanation, page_number)
			VALUES (?, ?, ?, ?, ?, ?)
		`, reviewID, i, rewrite.Original, rewrite.Suggested, rewrite.Explanation, nullableInt(rewrite.Page))
		if err != nil {
			return "", fmt.Errorf("failed to insert rewrite %d: %w", i, err)
		}
	}

	for i, section := range record.Findings.SectionSummaries {
		strengthsJSON, err := json.Marshal(section.Strengths)
		if err != nil {
			return "", fmt.Errorf("failed to marshal strengths: %w", err)
		}
		issuesJSON, err := json.Marshal(section.Issues)
		if err != nil {
			return "", fmt.Errorf("failed to marshal issues: %w", err)
		}
		suggestionsJSON, err := json.Marshal(section.Suggestions)
		if err != nil {
			return "", fmt.Errorf("failed to marshal suggestions: %w", err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT OR REPLACE INTO review_sections (review_id, section_index, section, page_number, strengths, issues, suggestions, score)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`, reviewID, i, section.Section, nullableInt(section.Page),
			string(strengthsJSON), string(issuesJSON), string(suggestionsJSON), section.Score)
		if err != nil {
			return "", fmt.Errorf("failed to insert section summary %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit transaction: %w", err)
	}

	return reviewID, nil
}

// GetReview retrieves a review by ID, including all findings
func (s *SQLiteStore) GetReview(ctx context.Context, reviewID string) (*models.ReviewRecord, error) {
	record := models.ReviewRecord{ReviewID: reviewID}
	var mode string

	err := s.db.QueryRowContext(ctx, `
		SELECT document_id, mode, query, critique, created_at
		FROM reviews
		WHERE id = ?
	`, reviewID).Scan(&record.DocumentID, &mode, &record.Query, &record.Critique, &record.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("review not found: %s", reviewID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query review: %w", err)
	}
	record.Mode = models.ReviewMode(mode)

	if record.Findings.Issues, err = s.getIssues(ctx, reviewID); err != nil {
		return nil, err
	}
	if record.Findings.Rewrites, err = s.getRewrites(ctx, reviewID); err != nil {
		return nil, err
	}
	if record.Findings.SectionSummaries, err = s.getSections(ctx, reviewID); err != nil {
		return nil, err
	}

	record.Stats = record.Findings.Stats()
	return &record, nil
}

func (s *SQLiteStore) getIssues(ctx context.Context, reviewID string) ([]models.Issue, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT category, severity, snippet, suggestion, page_hint FROM review_issues
		WHERE review_id = ?
		ORDER BY issue_index
	`, reviewID)
	if err != nil {
		return nil, fmt.Errorf("failed to query issues: %w", err)
	}
	defer rows.Close()

	var issues []models.Issue
	for rows.Next() {
		var issue models.Issue
		var category, severity string
		var pageHint sql.NullInt64
		if err := rows.Scan(&category, &severity, &issue.Snippet, &issue.Suggestion, &pageHint); err != nil {
			return nil, fmt.Errorf("failed to scan issue: %w", err)
		}
		issue.Category = models.Category(category)
		issue.Severity = models.Severity(severity)
		issue.PageHint = intPointer(pageHint)
		issues = append(issues, issue)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating issues: %w", err)
	}

	return issues, nil
}

func (s *SQLiteStore) getRewrites(ctx context.Context, reviewID string) ([]models.RewriteSuggestion, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT original, suggested, explanation, page_number FROM review_rewrites
		WHERE review_id = ?
		ORDER BY rewrite_index
	`, reviewID)
	if err != nil {
		return nil, fmt.Errorf("failed to query rewrites: %w", err)
	}
	defer rows.Close()

	var rewrites []models.RewriteSuggestion
	for rows.Next() {
		var rewrite models.RewriteSuggestion
		var page sql.NullInt64
		if err := rows.Scan(&rewrite.Original, &rewrite.Suggested, &rewrite.Explanation, &page); err != nil {
			return nil, fmt.Errorf("failed to scan rewrite: %w", err)
		}
		rewrite.Page = intPointer(page)
		rewrites = append(rewrites, rewrite)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rewrites: %w", err)
	}

	return rewrites, nil
}

func (s *SQLiteStore) getSections(ctx context.Context, reviewID string) ([]models.SectionSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT section, page_number, strengths, issues, suggestions, score FROM review_sections
		WHERE review_id = ?
		ORDER BY section_index
	`, reviewID)
	if err != nil {
		return nil, fmt.Errorf("failed to query section summaries: %w", err)
	}
	defer rows.Close()

	var sections []models.SectionSummary
	for rows.Next() {
		var section models.SectionSummary
		var page sql.NullInt64
		var strengthsJSON, issuesJSON, suggestionsJSON string
		if err := rows.Scan(&section.Section, &page, &strengthsJSON, &issuesJSON, &suggestionsJSON, &section.Score); err != nil {
			return nil, fmt.Errorf("failed to scan section summary: %w", err)
		}
		section.Page = intPointer(page)
		if err := json.Unmarshal([]byte(strengthsJSON), &section.Strengths); err != nil {
			return nil, fmt.Errorf("failed to unmarshal strengths: %w", err)
		}
		if err := json.Unmarshal([]byte(issuesJSON), &section.Issues); err != nil {
			return nil, fmt.Errorf("failed to unmarshal issues: %w", err)
		}
		if err := json.Unmarshal([]byte(suggestionsJSON), &section.Suggestions); err != nil {
			return nil, fmt.Errorf("failed to unmarshal suggestions: %w", err)
		}
		sections = append(sections, section)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating section summaries: %w", err)
	}

	return sections, nil
}

// ListReviews returns all stored reviews, newest first
func (s *SQLiteStore) ListReviews(ctx context.Context) ([]models.ReviewInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, document_id, mode, issue_count, rewrite_count, section_count, critical_count, created_at
		FROM reviews
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query reviews: %w", err)
	}
	defer rows.Close()

	var infos []models.ReviewInfo
	for rows.Next() {
		var info models.ReviewInfo
		var mode string
		if err := rows.Scan(&info.ReviewID, &info.DocumentID, &mode,
			&info.Stats.Issues, &info.Stats.Rewrites, &info.Stats.SectionSummaries,
			&info.Stats.CriticalIssues, &info.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan review: %w", err)
		}
		info.Mode = models.ReviewMode(mode)
		infos = append(infos, info)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating reviews: %w", err)
	}

	return infos, nil
}

// DeleteReview removes a review and all associated findings
func (s *SQLiteStore) DeleteReview(ctx context.Context, reviewID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"review_issues", "review_rewrites", "review_sections"} {
		if _, err := tx.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s WHERE review_id = ?", table), reviewID); err != nil {
			return fmt.Errorf("failed to delete from %s: %w", table, err)
		}
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM reviews WHERE id = ?", reviewID); err != nil {
		return fmt.Errorf("failed to delete review: %w", err)
	}

	return tx.Commit()
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func generateReviewID(record *models.ReviewRecord) string {
	seed := fmt.Sprintf("%s|%s|%s|%d", record.DocumentID, record.Mode, record.Query, time.Now().UnixNano())
	return "review_" + hashHex([]byte(seed))[:16]
}

func hashHex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func nullableInt(p *int) any {
	if p == nil {
		return nil
	}
	return *p
}

func intPointer(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	n := int(v.Int64)
	return &n
}
