package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/sideline/internal/common"
	"github.com/ternarybob/sideline/internal/interfaces"
	"github.com/ternarybob/sideline/internal/models"
)

// CatalogStorage implements interfaces.CatalogStorage over SQLite. All
// writes hold writeMu so upserts and status transitions are serialized;
// reads go straight to the connection.
type CatalogStorage struct {
	db      *SQLiteDB
	logger  arbor.ILogger
	writeMu sync.Mutex
	now     func() time.Time
}

// NewCatalogStorage creates a catalog storage backed by db
func NewCatalogStorage(db *SQLiteDB, logger arbor.ILogger) *CatalogStorage {
	return &CatalogStorage{
		db:     db,
		logger: logger,
		now:    time.Now,
	}
}

var _ interfaces.CatalogStorage = (*CatalogStorage)(nil)

func clampConfidence(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// Upsert inserts a new row or updates an existing one keyed by canonical
// URL. The row is never partially visible: the read-modify-write runs in a
// single transaction.
func (c *CatalogStorage) Upsert(ctx context.Context, site models.SiteUpsert) (models.UpsertOutcome, error) {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	url := common.CanonicalizeURL(site.URL)
	if url == "" {
		return models.UpsertOutcome{}, fmt.Errorf("upsert requires a URL")
	}

	name := site.Name
	if name == "" {
		name = common.SiteNameFromURL(url)
	}
	status := site.Status
	if status == "" {
		status = models.SiteStatusActive
	}
	confidence := clampConfidence(site.ConfidenceScore)
	isActive := status == models.SiteStatusActive
	now := c.now().UTC()

	tx, err := c.db.DB().BeginTx(ctx, nil)
	if err != nil {
		return models.UpsertOutcome{}, fmt.Errorf("failed to begin upsert transaction: %w", err)
	}
	defer tx.Rollback()

	var priorStatus string
	err = tx.QueryRowContext(ctx, `SELECT status FROM sites WHERE url = ?`, url).Scan(&priorStatus)

	var llmVerified sql.NullBool
	if site.LLMVerified != nil {
		llmVerified = sql.NullBool{Bool: *site.LLMVerified, Valid: true}
	}

	outcome := models.UpsertOutcome{}
	switch {
	case err == sql.ErrNoRows:
		_, err = tx.ExecContext(ctx, `
			INSERT INTO sites (name, url, source, last_verified, confidence_score, is_active,
				status, category, llm_verified, llm_reasoning, failed_attempts, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0, ?)`,
			name, url, string(site.Source), now, confidence, isActive,
			string(status), nullableString(site.Category), llmVerified,
			nullableString(site.LLMReasoning), now)
		if err != nil {
			return models.UpsertOutcome{}, fmt.Errorf("failed to insert site %s: %w", url, err)
		}
		outcome.Inserted = true
	case err != nil:
		return models.UpsertOutcome{}, fmt.Errorf("failed to look up site %s: %w", url, err)
	default:
		// Admission resets the failure counter when the row returns to active
		failedReset := ""
		if isActive {
			failedReset = ", failed_attempts = 0"
		}
		_, err = tx.ExecContext(ctx, fmt.Sprintf(`
			UPDATE sites
			SET name = ?, source = ?, last_verified = ?, confidence_score = ?, is_active = ?,
				status = ?, category = ?, llm_verified = ?, llm_reasoning = ?%s
			WHERE url = ?`, failedReset),
			name, string(site.Source), now, confidence, isActive,
			string(status), nullableString(site.Category), llmVerified,
			nullableString(site.LLMReasoning), url)
		if err != nil {
			return models.UpsertOutcome{}, fmt.Errorf("failed to update site %s: %w", url, err)
		}
		outcome.PriorStatus = models.SiteStatus(priorStatus)
	}

	if err := tx.Commit(); err != nil {
		return models.UpsertOutcome{}, fmt.Errorf("failed to commit upsert for %s: %w", url, err)
	}
	return outcome, nil
}

// GetByURL returns a site by canonical URL, or nil when absent
func (c *CatalogStorage) GetByURL(ctx context.Context, url string) (*models.Site, error) {
	row := c.db.DB().QueryRowContext(ctx, selectSiteSQL+` WHERE url = ?`, common.CanonicalizeURL(url))
	site, err := scanSite(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get site %s: %w", url, err)
	}
	return site, nil
}

// ListActive returns all active sites
func (c *CatalogStorage) ListActive(ctx context.Context) ([]models.Site, error) {
	return c.ListByStatus(ctx, models.SiteStatusActive)
}

// ListByStatus returns all sites in the given lifecycle state
func (c *CatalogStorage) ListByStatus(ctx context.Context, status models.SiteStatus) ([]models.Site, error) {
	rows, err := c.db.DB().QueryContext(ctx, selectSiteSQL+` WHERE status = ? ORDER BY id`, string(status))
	if err != nil {
		return nil, fmt.Errorf("failed to list sites by status %s: %w", status, err)
	}
	defer rows.Close()

	var sites []models.Site
	for rows.Next() {
		site, err := scanSite(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan site row: %w", err)
		}
		sites = append(sites, *site)
	}
	return sites, rows.Err()
}

// Quarantine transitions a row toward quarantined and increments its
// failure counter. Already-quarantined rows accrue further failures.
func (c *CatalogStorage) Quarantine(ctx context.Context, url, reason string) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	canonical := common.CanonicalizeURL(url)
	result, err := c.db.DB().ExecContext(ctx, `
		UPDATE sites
		SET status = ?, is_active = 0, last_verified = ?, failed_attempts = failed_attempts + 1
		WHERE url = ? AND status IN (?, ?)`,
		string(models.SiteStatusQuarantined), c.now().UTC(), canonical,
		string(models.SiteStatusActive), string(models.SiteStatusQuarantined))
	if err != nil {
		return fmt.Errorf("failed to quarantine %s: %w", canonical, err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("quarantine: no active or quarantined row for %s", canonical)
	}

	c.logger.Info().Str("url", canonical).Str("reason", reason).Msg("Site quarantined")
	return nil
}

// Reactivate transitions a quarantined row back to active with a fresh
// confidence score and a reset failure counter.
func (c *CatalogStorage) Reactivate(ctx context.Context, url string, confidence int) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	canonical := common.CanonicalizeURL(url)
	result, err := c.db.DB().ExecContext(ctx, `
		UPDATE sites
		SET status = ?, is_active = 1, last_verified = ?, confidence_score = ?, failed_attempts = 0
		WHERE url = ? AND status = ?`,
		string(models.SiteStatusActive), c.now().UTC(), clampConfidence(confidence),
		canonical, string(models.SiteStatusQuarantined))
	if err != nil {
		return fmt.Errorf("failed to reactivate %s: %w", canonical, err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("reactivate: no quarantined row for %s", canonical)
	}

	c.logger.Info().Str("url", canonical).Int("confidence", clampConfidence(confidence)).Msg("Site reactivated")
	return nil
}

// Deactivate is the terminal transition after the failure threshold
func (c *CatalogStorage) Deactivate(ctx context.Context, url string) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	canonical := common.CanonicalizeURL(url)
	result, err := c.db.DB().ExecContext(ctx, `
		UPDATE sites
		SET status = ?, is_active = 0, last_verified = ?
		WHERE url = ?`,
		string(models.SiteStatusInactive), c.now().UTC(), canonical)
	if err != nil {
		return fmt.Errorf("failed to deactivate %s: %w", canonical, err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("deactivate: no row for %s", canonical)
	}

	c.logger.Info().Str("url", canonical).Msg("Site deactivated")
	return nil
}

// CountAddedSince returns the number of rows inserted at or after t
func (c *CatalogStorage) CountAddedSince(ctx context.Context, t time.Time) (int, error) {
	var count int
	err := c.db.DB().QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sites WHERE created_at >= ?`, t.UTC()).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count recent sites: %w", err)
	}
	return count, nil
}

// Status summarizes the catalog for the reporting agent
func (c *CatalogStorage) Status(ctx context.Context) (*models.CatalogStatus, error) {
	status := &models.CatalogStatus{SourceBreakdown: make(map[string]int)}

	rows, err := c.db.DB().QueryContext(ctx, `SELECT status, COUNT(*) FROM sites GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("failed to summarize catalog: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var s string
		var n int
		if err := rows.Scan(&s, &n); err != nil {
			return nil, fmt.Errorf("failed to scan status count: %w", err)
		}
		status.TotalSites += n
		switch models.SiteStatus(s) {
		case models.SiteStatusActive:
			status.ActiveSites = n
		case models.SiteStatusQuarantined:
			status.QuarantinedSites = n
		case models.SiteStatusInactive:
			status.InactiveSites = n
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	srcRows, err := c.db.DB().QueryContext(ctx, `SELECT source, COUNT(*) FROM sites GROUP BY source ORDER BY COUNT(*) DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to read source breakdown: %w", err)
	}
	defer srcRows.Close()
	for srcRows.Next() {
		var src string
		var n int
		if err := srcRows.Scan(&src, &n); err != nil {
			return nil, fmt.Errorf("failed to scan source count: %w", err)
		}
		status.SourceBreakdown[src] = n
	}
	if err := srcRows.Err(); err != nil {
		return nil, err
	}

	added, err := c.CountAddedSince(ctx, c.now().Add(-time.Hour))
	if err != nil {
		return nil, err
	}
	status.AddedLastHour = added

	var last sql.NullTime
	if err := c.db.DB().QueryRowContext(ctx, `SELECT MAX(last_verified) FROM sites`).Scan(&last); err == nil && last.Valid {
		status.LastActivity = last.Time
	}

	return status, nil
}

// Close closes the underlying connection
func (c *CatalogStorage) Close() error {
	return c.db.Close()
}

const selectSiteSQL = `
	SELECT id, name, url, source, last_verified, confidence_score, is_active,
		status, category, llm_verified, llm_reasoning, failed_attempts
	FROM sites`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSite(row rowScanner) (*models.Site, error) {
	var site models.Site
	var source, status string
	var lastVerified sql.NullTime
	var category, reasoning sql.NullString
	var llmVerified sql.NullBool

	err := row.Scan(&site.ID, &site.Name, &site.URL, &source, &lastVerified,
		&site.ConfidenceScore, &site.IsActive, &status, &category,
		&llmVerified, &reasoning, &site.FailedAttempts)
	if err != nil {
		return nil, err
	}

	site.Source = models.SiteSource(source)
	site.Status = models.SiteStatus(status)
	if lastVerified.Valid {
		site.LastVerified = lastVerified.Time
	}
	if category.Valid {
		site.Category = category.String
	}
	if reasoning.Valid {
		site.LLMReasoning = reasoning.String
	}
	if llmVerified.Valid {
		v := llmVerified.Bool
		site.LLMVerified = &v
	}
	return &site, nil
}

func nullableString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
