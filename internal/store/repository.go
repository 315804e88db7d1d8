package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lysyi3m/rsxml/internal/model"
)

var _ Repository = (*Store)(nil)

type Repository interface {
	SaveFeed(ctx context.Context, f *model.Feed) (int, error)
	Feed(ctx context.Context, url string) (*model.Feed, error)
	Articles(ctx context.Context, feedURL string, limit int) ([]model.Article, error)
	Stats(ctx context.Context) (Stats, error)
}

type Stats struct {
	Feeds    int `json:"feeds"`
	Articles int `json:"articles"`
}

// Store persists parsed feeds. Articles are keyed by their article ID, so
// saving the same feed twice updates rather than duplicates.
type Store struct {
	db *DB
}

func New(db *DB) *Store {
	return &Store{db: db}
}

// SaveFeed upserts the feed and its articles and returns how many articles
// were new.
func (s *Store) SaveFeed(ctx context.Context, f *model.Feed) (int, error) {
	if f == nil || f.URL == "" {
		return 0, fmt.Errorf("failed to save feed: feed URL is required")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC().Unix()
	_, err = tx.ExecContext(ctx, `
		INSERT INTO feeds (url, title, link, subtitle, language, date_updated, last_parsed_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (url) DO UPDATE SET
			title = excluded.title,
			link = excluded.link,
			subtitle = excluded.subtitle,
			language = excluded.language,
			date_updated = excluded.date_updated,
			last_parsed_at = excluded.last_parsed_at
	`, f.URL, f.Title, f.Link, f.Subtitle, f.Language, unixOrNull(f.DateUpdated), f.DateParsed.Unix(), now)
	if err != nil {
		return 0, fmt.Errorf("failed to upsert feed: %w", err)
	}

	inserted := 0
	for i := range f.Articles {
		a := &f.Articles[i]
		a.Seal()

		isNew, err := upsertArticle(ctx, tx, f.URL, a, now)
		if err != nil {
			return 0, err
		}
		if isNew {
			inserted++
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit feed: %w", err)
	}

	return inserted, nil
}

func upsertArticle(ctx context.Context, tx *sql.Tx, feedURL string, a *model.Article, now int64) (bool, error) {
	var exists int
	err := tx.QueryRowContext(ctx, `SELECT 1 FROM articles WHERE article_id = ?`, a.ArticleID()).Scan(&exists)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return false, fmt.Errorf("failed to check article: %w", err)
	}

	categories, err := json.Marshal(nonNil(a.Categories))
	if err != nil {
		return false, fmt.Errorf("failed to encode categories: %w", err)
	}
	enclosures, err := json.Marshal(nonNil(a.Enclosures))
	if err != nil {
		return false, fmt.Errorf("failed to encode enclosures: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO articles (
			article_id, feed_url, guid, title, abstract, body, link, permalink, author,
			categories, enclosures, date_published, date_modified, date_parsed, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (article_id) DO UPDATE SET
			title = excluded.title,
			abstract = excluded.abstract,
			body = excluded.body,
			link = excluded.link,
			permalink = excluded.permalink,
			author = excluded.author,
			categories = excluded.categories,
			enclosures = excluded.enclosures,
			date_modified = excluded.date_modified,
			date_parsed = excluded.date_parsed
	`, a.ArticleID(), feedURL, a.GUID, a.Title, a.Abstract, a.Body, a.Link, a.Permalink, a.Author,
		string(categories), string(enclosures), unixOrNull(a.DatePublished), unixOrNull(a.DateModified),
		a.DateParsed().Unix(), now)
	if err != nil {
		return false, fmt.Errorf("failed to store article: %w", err)
	}

	return exists == 0, nil
}

// Feed returns the stored feed without articles, or nil when unknown.
func (s *Store) Feed(ctx context.Context, url string) (*model.Feed, error) {
	var (
		f           model.Feed
		dateUpdated sql.NullInt64
		parsedAt    int64
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT url, title, link, subtitle, language, date_updated, last_parsed_at
		FROM feeds WHERE url = ?
	`, url).Scan(&f.URL, &f.Title, &f.Link, &f.Subtitle, &f.Language, &dateUpdated, &parsedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get feed: %w", err)
	}

	f.DateParsed = time.Unix(parsedAt, 0).UTC()
	f.DateUpdated = timeOrNil(dateUpdated)
	return &f, nil
}

// Articles lists a feed's stored articles, newest first. A limit of zero or
// less means no limit.
func (s *Store) Articles(ctx context.Context, feedURL string, limit int) ([]model.Article, error) {
	if limit <= 0 {
		limit = -1
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT guid, title, abstract, body, link, permalink, author,
			categories, enclosures, date_published, date_modified, date_parsed
		FROM articles
		WHERE feed_url = ?
		ORDER BY COALESCE(date_published, date_parsed) DESC, article_id
		LIMIT ?
	`, feedURL, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query articles: %w", err)
	}
	defer rows.Close()

	var articles []model.Article
	for rows.Next() {
		var (
			categories, enclosures string
			published, modified    sql.NullInt64
			parsed                 int64
			guid, title, abstract  string
			body, link, permalink  string
			author                 string
		)
		err := rows.Scan(&guid, &title, &abstract, &body, &link, &permalink, &author,
			&categories, &enclosures, &published, &modified, &parsed)
		if err != nil {
			return nil, fmt.Errorf("failed to scan article: %w", err)
		}

		a := model.NewArticle(feedURL, time.Unix(parsed, 0).UTC())
		a.GUID = guid
		a.Title = title
		a.Abstract = abstract
		a.Body = body
		a.Link = link
		a.Permalink = permalink
		a.Author = author
		a.DatePublished = timeOrNil(published)
		a.DateModified = timeOrNil(modified)
		if err := json.Unmarshal([]byte(categories), &a.Categories); err != nil {
			return nil, fmt.Errorf("failed to decode categories: %w", err)
		}
		if err := json.Unmarshal([]byte(enclosures), &a.Enclosures); err != nil {
			return nil, fmt.Errorf("failed to decode enclosures: %w", err)
		}
		a.Seal()
		articles = append(articles, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate articles: %w", err)
	}

	return articles, nil
}

func (s *Store) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	err := s.db.QueryRowContext(ctx, `
		SELECT (SELECT COUNT(*) FROM feeds), (SELECT COUNT(*) FROM articles)
	`).Scan(&st.Feeds, &st.Articles)
	if err != nil {
		return Stats{}, fmt.Errorf("failed to get stats: %w", err)
	}
	return st, nil
}

func unixOrNull(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Unix()
}

func timeOrNil(v sql.NullInt64) *time.Time {
	if !v.Valid {
		return nil
	}
	t := time.Unix(v.Int64, 0).UTC()
	return &t
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
