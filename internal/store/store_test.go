package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lysyi3m/rsxml/internal/model"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "rsxml.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return New(db)
}

func testFeed(parsed time.Time) *model.Feed {
	f := model.NewFeed("https://example.com/feed.xml", parsed)
	f.Title = "Example"
	f.Link = "https://example.com/"

	older := time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)
	newer := time.Date(2024, 1, 2, 8, 0, 0, 0, time.UTC)

	i := f.AddArticle()
	f.Articles[i].GUID = "a"
	f.Articles[i].Title = "Older"
	f.Articles[i].DatePublished = &older
	f.Articles[i].Categories = []string{"x", "y"}
	f.Articles[i].Enclosures = []model.Enclosure{{URL: "https://example.com/a.mp3", Type: "audio/mpeg", Length: 3}}

	i = f.AddArticle()
	f.Articles[i].GUID = "b"
	f.Articles[i].Title = "Newer"
	f.Articles[i].DatePublished = &newer

	for i := range f.Articles {
		f.Articles[i].Seal()
	}
	return f
}

func TestSaveFeed(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	parsed := time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC)

	inserted, err := s.SaveFeed(ctx, testFeed(parsed))
	require.NoError(t, err)
	assert.Equal(t, 2, inserted)

	again := testFeed(parsed)
	again.Articles[0].Title = "Older, edited"
	inserted, err = s.SaveFeed(ctx, again)
	require.NoError(t, err)
	assert.Equal(t, 0, inserted)

	stats, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, Stats{Feeds: 1, Articles: 2}, stats)

	f, err := s.Feed(ctx, "https://example.com/feed.xml")
	require.NoError(t, err)
	require.NotNil(t, f)
	assert.Equal(t, "Example", f.Title)
	assert.True(t, parsed.Equal(f.DateParsed))
}

func TestArticlesNewestFirst(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	original := testFeed(time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC))
	_, err := s.SaveFeed(ctx, original)
	require.NoError(t, err)

	articles, err := s.Articles(ctx, original.URL, 0)
	require.NoError(t, err)
	require.Len(t, articles, 2)

	assert.Equal(t, "Newer", articles[0].Title)
	assert.Equal(t, original.Articles[1].ArticleID(), articles[0].ArticleID())
	assert.Equal(t, original.Articles[0].ArticleID(), articles[1].ArticleID())
	assert.Equal(t, []string{"x", "y"}, articles[1].Categories)
	assert.Equal(t, original.Articles[0].Enclosures, articles[1].Enclosures)
	assert.Equal(t, original.URL, articles[1].FeedURL())

	limited, err := s.Articles(ctx, original.URL, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestUnknownFeed(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	f, err := s.Feed(ctx, "https://nowhere.test/")
	require.NoError(t, err)
	assert.Nil(t, f)

	articles, err := s.Articles(ctx, "https://nowhere.test/", 10)
	require.NoError(t, err)
	assert.Empty(t, articles)
}

func TestSaveFeedRequiresURL(t *testing.T) {
	s := openTestStore(t)

	_, err := s.SaveFeed(context.Background(), model.NewFeed("", time.Now()))
	assert.Error(t, err)
}

func TestMigrationsAreIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rsxml.db")

	db, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	db, err = Open(path)
	require.NoError(t, err)
	defer db.Close()

	version, dirty, err := RunMigrations(db)
	require.NoError(t, err)
	assert.Equal(t, uint(1), version)
	assert.False(t, dirty)
}
