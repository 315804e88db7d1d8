package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/lysyi3m/rsxml/internal/model"
	"github.com/lysyi3m/rsxml/internal/rsxml"
)

const rssDoc = `<?xml version="1.0"?>
<rss version="2.0"><channel><title>CLI Feed</title><link>https://example.com/</link>
<item><title>One</title><link>/one</link><guid>one</guid></item>
</channel></rss>`

const opmlDoc = `<?xml version="1.0"?>
<opml version="2.0"><head><title>Subs</title></head><body>
<outline text="Folder"><outline text="Feed" type="rss" xmlUrl="https://example.com/rss"/></outline>
</body></opml>`

func TestDetect(t *testing.T) {
	res := detect("feed.xml", []byte(rssDoc))
	assert.True(t, res.CanParse)
	assert.Equal(t, "rss", res.Parser)
	assert.Equal(t, "feed", res.Kind)
	assert.Empty(t, res.Error)

	res = detect("empty.xml", []byte("nope"))
	assert.False(t, res.CanParse)
	assert.NotEmpty(t, res.Error)
}

func TestParseFuncExpect(t *testing.T) {
	parse, err := parseFunc("")
	require.NoError(t, err)
	doc, err := parse(context.Background(), []byte(rssDoc), "https://example.com/feed.xml")
	require.NoError(t, err)
	assert.Equal(t, "feed", model.Kind(doc))

	parse, err = parseFunc("opml")
	require.NoError(t, err)
	_, err = parse(context.Background(), []byte(rssDoc), "https://example.com/feed.xml")
	assert.ErrorIs(t, err, rsxml.ErrExpectingOPML)

	_, err = parseFunc("podcast")
	assert.Error(t, err)
}

func TestParseCommandYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "feed.xml")
	require.NoError(t, os.WriteFile(path, []byte(rssDoc), 0o644))

	cmd := newParseCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--format", "yaml", "--url", "https://example.com/feed.xml", path})
	require.NoError(t, cmd.Execute())

	var got struct {
		Kind     string `yaml:"kind"`
		Document struct {
			Title    string `yaml:"title"`
			Articles []struct {
				Link string `yaml:"link"`
			} `yaml:"articles"`
		} `yaml:"document"`
	}
	require.NoError(t, yaml.Unmarshal(out.Bytes(), &got))
	assert.Equal(t, "feed", got.Kind)
	assert.Equal(t, "CLI Feed", got.Document.Title)
	require.Len(t, got.Document.Articles, 1)
	assert.Equal(t, "https://example.com/one", got.Document.Articles[0].Link)
}

func TestExportOPMLCommandFlatten(t *testing.T) {
	path := filepath.Join(t.TempDir(), "subs.opml")
	require.NoError(t, os.WriteFile(path, []byte(opmlDoc), 0o644))

	cmd := newExportOPMLCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--flatten", path})
	require.NoError(t, cmd.Execute())

	assert.Contains(t, out.String(), `xmlUrl="https://example.com/rss"`)
	assert.NotContains(t, out.String(), `text="Folder"`)
}

func TestEncodeUnknownFormat(t *testing.T) {
	assert.Error(t, encode(&bytes.Buffer{}, "toml", struct{}{}))
}
