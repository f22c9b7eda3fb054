package features

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchemaIsStable(t *testing.T) {
	schema := Schema()
	require.Len(t, schema, len(baseFeatures)+len(SportsKeywords))
	assert.Equal(t, "has_video_tag", schema[0])
	assert.Equal(t, "keyword_density_live", schema[len(baseFeatures)])
	assert.Equal(t, schema, Schema(), "ordering must not vary between calls")
}

func TestExtractCoversSchema(t *testing.T) {
	vector := Extract("<html><body>hello</body></html>", "https://example.app")
	for _, name := range Schema() {
		_, ok := vector[name]
		assert.True(t, ok, "missing feature %s", name)
	}
}

func TestExtractEmptyBody(t *testing.T) {
	vector := Extract("", "https://example.app/path/one")

	// URL-derived features survive an empty body
	assert.Equal(t, float64(len("example.app")), vector["domain_length"])
	assert.Equal(t, 2.0, vector["path_depth"])
	// Everything content-derived stays zero
	assert.Equal(t, 0.0, vector["has_video_tag"])
	assert.Equal(t, 0.0, vector["link_count"])
	assert.Equal(t, 0.0, vector["total_sports_keyword_density"])
}

func TestExtractTechnicalFeatures(t *testing.T) {
	body := `<html><head><title>Watch NFL Live Stream</title>
		<meta name="description" content="free nfl streams"></head>
		<body>
		<video src="game.mp4"></video>
		<iframe src="https://embed.example/player"></iframe>
		<iframe src="https://embed.example/chat"></iframe>
		<script src="jwplayer.js"></script>
		<a href="https://other.site/page">out</a>
		<a href="/local">in</a>
		</body></html>`

	vector := Extract(body, "https://streameast.app/nfl")

	assert.Equal(t, 1.0, vector["has_video_tag"])
	assert.Equal(t, 1.0, vector["has_iframe"])
	assert.Equal(t, 2.0, vector["iframe_count"])
	assert.Equal(t, 1.0, vector["script_count"])
	assert.Equal(t, 2.0, vector["link_count"])
	assert.Equal(t, 1.0, vector["external_link_count"])
	assert.Equal(t, 1.0, vector["url_has_sports_keyword"])
	assert.Equal(t, 1.0, vector["url_has_stream_keyword"])
	assert.Equal(t, 1.0, vector["title_has_sports"])
	assert.Equal(t, 1.0, vector["title_has_stream"])
	assert.Equal(t, 1.0, vector["meta_has_sports"])
	assert.Greater(t, vector["dom_depth"], 0.0)
	assert.Greater(t, vector["html_size"], 0.0)
}

func TestExtractKeywordDensity(t *testing.T) {
	body := `<html><body>watch the live stream now live</body></html>`
	vector := Extract(body, "https://example.app")

	// 6 words, "live" appears twice
	assert.InDelta(t, 2.0/6.0, vector["keyword_density_live"], 0.0001)
	assert.Greater(t, vector["total_sports_keyword_density"], 0.0)
}

func TestExtractNeutralPage(t *testing.T) {
	body := `<html><head><title>Cooking recipes</title></head>
		<body><p>How to bake bread at home.</p></body></html>`
	vector := Extract(body, "https://bakery.example/recipes")

	assert.Equal(t, 0.0, vector["has_video_tag"])
	assert.Equal(t, 0.0, vector["has_iframe"])
	assert.Equal(t, 0.0, vector["title_has_stream"])
	assert.Equal(t, 0.0, vector["url_has_stream_keyword"])
}
