package crawler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractLinks(t *testing.T) {
	body := `<html><body>
		<a href="https://streameast.app/nfl">Watch NFL live</a>
		<a href="/schedule">Schedule</a>
		<a href="#top">Top</a>
		<a href="javascript:void(0)">Menu</a>
		<a href="mailto:a@b.c">Mail</a>
		<a href="https://streameast.app/nfl">Duplicate</a>
		</body></html>`

	links := extractLinks(body, "https://streameast.app", 10)
	require.Len(t, links, 2)

	assert.Equal(t, "https://streameast.app/nfl", links[0].URL)
	assert.Equal(t, "Watch NFL live", links[0].Anchor)
	assert.Greater(t, links[0].Score, 0.0)

	assert.Equal(t, "https://streameast.app/schedule", links[1].URL)
}

func TestExtractLinksHonorsLimit(t *testing.T) {
	body := `<body>
		<a href="https://a.app/1">one</a>
		<a href="https://a.app/2">two</a>
		<a href="https://a.app/3">three</a>
		</body>`
	links := extractLinks(body, "https://a.app", 2)
	assert.Len(t, links, 2)
}

func TestExtractLinksEmptyBody(t *testing.T) {
	assert.Empty(t, extractLinks("", "https://a.app", 10))
}

func TestExtractLinksRelevanceScoring(t *testing.T) {
	body := `<body>
		<a href="https://a.app/live-streams">Watch live streams</a>
		<a href="https://a.app/privacy">Privacy policy</a>
		</body>`
	links := extractLinks(body, "https://a.app", 10)
	require.Len(t, links, 2)
	assert.Greater(t, links[0].Score, links[1].Score)
	assert.Equal(t, 0.0, links[1].Score)
}
