package scraper

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"filing-tracker/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const articlePage = `<!DOCTYPE html>
<html>
<head><title>Acme Corp reports record results</title></head>
<body>
<nav><a href="/">Home</a><a href="/markets">Markets</a></nav>
<div id="content">
<p>Acme Corp on Monday reported record quarterly results, with revenue rising
sharply as demand for its flagship products continued to outpace analyst
expectations across every region the company operates in.</p>
<p>The company said net income climbed to a new high, and management raised
its full year guidance, citing a strong order book, improving margins, and
continued momentum in its subscription business.</p>
</div>
<footer>Copyright Acme News</footer>
</body>
</html>`

func TestDocumentExtractor(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(articlePage))
	}))
	defer server.Close()

	e := NewDocumentExtractor(server.Client(), logger.NewNop())
	text, err := e.Extract(context.Background(), server.URL)
	require.NoError(t, err)

	assert.Contains(t, text, "record quarterly results")
	assert.Contains(t, text, "raised its full year guidance")
	assert.NotContains(t, text, "Copyright Acme News")
	assert.NotContains(t, text, "Markets")
}

func TestDocumentExtractorEmptyPage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html><body><div>no paragraphs here</div></body></html>"))
	}))
	defer server.Close()

	e := NewDocumentExtractor(server.Client(), logger.NewNop())
	text, err := e.Extract(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Equal(t, "", text)
}

func TestReadabilityExtractor(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(articlePage))
	}))
	defer server.Close()

	e := NewReadabilityExtractor(server.Client(), logger.NewNop())
	text, err := e.Extract(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Contains(t, text, "record quarterly results")
}

func TestExtractorsRejectNon200(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	_, err := NewReadabilityExtractor(server.Client(), logger.NewNop()).Extract(context.Background(), server.URL)
	assert.Error(t, err)

	_, err = NewDocumentExtractor(server.Client(), logger.NewNop()).Extract(context.Background(), server.URL)
	assert.Error(t, err)
}
