package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestURL_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, DefaultUserAgent, r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<html><body><h1>Test</h1></body></html>"))
	}))
	defer server.Close()

	result, err := URL(context.Background(), server.URL, nil)
	require.NoError(t, err)
	assert.Equal(t, server.URL, result.URL)
	assert.Contains(t, result.HTML, "<h1>Test</h1>")
	assert.Equal(t, http.StatusOK, result.StatusCode)
	assert.Equal(t, "text/html", result.ContentType)
}

func TestURL_InvalidURL(t *testing.T) {
	for _, raw := range []string{"not-a-valid-url", "file:///etc/passwd", "https://"} {
		_, err := URL(context.Background(), raw, nil)
		var fetchErr *Error
		require.ErrorAs(t, err, &fetchErr, raw)
		assert.Contains(t, err.Error(), "invalid URL")
	}
}

func TestURL_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	result, err := URL(context.Background(), server.URL, nil)
	require.Error(t, err)
	require.NotNil(t, result)
	assert.Equal(t, http.StatusNotFound, result.StatusCode)
	assert.Contains(t, err.Error(), "404")
}

func TestExtractMainText_PrefersContentSelector(t *testing.T) {
	html := `
	<html><body>
		<nav>Navigation</nav>
		<div class="sidebar">Sidebar junk</div>
		<div class="job-description">
			<h2>Requirements</h2>
			<ul><li>5 years   of Go</li><li>PostgreSQL</li></ul>
		</div>
		<footer>Footer</footer>
	</body></html>`

	text, err := ExtractMainText(html, []string{".job-description", "main"})
	require.NoError(t, err)
	assert.Equal(t, "Requirements\n5 years of Go\nPostgreSQL", text)
}

func TestExtractMainText_RemovesNoise(t *testing.T) {
	html := `<html><body><main><p>Build APIs.</p><form>Apply now</form><div class="eeo-statement">EEO</div></main></body></html>`

	text, err := ExtractMainText(html, []string{"main"}, "form", ".eeo-statement")
	require.NoError(t, err)
	assert.Equal(t, "Build APIs.", text)
}

func TestExtractMainText_FallbackToBody(t *testing.T) {
	text, err := ExtractMainText(`<html><body><div>Some content here.</div><script>var x</script></body></html>`, []string{"article"})
	require.NoError(t, err)
	assert.Equal(t, "Some content here.", text)
}

func TestJobPageText(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html><body><header>Acme</header><main><h1>Backend Engineer</h1><p>Go and Kafka.</p></main></body></html>`))
	}))
	defer server.Close()

	text, platform, err := JobPageText(context.Background(), server.URL+"/jobs/1", false, nil)
	require.NoError(t, err)
	assert.Equal(t, PlatformUnknown, platform)
	assert.Equal(t, "Backend Engineer\nGo and Kafka.", text)
	assert.True(t, ShouldUseBrowser(text))
}

func TestShouldUseBrowser(t *testing.T) {
	assert.True(t, ShouldUseBrowser("   short   "))
	assert.False(t, ShouldUseBrowser(strings.Repeat("x", MinContentLength)))
}
