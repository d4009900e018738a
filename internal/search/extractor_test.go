package search

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func articlePage(body string) string {
	return fmt.Sprintf(`<html>
<head><title>Relatorio de Mercado</title><script>var tracking = 1;</script></head>
<body>
	<nav>Home | Sobre | Contato</nav>
	<article>%s</article>
	<footer>Copyright 2024</footer>
</body>
</html>`, body)
}

func TestExtractStripsChrome(t *testing.T) {
	body := strings.Repeat("O mercado brasileiro de cafe segue em expansao. ", 10)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(articlePage(body)))
	}))
	defer server.Close()

	extractor := NewExtractor()
	page, err := extractor.Extract(context.Background(), server.URL)
	require.NoError(t, err)

	assert.Equal(t, "Relatorio de Mercado", page.Title)
	assert.Contains(t, page.Content, "mercado brasileiro de cafe")
	assert.NotContains(t, page.Content, "tracking")
	assert.NotContains(t, page.Content, "Copyright")
}

func TestExtractCapsContent(t *testing.T) {
	body := strings.Repeat("conteudo repetido para encher a pagina. ", 200)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(articlePage(body)))
	}))
	defer server.Close()

	extractor := NewExtractor()
	page, err := extractor.Extract(context.Background(), server.URL)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(page.Content), MaxPageChars)
}

func TestExtractCapKeepsValidUTF8(t *testing.T) {
	// The cap must not leave a split rune at the end of the content.
	body := "a" + strings.Repeat("é", 2*MaxPageChars)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(articlePage(body)))
	}))
	defer server.Close()

	extractor := NewExtractor()
	page, err := extractor.Extract(context.Background(), server.URL)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(page.Content), MaxPageChars)
	assert.True(t, utf8.ValidString(page.Content))
}

func TestExtractRejectsThinPages(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html><body>quase nada</body></html>"))
	}))
	defer server.Close()

	extractor := NewExtractor()
	_, err := extractor.Extract(context.Background(), server.URL)
	assert.Error(t, err)
}

func TestExtractRejectsHttpErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	extractor := NewExtractor()
	_, err := extractor.Extract(context.Background(), server.URL)
	assert.Error(t, err)
}

func TestExtractBatchSkipsFailures(t *testing.T) {
	body := strings.Repeat("pagina valida com conteudo suficiente para analise. ", 5)
	good := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(articlePage(body)))
	}))
	defer good.Close()

	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer bad.Close()

	extractor := NewExtractor()
	pages := extractor.ExtractBatch(context.Background(), []string{good.URL, bad.URL, good.URL + "/other"})
	assert.Len(t, pages, 2)
}
