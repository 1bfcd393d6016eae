package feed_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/todosparaunoSPE/PROFEPA-proyecto-2/internal/config"
	"github.com/todosparaunoSPE/PROFEPA-proyecto-2/internal/feed"
	"github.com/todosparaunoSPE/PROFEPA-proyecto-2/internal/models"
)

const sampleRSS = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>"incendio forestal" - Google Noticias</title>
    <item>
      <title>Incendio forestal consume 200 hectáreas en Jalisco - El Informador</title>
      <link>https://news.example/a</link>
      <pubDate>Mon, 03 Jun 2024 14:00:00 GMT</pubDate>
      <description>&lt;a href="https://news.example/a"&gt;Incendio en Jalisco&lt;/a&gt;&amp;nbsp;&amp;nbsp;&lt;font color="#6f6f6f"&gt;El Informador&lt;/font&gt;</description>
    </item>
    <item>
      <title>Reportan tala ilegal en Oaxaca</title>
      <link>https://news.example/b</link>
      <pubDate>Tue, 04 Jun 2024 09:30:00 GMT</pubDate>
      <description>Comunidades denuncian tala</description>
    </item>
  </channel>
</rss>`

const emptyRSS = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0"><channel><title>nada</title></channel></rss>`

func feedConfig(base string) config.Feed {
	return config.Feed{
		BaseURL:   base,
		Language:  "es-419",
		Region:    "MX",
		Edition:   "MX:es-419",
		Timeout:   2 * time.Second,
		UserAgent: "incident-radar-test",
	}
}

func TestBuildURL(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  string
	}{
		{
			name:  "spaces become %20",
			query: "incendio forestal",
			want:  "https://news.google.com/rss/search?q=incendio%20forestal&hl=es-419&gl=MX&ceid=MX:es-419",
		},
		{
			name:  "accents are percent encoded",
			query: "derrame de petróleo",
			want:  "https://news.google.com/rss/search?q=derrame%20de%20petr%C3%B3leo&hl=es-419&gl=MX&ceid=MX:es-419",
		},
		{
			name:  "reserved characters are escaped",
			query: "agua&residuos",
			want:  "https://news.google.com/rss/search?q=agua%26residuos&hl=es-419&gl=MX&ceid=MX:es-419",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := feed.BuildURL(feedConfig("https://news.google.com/rss/search"), tt.query)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestFetchParsesItemsInOrder(t *testing.T) {
	var gotQuery, gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("q")
		gotUA = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(sampleRSS))
	}))
	t.Cleanup(srv.Close)

	f := feed.New(feedConfig(srv.URL), nil)
	entries, err := f.Fetch(context.Background(), "incendio forestal")
	require.NoError(t, err)

	require.Equal(t, "incendio forestal", gotQuery)
	require.Equal(t, "incident-radar-test", gotUA)
	require.Len(t, entries, 2)
	require.Equal(t, models.NewsEntry{
		Title:       "Reportan tala ilegal en Oaxaca",
		PublishedAt: "Tue, 04 Jun 2024 09:30:00 GMT",
		Summary:     "Comunidades denuncian tala",
		Link:        "https://news.example/b",
	}, entries[1])
	require.Contains(t, entries[0].Summary, "Incendio en Jalisco")
	require.Equal(t, "https://news.example/a", entries[0].Link)
}

func TestFetchEmptyFeed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(emptyRSS))
	}))
	t.Cleanup(srv.Close)

	entries, err := feed.New(feedConfig(srv.URL), nil).Fetch(context.Background(), "sin resultados")
	require.NoError(t, err)
	require.NotNil(t, entries)
	require.Empty(t, entries)
}

func TestFetchFailures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "unavailable", http.StatusServiceUnavailable)
			},
		},
		{
			name: "malformed body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte("<html><body>captcha</body>"))
			},
		},
		{
			name: "empty body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			t.Cleanup(srv.Close)

			_, err := feed.New(feedConfig(srv.URL), nil).Fetch(context.Background(), "q")
			require.Error(t, err)
			require.True(t, errors.Is(err, feed.ErrFetch))
		})
	}
}

func TestFetchUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	_, err := feed.New(feedConfig(base), nil).Fetch(context.Background(), "q")
	require.ErrorIs(t, err, feed.ErrFetch)
}

func TestParseAtomFallbacks(t *testing.T) {
	atom := `<?xml version="1.0" encoding="utf-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <title>t</title>
  <entry>
    <title>Derrame en Tabasco</title>
    <link href="https://news.example/c"/>
    <updated>2024-06-05T10:00:00Z</updated>
    <content type="html">Pemex confirma fuga</content>
  </entry>
</feed>`

	entries, err := feed.Parse([]byte(atom))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "Derrame en Tabasco", entries[0].Title)
	require.Equal(t, "https://news.example/c", entries[0].Link)
	require.Equal(t, "2024-06-05T10:00:00Z", entries[0].PublishedAt)
	require.Equal(t, "Pemex confirma fuga", entries[0].Summary)
}
