package view_test

import (
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/andyle182810/dogview/internal/dogapi"
	"github.com/andyle182810/dogview/internal/fetch"
	"github.com/andyle182810/dogview/internal/view"
	"github.com/stretchr/testify/require"
)

func render(t *testing.T, page view.Page) *goquery.Document {
	t.Helper()

	html, err := view.RenderString(page)
	require.NoError(t, err)

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)

	return doc
}

func TestRender_SuccessShowsStatusAndImage(t *testing.T) {
	t.Parallel()

	doc := render(t, view.Page{
		Snapshot: fetch.Snapshot[dogapi.Image]{
			URL:      "https://dog.ceo/api/breeds/image/random",
			State:    fetch.StateSuccess,
			Response: &dogapi.Image{Status: "success", Message: "http://x/y.jpg"},
			Error:    "",
		},
		Refresh: 0,
	})

	require.Equal(t, "success", doc.Find("div.App h3").Text())

	src, ok := doc.Find("div.App img").Attr("src")
	require.True(t, ok)
	require.Equal(t, "http://x/y.jpg", src)

	alt, _ := doc.Find("div.App img").Attr("alt")
	require.Equal(t, "avatar", alt)

	require.Equal(t, 0, doc.Find(".loading").Length())
}

func TestRender_LoadingShowsPlaceholder(t *testing.T) {
	t.Parallel()

	doc := render(t, view.Page{
		Snapshot: fetch.Snapshot[dogapi.Image]{State: fetch.StateLoading}, //nolint:exhaustruct
		Refresh:  time.Second,
	})

	require.Equal(t, view.LoadingText, doc.Find(".loading").Text())
	require.Equal(t, 0, doc.Find("img").Length())

	content, ok := doc.Find(`meta[http-equiv="refresh"]`).Attr("content")
	require.True(t, ok)
	require.Equal(t, "1", content)
}

func TestRender_IdleShowsPlaceholderWithoutRefresh(t *testing.T) {
	t.Parallel()

	doc := render(t, view.Page{
		Snapshot: fetch.Snapshot[dogapi.Image]{State: fetch.StateIdle}, //nolint:exhaustruct
		Refresh:  time.Second,
	})

	require.Equal(t, view.LoadingText, doc.Find(".loading").Text())
	require.Equal(t, 0, doc.Find(`meta[http-equiv="refresh"]`).Length())
}

func TestRender_ErrorKeepsPlaceholderAndShowsMessage(t *testing.T) {
	t.Parallel()

	doc := render(t, view.Page{
		Snapshot: fetch.Snapshot[dogapi.Image]{ //nolint:exhaustruct
			State: fetch.StateError,
			Error: "dogapi: request failed: connection refused",
		},
		Refresh: time.Second,
	})

	require.Equal(t, view.LoadingText, doc.Find(".loading").Text())
	require.Equal(t, "dogapi: request failed: connection refused", doc.Find("p.error").Text())
	require.Equal(t, 0, doc.Find(`meta[http-equiv="refresh"]`).Length())
}

func TestRender_PreviousResponseStaysVisibleWhileReloading(t *testing.T) {
	t.Parallel()

	doc := render(t, view.Page{
		Snapshot: fetch.Snapshot[dogapi.Image]{ //nolint:exhaustruct
			State:    fetch.StateLoading,
			Response: &dogapi.Image{Status: "success", Message: "http://x/old.jpg"},
		},
		Refresh: 2 * time.Second,
	})

	src, _ := doc.Find("img").Attr("src")
	require.Equal(t, "http://x/old.jpg", src)

	content, _ := doc.Find(`meta[http-equiv="refresh"]`).Attr("content")
	require.Equal(t, "2", content)
}

func TestRender_EscapesUnsafeValues(t *testing.T) {
	t.Parallel()

	html, err := view.RenderString(view.Page{
		Snapshot: fetch.Snapshot[dogapi.Image]{ //nolint:exhaustruct
			State:    fetch.StateSuccess,
			Response: &dogapi.Image{Status: "<script>alert(1)</script>", Message: "javascript:alert(1)"},
		},
		Refresh: 0,
	})
	require.NoError(t, err)

	require.NotContains(t, html, "<script>alert(1)</script>")
	require.NotContains(t, html, `src="javascript:alert(1)"`)
}
