package scraper

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

const cataloguePage = `<!DOCTYPE html>
<html>
<body>
<ul class="breadcrumb">
  <li><a href="/">Home</a></li>
  <li><a href="/catalogue">Books</a></li>
  <li>Poetry</li>
</ul>
<article class="product_pod">
  <h3><a href="a-light-in-the-attic" title="A Light in the Attic">A Light in...</a></h3>
  <p class="price_color">£51.77</p>
  <p class="instock availability">
      In stock
  </p>
</article>
<article class="product_pod">
  <h3><a href="tipping-the-velvet" title="Tipping the Velvet">Tipping the...</a></h3>
  <p class="price_color">£53.74</p>
  <p class="instock availability">
      In stock
  </p>
</article>
</body>
</html>`

func TestFetchParsesCataloguePage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(cataloguePage))
	}))
	defer srv.Close()

	books, err := New(srv.URL).Fetch(context.Background())
	if err != nil {
		t.Fatalf("fetch error: %v", err)
	}
	if len(books) != 2 {
		t.Fatalf("expected 2 books, got %d", len(books))
	}
	if books[0].Title != "A Light in the Attic" || books[0].Price != 51.77 {
		t.Fatalf("unexpected first book: %+v", books[0])
	}
	if books[0].Category != "Poetry" || books[1].Category != "Poetry" {
		t.Fatalf("expected breadcrumb category Poetry, got %q / %q", books[0].Category, books[1].Category)
	}
	if books[1].Availability != "In stock" {
		t.Fatalf("unexpected availability: %q", books[1].Availability)
	}
}

func TestFetchMissingBreadcrumb(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<article class="product_pod">
			<h3><a title="Lone Book">Lone Book</a></h3>
			<p class="price_color">£10.00</p>
			<p class="instock availability">In stock</p>
		</article>`))
	}))
	defer srv.Close()

	books, err := New(srv.URL).Fetch(context.Background())
	if err != nil {
		t.Fatalf("fetch error: %v", err)
	}
	if len(books) != 1 || books[0].Category != "Unknown" {
		t.Fatalf("expected single book with Unknown category, got %+v", books)
	}
}

func TestFetchServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	if _, err := New(srv.URL).Fetch(context.Background()); err == nil {
		t.Fatalf("expected error for non-2xx status")
	}
}
