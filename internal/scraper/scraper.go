// Package scraper pulls the public book catalogue page used to seed the
// recommendation table.
package scraper

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/formation-jira/valo/internal/model"
)

type Scraper struct {
	url    string
	client *http.Client
}

func New(url string) *Scraper {
	return &Scraper{
		url:    url,
		client: &http.Client{Timeout: 15 * time.Second},
	}
}

// Fetch downloads and parses the catalogue page. The category comes from the
// breadcrumb; each product card yields title, price, and availability.
func (s *Scraper) Fetch(ctx context.Context) ([]model.RecommendedBook, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch catalogue: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("catalogue returned status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse catalogue: %w", err)
	}

	category := "Unknown"
	breadcrumb := doc.Find("ul.breadcrumb li")
	if breadcrumb.Length() > 2 {
		category = strings.TrimSpace(breadcrumb.Eq(2).Text())
	}

	var books []model.RecommendedBook
	doc.Find("article.product_pod").Each(func(_ int, card *goquery.Selection) {
		title, ok := card.Find("h3 a").Attr("title")
		if !ok {
			return
		}
		priceText := strings.TrimSpace(card.Find("p.price_color").Text())
		price, err := strconv.ParseFloat(strings.TrimPrefix(priceText, "£"), 64)
		if err != nil {
			return
		}
		availability := strings.TrimSpace(card.Find("p.instock.availability").Text())

		books = append(books, model.RecommendedBook{
			Title:        title,
			Price:        price,
			Category:     category,
			Availability: availability,
		})
	})

	return books, nil
}
