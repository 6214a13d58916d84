// Package catalog reads the external artwork catalog API. The catalog is
// consumed, never modified; failures here must not touch cart state.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/sync/singleflight"
)

var ErrNotFound = errors.New("artwork not found")

// artworkFields is the projection requested from the catalog; everything the
// detail and listing views need and nothing more.
const artworkFields = "id,title,artist_display,date_display,image_id,medium_display,dimensions,description"

type Artwork struct {
	ID            int    `json:"id"`
	Title         string `json:"title"`
	ArtistDisplay string `json:"artist_display"`
	DateDisplay   string `json:"date_display"`
	MediumDisplay string `json:"medium_display"`
	Dimensions    string `json:"dimensions"`
	ImageID       string `json:"image_id"`
	Description   string `json:"description"`
}

// ImageURL derives the iiif rendition URL for the given pixel width.
func (a Artwork) ImageURL(imageBaseURL string, width int) string {
	if a.ImageID == "" {
		return ""
	}
	return fmt.Sprintf("%s/iiif/2/%s/full/%d,/0/default.jpg", imageBaseURL, a.ImageID, width)
}

type Client struct {
	HTTP         *http.Client
	BaseURL      string
	ImageBaseURL string

	sfg singleflight.Group // collapses concurrent fetches of the same artwork
}

func NewClient(baseURL, imageBaseURL string) *Client {
	return &Client{
		HTTP:         &http.Client{Timeout: 5 * time.Second},
		BaseURL:      baseURL,
		ImageBaseURL: imageBaseURL,
	}
}

// Artwork fetches one artwork by id. Concurrent calls for the same id share
// a single upstream request.
func (c *Client) Artwork(ctx context.Context, id int) (*Artwork, error) {
	v, err, _ := c.sfg.Do(strconv.Itoa(id), func() (interface{}, error) {
		u := fmt.Sprintf("%s/artworks/%d?fields=%s", c.BaseURL, id, artworkFields)
		var envelope struct {
			Data Artwork `json:"data"`
		}
		if err := c.getJSON(ctx, u, &envelope); err != nil {
			return nil, err
		}
		return &envelope.Data, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Artwork), nil
}

// Search queries the catalog full-text endpoint.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]Artwork, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	u := fmt.Sprintf("%s/artworks/search?q=%s&limit=%d&fields=%s",
		c.BaseURL, url.QueryEscape(query), limit, artworkFields)
	var envelope struct {
		Data []Artwork `json:"data"`
	}
	if err := c.getJSON(ctx, u, &envelope); err != nil {
		return nil, err
	}
	return envelope.Data, nil
}

// Related looks up a few other works by the same artist, for the detail view.
func (c *Client) Related(ctx context.Context, a Artwork) ([]Artwork, error) {
	if a.ArtistDisplay == "" {
		return nil, nil
	}
	works, err := c.Search(ctx, a.ArtistDisplay, 4)
	if err != nil {
		return nil, err
	}
	out := works[:0]
	for _, w := range works {
		if w.ID != a.ID && len(out) < 3 {
			out = append(out, w)
		}
	}
	return out, nil
}

func (c *Client) getJSON(ctx context.Context, u string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	res, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("catalog request: %w", err)
	}
	defer res.Body.Close()

	switch res.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return ErrNotFound
	default:
		return fmt.Errorf("catalog request failed: %s", res.Status)
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("decode catalog response: %w", err)
	}
	return nil
}
