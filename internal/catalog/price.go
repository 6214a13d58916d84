package catalog

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/artgallery/storefront/internal/domain"
)

var yearRe = regexp.MustCompile(`\d{4}`)

// Price derives a listing price from the artwork's attributes. The catalog
// carries no pricing data, so the gallery prices works by age and medium and
// rounds to the nearest hundred dollars.
func Price(a Artwork) domain.Money {
	const base = 1000.0

	year := 2000
	if m := yearRe.FindString(a.DateDisplay); m != "" {
		year, _ = strconv.Atoi(m)
	}
	ageMultiplier := float64(time.Now().Year()-year) / 100

	mediumMultiplier := 1.0
	medium := strings.ToLower(a.MediumDisplay)
	switch {
	case strings.Contains(medium, "sculpture"):
		mediumMultiplier = 2
	case strings.Contains(medium, "oil"):
		mediumMultiplier = 1.5
	case strings.Contains(medium, "acrylic"):
		mediumMultiplier = 1.2
	case strings.Contains(medium, "watercolor"):
		mediumMultiplier = 1.1
	}

	price := math.Round(base*(1+ageMultiplier)*mediumMultiplier/100) * 100
	return domain.USD(decimal.NewFromFloat(price))
}

// CartItem converts an artwork into the cart line shape, priced and with the
// 400px listing rendition as its image.
func (c *Client) CartItem(a Artwork) domain.CartItem {
	return domain.CartItem{
		ID:         strconv.Itoa(a.ID),
		Name:       a.Title,
		Artist:     a.ArtistDisplay,
		Image:      a.ImageURL(c.ImageBaseURL, 400),
		Dimensions: a.Dimensions,
		Price:      Price(a).Amount,
		Quantity:   1,
	}
}
