package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	freePromotionsURL = "https://store-site-backend-static-ipv4.ak.epicgames.com/freeGamesPromotions"
	storeBaseURL      = "https://store.epicgames.com"
)

var (
	// ErrCatalogUnavailable covers transport errors and non-success status
	// codes from the promotions endpoint.
	ErrCatalogUnavailable = errors.New("catalog unavailable")
	// ErrCatalogSchema means the response decoded but the expected nesting
	// was absent.
	ErrCatalogSchema = errors.New("unexpected catalog response structure")
)

// Catalog queries the storefront's public promotions endpoint. Pure read, no
// session required; safe to call repeatedly and concurrently.
type Catalog struct {
	client  *http.Client
	baseURL string
	now     func() time.Time
}

func NewCatalog() *Catalog {
	return &Catalog{
		client:  &http.Client{Timeout: 30 * time.Second},
		baseURL: freePromotionsURL,
		now:     time.Now,
	}
}

// FreeOffers is the split promotions listing: offers free right now and
// offers announced as free later.
type FreeOffers struct {
	Current  []Offer `json:"current"`
	Upcoming []Offer `json:"upcoming"`
}

type promoWindow struct {
	StartDate       string `json:"startDate"`
	EndDate         string `json:"endDate"`
	DiscountSetting struct {
		DiscountPercentage *int `json:"discountPercentage"`
	} `json:"discountSetting"`
}

type promoGroup struct {
	PromotionalOffers []promoWindow `json:"promotionalOffers"`
}

type catalogElement struct {
	Title       string `json:"title"`
	ID          string `json:"id"`
	Namespace   string `json:"namespace"`
	Description string `json:"description"`
	OfferType   string `json:"offerType"`
	ProductSlug string `json:"productSlug"`
	URLSlug     string `json:"urlSlug"`
	CatalogNs   struct {
		Mappings []struct {
			PageSlug string `json:"pageSlug"`
			PageType string `json:"pageType"`
		} `json:"mappings"`
	} `json:"catalogNs"`
	KeyImages []struct {
		Type string `json:"type"`
		URL  string `json:"url"`
	} `json:"keyImages"`
	Promotions *struct {
		PromotionalOffers         []promoGroup `json:"promotionalOffers"`
		UpcomingPromotionalOffers []promoGroup `json:"upcomingPromotionalOffers"`
	} `json:"promotions"`
}

type promotionsResponse struct {
	Data *struct {
		Catalog *struct {
			SearchStore *struct {
				Elements []catalogElement `json:"elements"`
			} `json:"searchStore"`
		} `json:"Catalog"`
	} `json:"data"`
}

// FetchFreeOffers lists the promotions that are fully free: "current" offers
// whose active window contains now, and "upcoming" ones.
func (c *Catalog) FetchFreeOffers(locale, country string) (*FreeOffers, error) {
	reqURL, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCatalogUnavailable, err)
	}
	q := reqURL.Query()
	q.Set("locale", locale)
	q.Set("country", country)
	q.Set("allowCountries", country)
	reqURL.RawQuery = q.Encode()

	resp, err := c.client.Get(reqURL.String())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCatalogUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: HTTP %d", ErrCatalogUnavailable, resp.StatusCode)
	}

	var parsed promotionsResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCatalogSchema, err)
	}
	if parsed.Data == nil || parsed.Data.Catalog == nil || parsed.Data.Catalog.SearchStore == nil {
		return nil, ErrCatalogSchema
	}

	now := c.now()
	offers := &FreeOffers{}
	for _, el := range parsed.Data.Catalog.SearchStore.Elements {
		if el.Promotions == nil {
			continue
		}
		for _, group := range el.Promotions.PromotionalOffers {
			for _, window := range group.PromotionalOffers {
				if !isFullyFree(window) {
					continue
				}
				start, end := parsePromoTime(window.StartDate), parsePromoTime(window.EndDate)
				if !start.IsZero() && !end.IsZero() && !start.After(now) && !now.After(end) {
					offers.Current = append(offers.Current, makeOffer(el, locale, start, end))
				}
			}
		}
		for _, group := range el.Promotions.UpcomingPromotionalOffers {
			for _, window := range group.PromotionalOffers {
				if !isFullyFree(window) {
					continue
				}
				start, end := parsePromoTime(window.StartDate), parsePromoTime(window.EndDate)
				offers.Upcoming = append(offers.Upcoming, makeOffer(el, locale, start, end))
			}
		}
	}
	return offers, nil
}

// isFullyFree reports whether a promotional window prices the offer at zero.
// The discount percentage field is the price multiplier: 0 means 100% off.
func isFullyFree(window promoWindow) bool {
	return window.DiscountSetting.DiscountPercentage != nil &&
		*window.DiscountSetting.DiscountPercentage == 0
}

func makeOffer(el catalogElement, locale string, start, end time.Time) Offer {
	slug := el.ProductSlug
	for _, m := range el.CatalogNs.Mappings {
		if m.PageType == "productHome" && m.PageSlug != "" {
			slug = m.PageSlug
			break
		}
	}
	if slug == "" {
		slug = el.URLSlug
	}
	if slug == "" {
		slug = el.ID
	}

	var imageURL string
	for _, img := range el.KeyImages {
		if img.Type == "OfferImageWide" || img.Type == "Thumbnail" {
			imageURL = img.URL
			break
		}
	}

	return Offer{
		ID:          el.ID,
		Title:       el.Title,
		IsBundle:    strings.EqualFold(el.OfferType, "BUNDLE"),
		URL:         fmt.Sprintf("%s/%s/p/%s", storeBaseURL, locale, slug),
		Description: el.Description,
		ImageURL:    imageURL,
		StartsAt:    start,
		EndsAt:      end,
	}
}

// parsePromoTime parses the timestamp formats the promotions endpoint emits.
// Returns the zero time when nothing matches.
func parsePromoTime(value string) time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02 15:04", "2006-01-02"} {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

// FormatOfferList renders offers for console display, one per line with the
// free window when known.
func FormatOfferList(offers []Offer) string {
	if len(offers) == 0 {
		return "  (none)"
	}
	lines := make([]string, 0, len(offers))
	for i, o := range offers {
		line := fmt.Sprintf("%d. %s", i+1, o.Title)
		if !o.StartsAt.IsZero() && !o.EndsAt.IsZero() {
			line += fmt.Sprintf(" (%s ~ %s)", o.StartsAt.Format("2006-01-02"), o.EndsAt.Format("2006-01-02"))
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}
