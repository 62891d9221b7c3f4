package holiday

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/warp/wochennachweis/generic"
)

// Provider lists the public holidays of a year from an external source.
type Provider interface {
	Holidays(ctx context.Context, year int, region string) ([]Entry, error)
}

const (
	DefaultNagerURL = "https://date.nager.at/api/v3/PublicHolidays"
	userAgent       = "Wochennachweis/1.0"
	maxResponseSize = 1 << 20
)

// NagerProvider reads holidays from the date.nager.at public API.
type NagerProvider struct {
	BaseURL string
	Country string
	Client  *http.Client
}

// NewNagerProvider creates a provider for German holidays. timeout bounds
// every request regardless of the caller's context.
func NewNagerProvider(baseURL string, timeout time.Duration) *NagerProvider {
	if baseURL == "" {
		baseURL = DefaultNagerURL
	}
	return &NagerProvider{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Country: "DE",
		Client:  &http.Client{Timeout: timeout},
	}
}

type nagerHoliday struct {
	Date        string   `json:"date"`
	LocalName   string   `json:"localName"`
	Name        string   `json:"name"`
	CountryCode string   `json:"countryCode"`
	Global      bool     `json:"global"`
	Counties    []string `json:"counties"`
}

// Holidays fetches the listing for (year, country). Only global entries and
// entries naming the region's state are kept.
func (p *NagerProvider) Holidays(ctx context.Context, year int, region string) ([]Entry, error) {
	url := fmt.Sprintf("%s/%d/%s", p.BaseURL, year, p.Country)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := p.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch holidays: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch holidays: HTTP %d", resp.StatusCode)
	}

	var listing []nagerHoliday
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseSize)).Decode(&listing); err != nil {
		return nil, fmt.Errorf("decode holidays: %w", err)
	}

	region = NormalizeRegion(region)
	county := p.Country + "-" + region

	entries := make([]Entry, 0, len(listing))
	for _, h := range listing {
		if !h.Global && !slices.Contains(h.Counties, county) {
			continue
		}
		date, err := generic.ParseDate(h.Date)
		if err != nil {
			return nil, fmt.Errorf("decode holidays: %w", err)
		}
		name := h.LocalName
		if name == "" {
			name = h.Name
		}
		entries = append(entries, Entry{Date: date, Name: name})
	}
	return entries, nil
}
