package tools

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Protocol-Lattice/agentcoffee/pkg/agent"
	"github.com/Protocol-Lattice/agentcoffee/pkg/logger"
	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"
)

const (
	DefaultGeocodeURL = "https://maps.googleapis.com/maps/api/geocode/json"
	DefaultNearbyURL  = "https://maps.googleapis.com/maps/api/place/nearbysearch/json"
	DefaultRadius     = 1000
	DefaultTimeout    = 10 * time.Second

	nearbyKeyword = "coffee shop"
	nearbyType    = "cafe"

	statusOK          = "OK"
	statusZeroResults = "ZERO_RESULTS"
)

// ErrMissingMapsKey is returned when a PlaceFinder is built without a key.
var ErrMissingMapsKey = errors.New("maps provider key is required")

// ProviderError reports a failed call to the maps provider.
type ProviderError struct {
	Endpoint   string
	HTTPStatus int
	Status     string
	Message    string
}

func (e *ProviderError) Error() string {
	msg := fmt.Sprintf("%s request failed", e.Endpoint)
	if e.HTTPStatus != 0 && e.HTTPStatus != http.StatusOK {
		msg += fmt.Sprintf(": http %d", e.HTTPStatus)
	}
	if e.Status != "" {
		msg += ": " + e.Status
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	return msg
}

// CoffeeShop is one nearby search hit. Coordinates are only set when the
// finder is configured to include them.
type CoffeeShop struct {
	Name      string   `json:"name"`
	Address   string   `json:"address"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
}

// PlacesOptions configures a PlaceFinder.
type PlacesOptions struct {
	APIKey             string
	GeocodeURL         string
	NearbyURL          string
	Radius             int
	IncludeCoordinates bool
	Timeout            time.Duration
}

// PlaceFinder resolves a place description to coordinates and lists coffee
// shops around them. Calls are made once; there is no retry.
type PlaceFinder struct {
	client             *resty.Client
	apiKey             string
	geocodeURL         string
	nearbyURL          string
	radius             int
	includeCoordinates bool
}

func NewPlaceFinder(opts PlacesOptions) (*PlaceFinder, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, ErrMissingMapsKey
	}
	if opts.GeocodeURL == "" {
		opts.GeocodeURL = DefaultGeocodeURL
	}
	if opts.NearbyURL == "" {
		opts.NearbyURL = DefaultNearbyURL
	}
	if opts.Radius <= 0 {
		opts.Radius = DefaultRadius
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	client := resty.New().
		SetTimeout(opts.Timeout).
		SetHeader("Accept", "application/json")
	return &PlaceFinder{
		client:             client,
		apiKey:             opts.APIKey,
		geocodeURL:         opts.GeocodeURL,
		nearbyURL:          opts.NearbyURL,
		radius:             opts.Radius,
		includeCoordinates: opts.IncludeCoordinates,
	}, nil
}

// Find returns coffee shops within radiusMeters of place. A place the
// geocoder cannot resolve yields an empty list and no nearby search.
// radiusMeters <= 0 uses the configured radius.
func (f *PlaceFinder) Find(ctx context.Context, place string, radiusMeters int) ([]CoffeeShop, error) {
	log := logger.FromContext(ctx)
	if radiusMeters <= 0 {
		radiusMeters = f.radius
	}

	geo, err := f.get(ctx, "geocode", f.geocodeURL, map[string]string{
		"address": place,
		"key":     f.apiKey,
	})
	if err != nil {
		return nil, err
	}
	first := geo.Get("results.0.geometry.location")
	if !first.Exists() {
		log.Info("could not geocode place", "place", place)
		return []CoffeeShop{}, nil
	}
	lat, lng := first.Get("lat").Float(), first.Get("lng").Float()

	nearby, err := f.get(ctx, "nearby", f.nearbyURL, map[string]string{
		"key":      f.apiKey,
		"location": formatCoord(lat) + "," + formatCoord(lng),
		"radius":   strconv.Itoa(radiusMeters),
		"keyword":  nearbyKeyword,
		"type":     nearbyType,
	})
	if err != nil {
		return nil, err
	}

	shops := []CoffeeShop{}
	nearby.Get("results").ForEach(func(_, hit gjson.Result) bool {
		shop := CoffeeShop{
			Name:    hit.Get("name").String(),
			Address: hit.Get("vicinity").String(),
		}
		if f.includeCoordinates {
			if loc := hit.Get("geometry.location"); loc.Exists() {
				shopLat, shopLng := loc.Get("lat").Float(), loc.Get("lng").Float()
				shop.Latitude, shop.Longitude = &shopLat, &shopLng
			}
		}
		shops = append(shops, shop)
		return true
	})
	log.Debug("nearby search", "place", place, "results", len(shops))
	return shops, nil
}

func (f *PlaceFinder) get(ctx context.Context, endpoint, url string, params map[string]string) (gjson.Result, error) {
	resp, err := f.client.R().
		SetContext(ctx).
		SetQueryParams(params).
		Get(url)
	if err != nil {
		return gjson.Result{}, fmt.Errorf("%s request: %w", endpoint, err)
	}
	if resp.IsError() {
		return gjson.Result{}, &ProviderError{
			Endpoint:   endpoint,
			HTTPStatus: resp.StatusCode(),
			Message:    strings.TrimSpace(gjson.GetBytes(resp.Body(), "error_message").String()),
		}
	}
	body := resp.Body()
	if !gjson.ValidBytes(body) {
		return gjson.Result{}, &ProviderError{Endpoint: endpoint, HTTPStatus: resp.StatusCode(), Message: "malformed response body"}
	}
	doc := gjson.ParseBytes(body)
	status := doc.Get("status").String()
	switch status {
	case "", statusOK, statusZeroResults:
		return doc, nil
	default:
		return gjson.Result{}, &ProviderError{
			Endpoint:   endpoint,
			HTTPStatus: resp.StatusCode(),
			Status:     status,
			Message:    doc.Get("error_message").String(),
		}
	}
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// LocationTool exposes a PlaceFinder as the coffee_location action.
type LocationTool struct {
	finder *PlaceFinder
}

func NewLocationTool(finder *PlaceFinder) *LocationTool {
	return &LocationTool{finder: finder}
}

func (t *LocationTool) Spec() agent.ToolSpec {
	return agent.ToolSpec{
		Name:        "coffee_location",
		Description: "run an API call to Google to find coffee shops in and near a city - Uses the Google Places nearby search API",
		Example:     "Coffee shops near Boston, MA",
		InputSchema: inputSchema("A city, address or other place description."),
	}
}

func (t *LocationTool) Invoke(ctx context.Context, req agent.ToolRequest) (agent.ToolResponse, error) {
	shops, err := t.finder.Find(ctx, req.Input, 0)
	if err != nil {
		return agent.ToolResponse{}, err
	}
	return agent.ToolResponse{Result: shops}, nil
}

// DefaultTools returns the coffee_location and coffee_taste tools.
func DefaultTools(finder *PlaceFinder) []agent.Tool {
	return []agent.Tool{NewLocationTool(finder), NewTasteTool()}
}
