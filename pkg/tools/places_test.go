package tools

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"

	"github.com/Protocol-Lattice/agentcoffee/pkg/agent"
)

type mapsStub struct {
	server       *httptest.Server
	geocodeCalls atomic.Int32
	nearbyCalls  atomic.Int32
	lastGeocode  atomic.Value
	lastNearby   atomic.Value
}

func newMapsStub(t *testing.T, geocodeBody, nearbyBody string, geocodeStatus int) *mapsStub {
	t.Helper()
	s := &mapsStub{}
	mux := http.NewServeMux()
	mux.HandleFunc("/geocode/json", func(w http.ResponseWriter, r *http.Request) {
		s.geocodeCalls.Add(1)
		s.lastGeocode.Store(r.URL.Query())
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(geocodeStatus)
		_, _ = w.Write([]byte(geocodeBody))
	})
	mux.HandleFunc("/place/nearbysearch/json", func(w http.ResponseWriter, r *http.Request) {
		s.nearbyCalls.Add(1)
		s.lastNearby.Store(r.URL.Query())
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(nearbyBody))
	})
	s.server = httptest.NewServer(mux)
	t.Cleanup(s.server.Close)
	return s
}

func (s *mapsStub) finder(t *testing.T, includeCoords bool) *PlaceFinder {
	t.Helper()
	f, err := NewPlaceFinder(PlacesOptions{
		APIKey:             "test-key",
		GeocodeURL:         s.server.URL + "/geocode/json",
		NearbyURL:          s.server.URL + "/place/nearbysearch/json",
		IncludeCoordinates: includeCoords,
	})
	if err != nil {
		t.Fatalf("NewPlaceFinder: %v", err)
	}
	return f
}

const bostonGeocode = `{"status":"OK","results":[{"geometry":{"location":{"lat":42.3601,"lng":-71.0589}}}]}`

const bostonNearby = `{"status":"OK","results":[
 {"name":"Bean There","vicinity":"1 Main St","geometry":{"location":{"lat":42.36,"lng":-71.05}}},
 {"name":"Cup & Saucer","vicinity":"2 Side St","geometry":{"location":{"lat":42.37,"lng":-71.06}}}
]}`

func TestFindReturnsShops(t *testing.T) {
	stub := newMapsStub(t, bostonGeocode, bostonNearby, http.StatusOK)
	shops, err := stub.finder(t, false).Find(context.Background(), "Boston, MA", 0)
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if len(shops) != 2 || shops[0].Name != "Bean There" || shops[1].Address != "2 Side St" {
		t.Fatalf("unexpected shops: %+v", shops)
	}
	if shops[0].Latitude != nil || shops[0].Longitude != nil {
		t.Fatalf("coordinates should be omitted by default")
	}

	geo := stub.lastGeocode.Load().(url.Values)
	if geo["address"][0] != "Boston, MA" || geo["key"][0] != "test-key" {
		t.Fatalf("unexpected geocode query: %v", geo)
	}
	nearby := stub.lastNearby.Load().(url.Values)
	if nearby["location"][0] != "42.3601,-71.0589" {
		t.Fatalf("unexpected location: %v", nearby["location"])
	}
	if nearby["radius"][0] != "1000" || nearby["keyword"][0] != "coffee shop" || nearby["type"][0] != "cafe" {
		t.Fatalf("unexpected nearby query: %v", nearby)
	}
}

func TestFindIncludesCoordinatesWhenConfigured(t *testing.T) {
	stub := newMapsStub(t, bostonGeocode, bostonNearby, http.StatusOK)
	shops, err := stub.finder(t, true).Find(context.Background(), "Boston, MA", 500)
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if shops[0].Latitude == nil || *shops[0].Latitude != 42.36 || *shops[0].Longitude != -71.05 {
		t.Fatalf("unexpected coordinates: %+v", shops[0])
	}
	nearby := stub.lastNearby.Load().(url.Values)
	if nearby["radius"][0] != "500" {
		t.Fatalf("expected explicit radius, got %v", nearby["radius"])
	}
}

func TestFindGeocodeMissSkipsNearby(t *testing.T) {
	for _, body := range []string{
		`{"status":"ZERO_RESULTS","results":[]}`,
		`{"results":[]}`,
	} {
		stub := newMapsStub(t, body, bostonNearby, http.StatusOK)
		shops, err := stub.finder(t, false).Find(context.Background(), "Atlantis", 0)
		if err != nil {
			t.Fatalf("Find: %v", err)
		}
		if shops == nil || len(shops) != 0 {
			t.Fatalf("expected empty non-nil list, got %#v", shops)
		}
		if stub.nearbyCalls.Load() != 0 {
			t.Fatalf("nearby search must not be called on a geocode miss")
		}
	}
}

func TestFindEmptyNearbyResults(t *testing.T) {
	stub := newMapsStub(t, bostonGeocode, `{"status":"ZERO_RESULTS","results":[]}`, http.StatusOK)
	shops, err := stub.finder(t, false).Find(context.Background(), "Boston, MA", 0)
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if shops == nil || len(shops) != 0 {
		t.Fatalf("expected empty list, got %#v", shops)
	}
}

func TestFindProviderErrors(t *testing.T) {
	denied := newMapsStub(t, `{"status":"REQUEST_DENIED","error_message":"The provided API key is invalid.","results":[]}`, bostonNearby, http.StatusOK)
	_, err := denied.finder(t, false).Find(context.Background(), "Boston", 0)
	var perr *ProviderError
	if !errors.As(err, &perr) {
		t.Fatalf("expected ProviderError, got %v", err)
	}
	if perr.Endpoint != "geocode" || perr.Status != "REQUEST_DENIED" || perr.Message != "The provided API key is invalid." {
		t.Fatalf("unexpected provider error: %+v", perr)
	}
	if denied.nearbyCalls.Load() != 0 {
		t.Fatalf("nearby search must not run after a geocode failure")
	}

	broken := newMapsStub(t, `oops`, bostonNearby, http.StatusInternalServerError)
	_, err = broken.finder(t, false).Find(context.Background(), "Boston", 0)
	if !errors.As(err, &perr) || perr.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("expected http provider error, got %v", err)
	}
}

func TestNewPlaceFinderRequiresKey(t *testing.T) {
	if _, err := NewPlaceFinder(PlacesOptions{APIKey: "  "}); !errors.Is(err, ErrMissingMapsKey) {
		t.Fatalf("expected ErrMissingMapsKey, got %v", err)
	}
}

func TestLocationToolRendersShops(t *testing.T) {
	stub := newMapsStub(t, bostonGeocode, bostonNearby, http.StatusOK)
	tool := NewLocationTool(stub.finder(t, false))
	if tool.Spec().Name != "coffee_location" {
		t.Fatalf("unexpected name %q", tool.Spec().Name)
	}
	resp, err := tool.Invoke(context.Background(), agent.ToolRequest{Input: "Boston, MA"})
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	rendered, err := agent.RenderObservation(resp.Result)
	if err != nil {
		t.Fatalf("RenderObservation: %v", err)
	}
	want := `[{"name":"Bean There","address":"1 Main St"},{"name":"Cup & Saucer","address":"2 Side St"}]`
	if rendered != want {
		t.Fatalf("rendered = %s", rendered)
	}
}

func TestDefaultTools(t *testing.T) {
	f, err := NewPlaceFinder(PlacesOptions{APIKey: "k"})
	if err != nil {
		t.Fatalf("NewPlaceFinder: %v", err)
	}
	c, err := agent.NewStaticToolCatalog(DefaultTools(f)...)
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	if specs := c.Specs(); len(specs) != 2 || specs[0].Name != "coffee_location" || specs[1].Name != "coffee_taste" {
		t.Fatalf("unexpected specs: %+v", specs)
	}
}
