package catalog_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"animeta/internal/catalog"
)

func TestNewRequiresBaseURL(t *testing.T) {
	if _, err := catalog.New("", "", catalog.TransportDirect); err == nil {
		t.Fatal("expected error when base url missing")
	}
}

func TestNewRejectsUnknownTransport(t *testing.T) {
	if _, err := catalog.New("https://example.com", "", "tunnel"); err == nil {
		t.Fatal("expected error for unknown transport")
	}
}

func TestNewProxiedRequiresProxyURL(t *testing.T) {
	if _, err := catalog.New("https://example.com", "", catalog.TransportProxied); err == nil {
		t.Fatal("expected error when proxy url missing")
	}
}

func TestSearchSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/search/v1/keyword/" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("keyword") != "지박소년 하나코 군" {
			t.Fatalf("unexpected keyword %q", r.URL.Query().Get("keyword"))
		}
		if r.URL.Query().Get("size") != "20" {
			t.Fatalf("unexpected size %q", r.URL.Query().Get("size"))
		}
		if r.Header.Get("laftel") == "" {
			t.Fatal("expected vendor header on catalog request")
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"count":2,"results":[{"id":40001,"name":"지박소년 하나코 군"},{"id":40002,"name":"지박소년 하나코 군 2기"}]}`))
	}))
	t.Cleanup(server.Close)

	client, err := catalog.New(server.URL, "", catalog.TransportDirect)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	resp, err := client.Search(context.Background(), "지박소년 하나코 군", 20)
	if err != nil {
		t.Fatalf("Search returned error: %v", err)
	}
	if resp.Count != 2 || len(resp.Results) != 2 {
		t.Fatalf("unexpected response: %#v", resp)
	}
	if resp.Results[0].ID != 40001 {
		t.Fatalf("unexpected first result: %#v", resp.Results[0])
	}
}

func TestSearchEmptyQuery(t *testing.T) {
	client, err := catalog.New("https://example.com", "", catalog.TransportDirect)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if _, err := client.Search(context.Background(), "   ", 20); err == nil {
		t.Fatal("expected error for empty query")
	}
}

func TestDetailLooseFields(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/items/v2/40001/" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": 40001,
			"name": "지박소년 하나코 군",
			"air_year_quarter": "2020년 1분기",
			"avg_rating": 4.6,
			"ended": true,
			"images": [{"option_name":"home_default","img_url":"https://img.example/cover.jpg"}],
			"total_episodes": 12,
			"tags": ["학교", "미스터리"]
		}`))
	}))
	t.Cleanup(server.Close)

	client, err := catalog.New(server.URL, "", catalog.TransportDirect)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	detail, err := client.Detail(context.Background(), 40001)
	if err != nil {
		t.Fatalf("Detail returned error: %v", err)
	}
	if detail.AvgRating == nil || *detail.AvgRating != 4.6 {
		t.Fatalf("unexpected rating: %#v", detail.AvgRating)
	}
	if detail.Ended == nil || !*detail.Ended {
		t.Fatal("expected ended=true")
	}
	if detail.Image != "" {
		t.Fatalf("expected image absent, got %q", detail.Image)
	}
	if len(detail.Images) != 1 || detail.Images[0].OptionName != "home_default" {
		t.Fatalf("unexpected images: %#v", detail.Images)
	}
	if detail.TotalEpisodes == nil || *detail.TotalEpisodes != 12 {
		t.Fatalf("unexpected total episodes: %#v", detail.TotalEpisodes)
	}
	if detail.EpisodeCount != nil {
		t.Fatalf("expected episode_count absent, got %#v", detail.EpisodeCount)
	}
}

func TestDetailNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	t.Cleanup(server.Close)

	client, err := catalog.New(server.URL, "", catalog.TransportDirect)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	_, err = client.Detail(context.Background(), 99999)
	if !errors.Is(err, catalog.ErrItemNotFound) {
		t.Fatalf("expected ErrItemNotFound, got %v", err)
	}
}

func TestEpisodesCount(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/episodes/v2/list/" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("item_id") != "40001" {
			t.Fatalf("unexpected item_id %q", r.URL.Query().Get("item_id"))
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"count":12,"results":[{"id":1,"episode":"1화"}]}`))
	}))
	t.Cleanup(server.Close)

	client, err := catalog.New(server.URL, "", catalog.TransportDirect)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	page, err := client.Episodes(context.Background(), 40001)
	if err != nil {
		t.Fatalf("Episodes returned error: %v", err)
	}
	if page.Count != 12 {
		t.Fatalf("expected 12 episodes, got %d", page.Count)
	}
}

func TestProxiedTransportRoutesThroughProxy(t *testing.T) {
	proxy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/search/v1/keyword/" {
			t.Fatalf("unexpected proxied path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"count":0,"results":[]}`))
	}))
	t.Cleanup(proxy.Close)

	client, err := catalog.New("https://unreachable.invalid", proxy.URL, catalog.TransportProxied)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	resp, err := client.Search(context.Background(), "frieren", 20)
	if err != nil {
		t.Fatalf("Search returned error: %v", err)
	}
	if resp.Count != 0 || len(resp.Results) != 0 {
		t.Fatalf("unexpected response: %#v", resp)
	}
}

func TestItemURL(t *testing.T) {
	if got := catalog.ItemURL(40001); got != "https://laftel.net/item/40001" {
		t.Fatalf("unexpected item url %q", got)
	}
}
