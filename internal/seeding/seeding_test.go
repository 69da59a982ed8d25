package seeding

import (
	"context"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	linkhttp "github.com/BenjaminSRussell/linkaudit/internal/http"
)

func TestDiscoverFromSitemap(t *testing.T) {
	mux := http.NewServeMux()
	server := httptest.NewServer(mux)
	defer server.Close()

	mux.HandleFunc("/sitemap.xml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/xml")
		w.Write([]byte(`<?xml version="1.0"?>
<sitemapindex><sitemap><loc>` + server.URL + `/pages.xml</loc></sitemap></sitemapindex>`))
	})
	mux.HandleFunc("/pages.xml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/xml")
		w.Write([]byte(`<urlset>
<url><loc>` + server.URL + `/a</loc></url>
<url><loc>` + server.URL + `/b</loc></url>
<url><loc>https://elsewhere.example/c</loc></url>
<url><loc>` + server.URL + `/sitemap.xml</loc></url>
</urlset>`))
	})
	mux.HandleFunc("/robots.txt", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("User-agent: *\nSitemap: " + server.URL + "/extra.xml\n"))
	})
	mux.HandleFunc("/extra.xml", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<urlset><url><loc>` + server.URL + `/a#dup</loc></url><url><loc>` + server.URL + `/d</loc></url></urlset>`))
	})

	urls, err := DiscoverFromSitemap(context.Background(), linkhttp.NewClient(linkhttp.ClientConfig{}), server.URL+"/")
	if err != nil {
		t.Fatalf("DiscoverFromSitemap() error = %v", err)
	}

	want := []string{server.URL + "/a", server.URL + "/b", server.URL + "/d"}
	if !reflect.DeepEqual(urls, want) {
		t.Errorf("Expected %v, got %v", want, urls)
	}
}

func TestDiscoverFromSitemapMissing(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	urls, err := DiscoverFromSitemap(context.Background(), linkhttp.NewClient(linkhttp.ClientConfig{}), server.URL)
	if err != nil {
		t.Fatalf("DiscoverFromSitemap() error = %v", err)
	}
	if len(urls) != 0 {
		t.Errorf("Expected no URLs, got %v", urls)
	}
}

func TestDiscoverFromSitemapInvalidURL(t *testing.T) {
	if _, err := DiscoverFromSitemap(context.Background(), linkhttp.NewClient(linkhttp.ClientConfig{}), "not a url"); err == nil {
		t.Error("Expected error for URL without host")
	}
}

func TestRobotsSitemaps(t *testing.T) {
	var base string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("User-agent: *\nDisallow: /private\nSITEMAP: " + base + "/one.xml\n\nsitemap: " + base + "/two.xml\n"))
	}))
	defer server.Close()
	base = server.URL

	got := robotsSitemaps(context.Background(), linkhttp.NewClient(linkhttp.ClientConfig{}), server.URL+"/robots.txt")
	want := []string{server.URL + "/one.xml", server.URL + "/two.xml"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Expected %v, got %v", want, got)
	}
}

func TestRobotsSitemapsMissing(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	if got := robotsSitemaps(context.Background(), linkhttp.NewClient(linkhttp.ClientConfig{}), server.URL+"/robots.txt"); got != nil {
		t.Errorf("Expected no sitemaps, got %v", got)
	}
}
