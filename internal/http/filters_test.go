package httpserver

import (
	"net/url"
	"testing"
)

func TestBuildStoreQuery(t *testing.T) {
	values, _ := url.ParseQuery("search= corner &name=&email= shop@ &address=Main&sortBy= rating &sortOrder=DESC")

	q := buildStoreQuery(values)
	if q.Search == nil || *q.Search != "corner" {
		t.Fatalf("search not trimmed: %+v", q.Search)
	}
	if q.Name != nil {
		t.Fatalf("empty name should be nil, got %q", *q.Name)
	}
	if q.Email == nil || *q.Email != "shop@" {
		t.Fatalf("email parse failed: %+v", q.Email)
	}
	if q.Address == nil || *q.Address != "Main" {
		t.Fatalf("address parse failed")
	}
	if q.SortBy != "rating" {
		t.Fatalf("sortBy = %q", q.SortBy)
	}
	if q.SortOrder != "desc" {
		t.Fatalf("sortOrder not lower-cased: %q", q.SortOrder)
	}
}

func TestBuildUserQuery(t *testing.T) {
	values, _ := url.ParseQuery("role= store_owner &sortBy=createdAt")

	q := buildUserQuery(values)
	if q.Role != "store_owner" {
		t.Fatalf("role = %q", q.Role)
	}
	if q.SortBy != "createdAt" || q.SortOrder != "" {
		t.Fatalf("sort = %q %q", q.SortBy, q.SortOrder)
	}
	if q.Search != nil {
		t.Fatalf("search should be nil")
	}
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		want   string
		ok     bool
	}{
		{"Bearer abc", "abc", true},
		{"bearer abc", "abc", true},
		{"Bearer   abc  ", "abc", true},
		{"Bearer ", "", false},
		{"Basic abc", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := bearerToken(tt.header)
		if got != tt.want || ok != tt.ok {
			t.Fatalf("bearerToken(%q) = %q, %v; want %q, %v", tt.header, got, ok, tt.want, tt.ok)
		}
	}
}

func TestIPRateLimiter(t *testing.T) {
	if l := newIPRateLimiter(0, 10); l != nil {
		t.Fatalf("zero rate should disable the limiter")
	}
	var disabled *ipRateLimiter
	if !disabled.allow("1.2.3.4") {
		t.Fatalf("nil limiter must allow")
	}

	l := newIPRateLimiter(0.001, 2)
	if !l.allow("1.2.3.4") || !l.allow("1.2.3.4") {
		t.Fatalf("burst should be allowed")
	}
	if l.allow("1.2.3.4") {
		t.Fatalf("third request should be throttled")
	}
	if !l.allow("5.6.7.8") {
		t.Fatalf("other clients have their own bucket")
	}
}
