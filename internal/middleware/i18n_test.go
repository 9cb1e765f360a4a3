package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestDetectLocale(t *testing.T) {
	tests := []struct {
		name     string
		setup    func(r *http.Request)
		fallback string
		country  string
		want     string
	}{
		{
			name: "x-locale overrides",
			setup: func(r *http.Request) {
				r.Header.Set("X-Locale", "id")
			},
			country: "US",
			want:    "id",
		},
		{
			name: "accept-language used",
			setup: func(r *http.Request) {
				r.Header.Set("Accept-Language", "en-US,en;q=0.9")
			},
			want: "en",
		},
		{
			name: "accept-language id preference",
			setup: func(r *http.Request) {
				r.Header.Set("Accept-Language", "id-ID,en;q=0.8")
			},
			want: "id",
		},
		{
			name:    "country id implies id",
			country: "ID",
			want:    "id",
		},
		{
			name:     "configured fallback",
			fallback: "id",
			want:     "id",
		},
		{
			name: "default to en",
			want: "en",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.setup != nil {
				tc.setup(req)
			}
			if got := detectLocale(req, tc.fallback, tc.country); got != tc.want {
				t.Fatalf("detectLocale() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestResolveCountryHeaderHint(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("CF-IPCountry", "de")
	if got := resolveCountry(req, nil); got != "DE" {
		t.Fatalf("resolveCountry() = %q, want DE", got)
	}
}

func TestResolveCountryAcceptLanguageRegion(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept-Language", "id-ID,en;q=0.8")
	if got := resolveCountry(req, nil); got != "ID" {
		t.Fatalf("resolveCountry() = %q, want ID", got)
	}
}

func TestResolveCountryLookupFallback(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "203.0.113.9:1234"
	lookup := func(ip string) (string, error) {
		if ip != "203.0.113.9" {
			t.Fatalf("lookup called with %q", ip)
		}
		return "sg", nil
	}
	if got := resolveCountry(req, lookup); got != "SG" {
		t.Fatalf("resolveCountry() = %q, want SG", got)
	}
}

func TestI18NStoresContextValues(t *testing.T) {
	var gotLocale, gotCountry string
	handler := I18N("en", nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotLocale = LocaleFromContext(r.Context())
		gotCountry = CountryFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept-Language", "id-ID")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if gotLocale != "id" {
		t.Fatalf("locale = %q, want id", gotLocale)
	}
	if gotCountry != "ID" {
		t.Fatalf("country = %q, want ID", gotCountry)
	}
}
