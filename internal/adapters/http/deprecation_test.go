package http

import "testing"

func TestMatchPattern(t *testing.T) {
	tests := []struct {
		path, pattern string
		ok            bool
		id            string
	}{
		{"/v1/locations", "/v1/locations", true, ""},
		{"/v1/locations/", "/v1/locations", true, ""},
		{"/v1/locations/abc", "/v1/locations/:id", true, "abc"},
		{"/v1/locations/abc/extra", "/v1/locations/:id", false, ""},
		{"/v1/places/abc", "/v1/locations/:id", false, ""},
		{"/v1/locations", "/v1/locations/:id", false, ""},
	}
	for _, tt := range tests {
		params, ok := matchPattern(tt.path, tt.pattern)
		if ok != tt.ok {
			t.Errorf("matchPattern(%q, %q) = %v, want %v", tt.path, tt.pattern, ok, tt.ok)
			continue
		}
		if ok && params[":id"] != tt.id {
			t.Errorf("matchPattern(%q, %q) id = %q, want %q", tt.path, tt.pattern, params[":id"], tt.id)
		}
	}

	if got := fillPattern("/v1/places/:id", map[string]string{":id": "osm_9"}); got != "/v1/places/osm_9" {
		t.Errorf("fillPattern = %q", got)
	}
}
