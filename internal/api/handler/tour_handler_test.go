package handler

import (
	"net/http"
	"testing"
)

func TestDecodeTourPatch_RejectsInvalidFields(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"negative price", `{"price": -5}`},
		{"non-numeric duration", `{"duration": "two weeks"}`},
		{"negative price and bad duration", `{"price": -5, "duration": "two weeks"}`},
		{"unknown difficulty", `{"difficulty": "impossible"}`},
		{"short name", `{"name": "abc"}`},
		{"discount above price", `{"price": 100, "priceDiscount": 150}`},
		{"malformed guide id", `{"guides": ["not-a-hex-id"]}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, _ := newJSONContext(t, http.MethodPatch, "/api/v1/tours/a", tc.body)
			if _, err := decodeTourPatch(c); err == nil {
				t.Fatalf("decodeTourPatch accepted %s", tc.body)
			}
		})
	}
}

func TestDecodeTourPatch_BuildsAllowedPatch(t *testing.T) {
	c, _ := newJSONContext(t, http.MethodPatch, "/api/v1/tours/a",
		`{"name": "The Forest Hiker", "price": 299, "ratingsAverage": 5}`)

	patch, err := decodeTourPatch(c)
	if err != nil {
		t.Fatalf("decodeTourPatch: %v", err)
	}
	if got := patch["name"]; got != "The Forest Hiker" {
		t.Fatalf("name = %v, want The Forest Hiker", got)
	}
	if got := patch["slug"]; got != "the-forest-hiker" {
		t.Fatalf("slug = %v, want the-forest-hiker", got)
	}
	if got := patch["price"]; got != 299.0 {
		t.Fatalf("price = %v, want 299", got)
	}
	if _, ok := patch["ratingsAverage"]; ok {
		t.Fatal("ratingsAverage must not be settable through the patch route")
	}
	if len(patch) != 3 {
		t.Fatalf("patch has %d fields, want 3: %v", len(patch), patch)
	}
}

func TestDecodeTourPatch_EmptyBody(t *testing.T) {
	c, _ := newJSONContext(t, http.MethodPatch, "/api/v1/tours/a", `{}`)

	patch, err := decodeTourPatch(c)
	if err != nil {
		t.Fatalf("decodeTourPatch: %v", err)
	}
	if len(patch) != 0 {
		t.Fatalf("patch = %v, want empty", patch)
	}
}
