package query

import (
	"net/url"
	"reflect"
	"testing"

	"go.mongodb.org/mongo-driver/bson"
)

func parseQuery(t *testing.T, raw string) Descriptor {
	t.Helper()
	values, err := url.ParseQuery(raw)
	if err != nil {
		t.Fatalf("parse query %q: %v", raw, err)
	}
	return Parse(values)
}

func TestParse_OperatorSuffixes(t *testing.T) {
	d := parseQuery(t, "price[gte]=100&duration[lt]=10")

	want := bson.M{
		"price":    bson.M{"$gte": float64(100)},
		"duration": bson.M{"$lt": float64(10)},
	}
	if !reflect.DeepEqual(d.Filter, want) {
		t.Fatalf("filter = %#v, want %#v", d.Filter, want)
	}
}

func TestParse_UnknownKeyIsLiteralEquality(t *testing.T) {
	d := parseQuery(t, "bogusField=abc&difficulty=easy")

	if got := d.Filter["bogusField"]; got != "abc" {
		t.Fatalf("bogusField = %#v, want literal equality on \"abc\"", got)
	}
	if got := d.Filter["difficulty"]; got != "easy" {
		t.Fatalf("difficulty = %#v, want \"easy\"", got)
	}
}

func TestParse_UnknownOperatorSuffixStaysLiteral(t *testing.T) {
	d := parseQuery(t, "price[近]=5")

	if _, ok := d.Filter["price[近]"]; !ok {
		t.Fatalf("expected unrecognized suffix to remain a literal key, got %#v", d.Filter)
	}
}

func TestParse_ReservedKeysExcludedFromFilter(t *testing.T) {
	d := parseQuery(t, "page=2&limit=5&sort=price&fields=name&price=50")

	if len(d.Filter) != 1 {
		t.Fatalf("filter = %#v, want only price", d.Filter)
	}
	if got := d.Filter["price"]; got != float64(50) {
		t.Fatalf("price = %#v, want 50", got)
	}
}

func TestParse_RepeatedValuesBecomeIn(t *testing.T) {
	d := parseQuery(t, "duration=5&duration=9")

	want := bson.M{"$in": []any{float64(5), float64(9)}}
	if !reflect.DeepEqual(d.Filter["duration"], want) {
		t.Fatalf("duration = %#v, want %#v", d.Filter["duration"], want)
	}
}

func TestParse_SortDefaultsToNewestFirst(t *testing.T) {
	d := parseQuery(t, "")

	want := bson.D{{Key: "createdAt", Value: -1}}
	if !reflect.DeepEqual(d.Sort, want) {
		t.Fatalf("sort = %#v, want %#v", d.Sort, want)
	}
}

func TestParse_SortMultiKeyWithDescendingPrefix(t *testing.T) {
	d := parseQuery(t, "sort=-price,ratingsAverage")

	want := bson.D{
		{Key: "price", Value: -1},
		{Key: "ratingsAverage", Value: 1},
	}
	if !reflect.DeepEqual(d.Sort, want) {
		t.Fatalf("sort = %#v, want %#v", d.Sort, want)
	}
}

func TestParse_ProjectionDefaultStripsAuditFields(t *testing.T) {
	d := parseQuery(t, "")

	want := bson.M{"createdAt": 0, "updatedAt": 0}
	if !reflect.DeepEqual(d.Projection, want) {
		t.Fatalf("projection = %#v, want %#v", d.Projection, want)
	}
}

func TestParse_ProjectionStripsAuditEvenWhenSelected(t *testing.T) {
	d := parseQuery(t, "fields=name,price,createdAt,updatedAt")

	want := bson.M{"name": 1, "price": 1}
	if !reflect.DeepEqual(d.Projection, want) {
		t.Fatalf("projection = %#v, want %#v", d.Projection, want)
	}
}

func TestParse_PaginationDefaults(t *testing.T) {
	cases := []struct {
		name string
		raw  string
	}{
		{"empty", ""},
		{"non numeric", "page=abc&limit=xyz"},
		{"zero", "page=0&limit=0"},
		{"negative", "page=-3&limit=-10"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := parseQuery(t, tc.raw)
			if d.Skip != 0 {
				t.Fatalf("skip = %d, want 0", d.Skip)
			}
			if d.Limit != DefaultLimit {
				t.Fatalf("limit = %d, want %d", d.Limit, DefaultLimit)
			}
		})
	}
}

func TestParse_PaginationOffset(t *testing.T) {
	d := parseQuery(t, "page=3&limit=20")

	if d.Skip != 40 {
		t.Fatalf("skip = %d, want 40", d.Skip)
	}
	if d.Limit != 20 {
		t.Fatalf("limit = %d, want 20", d.Limit)
	}
}
