// Package query translates raw request query strings into the filter, sort,
// projection, and pagination directives applied by the repositories. A
// Descriptor is pure data: building one performs no I/O, and each request
// parses a fresh one.
package query

import (
	"net/url"
	"strconv"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
)

const (
	DefaultPage  = 1
	DefaultLimit = 100
)

// reserved keys drive pagination/sorting/projection and are excluded from
// filter criteria.
var reserved = map[string]struct{}{
	"page":   {},
	"limit":  {},
	"sort":   {},
	"fields": {},
}

// comparison operator suffixes translated into the store's native operators.
var operators = map[string]string{
	"gte": "$gte",
	"gt":  "$gt",
	"lte": "$lte",
	"lt":  "$lt",
}

// Descriptor holds the per-request query directives. Zero value means
// "everything, first page".
type Descriptor struct {
	Filter     bson.M
	Sort       bson.D
	Projection bson.M
	Skip       int64
	Limit      int64
}

// Parse builds a Descriptor from raw query values.
//
// Unrecognized filter keys become literal equality predicates on that field
// name; this permissiveness is deliberate and covered by tests. Non-numeric
// or non-positive page/limit values silently fall back to the defaults.
func Parse(values url.Values) Descriptor {
	d := Descriptor{
		Filter:     filter(values),
		Sort:       sort(values.Get("sort")),
		Projection: projection(values.Get("fields")),
	}

	page := positiveInt(values.Get("page"), DefaultPage)
	limit := positiveInt(values.Get("limit"), DefaultLimit)
	d.Skip = int64(page-1) * int64(limit)
	d.Limit = int64(limit)

	return d
}

func filter(values url.Values) bson.M {
	f := bson.M{}
	for key, vals := range values {
		if len(vals) == 0 {
			continue
		}

		field, op := splitOperator(key)
		if _, ok := reserved[field]; ok {
			continue
		}

		if op != "" {
			cond, ok := f[field].(bson.M)
			if !ok {
				cond = bson.M{}
				f[field] = cond
			}
			cond[op] = coerce(vals[len(vals)-1])
			continue
		}

		if len(vals) > 1 {
			in := make([]any, len(vals))
			for i, v := range vals {
				in[i] = coerce(v)
			}
			f[field] = bson.M{"$in": in}
			continue
		}
		f[field] = coerce(vals[0])
	}
	return f
}

// splitOperator decomposes "price[gte]" into ("price", "$gte"). Keys without
// a recognized operator suffix are returned unchanged with an empty operator.
func splitOperator(key string) (field, op string) {
	open := strings.IndexByte(key, '[')
	if open <= 0 || !strings.HasSuffix(key, "]") {
		return key, ""
	}
	native, ok := operators[key[open+1:len(key)-1]]
	if !ok {
		return key, ""
	}
	return key[:open], native
}

func sort(raw string) bson.D {
	if raw == "" {
		return bson.D{{Key: "createdAt", Value: -1}}
	}

	var s bson.D
	for _, k := range strings.Split(raw, ",") {
		k = strings.TrimSpace(k)
		if k == "" {
			continue
		}
		dir := 1
		if strings.HasPrefix(k, "-") {
			dir = -1
			k = k[1:]
		}
		if k != "" {
			s = append(s, bson.E{Key: k, Value: dir})
		}
	}
	if len(s) == 0 {
		return bson.D{{Key: "createdAt", Value: -1}}
	}
	return s
}

// projection builds the field selection. Audit timestamps are always stripped
// from responses, whether or not they were explicitly selected.
func projection(raw string) bson.M {
	if raw == "" {
		return bson.M{"createdAt": 0, "updatedAt": 0}
	}

	p := bson.M{}
	for _, f := range strings.Split(raw, ",") {
		f = strings.TrimSpace(f)
		if f == "" || f == "createdAt" || f == "updatedAt" {
			continue
		}
		p[f] = 1
	}
	if len(p) == 0 {
		return bson.M{"createdAt": 0, "updatedAt": 0}
	}
	return p
}

func positiveInt(raw string, fallback int) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

// coerce converts numeric-looking values to float64 so comparisons against
// numeric fields behave numerically; everything else stays a string.
func coerce(v string) any {
	if n, err := strconv.ParseFloat(v, 64); err == nil {
		return n
	}
	return v
}
