// Package query translates flat request query parameters into storage
// filter, sort, projection and pagination directives. It knows nothing
// about tables or columns; the repository layer validates field names
// against the resource it serves.
package query

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// ErrInvalidQuery wraps any malformed query parameter: an unknown
// operator, a non-numeric limit/offset, or an empty field name.
var ErrInvalidQuery = errors.New("invalid query")

// Op is a comparison operator accepted in field[op]=value parameters.
type Op string

const (
	OpEq  Op = "eq"
	OpNe  Op = "ne"
	OpGt  Op = "gt"
	OpGte Op = "gte"
	OpLt  Op = "lt"
	OpLte Op = "lte"
)

var sqlOps = map[Op]string{
	OpEq:  "=",
	OpNe:  "!=",
	OpGt:  ">",
	OpGte: ">=",
	OpLt:  "<",
	OpLte: "<=",
}

// SQL returns the SQL comparison symbol for the operator.
func (o Op) SQL() string { return sqlOps[o] }

// Predicate is a single field comparison against a literal operand.
type Predicate struct {
	Field string
	Op    Op
	Value string
}

// Filter is the parsed form of a query string: predicates, sort order,
// field projection and pagination. Limit -1 means "no limit".
type Filter struct {
	Predicates []Predicate
	Sort       []string
	Fields     []string
	Limit      int
	Offset     int
}

// Parse converts query parameters into a Filter. The reserved keys sort,
// limit, offset and fields fill their respective slots; every other key
// becomes a predicate. field=value is an equality test and field[op]=value
// applies the named operator. An unrecognized operator is an error rather
// than being silently ignored.
func Parse(values url.Values) (Filter, error) {
	f := Filter{Limit: -1}
	for key, vals := range values {
		if len(vals) == 0 {
			continue
		}
		val := vals[0]
		switch key {
		case "sort":
			f.Sort = splitList(val)
		case "fields":
			f.Fields = splitList(val)
		case "limit":
			n, err := strconv.Atoi(val)
			if err != nil || n < 0 {
				return Filter{}, fmt.Errorf("%w: limit %q", ErrInvalidQuery, val)
			}
			f.Limit = n
		case "offset":
			n, err := strconv.Atoi(val)
			if err != nil || n < 0 {
				return Filter{}, fmt.Errorf("%w: offset %q", ErrInvalidQuery, val)
			}
			f.Offset = n
		default:
			p, err := parsePredicate(key, val)
			if err != nil {
				return Filter{}, err
			}
			f.Predicates = append(f.Predicates, p)
		}
	}
	return f, nil
}

// parsePredicate handles both plain keys and the field[op] form.
func parsePredicate(key, val string) (Predicate, error) {
	open := strings.IndexByte(key, '[')
	if open < 0 {
		if key == "" {
			return Predicate{}, fmt.Errorf("%w: empty field name", ErrInvalidQuery)
		}
		return Predicate{Field: key, Op: OpEq, Value: val}, nil
	}
	if !strings.HasSuffix(key, "]") || open == 0 {
		return Predicate{}, fmt.Errorf("%w: malformed parameter %q", ErrInvalidQuery, key)
	}
	field := key[:open]
	op := Op(key[open+1 : len(key)-1])
	if _, ok := sqlOps[op]; !ok {
		return Predicate{}, fmt.Errorf("%w: unknown operator %q", ErrInvalidQuery, string(op))
	}
	return Predicate{Field: field, Op: op, Value: val}, nil
}

// ApplyPageSize rewrites the size/page pagination parameters into
// limit/offset, defaulting to 3 items on page 0. The size and page keys
// are removed so that Parse never treats them as predicates.
func ApplyPageSize(values url.Values) error {
	size := 3
	page := 0
	if s := values.Get("size"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			return fmt.Errorf("%w: size %q", ErrInvalidQuery, s)
		}
		size = n
	}
	if p := values.Get("page"); p != "" {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return fmt.Errorf("%w: page %q", ErrInvalidQuery, p)
		}
		page = n
	}
	values.Del("size")
	values.Del("page")
	values.Set("limit", strconv.Itoa(size))
	values.Set("offset", strconv.Itoa(page*size))
	return nil
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
