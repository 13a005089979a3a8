// Package listing compiles catalog filter and sort parameters into a query
// plan whose predicate set is shared by the page query and the count query.
package listing

import "strings"

type SortKey string

const (
	SortPopular  SortKey = "popular"
	SortPositive SortKey = "positive"
	SortNegative SortKey = "negative"
	SortRating   SortKey = "rating"
)

// orderings reference output columns of the aggregated restaurant query.
// Restaurants without reviews have NULL stats and sort after everything else.
var orderings = map[SortKey]string{
	SortPopular:  "total_reviews DESC",
	SortPositive: "positive_pct DESC NULLS LAST",
	SortNegative: "negative_pct DESC NULLS LAST",
	SortRating:   "avg_rating DESC NULLS LAST",
}

// ParseSortKey falls back to SortPopular for anything unknown.
func ParseSortKey(s string) SortKey {
	key := SortKey(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := orderings[key]; ok {
		return key
	}
	return SortPopular
}

// Predicate is one named condition on the restaurants table (alias r).
type Predicate interface {
	SQL() (clause string, arg any)
}

type districtIs string

func (p districtIs) SQL() (string, any) { return "r.district = ?", string(p) }

type cuisineIs string

func (p cuisineIs) SQL() (string, any) { return "r.cuisine_type = ?", string(p) }

type nameContains string

func (p nameContains) SQL() (string, any) {
	return `LOWER(r.restaurant_name) LIKE ? ESCAPE '\'`, "%" + escapeLike(strings.ToLower(string(p))) + "%"
}

func DistrictIs(d string) Predicate   { return districtIs(d) }
func CuisineIs(c string) Predicate    { return cuisineIs(c) }
func NameContains(q string) Predicate { return nameContains(q) }

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

// Filter holds the optional catalog filters. Empty fields are not applied.
type Filter struct {
	District string
	Cuisine  string
	Search   string
}

// Predicates returns the conjunction of the filters that are set.
func (f Filter) Predicates() []Predicate {
	var preds []Predicate
	if f.District != "" {
		preds = append(preds, DistrictIs(f.District))
	}
	if f.Cuisine != "" {
		preds = append(preds, CuisineIs(f.Cuisine))
	}
	if q := strings.TrimSpace(f.Search); q != "" {
		preds = append(preds, NameContains(q))
	}
	return preds
}

// Where renders predicates as a WHERE clause with ? placeholders. It returns
// an empty clause when there is nothing to filter on.
func Where(preds []Predicate) (string, []any) {
	if len(preds) == 0 {
		return "", nil
	}
	clauses := make([]string, 0, len(preds))
	args := make([]any, 0, len(preds))
	for _, p := range preds {
		clause, arg := p.SQL()
		clauses = append(clauses, clause)
		args = append(args, arg)
	}
	return "WHERE " + strings.Join(clauses, " AND "), args
}

// Plan is a compiled listing request.
type Plan struct {
	Sort    SortKey
	Where   string
	Args    []any
	OrderBy string
	Page    Page
}

// Compile builds the plan once; both queries must take Where and Args from it.
func Compile(f Filter, sort SortKey, page Page) Plan {
	sort = ParseSortKey(string(sort))
	where, args := Where(f.Predicates())
	return Plan{
		Sort:    sort,
		Where:   where,
		Args:    args,
		OrderBy: "has_real_image DESC, " + orderings[sort] + ", r.vendor_id ASC",
		Page:    page,
	}
}

// PageArgs appends LIMIT and OFFSET values to the filter arguments.
func (p Plan) PageArgs() []any {
	args := make([]any, 0, len(p.Args)+2)
	args = append(args, p.Args...)
	return append(args, p.Page.Limit(), p.Page.Offset())
}
