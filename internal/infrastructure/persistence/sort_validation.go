package persistence

import (
	"strings"

	"gorm.io/gorm/clause"
)

// sortColumns whitelists the columns a list query may be ordered by. Caller
// input never reaches the ORDER BY clause unless it names one of them.
type sortColumns struct {
	allowed  map[string]struct{}
	fallback string
	tiebreak string
}

func newSortColumns(fallback, tiebreak string, columns ...string) sortColumns {
	allowed := make(map[string]struct{}, len(columns))
	for _, c := range columns {
		allowed[c] = struct{}{}
	}
	return sortColumns{allowed: allowed, fallback: fallback, tiebreak: tiebreak}
}

// documentSort orders trade document listings. Equal sort keys fall back to
// the document number so paging is stable.
var documentSort = newSortColumns("created_at", "document_number",
	"created_at", "updated_at", "document_number", "document_date",
	"due_date", "status", "total_amount", "outstanding_amount",
)

// column resolves the requested column, or the fallback when it is not allowed
func (s sortColumns) column(requested string) string {
	requested = strings.TrimSpace(requested)
	if _, ok := s.allowed[requested]; ok {
		return requested
	}
	return s.fallback
}

// descending reports whether dir asks for descending order; anything other
// than "asc" does
func descending(dir string) bool {
	return !strings.EqualFold(strings.TrimSpace(dir), "asc")
}

// orderBy builds the ORDER BY clause for a listing
func (s sortColumns) orderBy(requested, dir string) clause.OrderBy {
	col := s.column(requested)
	desc := descending(dir)
	columns := []clause.OrderByColumn{{Column: clause.Column{Name: col}, Desc: desc}}
	if s.tiebreak != "" && s.tiebreak != col {
		columns = append(columns, clause.OrderByColumn{Column: clause.Column{Name: s.tiebreak}, Desc: desc})
	}
	return clause.OrderBy{Columns: columns}
}
