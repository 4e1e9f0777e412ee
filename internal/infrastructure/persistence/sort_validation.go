package persistence

import (
	"slices"
	"strings"

	"github.com/courtage/backend/internal/domain/shared"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// sortable lists the columns a list endpoint may order by. The first one is
// used when the requested column is missing or unknown.
type sortable []string

var (
	userSort      = sortable{"created_at", "id", "updated_at", "username", "display_name", "role", "status", "last_login_at"}
	clientSort    = sortable{"created_at", "id", "updated_at", "reference", "last_name", "company_name", "city", "kind"}
	vehicleSort   = sortable{"created_at", "id", "updated_at", "reference", "registration_number", "brand", "class"}
	companySort   = sortable{"name", "id", "created_at", "updated_at", "code", "active"}
	contractSort  = sortable{"created_at", "id", "updated_at", "reference", "policy_number", "start_date", "end_date", "status", "total_amount"}
	bordereauSort = sortable{"created_at", "id", "updated_at", "reference", "period_start", "status", "total_amount"}
)

// column returns requested when whitelisted, the default column otherwise.
// Matching is exact so "NAME" or "name; --" never reach SQL.
func (s sortable) column(requested string) string {
	requested = strings.TrimSpace(requested)
	if slices.Contains(s, requested) {
		return requested
	}
	return s[0]
}

// descending is the default; only an explicit asc flips it
func descending(dir string) bool {
	return !strings.EqualFold(strings.TrimSpace(dir), "asc")
}

// paginate applies the whitelisted ordering and the page window of filter
func paginate(query *gorm.DB, filter shared.Filter, columns sortable) *gorm.DB {
	query = query.Order(clause.OrderByColumn{
		Column: clause.Column{Name: columns.column(filter.OrderBy)},
		Desc:   descending(filter.OrderDir),
	})
	if filter.Page > 0 && filter.PageSize > 0 {
		query = query.Offset(filter.Offset()).Limit(filter.PageSize)
	}
	return query
}

// searchPattern builds a lowercase LIKE pattern, or "" for an empty search
func searchPattern(search string) string {
	search = strings.TrimSpace(search)
	if search == "" {
		return ""
	}
	return "%" + strings.ToLower(search) + "%"
}
