package echoapi

import (
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/aula/core"
)

const orderingParam = "ordering"

var (
	userOrderingFields    = []string{"name", "username", "email", "created_at", "last_login"}
	studentOrderingFields = []string{"name", "first_name", "last_name", "dni", "email", "id"}
)

// Ordering is bound from `?ordering=field,-field`. A leading "-" sorts descending.
type Ordering struct {
	Orderings []core.DBOrdering
}

// Bind keeps the first occurrence of each allowed field; unknown fields are ignored.
func (ord *Ordering) Bind(ctx echo.Context, allowed ...string) {
	val := ctx.QueryParam(orderingParam)
	if val == "" {
		return
	}

	seen := make(map[string]bool)
	for _, field := range strings.Split(val, ",") {
		field = strings.ToLower(strings.TrimSpace(field))
		descending := strings.HasPrefix(field, "-")
		if descending {
			field = field[1:] // drop "-"
		}
		if field == "" || seen[field] || !isAllowedField(field, allowed) {
			continue
		}
		seen[field] = true
		ord.Orderings = append(ord.Orderings, core.DBOrdering{Field: field, Ascending: !descending})
	}
}

func isAllowedField(field string, allowed []string) bool {
	for _, f := range allowed {
		if f == field {
			return true
		}
	}
	return false
}
