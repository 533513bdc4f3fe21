package api

import (
	"net/url"
	"strconv"

	"github.com/jmahler/bugtrack/internal/models"
	"github.com/jmahler/bugtrack/internal/store"
	"github.com/jmahler/bugtrack/internal/validate"
)

const (
	defaultPage  = 1
	defaultLimit = 10
)

// parseListQuery translates client query parameters into a store filter plus
// 1-based pagination. Non-numeric or non-positive page/limit values are
// rejected rather than silently coerced; defaulting bad input could mask
// client bugs. Filter values are passed through as-is: an unknown status
// simply matches nothing.
func parseListQuery(q url.Values) (filter store.BugFilter, page, limit int, err error) {
	filter = store.BugFilter{
		Status:   models.BugStatus(q.Get("status")),
		Priority: models.BugPriority(q.Get("priority")),
	}

	var details []string
	page, err = parsePositiveInt(q.Get("page"), defaultPage)
	if err != nil {
		details = append(details, "Page must be a positive integer")
	}
	limit, err = parsePositiveInt(q.Get("limit"), defaultLimit)
	if err != nil {
		details = append(details, "Limit must be a positive integer")
	}

	if len(details) > 0 {
		return filter, 0, 0, &validate.Error{Details: details}
	}
	return filter, page, limit, nil
}

func parsePositiveInt(raw string, def int) (int, error) {
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, err
	}
	if n < 1 {
		return 0, strconv.ErrRange
	}
	return n, nil
}
