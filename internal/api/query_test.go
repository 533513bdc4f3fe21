package api

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmahler/bugtrack/internal/models"
	"github.com/jmahler/bugtrack/internal/validate"
)

func TestParseListQuery_Defaults(t *testing.T) {
	filter, page, limit, err := parseListQuery(url.Values{})
	require.NoError(t, err)
	assert.Equal(t, 1, page)
	assert.Equal(t, 10, limit)
	assert.Empty(t, filter.Status)
	assert.Empty(t, filter.Priority)
}

func TestParseListQuery_FiltersPassThrough(t *testing.T) {
	q := url.Values{"status": {"in-progress"}, "priority": {"critical"}}
	filter, _, _, err := parseListQuery(q)
	require.NoError(t, err)
	assert.Equal(t, models.BugStatusInProgress, filter.Status)
	assert.Equal(t, models.BugPriorityCritical, filter.Priority)
}

func TestParseListQuery_ExplicitPagination(t *testing.T) {
	q := url.Values{"page": {"3"}, "limit": {"25"}}
	_, page, limit, err := parseListQuery(q)
	require.NoError(t, err)
	assert.Equal(t, 3, page)
	assert.Equal(t, 25, limit)
}

func TestParseListQuery_RejectsBadValues(t *testing.T) {
	tests := []struct {
		name string
		q    url.Values
		want []string
	}{
		{
			name: "zero page",
			q:    url.Values{"page": {"0"}},
			want: []string{"Page must be a positive integer"},
		},
		{
			name: "negative limit",
			q:    url.Values{"limit": {"-5"}},
			want: []string{"Limit must be a positive integer"},
		},
		{
			name: "non-numeric page",
			q:    url.Values{"page": {"two"}},
			want: []string{"Page must be a positive integer"},
		},
		{
			name: "both bad",
			q:    url.Values{"page": {"x"}, "limit": {"0"}},
			want: []string{"Page must be a positive integer", "Limit must be a positive integer"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, _, err := parseListQuery(tt.q)
			require.Error(t, err)

			var verr *validate.Error
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.want, verr.Details)
		})
	}
}
