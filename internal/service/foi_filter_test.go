package service

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/foi-request-api/internal/models"
)

func ids(records []models.FOIRequest) []string {
	out := make([]string, 0, len(records))
	for _, record := range records {
		out = append(out, record.ID)
	}
	return out
}

func TestFilterRequestsEmptyFilterKeepsOrder(t *testing.T) {
	records := SampleFOIRequests()

	got := FilterRequests(records, models.FOIRequestFilter{})

	if diff := cmp.Diff(ids(records), ids(got)); diff != "" {
		t.Fatalf("unexpected order (-want +got):\n%s", diff)
	}
}

func TestFilterRequestsCombinesCriteria(t *testing.T) {
	records := SampleFOIRequests()

	cases := []struct {
		name   string
		filter models.FOIRequestFilter
		want   []string
	}{
		{
			name:   "status",
			filter: models.FOIRequestFilter{Statuses: []models.RequestStatus{models.RequestStatusInProgress}},
			want:   []string{"FOI-2024-001", "FOI-2024-003"},
		},
		{
			name: "status and legislation",
			filter: models.FOIRequestFilter{
				Statuses:     []models.RequestStatus{models.RequestStatusInProgress, models.RequestStatusPendingReview},
				Legislations: []models.Legislation{models.LegislationFIPPA},
			},
			want: []string{"FOI-2024-002"},
		},
		{
			name:   "search by requester is case insensitive",
			filter: models.FOIRequestFilter{Search: "jOHN"},
			want:   []string{"FOI-2024-001"},
		},
		{
			name:   "search by id",
			filter: models.FOIRequestFilter{Search: "2024-003"},
			want:   []string{"FOI-2024-003"},
		},
		{
			name:   "search keeps surrounding whitespace",
			filter: models.FOIRequestFilter{Search: " doe"},
			want:   []string{"FOI-2024-003"},
		},
		{
			name:   "padded search does not match trimmed name",
			filter: models.FOIRequestFilter{Search: " john"},
			want:   []string{},
		},
		{
			name:   "whitespace search matches names containing a space",
			filter: models.FOIRequestFilter{Search: " "},
			want:   []string{"FOI-2024-001", "FOI-2024-002", "FOI-2024-003"},
		},
		{
			name:   "no match",
			filter: models.FOIRequestFilter{Legislations: []models.Legislation{models.LegislationMFIPPA}},
			want:   []string{},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := FilterRequests(records, tc.filter)
			if diff := cmp.Diff(tc.want, ids(got)); diff != "" {
				t.Fatalf("unexpected result (-want +got):\n%s", diff)
			}
		})
	}
}

func TestFilterRequestsIsIdempotent(t *testing.T) {
	filter := models.FOIRequestFilter{Search: "doe", Legislations: []models.Legislation{models.LegislationPHIPA}}
	once := FilterRequests(SampleFOIRequests(), filter)
	twice := FilterRequests(once, filter)

	assert.Equal(t, once, twice)
}
