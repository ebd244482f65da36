package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDateAddDaysCrossesMonth(t *testing.T) {
	d := MustParseDate("2024-11-01")

	assert.Equal(t, "2024-12-01", d.AddDays(30).String())
	assert.Equal(t, "2024-12-31", d.AddDays(60).String())
}

func TestDateJSONRoundTrip(t *testing.T) {
	var payload struct {
		Received Date `json:"received"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"received":"2024-11-15"}`), &payload))
	assert.Equal(t, NewDate(2024, time.November, 15), payload.Received)

	out, err := json.Marshal(payload)
	require.NoError(t, err)
	assert.JSONEq(t, `{"received":"2024-11-15"}`, string(out))
}

func TestDateUnmarshalRejectsBadLayout(t *testing.T) {
	var d Date
	assert.Error(t, json.Unmarshal([]byte(`"15/11/2024"`), &d))
}

func TestDateScan(t *testing.T) {
	var d Date
	require.NoError(t, d.Scan(time.Date(2024, 10, 20, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "2024-10-20", d.String())

	require.NoError(t, d.Scan([]byte("2024-11-19T00:00:00Z")))
	assert.Equal(t, "2024-11-19", d.String())

	require.NoError(t, d.Scan(nil))
	assert.True(t, d.IsZero())

	assert.Error(t, d.Scan(42))
}

func TestFOITransitionPermits(t *testing.T) {
	notExtended := false
	transition := FOITransition{
		FromStatus:       []RequestStatus{RequestStatusInProgress},
		RequireExtension: &notExtended,
		ToStatus:         RequestStatusExtended,
	}

	assert.True(t, transition.Permits(&FOIRequest{Status: RequestStatusInProgress}))
	assert.False(t, transition.Permits(&FOIRequest{Status: RequestStatusInProgress, ExtensionGranted: true}))
	assert.False(t, transition.Permits(&FOIRequest{Status: RequestStatusPendingReview}))
	assert.False(t, transition.Permits(nil))
}
