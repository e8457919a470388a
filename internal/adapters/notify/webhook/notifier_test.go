package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pill-reminder/internal/domain/regimens"
	"pill-reminder/internal/platform/httpclient"
	"pill-reminder/internal/reminders"
)

func TestNotify_PostsReminder(t *testing.T) {
	var got map[string]any
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	n, err := New(httpclient.New(time.Second), srv.URL+"/reminders", map[string]string{"Authorization": "Bearer t"})
	require.NoError(t, err)

	fired := time.Date(2025, 12, 22, 20, 5, 0, 0, time.UTC)
	err = n.Notify(context.Background(), reminders.Reminder{
		JobID:      "job-1",
		RegimenID:  "reg-1",
		DosageID:   "dos-1",
		ExternalID: "patient-1",
		DosageTime: regimens.DosageTime{Hour: 20, Minute: 5},
		Medicines:  []string{"paracetamol", "ibuprofeno"},
		Attempt:    2,
		FiredAt:    fired,
	})
	require.NoError(t, err)

	assert.Equal(t, "Bearer t", auth)
	assert.Equal(t, "reg-1", got["pill_regimen_id"])
	assert.Equal(t, "patient-1", got["external_id"])
	assert.Equal(t, float64(20), got["dosage_hour"])
	assert.Equal(t, float64(5), got["dosage_minute"])
	assert.Equal(t, []any{"paracetamol", "ibuprofeno"}, got["medicines"])
	assert.Equal(t, float64(2), got["attempt"])
	assert.Equal(t, fired.Format(time.RFC3339), got["fired_at"])
}

func TestNotify_PropagatesHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	n, err := New(nil, srv.URL, nil)
	require.NoError(t, err)

	err = n.Notify(context.Background(), reminders.Reminder{RegimenID: "reg-1", DosageID: "dos-1"})

	var herr *httpclient.HTTPError
	require.True(t, errors.As(err, &herr))
	assert.Equal(t, http.StatusServiceUnavailable, herr.StatusCode)
}

func TestNew_RejectsBadURL(t *testing.T) {
	_, err := New(nil, "not a url", nil)
	assert.Error(t, err)
}
