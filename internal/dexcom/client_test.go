package dexcom

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/t1000cgm/companion/internal/domain"
	apperrors "github.com/t1000cgm/companion/internal/errors"
)

type staticCreds struct {
	settings domain.Settings
}

func (s staticCreds) Current() domain.Settings {
	return s.settings
}

func testCreds() staticCreds {
	return staticCreds{settings: domain.Settings{
		Username: "account",
		Password: "secret",
		Server:   domain.ServerUS,
	}}
}

func TestLogin(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, loginPath, r.URL.Path)
		require.Equal(t, userAgent, r.Header.Get("User-Agent"))

		var req loginRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "account", req.AccountName)
		require.Equal(t, "secret", req.Password)
		require.Equal(t, applicationID, req.ApplicationID)

		// The server answers with a JSON string: the token is quoted.
		fmt.Fprint(w, `"0f38c-session-token"`)
	}))
	defer server.Close()

	client := NewClientWithBaseURL(testCreds(), server.URL)
	session, err := client.Login(context.Background())
	require.NoError(t, err)
	require.Equal(t, "0f38c-session-token", session)
}

func TestLoginRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "AccountPasswordInvalid", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClientWithBaseURL(testCreds(), server.URL)
	_, err := client.Login(context.Background())
	require.Error(t, err)

	var appErr *apperrors.AppError
	require.True(t, errors.As(err, &appErr))
	require.Equal(t, apperrors.ErrorTypeAuth, appErr.Type)
	require.Equal(t, http.StatusInternalServerError, appErr.StatusCode)
}

func TestFetchReadingsRequiresSession(t *testing.T) {
	client := NewClientWithBaseURL(testCreds(), "http://unused.invalid")
	_, err := client.FetchReadings(context.Background(), "")
	require.ErrorIs(t, err, apperrors.ErrNotAuthenticated)
}

func TestFetchReadings(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	wt := func(t time.Time) string {
		return fmt.Sprintf("/Date(%d)/", t.UnixMilli())
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, readingsPath, r.URL.Path)
		query := r.URL.Query()
		require.Equal(t, "sess-1", query.Get("sessionID"))
		require.Equal(t, "1440", query.Get("minutes"))
		require.Equal(t, "24", query.Get("maxCount"))

		fmt.Fprintf(w, `[
			{"WT":"%s","Value":112,"Trend":"Flat"},
			{"WT":"%s","Value":118.0,"Trend":3},
			{"WT":"%s","Value":121,"Trend":"NotComputable"},
			{"WT":"bogus","Value":50,"Trend":"Flat"},
			{"WT":"%s","Value":125,"Trend":12}
		]`, wt(now), wt(now.Add(-5*time.Minute)), wt(now.Add(-10*time.Minute)), wt(now.Add(-15*time.Minute)))
	}))
	defer server.Close()

	client := NewClientWithBaseURL(testCreds(), server.URL)
	readings, err := client.FetchReadings(context.Background(), "sess-1")
	require.NoError(t, err)
	require.Len(t, readings, 4) // the unparsable timestamp is dropped

	require.Equal(t, domain.Reading{Value: 112, Timestamp: now, Trend: domain.TrendFlat}, readings[0])
	require.Equal(t, domain.TrendFortyFiveUp, readings[1].Trend)
	require.Equal(t, domain.TrendNone, readings[2].Trend) // unknown name
	require.Equal(t, domain.TrendNone, readings[3].Trend) // out-of-range code

	for i := 1; i < len(readings); i++ {
		require.False(t, readings[i].Timestamp.After(readings[i-1].Timestamp),
			"readings must be most recent first")
	}
}

func TestFetchReadingsEmptyResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[]`)
	}))
	defer server.Close()

	client := NewClientWithBaseURL(testCreds(), server.URL)
	_, err := client.FetchReadings(context.Background(), "sess-1")
	require.ErrorIs(t, err, apperrors.ErrNoData)
}

func TestFetchReadingsSessionExpired(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "SessionIdNotFound", http.StatusUnauthorized)
	}))
	defer server.Close()

	client := NewClientWithBaseURL(testCreds(), server.URL)
	_, err := client.FetchReadings(context.Background(), "stale")

	var appErr *apperrors.AppError
	require.True(t, errors.As(err, &appErr))
	require.Equal(t, apperrors.ErrorTypeAuth, appErr.Type)
	require.Equal(t, http.StatusUnauthorized, appErr.StatusCode)
}

func TestRegionSelection(t *testing.T) {
	client := NewClient(staticCreds{settings: domain.Settings{Server: domain.ServerOUS}})
	require.Equal(t, baseURLOUS+loginPath, client.endpoint(loginPath))

	client = NewClient(staticCreds{settings: domain.Settings{Server: domain.ServerUS}})
	require.Equal(t, baseURLUS+loginPath, client.endpoint(loginPath))
}
