package hikeserver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pan-thu/m-hike-native-sub000/hikesync"
)

// memDocumentStore is the in-memory DocumentStore used by handler tests.
type memDocumentStore struct {
	mu           sync.Mutex
	hikes        map[string]hikesync.Hike
	observations map[string]hikesync.Observation
	failNext     error
}

func newMemDocumentStore() *memDocumentStore {
	return &memDocumentStore{
		hikes:        map[string]hikesync.Hike{},
		observations: map[string]hikesync.Observation{},
	}
}

func (m *memDocumentStore) UpsertHike(ctx context.Context, hike hikesync.Hike) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failNext != nil {
		err := m.failNext
		m.failNext = nil
		return err
	}
	m.hikes[hike.ID] = hike
	return nil
}

func (m *memDocumentStore) UpsertObservation(ctx context.Context, obs hikesync.Observation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failNext != nil {
		err := m.failNext
		m.failNext = nil
		return err
	}
	m.observations[obs.ID] = obs
	return nil
}

func (m *memDocumentStore) GetHikeOwner(ctx context.Context, hikeID string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	hike, ok := m.hikes[hikeID]
	if !ok {
		return "", false, nil
	}
	return hike.OwnerID, true, nil
}

// staticAuth authenticates every request as a fixed user.
type staticAuth struct {
	userID string
	err    error
}

func (a staticAuth) GetUserID(r *http.Request) (string, error) {
	if a.err != nil {
		return "", a.err
	}
	return a.userID, nil
}

func newTestHandlers(t *testing.T, authn ClientAuthenticator) (*HTTPHandlers, *memDocumentStore, *http.ServeMux) {
	t.Helper()
	store := newMemDocumentStore()
	service, err := NewService(store, nil)
	require.NoError(t, err)
	handlers := NewHTTPHandlers(service, authn, nil)
	mux := http.NewServeMux()
	handlers.Register(mux)
	return handlers, store, mux
}

func postJSON(t *testing.T, mux *http.ServeMux, path string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	r := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	r.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, r)
	return w
}

func validHike(id string) hikesync.Hike {
	return hikesync.Hike{ID: id, Name: "Ridge walk", Difficulty: hikesync.DifficultyEasy}
}

func TestHandleCreateHike(t *testing.T) {
	_, store, mux := newTestHandlers(t, staticAuth{userID: "user-1"})

	w := postJSON(t, mux, "/journal/hikes", CreateHikeRequest{Hike: validHike("h1")})
	require.Equal(t, http.StatusCreated, w.Code)

	var resp CreateHikeResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	require.Equal(t, "h1", resp.Hike.ID)
	// Owner always comes from the authenticated caller.
	require.Equal(t, "user-1", resp.Hike.OwnerID)
	require.Equal(t, "user-1", store.hikes["h1"].OwnerID)

	// Re-creating the same id is idempotent.
	w = postJSON(t, mux, "/journal/hikes", CreateHikeRequest{Hike: validHike("h1")})
	require.Equal(t, http.StatusCreated, w.Code)
	require.Len(t, store.hikes, 1)
}

func TestHandleCreateHikeValidation(t *testing.T) {
	cases := []struct {
		name string
		hike hikesync.Hike
	}{
		{"missing id", hikesync.Hike{Name: "x", Difficulty: hikesync.DifficultyEasy}},
		{"missing name", hikesync.Hike{ID: "h1", Difficulty: hikesync.DifficultyEasy}},
		{"bad difficulty", hikesync.Hike{ID: "h1", Name: "x", Difficulty: "vertical"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, mux := newTestHandlers(t, staticAuth{userID: "user-1"})
			w := postJSON(t, mux, "/journal/hikes", CreateHikeRequest{Hike: tc.hike})
			require.Equal(t, http.StatusUnprocessableEntity, w.Code)
		})
	}
}

func TestHandleCreateHikeRejectsForeignOwner(t *testing.T) {
	_, store, mux := newTestHandlers(t, staticAuth{userID: "user-2"})
	existing := validHike("h1")
	existing.OwnerID = "user-1"
	store.hikes["h1"] = existing

	w := postJSON(t, mux, "/journal/hikes", CreateHikeRequest{Hike: validHike("h1")})
	require.Equal(t, http.StatusForbidden, w.Code)

	var resp ErrorResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	require.Equal(t, "not_owner", resp.Code)
}

func TestHandleCreateObservation(t *testing.T) {
	_, store, mux := newTestHandlers(t, staticAuth{userID: "user-1"})
	w := postJSON(t, mux, "/journal/hikes", CreateHikeRequest{Hike: validHike("h1")})
	require.Equal(t, http.StatusCreated, w.Code)

	obs := hikesync.Observation{ID: "o1", HikeID: "h1", Text: "stream crossing"}
	w = postJSON(t, mux, "/journal/observations", CreateObservationRequest{Observation: obs})
	require.Equal(t, http.StatusCreated, w.Code)
	require.Contains(t, store.observations, "o1")
}

func TestHandleCreateObservationWithoutParentHike(t *testing.T) {
	_, _, mux := newTestHandlers(t, staticAuth{userID: "user-1"})

	obs := hikesync.Observation{ID: "o1", HikeID: "missing", Text: "orphan"}
	w := postJSON(t, mux, "/journal/observations", CreateObservationRequest{Observation: obs})
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)

	var resp ErrorResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	require.Equal(t, "parent_hike_missing", resp.Code)
}

func TestHandleHikeExists(t *testing.T) {
	_, _, mux := newTestHandlers(t, staticAuth{userID: "user-1"})
	w := postJSON(t, mux, "/journal/hikes", CreateHikeRequest{Hike: validHike("h1")})
	require.Equal(t, http.StatusCreated, w.Code)

	for _, tc := range []struct {
		id     string
		exists bool
	}{
		{"h1", true},
		{"h2", false},
	} {
		r := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/journal/hikes/%s/exists", tc.id), nil)
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, r)
		require.Equal(t, http.StatusOK, w.Code)

		var resp ExistsResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
		require.Equal(t, tc.exists, resp.Exists, "hike %s", tc.id)
	}
}

func TestHandlersRejectUnauthenticated(t *testing.T) {
	_, _, mux := newTestHandlers(t, staticAuth{err: fmt.Errorf("missing token")})

	w := postJSON(t, mux, "/journal/hikes", CreateHikeRequest{Hike: validHike("h1")})
	require.Equal(t, http.StatusUnauthorized, w.Code)

	r := httptest.NewRequest(http.MethodGet, "/journal/hikes/h1/exists", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, r)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHandleCreateHikeBadBody(t *testing.T) {
	_, _, mux := newTestHandlers(t, staticAuth{userID: "user-1"})
	r := httptest.NewRequest(http.MethodPost, "/journal/hikes", bytes.NewReader([]byte("{nope")))
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, r)
	require.Equal(t, http.StatusBadRequest, w.Code)
}
