package netbird

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(url string) *Client {
	return NewClient(url, "test-token", 5*time.Second, nil)
}

func TestPeersSendsBearerToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/peers", r.URL.Path)
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		w.Write([]byte(`[{"id":"p1","name":"laptop","hostname":"laptop","connected":true}]`))
	}))
	defer server.Close()

	peers, err := testClient(server.URL).Peers(context.Background())
	require.NoError(t, err)
	require.Len(t, peers, 1)
	assert.Equal(t, "p1", peers[0].ID)
	assert.True(t, peers[0].Connected)
}

func TestGroupsDecodesBothMemberShapes(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[
			{"id":"g1","name":"old","peers":["p1","p2"]},
			{"id":"g2","name":"new","peers":[{"id":"p3","name":"laptop"}]}
		]`))
	}))
	defer server.Close()

	groups, err := testClient(server.URL).Groups(context.Background())
	require.NoError(t, err)
	require.Len(t, groups, 2)
	assert.Equal(t, []string{"p1", "p2"}, groups[0].PeerIDs())
	assert.Equal(t, []string{"p3"}, groups[1].PeerIDs())
	assert.Equal(t, "laptop", groups[1].Peers[0].Name)
}

func TestCreateGroupPostsBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/groups", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req GroupRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "peer-laptop", req.Name)
		assert.Equal(t, []string{"p1"}, req.Peers)

		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"id":"g1","name":"peer-laptop","peers":["p1"]}`))
	}))
	defer server.Close()

	group, err := testClient(server.URL).CreateGroup(context.Background(),
		GroupRequest{Name: "peer-laptop", Peers: []string{"p1"}})
	require.NoError(t, err)
	assert.Equal(t, "g1", group.ID)
}

func TestUpdateRoutePutsFullBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/api/routes/r1", r.URL.Path)

		var req RouteRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "0.0.0.0/0", req.Network)
		assert.Equal(t, []string{"g1"}, req.Groups)
		assert.Equal(t, 9999, req.Metric)

		w.Write([]byte(`{"id":"r1","network":"0.0.0.0/0","peer":"p2","groups":["g1"],"enabled":true}`))
	}))
	defer server.Close()

	route := Route{ID: "r1", Network: "0.0.0.0/0", Peer: "p2", Enabled: true}
	updated, err := testClient(server.URL).UpdateRoute(context.Background(), "r1",
		RouteUpdate(route, []string{"g1"}))
	require.NoError(t, err)
	assert.Equal(t, []string{"g1"}, updated.Groups)
}

func TestAuthenticationError(t *testing.T) {
	for _, status := range []int{http.StatusUnauthorized, http.StatusForbidden} {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
		}))

		_, err := testClient(server.URL).Peers(context.Background())
		assert.ErrorIs(t, err, ErrAuthentication, "status %d", status)
		server.Close()
	}
}

func TestAPIErrorCarriesStatusAndBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"message":"invalid route"}`))
	}))
	defer server.Close()

	_, err := testClient(server.URL).Routes(context.Background())
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnprocessableEntity, apiErr.Status)
	assert.Contains(t, apiErr.Body, "invalid route")
}

func TestConnectionError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // refuse all connections

	_, err := testClient(server.URL).Peers(context.Background())
	assert.ErrorIs(t, err, ErrConnection)
}

func TestBaseURLTrailingSlash(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/peers", r.URL.Path)
		w.Write([]byte(`[]`))
	}))
	defer server.Close()

	_, err := testClient(server.URL + "/").Peers(context.Background())
	assert.NoError(t, err)
}

func TestUndecodableBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not json`))
	}))
	defer server.Close()

	_, err := testClient(server.URL).Peers(context.Background())
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusOK, apiErr.Status)
}
