package main

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/ma4s-org/veloinfo"
	"github.com/paulmach/osm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNodes = map[osm.NodeID]veloinfo.GeoPoint{
	1: {Lon: -73.570, Lat: 45.500},
	2: {Lon: -73.569, Lat: 45.500},
	3: {Lon: -73.568, Lat: 45.500},
	4: {Lon: -73.570, Lat: 45.501},
	5: {Lon: -73.569, Lat: 45.501},
	6: {Lon: -73.568, Lat: 45.501},
}

// newTestServer serves a small grid: sett street 1-2-3, cycleway 1-4-5-6 with oneway 6->3, residential 2-5
func newTestServer(t *testing.T) *server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := veloinfo.NewMemoryStore()
	edge := func(id veloinfo.EdgeID, wayID osm.WayID, source, target osm.NodeID, tags ...osm.Tag) {
		store.AddEdge(veloinfo.EdgeRecord{
			ID:           id,
			WayID:        wayID,
			SourceNodeID: source,
			TargetNodeID: target,
			Source:       testNodes[source],
			Target:       testNodes[target],
			Tags:         osm.Tags(tags),
		})
	}
	street := []osm.Tag{{Key: "highway", Value: "tertiary"}, {Key: "surface", Value: "sett"}}
	cycleway := osm.Tag{Key: "highway", Value: "cycleway"}
	edge(1, 10, 1, 2, street...)
	edge(2, 10, 2, 3, street...)
	edge(3, 20, 1, 4, cycleway)
	edge(4, 30, 4, 5, cycleway)
	edge(5, 30, 5, 6, cycleway)
	edge(6, 40, 6, 3, cycleway, osm.Tag{Key: "oneway", Value: "yes"})
	edge(7, 50, 2, 5, osm.Tag{Key: "highway", Value: "residential"})

	cfg := veloinfo.DefaultConfig()
	cfg.WarmRoutes = nil
	return newServer(cfg, store, cfg.NewEngine(store, logger), logger)
}

func doRequest(t *testing.T, router http.Handler, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeRoute(t *testing.T, w *httptest.ResponseRecorder) ([]osm.NodeID, routeResponse) {
	t.Helper()
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp routeResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	nodes := []osm.NodeID{}
	for _, pt := range resp.Points {
		if pt.NodeID != 0 {
			nodes = append(nodes, pt.NodeID)
		}
	}
	return nodes, resp
}

func TestHealth(t *testing.T) {
	router := newTestServer(t).router()
	w := doRequest(t, router, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestRouteByNodes(t *testing.T) {
	router := newTestServer(t).router()
	nodes, resp := decodeRoute(t, doRequest(t, router, http.MethodGet, "/route/nodes?start=1&end=3", nil))
	assert.Equal(t, []osm.NodeID{1, 4, 5, 6, 3}, nodes)
	assert.True(t, resp.Found)
	assert.Equal(t, "balanced", resp.Profile)
	assert.NotEmpty(t, resp.SearchID)
	assert.NotEmpty(t, resp.Polyline)

	w := doRequest(t, router, http.MethodGet, "/route/nodes?start=1&end=3&format=wkt", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.HasPrefix(w.Body.String(), "LINESTRING("))
	assert.Contains(t, w.Header().Get("Content-Type"), "text/plain")

	w = doRequest(t, router, http.MethodGet, "/route/nodes?start=1&end=3&format=svg", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRouteByNodesErrors(t *testing.T) {
	router := newTestServer(t).router()
	w := doRequest(t, router, http.MethodGet, "/route/nodes?start=1&end=999", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doRequest(t, router, http.MethodGet, "/route/nodes?start=one&end=3", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(t, router, http.MethodGet, "/route/nodes?start=1&end=3&profile=fastest", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRouteByCoordinates(t *testing.T) {
	router := newTestServer(t).router()
	nodes, resp := decodeRoute(t, doRequest(t, router, http.MethodGet, "/route?from=-73.5701,45.4999&to=-73.5679,45.4999", nil))
	assert.Equal(t, []osm.NodeID{1, 4, 5, 6, 3}, nodes)
	require.NotEmpty(t, resp.Points)
	assert.Equal(t, -73.5701, resp.Points[0].Lon, "route starts at query point")

	w := doRequest(t, router, http.MethodGet, "/route?from=0,0&to=-73.5679,45.4999", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 0.0, body["lon"])
	assert.Contains(t, body, "radius")

	w = doRequest(t, router, http.MethodGet, "/route?from=-73.5701&to=-73.5679,45.4999", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCorridor(t *testing.T) {
	router := newTestServer(t).router()
	w := doRequest(t, router, http.MethodGet, "/corridor?start=1&end=3", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var body struct {
		WayIDs []osm.WayID `json:"way_ids"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, []osm.WayID{20, 30, 40}, body.WayIDs)
}

func TestScoreFactInvalidatesRoute(t *testing.T) {
	router := newTestServer(t).router()
	nodes, _ := decodeRoute(t, doRequest(t, router, http.MethodGet, "/route/nodes?start=3&end=1", nil))
	assert.Equal(t, []osm.NodeID{3, 2, 1}, nodes)

	w := doRequest(t, router, http.MethodPost, "/facts/score", gin.H{"way_ids": []int64{10}, "score": 0})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.JSONEq(t, `{"invalidated_nodes":3}`, w.Body.String())

	nodes, _ = decodeRoute(t, doRequest(t, router, http.MethodGet, "/route/nodes?start=3&end=1", nil))
	assert.Equal(t, []osm.NodeID{3, 2, 5, 4, 1}, nodes)
}

func TestFactValidation(t *testing.T) {
	router := newTestServer(t).router()
	w := doRequest(t, router, http.MethodPost, "/facts/score", gin.H{"way_ids": []int64{10}, "score": 2})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(t, router, http.MethodPost, "/facts/score", gin.H{"score": 0.5})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(t, router, http.MethodPost, "/facts/road_work", gin.H{"way_ids": []int64{10}})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(t, router, http.MethodPost, "/facts/snow", gin.H{"way_ids": []int64{10}, "snow": true})
	assert.Equal(t, http.StatusOK, w.Code)

	w = doRequest(t, router, http.MethodPost, "/facts/road_work", gin.H{"way_ids": []int64{50}, "road_work": true})
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"invalidated_nodes":2}`, w.Body.String())
}

func TestInvalidate(t *testing.T) {
	srv := newTestServer(t)
	router := srv.router()
	decodeRoute(t, doRequest(t, router, http.MethodGet, "/route/nodes?start=1&end=3", nil))

	w := doRequest(t, router, http.MethodPost, "/invalidate/ways", gin.H{"way_ids": []int64{30}})
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"invalidated_nodes":3}`, w.Body.String())

	w = doRequest(t, router, http.MethodPost, "/invalidate/all", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0, srv.engine.Cache().Len())
}

func TestProgressWebsocket(t *testing.T) {
	ts := httptest.NewServer(newTestServer(t).router())
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/progress?from=-73.5701,45.4999&to=-73.5679,45.4999"
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer ws.Close()

	for {
		_, data, err := ws.ReadMessage()
		require.NoError(t, err)
		if len(data) > 0 && data[0] == '[' {
			var sample veloinfo.ProgressSample
			require.NoError(t, json.Unmarshal(data, &sample))
			continue
		}
		var msg struct {
			Action string        `json:"action"`
			Route  routeResponse `json:"route"`
		}
		require.NoError(t, json.Unmarshal(data, &msg))
		assert.Equal(t, "route", msg.Action)
		assert.True(t, msg.Route.Found)
		return
	}
}

func TestParseLonLat(t *testing.T) {
	pt, err := parseLonLat(" -73.5, 45.5 ")
	require.NoError(t, err)
	assert.Equal(t, veloinfo.GeoPoint{Lon: -73.5, Lat: 45.5}, pt)

	for _, str := range []string{"", "1", "a,b", "1,x", "200,0", "0,-91"} {
		_, err := parseLonLat(str)
		assert.Error(t, err, str)
	}
}

func TestFormatRoute(t *testing.T) {
	route := veloinfo.Route{ID: "id", Profile: "balanced"}
	data, err := formatRoute(route, nil, FORMAT_JSON)
	require.NoError(t, err)
	var resp routeResponse
	require.NoError(t, json.Unmarshal(data, &resp))
	assert.False(t, resp.Found)
	assert.Empty(t, resp.Points)
	assert.Empty(t, resp.Polyline)

	_, err = formatRoute(route, nil, "kml")
	assert.Error(t, err)
}
