package main

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/ma4s-org/veloinfo"
	"github.com/paulmach/osm"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var errBadRequest = errors.New("bad request")

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type server struct {
	cfg    veloinfo.Config
	engine *veloinfo.Engine
	store  veloinfo.FactStore
	logger *slog.Logger
	// Serializes data re-imports
	reloadMu sync.Mutex
}

func newServer(cfg veloinfo.Config, store veloinfo.FactStore, engine *veloinfo.Engine, logger *slog.Logger) *server {
	return &server{
		cfg:    cfg,
		engine: engine,
		store:  store,
		logger: logger,
	}
}

func (srv *server) router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), logRequests(srv.logger))
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/route", srv.routeByCoordinates)
	router.GET("/route/nodes", srv.routeByNodes)
	router.GET("/corridor", srv.corridor)
	router.GET("/progress", srv.progress)

	facts := router.Group("/facts")
	facts.POST("/score", srv.setScore)
	facts.POST("/road_work", srv.setRoadWork)
	facts.POST("/snow", srv.setSnow)

	invalidate := router.Group("/invalidate")
	invalidate.POST("/ways", srv.invalidateWays)
	invalidate.POST("/all", srv.invalidateAll)
	router.POST("/reload", srv.reloadHandler)
	return router
}

// writeError maps engine errors to HTTP statuses
func (srv *server) writeError(c *gin.Context, err error) {
	var notFound *veloinfo.CoordinateNotFoundError
	switch {
	case errors.Is(err, errBadRequest):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.As(err, &notFound):
		c.JSON(http.StatusNotFound, gin.H{
			"error":  err.Error(),
			"lon":    notFound.Lon,
			"lat":    notFound.Lat,
			"radius": notFound.Radius,
		})
	case errors.Is(err, veloinfo.ErrNodeNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, veloinfo.ErrStoreUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	case errors.Is(err, veloinfo.ErrLockTimeout):
		c.JSON(http.StatusAccepted, gin.H{"error": err.Error(), "skipped": true})
	default:
		srv.logger.Error("request failed", "path", c.FullPath(), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

// queryPoints parses `from` and `to` query parameters
func queryPoints(c *gin.Context) (veloinfo.GeoPoint, veloinfo.GeoPoint, error) {
	from, err := parseLonLat(c.Query("from"))
	if err != nil {
		return from, veloinfo.GeoPoint{}, errors.Wrap(err, "from")
	}
	to, err := parseLonLat(c.Query("to"))
	if err != nil {
		return from, to, errors.Wrap(err, "to")
	}
	return from, to, nil
}

func queryNodes(c *gin.Context) (osm.NodeID, osm.NodeID, error) {
	start, err := strconv.ParseInt(c.Query("start"), 10, 64)
	if err != nil {
		return 0, 0, errors.Wrap(err, "start")
	}
	end, err := strconv.ParseInt(c.Query("end"), 10, 64)
	if err != nil {
		return 0, 0, errors.Wrap(err, "end")
	}
	return osm.NodeID(start), osm.NodeID(end), nil
}

func (srv *server) writeRoute(c *gin.Context, route veloinfo.Route, points []veloinfo.Point) {
	format := c.DefaultQuery("format", FORMAT_JSON)
	body, err := formatRoute(route, points, format)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	contentType := "application/json"
	if format == FORMAT_WKT || format == FORMAT_POLYLINE {
		contentType = "text/plain; charset=utf-8"
	}
	c.Data(http.StatusOK, contentType, body)
}

func (srv *server) routeByCoordinates(c *gin.Context) {
	from, to, err := queryPoints(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	profile, err := profileByName(srv.engine, c.Query("profile"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	route, err := srv.engine.RouteCoordinates(c.Request.Context(), from, to, profile, nil)
	if err != nil {
		srv.writeError(c, err)
		return
	}
	srv.writeRoute(c, route, route.WithEndpoints(from, to))
}

func (srv *server) routeByNodes(c *gin.Context) {
	start, end, err := queryNodes(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	profile, err := profileByName(srv.engine, c.Query("profile"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	route, err := srv.engine.Route(c.Request.Context(), start, end, profile, nil)
	if err != nil {
		srv.writeError(c, err)
		return
	}
	srv.writeRoute(c, route, route.Points)
}

func (srv *server) corridor(c *gin.Context) {
	start, end, err := queryNodes(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ways, err := srv.engine.Corridor(c.Request.Context(), start, end)
	if err != nil {
		srv.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"way_ids": ways})
}

type searchResult struct {
	route veloinfo.Route
	err   error
}

// progress streams expanded edges of a search over websocket and finishes with the route.
// Closing the socket aborts the search
func (srv *server) progress(c *gin.Context) {
	from, to, err := queryPoints(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	profile, err := profileByName(srv.engine, c.Query("profile"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		srv.logger.Error("failed to upgrade the websocket", "error", err)
		return
	}
	defer ws.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sink := veloinfo.NewChannelSink(srv.cfg.ProgressBuffer)
	go func() {
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				sink.Disconnect()
				return
			}
		}
	}()
	done := make(chan searchResult, 1)
	go func() {
		route, err := srv.engine.RouteCoordinates(ctx, from, to, profile, sink)
		done <- searchResult{route: route, err: err}
	}()

	for {
		select {
		case sample := <-sink.Samples():
			if err := ws.WriteJSON(sample); err != nil {
				srv.logger.Info("progress consumer disconnected", "error", err)
				sink.Disconnect()
			}
		case res := <-done:
			if res.err != nil {
				if errors.Is(res.err, veloinfo.ErrSearchAborted) {
					return
				}
				ws.WriteJSON(gin.H{"action": "error", "error": res.err.Error()})
				return
			}
			ws.WriteJSON(gin.H{"action": "route", "route": newRouteResponse(res.route, res.route.WithEndpoints(from, to))})
			return
		}
	}
}

type factRequest struct {
	WayIDs   []int64  `json:"way_ids" binding:"required"`
	Score    *float64 `json:"score"`
	RoadWork *bool    `json:"road_work"`
	Snow     *bool    `json:"snow"`
}

func (req factRequest) ways() []osm.WayID {
	ways := make([]osm.WayID, len(req.WayIDs))
	for i, id := range req.WayIDs {
		ways[i] = osm.WayID(id)
	}
	return ways
}

// applyFact runs store mutation and invalidates every node it touched
func (srv *server) applyFact(c *gin.Context, mutate func(ctx context.Context, req factRequest) ([]osm.NodeID, error)) {
	var req factRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	nodes, err := mutate(c.Request.Context(), req)
	if err != nil {
		srv.writeError(c, err)
		return
	}
	if err := srv.engine.ClearNodes(nodes); err != nil {
		srv.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"invalidated_nodes": len(nodes)})
}

func (srv *server) setScore(c *gin.Context) {
	srv.applyFact(c, func(ctx context.Context, req factRequest) ([]osm.NodeID, error) {
		if req.Score == nil || (*req.Score != -1 && (*req.Score < 0 || *req.Score > 1)) {
			return nil, errors.Wrap(errBadRequest, "score must be -1 or within [0, 1]")
		}
		return srv.store.SetScore(ctx, req.ways(), *req.Score)
	})
}

func (srv *server) setRoadWork(c *gin.Context) {
	srv.applyFact(c, func(ctx context.Context, req factRequest) ([]osm.NodeID, error) {
		if req.RoadWork == nil {
			return nil, errors.Wrap(errBadRequest, "road_work is required")
		}
		return srv.store.SetRoadWork(ctx, req.ways(), *req.RoadWork)
	})
}

func (srv *server) setSnow(c *gin.Context) {
	srv.applyFact(c, func(ctx context.Context, req factRequest) ([]osm.NodeID, error) {
		if req.Snow == nil {
			return nil, errors.Wrap(errBadRequest, "snow is required")
		}
		return srv.store.SetCitySnow(ctx, req.ways(), *req.Snow)
	})
}

func (srv *server) invalidateWays(c *gin.Context) {
	var req factRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	nodes, err := srv.engine.InvalidateWays(c.Request.Context(), req.ways())
	if err != nil {
		srv.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"invalidated_nodes": len(nodes)})
}

func (srv *server) invalidateAll(c *gin.Context) {
	if err := srv.engine.ClearAll(); err != nil {
		srv.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cleared": true})
}

func (srv *server) reloadHandler(c *gin.Context) {
	go func() {
		if err := srv.reload(context.Background()); err != nil {
			srv.logger.Error("reload failed", "error", err)
		}
	}()
	c.JSON(http.StatusAccepted, gin.H{"reloading": true})
}

// reload re-imports data file when configured, then clears the cache and warms it up
func (srv *server) reload(ctx context.Context) error {
	if !srv.reloadMu.TryLock() {
		srv.logger.Info("reload already in progress")
		return nil
	}
	defer srv.reloadMu.Unlock()
	st := time.Now()
	if srv.cfg.DataFile != "" {
		if err := importData(ctx, srv.cfg, srv.store, srv.logger); err != nil {
			return err
		}
	}
	if err := srv.engine.ReloadAndWarm(ctx, srv.cfg.WarmRoutes); err != nil {
		return err
	}
	srv.logger.Info("reload finished", "took", time.Since(st))
	return nil
}
