package main

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/ma4s-org/veloinfo"
	"github.com/paulmach/osm"
	"github.com/spf13/cobra"
)

const (
	FORMAT_JSON     = "json"
	FORMAT_GEOJSON  = "geojson"
	FORMAT_WKT      = "wkt"
	FORMAT_POLYLINE = "polyline"
)

// routeResponse is JSON body describing found route
type routeResponse struct {
	SearchID   string           `json:"search_id"`
	Profile    string           `json:"profile"`
	Found      bool             `json:"found"`
	Cost       float64          `json:"cost"`
	LengthKm   float64          `json:"length_km"`
	Expansions int              `json:"expansions"`
	CapReached bool             `json:"cap_reached"`
	Points     []veloinfo.Point `json:"points"`
	Polyline   string           `json:"polyline,omitempty"`
}

func newRouteResponse(route veloinfo.Route, points []veloinfo.Point) routeResponse {
	resp := routeResponse{
		SearchID:   route.ID,
		Profile:    route.Profile,
		Found:      route.Found(),
		Cost:       route.Cost,
		LengthKm:   route.LengthKm(),
		Expansions: route.Expansions,
		CapReached: route.CapReached,
		Points:     points,
	}
	if resp.Points == nil {
		resp.Points = []veloinfo.Point{}
	}
	if route.Found() {
		resp.Polyline = veloinfo.PreparePolyline(points)
	}
	return resp
}

// formatRoute serializes route in requested format
func formatRoute(route veloinfo.Route, points []veloinfo.Point, format string) ([]byte, error) {
	switch format {
	case "", FORMAT_JSON:
		return json.Marshal(newRouteResponse(route, points))
	case FORMAT_GEOJSON:
		return veloinfo.PrepareGeoJSONRoute(route, points)
	case FORMAT_WKT:
		return []byte(veloinfo.PrepareWKTLinestring(points)), nil
	case FORMAT_POLYLINE:
		return []byte(veloinfo.PreparePolyline(points)), nil
	}
	return nil, fmt.Errorf("unknown format '%s'", format)
}

func newRouteCmd() *cobra.Command {
	var (
		from, to    string
		start, end  int64
		profileName string
		format      string
	)
	cmd := &cobra.Command{
		Use:   "route",
		Short: "Compute a single route and print it",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := newLogger()
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			store, closer, err := openStore(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer closer()
			engine := cfg.NewEngine(store, logger)
			profile, err := profileByName(engine, profileName)
			if err != nil {
				return err
			}

			var route veloinfo.Route
			var points []veloinfo.Point
			if start != 0 && end != 0 {
				route, err = engine.Route(ctx, osm.NodeID(start), osm.NodeID(end), profile, nil)
				if err != nil {
					return err
				}
				points = route.Points
			} else {
				fromPt, err := parseLonLat(from)
				if err != nil {
					return err
				}
				toPt, err := parseLonLat(to)
				if err != nil {
					return err
				}
				route, err = engine.RouteCoordinates(ctx, fromPt, toPt, profile, nil)
				if err != nil {
					return err
				}
				points = route.WithEndpoints(fromPt, toPt)
			}
			if !route.Found() {
				fmt.Fprintln(cmd.ErrOrStderr(), "No route found (expansions: "+strconv.Itoa(route.Expansions)+")")
			}
			out, err := formatRoute(route, points, format)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "Start coordinates as 'lon,lat'")
	cmd.Flags().StringVar(&to, "to", "", "End coordinates as 'lon,lat'")
	cmd.Flags().Int64Var(&start, "start", 0, "Start node ID (overrides --from)")
	cmd.Flags().Int64Var(&end, "end", 0, "End node ID (overrides --to)")
	cmd.Flags().StringVar(&profileName, "profile", "balanced", "Cost profile. Expected values: balanced / corridor")
	cmd.Flags().StringVar(&format, "format", FORMAT_JSON, "Output format. Expected values: json / geojson / wkt / polyline")
	return cmd
}
