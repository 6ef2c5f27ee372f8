package main

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ma4s-org/veloinfo"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func newExportCmd() *cobra.Command {
	var (
		osmFileName   string
		out           string
		geomFormat    string
		profileName   string
		doContraction bool
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export bicycle-weighted graph (and contraction hierarchies shortcuts) to CSV files",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if osmFileName != "" {
				cfg.DataFile = osmFileName
			}
			store, err := veloinfo.LoadOSM(cmd.Context(), cfg.DataFile, true, logger)
			if err != nil {
				return err
			}
			engine := cfg.NewEngine(store, logger)
			profile, err := profileByName(engine, profileName)
			if err != nil {
				return err
			}
			graph, edges, verticesGeoms, err := veloinfo.BuildCHGraph(store.Records(), profile)
			if err != nil {
				return err
			}

			fnamePart := strings.Split(out, ".csv") // to guarantee proper filename and its extension
			fnameEdges := fnamePart[0] + ".csv"
			fnameVertices := fnamePart[0] + "_vertices.csv"
			fnameShortcuts := fnamePart[0] + "_shortcuts.csv"

			/* Edges file */
			fileEdges, err := os.Create(fnameEdges)
			if err != nil {
				return errors.Wrap(err, "Can't create edges file")
			}
			defer fileEdges.Close()
			writerEdges := csv.NewWriter(fileEdges)
			defer writerEdges.Flush()
			writerEdges.Comma = ';'
			// 		from_vertex_id - int64, ID of source OSM node
			// 		to_vertex_id - int64, ID of target OSM node
			// 		weight - float64, Bicycle cost of traversal
			//      geom - geometry (WKT or GeoJSON representation)
			//      edge_id - int64, ID of edge
			// 		osm_way_id - int64, ID of OSM Way
			// 		length - float64, Length in meters
			err = writerEdges.Write([]string{"from_vertex_id", "to_vertex_id", "weight", "geom", "edge_id", "osm_way_id", "length"})
			if err != nil {
				return err
			}
			for _, edge := range edges {
				geomStr := ""
				pts := []veloinfo.Point{
					{Lon: edge.Point.From().Lon, Lat: edge.Point.From().Lat},
					{Lon: edge.Point.To().Lon, Lat: edge.Point.To().Lat},
				}
				if strings.ToLower(geomFormat) == "geojson" {
					b, err := veloinfo.PrepareGeoJSONRoute(veloinfo.Route{}, pts)
					if err != nil {
						return err
					}
					geomStr = string(b)
				} else {
					geomStr = veloinfo.PrepareWKTLinestring(pts)
				}
				err = writerEdges.Write([]string{
					fmt.Sprintf("%d", edge.Source),
					fmt.Sprintf("%d", edge.Target),
					fmt.Sprintf("%f", edge.Weight),
					geomStr,
					fmt.Sprintf("%d", edge.Point.ID),
					fmt.Sprintf("%d", edge.Point.WayID),
					fmt.Sprintf("%f", edge.Point.LengthMeters),
				})
				if err != nil {
					return err
				}
			}

			if doContraction {
				logger.Info("Starting contraction process....")
				st := time.Now()
				graph.PrepareContractionHierarchies()
				logger.Info(fmt.Sprintf("Done contraction process in %v", time.Since(st)))
			}

			/* Vertices file */
			fileVertices, err := os.Create(fnameVertices)
			if err != nil {
				return errors.Wrap(err, "Can't create vertices file")
			}
			defer fileVertices.Close()
			writerVertices := csv.NewWriter(fileVertices)
			defer writerVertices.Flush()
			writerVertices.Comma = ';'
			// 		vertex_id - int64, ID of vertex
			// 		order_pos - int, Position of vertex in hierarchies (evaluted by library)
			// 		importance - int, Importance of vertex in graph (evaluted by library)
			//      geom - geometry (WKT or GeoJSON representation)
			err = writerVertices.Write([]string{"vertex_id", "order_pos", "importance", "geom"})
			if err != nil {
				return err
			}
			for i := range graph.Vertices {
				currentVertexExternal := graph.Vertices[i].Label
				vertexGeom := verticesGeoms[currentVertexExternal]
				geomStr := ""
				if strings.ToLower(geomFormat) == "geojson" {
					geomStr, err = veloinfo.PrepareGeoJSONPoint(vertexGeom)
					if err != nil {
						return err
					}
				} else {
					geomStr = veloinfo.PrepareWKTPoint(vertexGeom)
				}
				err = writerVertices.Write([]string{
					fmt.Sprintf("%d", currentVertexExternal),
					fmt.Sprintf("%d", graph.Vertices[i].OrderPos()),
					fmt.Sprintf("%d", graph.Vertices[i].Importance()),
					geomStr,
				})
				if err != nil {
					return err
				}
			}

			if doContraction {
				/* Write shortcuts */
				// 	from_vertex_id - int64, ID of source vertex
				// 	to_vertex_id - int64, ID of arget vertex
				// 	weight - float64, Weight of an edge
				// 	via_vertex_id - int64, ID of vertex through which the shortcut exists
				if err := graph.ExportShortcutsToFile(fnameShortcuts); err != nil {
					return errors.Wrap(err, "Can't export shortcuts")
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&osmFileName, "file", "", "Filename of *.osm or *.osm.pbf file (overrides data_file of configuration)")
	cmd.Flags().StringVar(&out, "out", "veloinfo_graph.csv", "Filename of 'Comma-Separated Values' (CSV) formatted file. E.g.: if file name is 'map.csv' then 3 files will be produced: 'map.csv' (edges), 'map_vertices.csv', 'map_shortcuts.csv'")
	cmd.Flags().StringVar(&geomFormat, "geomf", "wkt", "Format of output geometry. Expected values: wkt / geojson")
	cmd.Flags().StringVar(&profileName, "profile", "balanced", "Cost profile of weights. Expected values: balanced / corridor")
	cmd.Flags().BoolVar(&doContraction, "contract", true, "Prepare contraction hierarchies?")
	return cmd
}
