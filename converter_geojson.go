package veloinfo

import (
	geojson "github.com/paulmach/go.geojson"
)

// PrepareGeoJSONRoute returns FeatureCollection with route line and one point feature per waypoint
func PrepareGeoJSONRoute(route Route, points []Point) ([]byte, error) {
	fc := geojson.NewFeatureCollection()
	line := make([][]float64, len(points))
	for i := range points {
		line[i] = []float64{points[i].Lon, points[i].Lat}
	}
	feature := geojson.NewLineStringFeature(line)
	feature.SetProperty("search_id", route.ID)
	feature.SetProperty("profile", route.Profile)
	feature.SetProperty("cost", route.Cost)
	feature.SetProperty("length_km", route.LengthKm())
	fc.AddFeature(feature)
	for i := range points {
		pt := geojson.NewPointFeature([]float64{points[i].Lon, points[i].Lat})
		pt.SetProperty("node_id", int64(points[i].NodeID))
		pt.SetProperty("way_id", int64(points[i].WayID))
		pt.SetProperty("length", points[i].Length)
		pt.SetProperty("distance", points[i].Distance)
		fc.AddFeature(pt)
	}
	return fc.MarshalJSON()
}

// PrepareGeoJSONPoint returns GeoJSON representation of Point
func PrepareGeoJSONPoint(pt GeoPoint) (string, error) {
	b, err := geojson.NewPointGeometry([]float64{pt.Lon, pt.Lat}).MarshalJSON()
	if err != nil {
		return "", err
	}
	return string(b), nil
}
