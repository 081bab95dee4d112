package domain

import (
	"context"
	"log/slog"
)

// EnrichLandfall names the place where a landfall came ashore. If geocoder
// is nil or the lookup fails the record is returned with GeoSource set
// accordingly.
func EnrichLandfall(ctx context.Context, rec LandfallRecord, geocoder Geocoder, logger *slog.Logger) LandfallRecord {
	if geocoder == nil {
		return rec
	}

	result, err := geocoder.ReverseGeocode(ctx, rec.Lat, rec.Lon)
	if err != nil {
		logger.Warn("reverse geocoding failed",
			"landfall", rec.LandfallKey(),
			"lat", rec.Lat,
			"lon", rec.Lon,
			"error", err,
		)
		rec.GeoSource = "failed"
		return rec
	}
	if result.FormattedAddress != "" {
		rec.FormattedAddress = result.FormattedAddress
		rec.PlaceName = result.PlaceName
		rec.GeoConfidence = result.Confidence
		rec.GeoSource = "reverse"
		return rec
	}
	rec.GeoSource = "original"
	return rec
}
