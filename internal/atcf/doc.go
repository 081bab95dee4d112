// Package atcf parses Automated Tropical Cyclone Forecast (ATCF) deck records.
//
// # Data Source
//
// ADECK files carry forecast guidance, one line per technique, forecast hour,
// and wind-radii threshold. BDECK files carry the best track (technique
// "BEST") and the operational CARQ analyses. Both are comma-delimited with
// fixed column positions; trailing columns are optional.
//
// # Line Kinds
//
// Column 3 discriminates the line kind:
//
//	digits or empty    -> Track         e.g. "AL, 09, 2022092800, 03, OFCL, 012, ..."
//	YYYYMMDDHH         -> GenTrack      genesis guidance, every later column shifts by one
//	TR IN RI WD PR     -> probability   ensemble probability lines; RI covers
//	                                    both intensification and weakening
//	GN GS              -> probability   genesis probability lines
//
// Anything else is rejected with [ErrUnknownLineType].
//
// # Field Conventions
//
// Positions are tenths of a degree with a hemisphere suffix:
//
//	"300N"  -> 30.0
//	"0800W" -> -80.0   (degrees east; west and south are negative)
//
// Times are YYYYMMDDHH in UTC. Blank numeric columns are [MissingInt]. For
// radius and pressure-like columns a value of 0 is also missing, since zero is
// not a physical radius or pressure in this format.
//
// The technique name "AVN" is a legacy alias and is rewritten to "GFS"
// wherever it appears.
//
// # Valid and Lead Times
//
//	valid = warning time + forecast hour * 3600s (+ technique number minutes for best tracks)
//	lead  = 0 for best tracks, forecast hour * 3600s otherwise
//
// # Wind Radii
//
// Each track line reports radii for one wind threshold (34, 50 or 64 kt)
// starting at a reference quadrant and counting clockwise. [WindRadii]
// normalizes them into NE, SE, SW, NW order; "AAA" lines carry a single
// full-circle radius.
package atcf
