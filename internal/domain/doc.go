// Package domain holds the service-level types that move between the
// pipeline and its adapters: raw deck lines on the way in and verification
// records on the way out.
//
// # Input
//
// A run reads three kinds of deck:
//
//	ADECK  forecast, probability and genesis rows ("aal092022.dat")
//	BDECK  best track rows used to verify forecasts ("bal092022.dat")
//	EDECK  probability rows ("eal092022.dat")
//
// Each line keeps its source name and line number so rejected rows can be
// reported against the file they came from.
//
// # Output
//
// Every record carries the run ID and a processed_at timestamp. Numeric
// values that ATCF leaves blank are encoded as JSON null rather than the
// -9999 sentinel used internally.
//
//	pair_point        one forecast/verification time with track and intensity errors
//	prob_rirw         a rapid intensity change probability and what verified
//	consensus_spread  member spread at one consensus lead time
//	landfall          a best track crossing from water to land
//	genesis           the first point of a track meeting the genesis criteria
//
// Record keys are "<storm_id>/<technique>/<init>" so all rows of one forecast
// land on the same partition.
package domain
