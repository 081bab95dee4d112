// Package track assembles decoded ATCF rows into per-storm tracks and builds
// consensus tracks from sets of member forecasts.
//
// A Track moves through a small state machine. Its first row fixes the class
// as forecast or best. A forecast track whose rows keep the same technique
// number at zero lead while the valid time advances is reclassified as an
// analysis track and its init time is cleared. Best and analysis tracks then
// accept rows up to MaxBestTimeGap apart; forecast tracks require the same
// technique number and init time.
package track
