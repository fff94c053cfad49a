// Package generator produces synthetic vehicle readings.
//
// A [Source] hands out one reading per call and never runs dry. [Random] is
// the production source; [Sequence] replays a fixed list and is meant for
// tests and demos that need a predictable stream.
package generator
