// Package formats provides parsers for Ragnarok Online zone files.
//
// Only the ground mesh (GND) is read here; it is the geometry source for
// zone export.
package formats
