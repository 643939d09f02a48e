// Package vector extends a collection with a declared dimension and distance
// metric, validating and optionally normalizing each record's vector field on
// write, and performing exact brute-force similarity search on read (spec §4.8).
package vector
