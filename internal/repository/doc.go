// Package repository gives one table a small data-access surface built from
// its CREATE TABLE script: table initialization, paged reads, single-row
// writes and bulk creation.
//
// The script is parsed once when the Repository is built. Writes bind record
// values through the parsed column types; reads reshape dotted column names
// into nested maps.
//
// Reads are retried on transient errors. Writes run once.
package repository
