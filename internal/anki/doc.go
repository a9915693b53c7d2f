// Package anki exports the library as Anki import files: a .apkg package
// with media, or a legacy CSV file.
package anki
