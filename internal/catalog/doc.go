// Package catalog holds the static table of languages the application
// supports, together with the display metadata and the speech voice used
// when pronouncing text in each language.
package catalog
