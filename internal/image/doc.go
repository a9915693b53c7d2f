// Package image handles the image references attached to term records.
//
// A reference is either a data URI carrying the generated image inline or an
// http(s) URL, such as the placeholder used when generation failed. Fetcher
// resolves both kinds into bytes, decoded images or files on disk.
package image
