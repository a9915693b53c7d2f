// Package batch imports a file of terms into the library. Each term is
// analyzed through the gateway, optionally illustrated, and saved.
package batch
