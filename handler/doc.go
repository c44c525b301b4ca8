// Package handler implements the process-wide handler registry: a single
// write-once map from handler name to descriptor, populated at init time
// and read-only once the server starts accepting connections.
//
// Handlers themselves, the actual graph computations, are opaque to this
// package; it only names and dispatches them. Concrete handler packages
// register themselves from an init function before either binary's main
// runs.
package handler
