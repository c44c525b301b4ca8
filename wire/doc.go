// Package wire implements the client framing protocol: an 8-byte
// big-endian length prefix, an uncompressed MetaData payload, and an
// optional gzip-compressed Container payload.
//
// MetaData and the structured Container shapes this package defines
// (ResultRequest, NewJobResponse, StatusRecord, ErrorMessage,
// AvailableHandlersResponse) are encoded as JSON: the protocol only ever
// treats job request/response bodies as opaque bytes, so every Container
// this package itself needs to read is small and structured, and JSON keeps
// it inspectable on the wire without inventing a new binary layout. The
// opaque request/response blob a NEW_JOB or RESULT
// Container carries is passed through this package untouched; decoding it
// is the handler's business, not this package's.
package wire
