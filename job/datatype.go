package job

// DataType tags the payload stored in a Data row (and, by extension, the
// request_type/response_type recorded on the owning Job). It is encoded as
// a small integer in storage rather than a string, so that the schema does
// not couple to handler naming.
//
// The concrete byte layout of the payload itself is opaque to this package
// and to the persistence gateway; only the tag is interpreted here.
type DataType uint8

const (
	// Undefined is the zero value, used before a request has been
	// classified.
	Undefined DataType = iota

	// ShortestPath tags a single shortest-path request/response pair.
	ShortestPath

	// Generic tags the general-purpose graph request/response shape that
	// can describe any registered handler's input or output.
	Generic

	// AvailableHandlers tags the capability-listing response.
	AvailableHandlers
)

func dataTypeToString(t DataType) string {
	switch t {
	case ShortestPath:
		return "SHORTEST_PATH"
	case Generic:
		return "GENERIC"
	case AvailableHandlers:
		return "AVAILABLE_HANDLERS"
	default:
		return "UNDEFINED"
	}
}

// String returns the canonical string representation of the data type.
func (t DataType) String() string {
	return dataTypeToString(t)
}
