package instrumentation

// Operation types for calendar provider metrics and spans.
// Status, backend and outcome constants are defined in config.go.
const (
	OperationList     = "list"
	OperationFreeBusy = "freebusy"
	OperationCreate   = "create"
	OperationUpdate   = "update"
	OperationDelete   = "delete"
)

// boundedOperations are the only operation label values metrics accept.
var boundedOperations = map[string]bool{
	OperationList:     true,
	OperationFreeBusy: true,
	OperationCreate:   true,
	OperationUpdate:   true,
	OperationDelete:   true,
}

// NormalizeOperation maps unknown operation names to "other" so a caller bug
// cannot blow up metric cardinality.
func NormalizeOperation(op string) string {
	if boundedOperations[op] {
		return op
	}
	return "other"
}
