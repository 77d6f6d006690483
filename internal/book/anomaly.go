package book

// AnomalyKind classifies a non-fatal conversion defect. Anomalies are data on
// the conversion result, never errors: the pipeline keeps going and editorial
// tooling reviews them afterwards.
type AnomalyKind string

const (
	// AnomalyStructural marks an unexpected or missing element that was
	// passed through unmodified.
	AnomalyStructural AnomalyKind = "structural"
	// AnomalyTableFallback marks a table whose resolved merge spans did not
	// sum to the declared grid width and which reverted to 1x1 cells.
	AnomalyTableFallback AnomalyKind = "table-fallback"
	// AnomalyUnresolvedRef marks a citation or figure/table reference with no
	// or ambiguous bibliography match.
	AnomalyUnresolvedRef AnomalyKind = "unresolved-ref"
)

// Anomaly is one recorded defect.
type Anomaly struct {
	Kind   AnomalyKind
	Detail string
}
