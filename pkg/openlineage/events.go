package openlineage

import (
	"time"

	"github.com/google/uuid"
	"github.com/leapstack-labs/leaplineage/pkg/core"
	"github.com/leapstack-labs/leaplineage/pkg/lineage"
)

// EventType is the run state transition an event reports.
type EventType string

// EventType constants.
const (
	EventStart    EventType = "START"
	EventRunning  EventType = "RUNNING"
	EventComplete EventType = "COMPLETE"
	EventAbort    EventType = "ABORT"
	EventFail     EventType = "FAIL"
	EventOther    EventType = "OTHER"
)

// Run identifies one execution of a job.
type Run struct {
	RunID uuid.UUID `json:"runId"`
}

// Job identifies the process producing a dataset.
type Job struct {
	Namespace string `json:"namespace"`
	Name      string `json:"name"`
}

// Dataset is an input or output dataset of a run.
type Dataset struct {
	Namespace string         `json:"namespace"`
	Name      string         `json:"name"`
	Facets    map[string]any `json:"facets,omitempty"`
}

// RunEvent reports a state transition of a run together with the datasets
// it reads and writes.
type RunEvent struct {
	EventType EventType `json:"eventType"`
	EventTime time.Time `json:"eventTime"`
	Producer  string    `json:"producer"`
	SchemaURL string    `json:"schemaURL"`
	Run       Run       `json:"run"`
	Job       Job       `json:"job"`
	Inputs    []Dataset `json:"inputs"`
	Outputs   []Dataset `json:"outputs"`
}

// NewRunEvent builds a COMPLETE event for a run that wrote output from
// result. The inputs are the distinct source tables in order of first
// appearance; the output carries column lineage and schema facets.
func NewRunEvent(producer string, runID uuid.UUID, job Job, output Dataset, result *lineage.Result) *RunEvent {
	if runID == uuid.Nil {
		runID = uuid.New()
	}

	type datasetKey struct{ namespace, name string }
	seen := make(map[datasetKey]struct{})
	inputs := []Dataset{}
	result.Each(func(_ string, field core.FieldLineage) {
		for _, in := range field.InputFields {
			key := datasetKey{in.Namespace, in.Name}
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			inputs = append(inputs, Dataset{Namespace: in.Namespace, Name: in.Name})
		}
	})

	facets := make(map[string]any, len(output.Facets)+2)
	for k, v := range output.Facets {
		facets[k] = v
	}
	facets[ColumnLineageFacetKey] = NewColumnLineageFacet(producer, result)
	facets[SchemaFacetKey] = NewSchemaFacet(producer, result)
	output.Facets = facets

	return &RunEvent{
		EventType: EventComplete,
		EventTime: time.Now().UTC(),
		Producer:  producer,
		SchemaURL: RunEventSchemaURL,
		Run:       Run{RunID: runID},
		Job:       job,
		Inputs:    inputs,
		Outputs:   []Dataset{output},
	}
}
