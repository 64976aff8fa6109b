package batch

import (
	"errors"

	"github.com/justapithecus/reprox/promote"
	"github.com/justapithecus/reprox/types"
)

// Status is the result class of one promotion attempt.
type Status string

const (
	// StatusPromoted means the directory was moved to production.
	StatusPromoted Status = "promoted"
	// StatusInvalid means validation failed; Kind says why.
	StatusInvalid Status = "invalid"
	// StatusAlreadyExists means the directory was valid but its destination was taken.
	StatusAlreadyExists Status = "already_exists"
	// StatusOther means an unexpected error or panic.
	StatusOther Status = "other"
)

// Outcome records what happened to one directory.
type Outcome struct {
	Path        string     `json:"path"`
	Destination string     `json:"destination,omitempty"`
	Status      Status     `json:"status"`
	Kind        types.Kind `json:"kind,omitempty"`
	Message     string     `json:"message,omitempty"`
}

// Failed reports whether the directory was left in place.
func (o Outcome) Failed() bool {
	return o.Status != StatusPromoted
}

// Bucket returns the label failures are grouped under: the validation
// kind for invalid directories, else the status. Promoted outcomes have none.
func (o Outcome) Bucket() string {
	switch o.Status {
	case StatusPromoted:
		return ""
	case StatusInvalid:
		return string(o.Kind)
	default:
		return string(o.Status)
	}
}

// Classify maps a MoveFolder result to an Outcome.
func Classify(path, dest string, finding *types.Finding, err error) Outcome {
	switch {
	case errors.Is(err, promote.ErrDestinationExists):
		return Outcome{Path: path, Destination: dest, Status: StatusAlreadyExists, Message: err.Error()}
	case err != nil:
		return Outcome{Path: path, Status: StatusOther, Message: err.Error()}
	case finding != nil:
		return classifyFinding(path, finding)
	default:
		return Outcome{Path: path, Destination: dest, Status: StatusPromoted}
	}
}

func classifyFinding(path string, f *types.Finding) Outcome {
	switch f.Kind {
	case types.KindTempFolder,
		types.KindNoMetadata,
		types.KindException,
		types.KindMissesChunks,
		types.KindWrongFormat,
		types.KindDifferentHash,
		types.KindLoadingError:
		return Outcome{Path: path, Status: StatusInvalid, Kind: f.Kind, Message: f.Detail}
	default:
		return Outcome{Path: path, Status: StatusOther, Message: "unrecognized validation kind " + string(f.Kind)}
	}
}
