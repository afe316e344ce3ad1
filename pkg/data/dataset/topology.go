package dataset

import (
	"github.com/shardfeed/shardfeed/pkg/common/validation"
)

// Topology describes this process's position in a multi-process run.
type Topology interface {
	// ProcessIndex is this process's zero-based rank.
	ProcessIndex() int

	// ProcessCount is the total number of cooperating processes.
	ProcessCount() int

	// DeviceCount is the number of local accelerator devices batches
	// are sharded across.
	DeviceCount() int
}

// Static is a fixed topology, typically read from configuration or the
// launcher environment.
type Static struct {
	Index     int
	Processes int
	Devices   int
}

// ProcessIndex implements Topology.
func (s Static) ProcessIndex() int { return s.Index }

// ProcessCount implements Topology.
func (s Static) ProcessCount() int { return s.Processes }

// DeviceCount implements Topology.
func (s Static) DeviceCount() int { return s.Devices }

// SingleProcess returns a topology for a standalone run.
func SingleProcess(devices int) Static {
	return Static{Index: 0, Processes: 1, Devices: devices}
}

// ValidateTopology checks the structural invariants every pipeline
// assumes.
func ValidateTopology(t Topology) error {
	if err := validation.ValidatePositive("topology", "process_count", t.ProcessCount()); err != nil {
		return err
	}
	if err := validation.ValidateIndex("topology", "process_index", t.ProcessIndex(), t.ProcessCount()); err != nil {
		return err
	}
	return validation.ValidatePositive("topology", "device_count", t.DeviceCount())
}
