// Copyright 2025 Toly Pochkin
// SPDX-License-Identifier: Apache-2.0

package hikesync

// Phase identifies which stage of the migration a Progress snapshot reports.
type Phase string

const (
	PhaseInitializing          Phase = "initializing"
	PhaseMigratingHikes        Phase = "migrating_hikes"
	PhaseUploadingImages       Phase = "uploading_images"
	PhaseMigratingObservations Phase = "migrating_observations"
	PhaseComplete              Phase = "complete"
	PhaseError                 Phase = "error"
)

// Progress is one snapshot of the migration pipeline. Consumers must treat
// each emission as replacing the previous one, not as an accumulating log:
// rendering only the latest snapshot always yields a coherent picture.
type Progress struct {
	Phase Phase `json:"phase"`

	// Stats is set for PhaseInitializing.
	Stats *MigrationStats `json:"stats,omitempty"`

	// Current/Total count items within the phase: hikes for
	// PhaseMigratingHikes, images (global across the whole run) for
	// PhaseUploadingImages, observations of the current hike for
	// PhaseMigratingObservations.
	Current int `json:"current,omitempty"`
	Total   int `json:"total,omitempty"`

	// HikeName is set for PhaseMigratingHikes.
	HikeName string `json:"hike_name,omitempty"`

	// HikeID is set for PhaseMigratingObservations.
	HikeID string `json:"hike_id,omitempty"`

	// Fraction is Current/Total for PhaseUploadingImages, in [0,1].
	Fraction float64 `json:"fraction,omitempty"`

	// Result is set for PhaseComplete.
	Result *MigrationResult `json:"result,omitempty"`

	// Message and Retryable are set for PhaseError. Retryable means a fresh
	// Migrate call may succeed (timeouts, transient faults).
	Message   string `json:"message,omitempty"`
	Retryable bool   `json:"retryable,omitempty"`
}

// Terminal reports whether no further snapshots will follow this one.
func (p Progress) Terminal() bool {
	return p.Phase == PhaseComplete || p.Phase == PhaseError
}

func progressInitializing(stats *MigrationStats) Progress {
	return Progress{Phase: PhaseInitializing, Stats: stats}
}

func progressMigratingHikes(current, total int, name string) Progress {
	return Progress{Phase: PhaseMigratingHikes, Current: current, Total: total, HikeName: name}
}

func progressUploadingImages(current, total int) Progress {
	p := Progress{Phase: PhaseUploadingImages, Current: current, Total: total}
	if total > 0 {
		p.Fraction = float64(current) / float64(total)
	}
	return p
}

func progressMigratingObservations(current, total int, hikeID string) Progress {
	return Progress{Phase: PhaseMigratingObservations, Current: current, Total: total, HikeID: hikeID}
}

func progressComplete(result *MigrationResult) Progress {
	return Progress{Phase: PhaseComplete, Result: result}
}

func progressError(message string, retryable bool) Progress {
	return Progress{Phase: PhaseError, Message: message, Retryable: retryable}
}
