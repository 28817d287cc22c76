package telemetry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/sphfluid/sph"
)

// SnapshotVersion is incremented when the format changes.
const SnapshotVersion = 1

// Snapshot holds the complete simulation state for replay.
type Snapshot struct {
	Version int `json:"version"`

	Params sph.Params `json:"params"`
	Scene  SceneState `json:"scene"`

	Tick int32 `json:"tick"`

	Particles []ParticleState `json:"particles"`

	Bookmark *Bookmark `json:"bookmark,omitempty"`
}

// SceneState is the JSON form of sph.Scene.
type SceneState struct {
	MaxParticles int    `json:"max_particles"`
	WallMin      r3.Vec `json:"wall_min"`
	WallMax      r3.Vec `json:"wall_max"`
	FluidMin     r3.Vec `json:"fluid_min"`
	FluidMax     r3.Vec `json:"fluid_max"`
	Gravity      r3.Vec `json:"gravity"`
}

// ParticleState holds one particle's dynamic state.
type ParticleState struct {
	Position     r3.Vec  `json:"position"`
	Velocity     r3.Vec  `json:"velocity"`
	Acceleration r3.Vec  `json:"acceleration"`
	Density      float64 `json:"density"`
	Pressure     float64 `json:"pressure"`
}

// NewSnapshot captures the solver state at tick. bookmark may be nil.
func NewSnapshot(s *sph.Solver, tick int32, bookmark *Bookmark) *Snapshot {
	sc := s.Scene()
	snap := &Snapshot{
		Version: SnapshotVersion,
		Params:  s.Params(),
		Scene: SceneState{
			MaxParticles: sc.MaxParticles,
			WallMin:      sc.Wall.Min,
			WallMax:      sc.Wall.Max,
			FluidMin:     sc.Fluid.Min,
			FluidMax:     sc.Fluid.Max,
			Gravity:      sc.Gravity,
		},
		Tick:      tick,
		Particles: make([]ParticleState, 0, s.ParticleCount()),
		Bookmark:  bookmark,
	}
	for _, p := range s.AppendParticles(nil) {
		snap.Particles = append(snap.Particles, ParticleState{
			Position:     p.Position,
			Velocity:     p.Velocity,
			Acceleration: p.Acceleration,
			Density:      p.Density,
			Pressure:     p.Pressure,
		})
	}
	return snap
}

// SolverScene converts the stored scene back to sph.Scene.
func (sn *Snapshot) SolverScene() sph.Scene {
	return sph.Scene{
		MaxParticles: sn.Scene.MaxParticles,
		Wall:         sph.NewBox(sn.Scene.WallMin, sn.Scene.WallMax),
		Fluid:        sph.NewBox(sn.Scene.FluidMin, sn.Scene.FluidMax),
		Gravity:      sn.Scene.Gravity,
	}
}

// Restore loads the snapshot particles into s.
func (sn *Snapshot) Restore(s *sph.Solver) error {
	if sn.Version != SnapshotVersion {
		return fmt.Errorf("snapshot version %d, want %d", sn.Version, SnapshotVersion)
	}
	particles := make([]sph.Particle, len(sn.Particles))
	for i, ps := range sn.Particles {
		particles[i] = sph.Particle{
			Position:     ps.Position,
			Velocity:     ps.Velocity,
			Acceleration: ps.Acceleration,
			Density:      ps.Density,
			Pressure:     ps.Pressure,
			Next:         -1,
		}
	}
	if err := s.Restore(sn.SolverScene(), particles); err != nil {
		return fmt.Errorf("restore snapshot: %w", err)
	}
	return nil
}

// SaveSnapshot writes a snapshot to disk.
// Returns the filepath where it was saved.
func SaveSnapshot(snapshot *Snapshot, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create snapshot dir: %w", err)
	}

	// Build filename
	name := fmt.Sprintf("snapshot_%d", snapshot.Tick)
	if snapshot.Bookmark != nil {
		// Sanitize bookmark type for filename
		sanitized := strings.ReplaceAll(string(snapshot.Bookmark.Type), " ", "_")
		name = fmt.Sprintf("snapshot_%d_%s", snapshot.Tick, sanitized)
	}
	name += ".json"

	path := filepath.Join(dir, name)

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal snapshot: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("write snapshot: %w", err)
	}

	return path, nil
}

// LoadSnapshot reads a snapshot from disk.
func LoadSnapshot(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	var snapshot Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}

	return &snapshot, nil
}
