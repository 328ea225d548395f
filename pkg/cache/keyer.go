package cache

import (
	"sort"
	"strconv"
)

// SnapshotKeyOpts are the inputs that change a computed snapshot.
type SnapshotKeyOpts struct {
	Move     int                `json:"move"`
	Scope    string             `json:"scope"`
	Layout   string             `json:"layout"`
	Params   map[string]float64 `json:"params,omitempty"`
	Coloring string             `json:"coloring"`
	Palette  string             `json:"palette"`
	Sort     string             `json:"sort"`
	Filters  string             `json:"filters,omitempty"`
	Selected string             `json:"selected,omitempty"`
	Width    float64            `json:"width"`
	Height   float64            `json:"height"`
	MaxTicks int                `json:"max_ticks"`
	Seed     int64              `json:"seed"`
}

// Keyer derives cache keys.
type Keyer interface {
	// SnapshotKey keys a snapshot computed from a dataset with the given hash.
	SnapshotKey(datasetHash string, opts SnapshotKeyOpts) string

	// ArtifactKey keys one encoded format of a snapshot with the given hash.
	ArtifactKey(snapshotHash, format string) string
}

// DefaultKeyer hashes options into fixed-length keys.
type DefaultKeyer struct{}

// NewDefaultKeyer creates a DefaultKeyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// SnapshotKey implements Keyer. Params are hashed in key order so map
// iteration order never changes the key.
func (DefaultKeyer) SnapshotKey(datasetHash string, opts SnapshotKeyOpts) string {
	params := make([]string, 0, len(opts.Params))
	for k, v := range opts.Params {
		params = append(params, k+"="+strconv.FormatFloat(v, 'g', -1, 64))
	}
	sort.Strings(params)
	opts.Params = nil
	return hashKey(KindSnapshot, datasetHash, opts, params)
}

// ArtifactKey implements Keyer.
func (DefaultKeyer) ArtifactKey(snapshotHash, format string) string {
	return hashKey(KindArtifact, snapshotHash, format)
}

var _ Keyer = DefaultKeyer{}
