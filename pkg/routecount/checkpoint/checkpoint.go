package checkpoint

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/cespare/xxhash/v2"
)

// Version is the current checkpoint format version.
// Increment when making breaking changes to checkpoint structure.
const Version = 1

// Checkpoint is the persisted snapshot of one job's search.
// It holds everything needed to resume the job: progress so far and the
// encoded frontier of pending paths.
type Checkpoint struct {
	Version int `json:"version"`

	// Board identity. Must match the board being resumed against.
	Shape string `json:"shape"`
	Size  int    `json:"size"`

	Progress Progress `json:"progress"`

	// TerminalNodes is the job's start terminal followed by its end terminals.
	TerminalNodes []int `json:"terminalNodes"`

	// Steps is the encoded frontier, ordered so that every PreviousID
	// refers to an earlier entry.
	Steps []Footprint `json:"steps"`

	// Checksum is the hex xxhash64 of the payload. Empty means unchecked.
	Checksum string `json:"checksum,omitempty"`
}

// Progress is the monotonic search progress of a job.
type Progress struct {
	RouteCount  int64    `json:"routeCount"`
	ElapsedTime Duration `json:"elapsedTime"`
}

// Footprint is the serialized form of one path step.
type Footprint struct {
	ID         int64 `json:"id"`
	PreviousID int64 `json:"previousId"`
	Position   int   `json:"position"`
	Direction  int   `json:"direction"`
}

// Duration is a time.Duration that serializes as a Go duration string ("1m30s").
// Plain integers are read as nanoseconds.
type Duration time.Duration

// MarshalJSON implements json.Marshaler.
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Duration) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		parsed, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("elapsed time: %w", err)
		}
		*d = Duration(parsed)
		return nil
	}
	n, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return fmt.Errorf("elapsed time: not a duration: %s", data)
	}
	*d = Duration(n)
	return nil
}

// New creates a checkpoint for the given board identity.
func New(shape string, size int, terminals []int, progress Progress, steps []Footprint) *Checkpoint {
	if steps == nil {
		steps = []Footprint{}
	}
	return &Checkpoint{
		Version:       Version,
		Shape:         shape,
		Size:          size,
		Progress:      progress,
		TerminalNodes: terminals,
		Steps:         steps,
	}
}

// Sum computes the payload checksum. Shape and size are excluded: they are
// checked against the key on load.
func (c *Checkpoint) Sum() string {
	h := xxhash.New()
	var buf [8]byte
	put := func(v int64) {
		binary.LittleEndian.PutUint64(buf[:], uint64(v))
		_, _ = h.Write(buf[:])
	}
	put(c.Progress.RouteCount)
	put(int64(c.Progress.ElapsedTime))
	put(int64(len(c.TerminalNodes)))
	for _, t := range c.TerminalNodes {
		put(int64(t))
	}
	put(int64(len(c.Steps)))
	for _, fp := range c.Steps {
		put(fp.ID)
		put(fp.PreviousID)
		put(int64(fp.Position))
		put(int64(fp.Direction))
	}
	return strconv.FormatUint(h.Sum64(), 16)
}

// Marshal seals the checksum and serializes the checkpoint as indented JSON.
func (c *Checkpoint) Marshal() ([]byte, error) {
	c.Checksum = c.Sum()
	return json.MarshalIndent(c, "", "  ")
}

// Unmarshal deserializes and validates a checkpoint.
// Any failure wraps ErrCorrupt.
func Unmarshal(data []byte) (*Checkpoint, error) {
	var c Checkpoint
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate performs the board-independent structural checks: version
// (absent is accepted), checksum, positive strictly increasing ids, and
// backward-only references.
// Position and direction ranges need the board and are checked on decode.
func (c *Checkpoint) Validate() error {
	if c.Version != 0 && c.Version != Version {
		return fmt.Errorf("%w: version %d, expected %d", ErrCorrupt, c.Version, Version)
	}
	if c.Shape == "" {
		return fmt.Errorf("%w: missing shape", ErrCorrupt)
	}
	if c.Progress.RouteCount < 0 || c.Progress.ElapsedTime < 0 {
		return fmt.Errorf("%w: negative progress", ErrCorrupt)
	}
	if c.Checksum != "" && c.Checksum != c.Sum() {
		return fmt.Errorf("%w: checksum mismatch", ErrCorrupt)
	}

	seen := make(map[int64]struct{}, len(c.Steps))
	var last int64
	for i, fp := range c.Steps {
		if fp.ID <= last {
			return fmt.Errorf("%w: step %d: id %d not greater than %d", ErrCorrupt, i, fp.ID, last)
		}
		if fp.PreviousID != 0 {
			if _, ok := seen[fp.PreviousID]; !ok {
				return fmt.Errorf("%w: step %d: previous id %d not defined earlier", ErrCorrupt, i, fp.PreviousID)
			}
		}
		seen[fp.ID] = struct{}{}
		last = fp.ID
	}
	return nil
}
