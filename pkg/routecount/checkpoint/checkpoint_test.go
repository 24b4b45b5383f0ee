package checkpoint_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/routecount/pkg/routecount/checkpoint"
)

func TestCheckpoint_FieldNames(t *testing.T) {
	data, err := sample(5).Marshal()
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(data, &m))

	for _, key := range []string{"version", "shape", "size", "progress", "terminalNodes", "steps", "checksum"} {
		assert.Contains(t, m, key)
	}
	progress := m["progress"].(map[string]any)
	assert.Equal(t, float64(5), progress["routeCount"])
	assert.Equal(t, "1m30s", progress["elapsedTime"])

	step := m["steps"].([]any)[1].(map[string]any)
	assert.Equal(t, map[string]any{
		"id":         float64(2),
		"previousId": float64(1),
		"position":   float64(1),
		"direction":  float64(0),
	}, step)
}

func TestCheckpoint_EmptySteps(t *testing.T) {
	cp := checkpoint.New("grid", 3, []int{0, 8}, checkpoint.Progress{}, nil)
	data, err := cp.Marshal()
	require.NoError(t, err)
	assert.Contains(t, string(data), `"steps": []`)

	loaded, err := checkpoint.Unmarshal(data)
	require.NoError(t, err)
	assert.Empty(t, loaded.Steps)
}

func TestDuration_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    time.Duration
		wantErr bool
	}{
		{"duration string", `"1m30s"`, 90 * time.Second, false},
		{"fractional", `"1.5s"`, 1500 * time.Millisecond, false},
		{"nanoseconds", `2000000000`, 2 * time.Second, false},
		{"zero", `"0s"`, 0, false},
		{"bad string", `"soon"`, 0, true},
		{"bool", `true`, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var d checkpoint.Duration
			err := json.Unmarshal([]byte(tt.input), &d)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, time.Duration(d))
		})
	}
}

func TestCheckpoint_Checksum(t *testing.T) {
	data, err := sample(5).Marshal()
	require.NoError(t, err)

	t.Run("intact", func(t *testing.T) {
		_, err := checkpoint.Unmarshal(data)
		assert.NoError(t, err)
	})

	t.Run("tampered count", func(t *testing.T) {
		var cp checkpoint.Checkpoint
		require.NoError(t, json.Unmarshal(data, &cp))
		cp.Progress.RouteCount = 6
		tampered, err := json.Marshal(&cp)
		require.NoError(t, err)

		_, err = checkpoint.Unmarshal(tampered)
		assert.ErrorIs(t, err, checkpoint.ErrCorrupt)
	})

	t.Run("missing checksum accepted", func(t *testing.T) {
		var cp checkpoint.Checkpoint
		require.NoError(t, json.Unmarshal(data, &cp))
		cp.Checksum = ""
		cp.Progress.RouteCount = 6
		edited, err := json.Marshal(&cp)
		require.NoError(t, err)

		loaded, err := checkpoint.Unmarshal(edited)
		require.NoError(t, err)
		assert.Equal(t, int64(6), loaded.Progress.RouteCount)
	})

	t.Run("shape excluded", func(t *testing.T) {
		a, b := sample(5), sample(5)
		b.Shape, b.Size = "hex", 9
		assert.Equal(t, a.Sum(), b.Sum())
	})
}

func TestCheckpoint_Validate(t *testing.T) {
	valid := func() *checkpoint.Checkpoint { return sample(1) }

	tests := []struct {
		name   string
		mutate func(cp *checkpoint.Checkpoint)
	}{
		{"unknown version", func(cp *checkpoint.Checkpoint) { cp.Version = 99 }},
		{"missing shape", func(cp *checkpoint.Checkpoint) { cp.Shape = "" }},
		{"negative routes", func(cp *checkpoint.Checkpoint) { cp.Progress.RouteCount = -1 }},
		{"negative elapsed", func(cp *checkpoint.Checkpoint) { cp.Progress.ElapsedTime = -1 }},
		{"zero id", func(cp *checkpoint.Checkpoint) { cp.Steps[0].ID = 0 }},
		{"duplicate id", func(cp *checkpoint.Checkpoint) { cp.Steps[2].ID = 2 }},
		{"descending ids", func(cp *checkpoint.Checkpoint) { cp.Steps[1].ID, cp.Steps[2].ID = 3, 2 }},
		{"forward reference", func(cp *checkpoint.Checkpoint) { cp.Steps[1].PreviousID = 3 }},
		{"self reference", func(cp *checkpoint.Checkpoint) { cp.Steps[1].PreviousID = 2 }},
		{"unknown reference", func(cp *checkpoint.Checkpoint) { cp.Steps[2].PreviousID = 42 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cp := valid()
			tt.mutate(cp)
			assert.ErrorIs(t, cp.Validate(), checkpoint.ErrCorrupt)
		})
	}

	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, valid().Validate())
	})

	t.Run("absent version", func(t *testing.T) {
		cp := valid()
		cp.Version = 0
		assert.NoError(t, cp.Validate())
	})
}

func TestUnmarshal_Garbage(t *testing.T) {
	for _, input := range []string{"", "null", "[]", "{", `{"shape": 3}`} {
		_, err := checkpoint.Unmarshal([]byte(input))
		assert.ErrorIs(t, err, checkpoint.ErrCorrupt, "input %q", input)
	}
}
