package store

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

func TestMerge(t *testing.T) {
	tests := []struct {
		name    string
		base    map[string]any
		overlay map[string]any
		want    map[string]any
	}{
		{
			name:    "keys only in base survive",
			base:    map[string]any{"a": 1.0, "b": "x"},
			overlay: map[string]any{"b": "y"},
			want:    map[string]any{"a": 1.0, "b": "y"},
		},
		{
			name:    "objects merge recursively",
			base:    map[string]any{"words": map[string]any{"1": map[string]any{"pool": []any{}, "banned": []any{}}}},
			overlay: map[string]any{"words": map[string]any{"1": map[string]any{"pool": []any{"A"}}, "4": map[string]any{}}},
			want: map[string]any{"words": map[string]any{
				"1": map[string]any{"pool": []any{"A"}, "banned": []any{}},
				"4": map[string]any{},
			}},
		},
		{
			name:    "arrays replace wholesale",
			base:    map[string]any{"teams": []any{1.0, 2.0, 3.0}},
			overlay: map[string]any{"teams": []any{9.0}},
			want:    map[string]any{"teams": []any{9.0}},
		},
		{
			name:    "null replaces",
			base:    map[string]any{"logo": "x"},
			overlay: map[string]any{"logo": nil},
			want:    map[string]any{"logo": nil},
		},
		{
			name:    "scalar over object replaces",
			base:    map[string]any{"words": map[string]any{"1": 1.0}},
			overlay: map[string]any{"words": "nope"},
			want:    map[string]any{"words": "nope"},
		},
		{
			name:    "nil overlay",
			base:    map[string]any{"a": 1.0},
			overlay: nil,
			want:    map[string]any{"a": 1.0},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Merge(tt.base, tt.overlay)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Merge() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestMergeDoesNotMutateInputs(t *testing.T) {
	base := map[string]any{"nested": map[string]any{"a": 1.0}}
	overlay := map[string]any{"nested": map[string]any{"b": 2.0}}

	Merge(base, overlay)

	assert.Equal(t, map[string]any{"a": 1.0}, base["nested"])
	assert.Equal(t, map[string]any{"b": 2.0}, overlay["nested"])
}
