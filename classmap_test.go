package segeval

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassMappingValidate(t *testing.T) {
	tests := []struct {
		name    string
		mapping ClassMapping
		wantErr bool
	}{
		{
			name: "valid two categories",
			mapping: ClassMapping{
				"baselines": {"default": 0, "dotted": 1},
				"regions":   {"text": 2, "image": 3},
			},
		},
		{
			name: "duplicate index across categories",
			mapping: ClassMapping{
				"baselines": {"default": 0},
				"regions":   {"text": 0},
			},
			wantErr: true,
		},
		{
			name: "gap in index space",
			mapping: ClassMapping{
				"baselines": {"default": 0, "dotted": 2},
			},
			wantErr: true,
		},
		{
			name: "negative index",
			mapping: ClassMapping{
				"baselines": {"default": -1},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.mapping.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrInvalidMapping))
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestClassMappingOrdering(t *testing.T) {
	mapping := ClassMapping{
		"aux":       {"_start": 0, "_end": 1},
		"baselines": {"default": 2, "dotted": 3},
		"regions":   {"text": 4},
	}
	require.NoError(t, mapping.Validate())

	assert.Equal(t, 5, mapping.NumClasses())
	assert.Equal(t, []string{"aux", "baselines", "regions"}, mapping.Categories())
	assert.Equal(t, []int{2, 3}, mapping.Indices("baselines"))
	assert.Nil(t, mapping.Indices("unknown"))

	cat, name, ok := mapping.ClassName(3)
	require.True(t, ok)
	assert.Equal(t, "baselines", cat)
	assert.Equal(t, "dotted", name)

	_, _, ok = mapping.ClassName(99)
	assert.False(t, ok)
}
