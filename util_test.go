package dbobj

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDBTag(t *testing.T) {
	tests := []struct {
		in   string
		want dbTag
	}{
		{"", dbTag{}},
		{"name", dbTag{Name: "name"}},
		{"-", dbTag{Name: "-", Skip: true}},
		{"id,key", dbTag{Name: "id", IsKey: true}},
		{"id,key auto", dbTag{Name: "id", IsKey: true, IsAuto: true}},
		{"id,key=false", dbTag{Name: "id"}},
		{"qty,format=d", dbTag{Name: "qty", Format: FormatInt}},
		{"price,auto,format=%f", dbTag{Name: "price", IsAuto: true, Format: FormatFloat}},
	}

	for _, tt := range tests {
		got, err := parseDBTag(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := parseDBTag("x,format=q")
	assert.Error(t, err)
}

func TestOrderedColumns(t *testing.T) {
	data := Row{"b_extra": 1, "qty": 2, "a_extra": 3, "name": 4}
	assert.Equal(t, []string{"name", "qty", "a_extra", "b_extra"}, orderedColumns(sqlItemDef, data))
	assert.Empty(t, orderedColumns(sqlItemDef, nil))
}

func TestSliceHelpers(t *testing.T) {
	assert.Equal(t, []int{2, 4}, sliceMap([]int{1, 2}, func(v int) int { return v * 2 }))
	assert.True(t, sliceContains([]string{"a", "b"}, "b"))
	assert.False(t, sliceContains([]string{"a"}, "c"))
}
