package theme

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRender_Disabled(t *testing.T) {
	Enabled = false
	t.Cleanup(func() { Enabled = true })

	assert.Equal(t, "bank", Render(Correct, "bank"))
}

func TestLevelBar(t *testing.T) {
	Enabled = false
	t.Cleanup(func() { Enabled = true })

	tests := []struct {
		level float64
		want  string
	}{
		{8.0, "░░░░░░░░░░ 8.00"},
		{1.0, "██████████ 1.00"},
		{4.5, "█████░░░░░ 4.50"},
		{9.5, "░░░░░░░░░░ 9.50"},
		{0.0, "██████████ 0.00"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, LevelBar(tt.level, 1, 8, 10))
	}
}
