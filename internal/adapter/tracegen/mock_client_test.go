package tracegen

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockClientBubbleSort(t *testing.T) {
	input := []int{5, 2, 8, 1, 9}
	frames, err := NewMockClient().Generate(context.Background(), "bubble_sort", input)
	require.NoError(t, err)
	require.NotEmpty(t, frames)

	var last bubbleFrame
	require.NoError(t, json.Unmarshal(frames[len(frames)-1].Bytes(), &last))
	assert.Equal(t, "done", last.Action)
	assert.Equal(t, []int{1, 2, 5, 8, 9}, last.Array)
	assert.Equal(t, 10, last.Metrics.Comparisons)

	for i, f := range frames {
		var bf bubbleFrame
		require.NoError(t, json.Unmarshal(f.Bytes(), &bf))
		assert.Equal(t, i, bf.StepIndex)
	}

	assert.Equal(t, []int{5, 2, 8, 1, 9}, input)
}

func TestMockClientRejectsUnknownAlgorithm(t *testing.T) {
	_, err := NewMockClient().Generate(context.Background(), "bogo_sort", []int{1})
	assert.Error(t, err)
}
