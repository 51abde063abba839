package converter

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/notargets/odb2vtk/InputParameters"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func parseRequest(t *testing.T, doc string) *InputParameters.OutputRequest {
	t.Helper()
	or := &InputParameters.OutputRequest{}
	require.NoError(t, or.Parse([]byte(doc)))
	return or
}

func TestIntersectSorted(t *testing.T) {
	assert.Equal(t, []int{2, 5}, IntersectSorted([]int{2, 5, 9}, []int{1, 2, 3, 5, 7}))
	assert.Empty(t, IntersectSorted([]int{2, 5, 9}, []int{1, 3, 4}))
	assert.Empty(t, IntersectSorted(nil, []int{1}))
	assert.Equal(t, []int{1, 3}, IntersectSorted([]int{1, 3}, []int{1, 3}))
}

var (
	availableFrames = map[string][]int{"Step-1": {0, 1, 2, 3, 5, 7}, "Step-2": {0, 1}}
	availableFields = map[string]map[int][]string{
		"Step-1": {
			2: {"S11", "S22", "SDV1", "U", "UR"},
			5: {"S11", "U"},
		},
		"Step-2": {1: {"EVOL"}},
	}
)

func TestMatch(t *testing.T) {
	req := parseRequest(t, `{"frames": [{"step": "Step-1", "list": [9, 5, 2]}],
		"fields": [{"key": "S\\d+"}, {"key": "S11"}, {"key": "U"}]}`)

	mr, err := Match(availableFrames, availableFields, req, true)
	require.NoError(t, err)
	expected := MatchResult{Steps: []StepMatch{{
		Step:   "Step-1",
		Frames: []int{2, 5},
		Fields: map[int][]string{
			2: {"S11", "S22", "U"},
			5: {"S11", "U"},
		},
	}}}
	if diff := cmp.Diff(expected, mr); diff != "" {
		t.Errorf("match mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 2, mr.NumFrames())

	// Repeated matches are kept without deduplication
	mr, err = Match(availableFrames, availableFields, req, false)
	require.NoError(t, err)
	assert.Equal(t, []string{"S11", "S22", "S11", "U"}, mr.Steps[0].Fields[2])
}

func TestMatchErrors(t *testing.T) {
	noFrames := parseRequest(t, `{"frames": [{"step": "Step-1", "list": [4, 6]}], "fields": [{"key": "U"}]}`)
	_, err := Match(availableFrames, availableFields, noFrames, true)
	assert.ErrorIs(t, err, ErrNoMatchingFrames)

	unknownStep := parseRequest(t, `{"frames": [{"step": "Step-9", "list": [1]}], "fields": [{"key": "U"}]}`)
	_, err = Match(availableFrames, availableFields, unknownStep, true)
	assert.ErrorIs(t, err, ErrNoMatchingFrames)

	// All or nothing: the first step matches, the second does not
	noFields := parseRequest(t, `{"frames": [{"step": "Step-1", "list": [2]}, {"step": "Step-2", "list": [1]}],
		"fields": [{"key": "S11"}]}`)
	_, err = Match(availableFrames, availableFields, noFields, true)
	assert.ErrorIs(t, err, ErrNoMatchingFields)
}

func TestMatchAnchored(t *testing.T) {
	req := parseRequest(t, `{"frames": [{"step": "Step-1", "list": [2]}], "fields": [{"key": "S\\d+"}]}`)
	mr, err := Match(availableFrames, availableFields, req, true)
	require.NoError(t, err)
	assert.Equal(t, []string{"S11", "S22"}, mr.Steps[0].Fields[2])
}
