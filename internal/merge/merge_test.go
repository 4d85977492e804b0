package merge

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/inkpost/inkpost/internal/diff"
	"github.com/inkpost/inkpost/internal/model"
)

func TestDetect_BothDiverged(t *testing.T) {
	base := model.PostFields{Title: "a", Content: "body"}
	local := model.PostFields{Title: "b", Content: "body"}
	remote := model.PostFields{Title: "c", Content: "body"}

	conflicts := Detect(base, local, remote)

	assert.Len(t, conflicts, 1)
	assert.Equal(t, diff.FieldTitle, conflicts[0].Field)
	assert.Equal(t, "b", conflicts[0].LocalValue)
	assert.Equal(t, "c", conflicts[0].RemoteValue)
}

func TestDetect_OneSideOnly(t *testing.T) {
	base := model.PostFields{Title: "a", Content: "body"}
	local := model.PostFields{Title: "b", Content: "body"}
	remote := model.PostFields{Title: "a", Content: "body"}

	assert.Empty(t, Detect(base, local, remote))
}

func TestDetect_BothAgree(t *testing.T) {
	base := model.PostFields{Title: "a"}
	local := model.PostFields{Title: "b"}
	remote := model.PostFields{Title: "b"}

	assert.Empty(t, Detect(base, local, remote))
}

func TestMerge_SingleSideWins(t *testing.T) {
	base := model.PostFields{Title: "a", Content: "body"}
	local := model.PostFields{Title: "a", Content: "local body"}
	remote := model.PostFields{Title: "remote title", Content: "body"}

	merged, conflicts, err := Merge(base, local, remote, StrategyManual)
	assert.NoError(t, err)
	assert.Empty(t, conflicts)
	assert.NotNil(t, merged)
	assert.Equal(t, "remote title", merged.Title)
	assert.Equal(t, "local body", merged.Content)
}

func TestMerge_StrategyLocal(t *testing.T) {
	base := model.PostFields{Title: "a"}
	local := model.PostFields{Title: "b"}
	remote := model.PostFields{Title: "c"}

	merged, conflicts, err := Merge(base, local, remote, StrategyLocal)
	assert.NoError(t, err)
	assert.Len(t, conflicts, 1)
	assert.Equal(t, StrategyLocal, conflicts[0].Resolution)
	assert.Equal(t, "b", merged.Title)
}

func TestMerge_StrategyRemote(t *testing.T) {
	base := model.PostFields{Title: "a"}
	local := model.PostFields{Title: "b"}
	remote := model.PostFields{Title: "c"}

	merged, _, err := Merge(base, local, remote, StrategyRemote)
	assert.NoError(t, err)
	assert.Equal(t, "c", merged.Title)
}

func TestMerge_ManualDefersConflicts(t *testing.T) {
	base := model.PostFields{Title: "a"}
	local := model.PostFields{Title: "b"}
	remote := model.PostFields{Title: "c"}

	merged, conflicts, err := Merge(base, local, remote, StrategyManual)
	assert.NoError(t, err)
	assert.Nil(t, merged)
	assert.Len(t, conflicts, 1)
	assert.Empty(t, conflicts[0].Resolution)
}

func TestMerge_UnknownStrategy(t *testing.T) {
	_, _, err := Merge(model.PostFields{}, model.PostFields{}, model.PostFields{}, Strategy("theirs"))
	assert.ErrorIs(t, err, ErrUnknownStrategy)
}

func TestMerge_TagsConflict(t *testing.T) {
	base := model.PostFields{Tags: []string{"go"}}
	local := model.PostFields{Tags: []string{"go", "testing"}}
	remote := model.PostFields{Tags: []string{"go", "blog"}}

	merged, conflicts, err := Merge(base, local, remote, StrategyLocal)
	assert.NoError(t, err)
	assert.Len(t, conflicts, 1)
	assert.Equal(t, diff.FieldTags, conflicts[0].Field)
	assert.Equal(t, []string{"go", "testing"}, merged.Tags)
}
