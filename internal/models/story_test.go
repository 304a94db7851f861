package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testStory() *Story {
	return &Story{
		ID: "test-story",
		Scenes: []Scene{
			{
				ID: "s1",
				Options: []Option{
					{ID: "a", NextSceneID: "s2"},
					{ID: "b", NextSceneID: "end-1", IsDefault: true},
				},
			},
			{
				ID: "s2",
				Options: []Option{
					{ID: "c", NextSceneID: "end-1"},
				},
			},
			{ID: "end-1", IsEnding: true, EndingType: EndingHappy},
			{ID: "end-2", IsEnding: true, EndingType: EndingTragic},
		},
	}
}

func TestStory_Lookups(t *testing.T) {
	story := testStory()

	first := story.FirstScene()
	require.NotNil(t, first)
	assert.Equal(t, "s1", first.ID)

	assert.Equal(t, "s2", story.FindScene("s2").ID)
	assert.Nil(t, story.FindScene("missing"))
	assert.Equal(t, 2, story.EndingCount())

	scene := story.FindScene("s1")
	assert.Equal(t, "a", scene.FindOption("a").ID)
	assert.Nil(t, scene.FindOption("missing"))
}

func TestScene_DefaultOption(t *testing.T) {
	t.Run("flagged option wins", func(t *testing.T) {
		scene := testStory().FindScene("s1")
		option := scene.DefaultOption()
		require.NotNil(t, option)
		assert.Equal(t, "b", option.ID)
	})

	t.Run("falls back to first option", func(t *testing.T) {
		scene := testStory().FindScene("s2")
		option := scene.DefaultOption()
		require.NotNil(t, option)
		assert.Equal(t, "c", option.ID)
	})

	t.Run("nil for ending scene", func(t *testing.T) {
		assert.Nil(t, testStory().FindScene("end-1").DefaultOption())
	})
}
