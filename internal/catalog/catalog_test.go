package catalog

import (
	"testing"
	"testing/fstest"

	"quickstory-server/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func storyFS(doc string) fstest.MapFS {
	return fstest.MapFS{
		"stories/story.json": &fstest.MapFile{Data: []byte(doc)},
	}
}

const validStory = `{
	"id": "test-story",
	"title": "Test",
	"scenes": [
		{"id": "s1", "title": "S1", "content": "...", "options": [
			{"id": "a", "text": "to end", "nextSceneId": "end-1", "isDefault": true},
			{"id": "b", "text": "terminal", "nextSceneId": ""}
		]},
		{"id": "end-1", "title": "End", "content": "...", "isEnding": true, "endingType": "happy"}
	]
}`

func TestNewFromFS_ValidStory(t *testing.T) {
	c, err := NewFromFS(storyFS(validStory), "stories", nil)
	require.NoError(t, err)

	require.Len(t, c.List(), 1)

	story, err := c.FindByID("test-story")
	require.NoError(t, err)
	assert.Equal(t, "test-story", story.ID)
	assert.Equal(t, 1, story.EndingCount())

	_, err = c.FindByID("missing")
	assert.ErrorIs(t, err, models.ErrStoryNotFound)
}

func TestNewFromFS_RejectsInvalidGraphs(t *testing.T) {
	cases := []struct {
		name string
		doc  string
	}{
		{
			name: "dangling next scene reference",
			doc: `{"id": "s", "scenes": [
				{"id": "s1", "options": [{"id": "a", "text": "x", "nextSceneId": "nowhere"}]}
			]}`,
		},
		{
			name: "ending with options",
			doc: `{"id": "s", "scenes": [
				{"id": "s1", "isEnding": true, "endingType": "happy", "options": [{"id": "a", "text": "x"}]}
			]}`,
		},
		{
			name: "ending with unknown type",
			doc: `{"id": "s", "scenes": [
				{"id": "s1", "isEnding": true, "endingType": "bittersweet"}
			]}`,
		},
		{
			name: "non-ending without options",
			doc:  `{"id": "s", "scenes": [{"id": "s1"}]}`,
		},
		{
			name: "duplicate scene ids",
			doc: `{"id": "s", "scenes": [
				{"id": "s1", "isEnding": true, "endingType": "happy"},
				{"id": "s1", "isEnding": true, "endingType": "happy"}
			]}`,
		},
		{
			name: "duplicate option ids",
			doc: `{"id": "s", "scenes": [
				{"id": "s1", "options": [
					{"id": "a", "text": "x", "nextSceneId": "end"},
					{"id": "a", "text": "y", "nextSceneId": "end"}
				]},
				{"id": "end", "isEnding": true, "endingType": "happy"}
			]}`,
		},
		{
			name: "multiple default options",
			doc: `{"id": "s", "scenes": [
				{"id": "s1", "options": [
					{"id": "a", "text": "x", "nextSceneId": "end", "isDefault": true},
					{"id": "b", "text": "y", "nextSceneId": "end", "isDefault": true}
				]},
				{"id": "end", "isEnding": true, "endingType": "happy"}
			]}`,
		},
		{
			name: "empty story id",
			doc:  `{"id": "", "scenes": [{"id": "s1", "isEnding": true, "endingType": "happy"}]}`,
		},
		{
			name: "no scenes",
			doc:  `{"id": "s", "scenes": []}`,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewFromFS(storyFS(tc.doc), "stories", nil)
			require.Error(t, err)
			assert.ErrorIs(t, err, models.ErrInvalidStoryGraph)
		})
	}
}

func TestNewFromFS_RejectsDuplicateStoryIDs(t *testing.T) {
	fsys := fstest.MapFS{
		"stories/a.json": &fstest.MapFile{Data: []byte(validStory)},
		"stories/b.json": &fstest.MapFile{Data: []byte(validStory)},
	}
	_, err := NewFromFS(fsys, "stories", nil)
	assert.ErrorIs(t, err, models.ErrInvalidStoryGraph)
}

func TestNew_EmbeddedCatalog(t *testing.T) {
	c, err := New(nil)
	require.NoError(t, err)
	require.NotEmpty(t, c.List())

	story, err := c.FindByID("shadows-choice")
	require.NoError(t, err)
	assert.Equal(t, "Shadow's Choice", story.Title)
	assert.Equal(t, 4, story.EndingCount())
	require.NotNil(t, story.FirstScene())
	assert.Equal(t, "scene-1", story.FirstScene().ID)

	// У каждой встроенной истории должна быть достижимая точка входа с
	// вариантом по умолчанию
	for _, s := range c.List() {
		first := s.FirstScene()
		require.NotNil(t, first, s.ID)
		require.NotNil(t, first.DefaultOption(), s.ID)
	}
}
