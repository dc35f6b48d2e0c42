package model_test

import (
	"testing"

	"db-describe/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_WiresBackReferences(t *testing.T) {
	url := &model.Property{Name: "Url"}
	blog := &model.Entity{Name: "Blog", Table: "Blogs", Properties: []*model.Property{url}}

	m := model.New(blog)

	require.Same(t, blog, url.Entity())
	assert.Same(t, blog, m.Entity("Blog"))
	assert.Nil(t, m.Entity("Post"))
}

func TestFindEntities(t *testing.T) {
	m := model.New(
		&model.Entity{Name: "Blog", Table: "Blogs"},
		&model.Entity{Name: "BlogArchive", Table: "Blogs", Schema: "archive"},
		&model.Entity{Name: "Post"},
	)

	got := m.FindEntities("", "blogs")
	require.Len(t, got, 1)
	assert.Equal(t, "Blog", got[0].Name)

	got = m.FindEntities("archive", "Blogs")
	require.Len(t, got, 1)
	assert.Equal(t, "BlogArchive", got[0].Name)

	// Table defaults to the entity name.
	assert.Len(t, m.FindEntities("", "Post"), 1)

	var nilModel *model.Model
	assert.Empty(t, nilModel.FindEntities("", "Blogs"))
}

func TestHasDescription(t *testing.T) {
	assert.False(t, model.HasDescription(nil))
	assert.False(t, model.HasDescription(model.Describe("  ")))
	assert.True(t, model.HasDescription(model.Describe("Blog 表")))
}

func TestEntityKeysAndColumns(t *testing.T) {
	e := &model.Entity{Name: "Post", Properties: []*model.Property{
		{Name: "PostId", Key: true},
		{Name: "Title", Column: "title"},
	}}

	keys := e.Keys()
	require.Len(t, keys, 1)
	assert.Equal(t, "PostId", keys[0].ColumnName())
	assert.Equal(t, "title", e.Property("Title").ColumnName())
	assert.Nil(t, e.Property("Missing"))
}
