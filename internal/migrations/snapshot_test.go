package migrations_test

import (
	"path/filepath"
	"testing"

	"db-describe/internal/migrations"
	"db-describe/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bloggingModel() *model.Model {
	return model.New(
		&model.Entity{
			Name:        "Post",
			Type:        "Post",
			Table:       "Posts",
			Description: model.Describe("文章"),
			Properties: []*model.Property{
				{Name: "PostId", Field: "PostId", StoreType: "int", Key: true, Identity: true},
				{Name: "Title", Field: "Title", StoreType: "nvarchar(200)", Description: model.Describe("文章标题")},
				{Name: "BlogId", Field: "BlogId", StoreType: "int", References: "Blog"},
			},
		},
		&model.Entity{
			Name:        "Blog",
			Type:        "Blog",
			Table:       "Blogs",
			Description: model.Describe("Blog 表"),
			Properties: []*model.Property{
				{Name: "BlogId", Field: "BlogId", StoreType: "int", Key: true, Identity: true},
				{Name: "Url", Field: "Url", StoreType: "nvarchar(max)", Nullable: true, Description: model.Describe("Url 地址")},
				{Name: "Note", Field: "Note", StoreType: "nvarchar(50)", Nullable: true, Description: model.Describe("  ")},
			},
		},
	)
}

func TestSnapshotOf(t *testing.T) {
	s, err := migrations.SnapshotOf(bloggingModel())
	require.NoError(t, err)
	require.Len(t, s.Tables, 2)

	blogs := s.Tables[0]
	assert.Equal(t, "Blogs", blogs.Name)
	assert.Equal(t, "Blog 表", blogs.Description)
	assert.Equal(t, []string{"BlogId"}, blogs.PrimaryKey)
	require.Len(t, blogs.Columns, 3)
	assert.Equal(t, "Url 地址", blogs.Columns[1].Description)
	assert.Empty(t, blogs.Columns[2].Description, "blank descriptions are not kept")

	posts := s.Tables[1]
	assert.Equal(t, "Posts", posts.Name)
	require.Len(t, posts.ForeignKeys, 1)
	assert.Equal(t, migrations.ForeignKeySnapshot{
		Name:            "FK_Posts_Blogs_BlogId",
		Column:          "BlogId",
		PrincipalTable:  "Blogs",
		PrincipalColumn: "BlogId",
	}, posts.ForeignKeys[0])
}

func TestSnapshotOf_MergesSharedTable(t *testing.T) {
	m := model.New(
		&model.Entity{Name: "Order", Table: "Orders", Description: model.Describe("订单"), Properties: []*model.Property{
			{Name: "Id", StoreType: "int", Key: true},
			{Name: "Total", StoreType: "decimal(18,2)"},
		}},
		&model.Entity{Name: "OrderDetail", Table: "orders", Properties: []*model.Property{
			{Name: "Id", StoreType: "int", Key: true},
			{Name: "Address", StoreType: "nvarchar(200)"},
		}},
	)

	s, err := migrations.SnapshotOf(m)
	require.NoError(t, err)
	require.Len(t, s.Tables, 1)
	assert.Equal(t, "订单", s.Tables[0].Description)
	assert.Len(t, s.Tables[0].Columns, 3)
	assert.Equal(t, []string{"Id"}, s.Tables[0].PrimaryKey)
}

func TestSnapshotOf_Errors(t *testing.T) {
	_, err := migrations.SnapshotOf(model.New(&model.Entity{Name: "A", Properties: []*model.Property{{Name: "X"}}}))
	assert.ErrorContains(t, err, "no store type")

	_, err = migrations.SnapshotOf(model.New(&model.Entity{Name: "A", Properties: []*model.Property{
		{Name: "X", StoreType: "int", References: "Missing"},
	}}))
	assert.ErrorContains(t, err, `unknown entity "Missing"`)
}

func TestSnapshot_WriteAndLoad(t *testing.T) {
	s, err := migrations.SnapshotOf(bloggingModel())
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "nested", "snapshot.toml")
	require.NoError(t, migrations.WriteSnapshot(path, s))

	loaded, err := migrations.LoadSnapshot(path)
	require.NoError(t, err)
	assert.Equal(t, s, loaded)
}

func TestLoadSnapshot_MissingFileIsEmpty(t *testing.T) {
	s, err := migrations.LoadSnapshot(filepath.Join(t.TempDir(), "none.toml"))
	require.NoError(t, err)
	assert.Empty(t, s.Tables)
}
