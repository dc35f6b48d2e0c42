package catalog_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"db-describe/internal/catalog"
	"db-describe/internal/description"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const bloggingYAML = `
entities:
  - name: Blog
    type: Blog
    table: Blogs
    label: "Blog 表"
    properties:
      - {name: BlogId, type: int, store_type: int, key: true, identity: true}
      - {name: Url, type: string, store_type: nvarchar(max), nullable: true, label: "Url 地址"}
  - name: Post
    type: Post
    table: Posts
    memory_optimized: true
    description: "文章"
    properties:
      - {name: PostId, type: int, store_type: int, key: true, identity: true}
      - {name: Type, type: "PostType?", store_type: int, nullable: true}
      - {name: BlogId, type: int, store_type: int, references: Blog}
      - {name: TenantId, column: tenant_id, store_type: int, shadow: true}
types:
  - {name: PostType, label: "博客文章类型"}
enums:
  - name: PostType
    members:
      - {name: BigData, value: 0, label: "大数据"}
      - {name: SmallData, value: 1, label: "小数据"}
      - {name: All, value: -1, special: true}
`

func TestParse(t *testing.T) {
	m, reg, err := catalog.Parse(strings.NewReader(bloggingYAML), "yaml")
	require.NoError(t, err)
	require.Len(t, m.Entities, 2)

	blog := m.Entity("Blog")
	require.NotNil(t, blog)
	assert.Equal(t, "Blogs", blog.Table)
	assert.Nil(t, blog.Description)
	assert.Equal(t, "Url", blog.Property("Url").Field)
	assert.Equal(t, "Url", blog.Property("Url").Column)

	post := m.Entity("Post")
	assert.True(t, post.MemoryOptimized)
	assert.Equal(t, "文章", *post.Description)
	typ := post.Property("Type").Type
	assert.Equal(t, "PostType", typ.Name)
	assert.True(t, typ.Nullable)
	tenant := post.Property("TenantId")
	assert.Empty(t, tenant.Field)
	assert.Equal(t, "tenant_id", tenant.Column)
	assert.Equal(t, "Blog", post.Property("BlogId").References)

	label, ok := reg.TypeLabel("Blog")
	assert.True(t, ok)
	assert.Equal(t, "Blog 表", label)
	label, ok = reg.FieldLabel("Blog", "Url")
	assert.True(t, ok)
	assert.Equal(t, "Url 地址", label)

	enum, ok := reg.Enum("PostType")
	require.True(t, ok)
	require.Len(t, enum.Members, 3)
	assert.Equal(t, int64(-1), enum.Members[2].Value)
	assert.True(t, enum.Members[2].Special)
}

func TestParse_ThenHarvest(t *testing.T) {
	m, reg, err := catalog.Parse(strings.NewReader(bloggingYAML), "yaml")
	require.NoError(t, err)

	description.NewHarvester(reg).Harvest(m)

	assert.Equal(t, "Blog 表", *m.Entity("Blog").Description)
	assert.Equal(t, "Url 地址", *m.Entity("Blog").Property("Url").Description)
	assert.Equal(t, "文章", *m.Entity("Post").Description)
	assert.Equal(t, "博客文章类型(0: 大数据; 1: 小数据)", *m.Entity("Post").Property("Type").Description)
	assert.Nil(t, m.Entity("Post").Property("TenantId").Description)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.yaml")
	require.NoError(t, os.WriteFile(path, []byte(bloggingYAML), 0o644))

	m, _, err := catalog.Load(path)
	require.NoError(t, err)
	assert.Len(t, m.Entities, 2)

	_, _, err = catalog.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestParse_Validation(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{
			name: "duplicate entity",
			yaml: "entities:\n  - {name: A}\n  - {name: A}\n",
			want: "entity A declared twice",
		},
		{
			name: "unknown reference",
			yaml: "entities:\n  - name: A\n    properties:\n      - {name: BId, store_type: int, references: B}\n",
			want: `unknown entity "B"`,
		},
		{
			name: "label without backing type",
			yaml: "entities:\n  - {name: A, label: x}\n",
			want: "needs a backing type",
		},
		{
			name: "label on shadow property",
			yaml: "entities:\n  - name: A\n    type: A\n    properties:\n      - {name: S, shadow: true, label: x}\n",
			want: "needs a backing field",
		},
		{
			name: "duplicate enum",
			yaml: "enums:\n  - {name: E}\n  - {name: E}\n",
			want: "enum E declared twice",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := catalog.Parse(strings.NewReader(tt.yaml), "yaml")
			assert.ErrorContains(t, err, tt.want)
		})
	}
}
