package migrations

// Operation is one structural schema change. The set of implementations is closed:
// CreateTable, AlterTable, AddColumn, AlterColumn, AddForeignKey, DropForeignKey,
// DropColumn and DropTable.
type Operation interface {
	Kind() string
	operation()
}

// ColumnDef is the state of one column.
type ColumnDef struct {
	Name        string
	StoreType   string
	Nullable    bool
	Identity    bool
	Default     string // raw SQL default expression
	Description *string
}

// ForeignKey is a single-column foreign key constraint.
type ForeignKey struct {
	Name            string
	Column          string
	PrincipalSchema string
	PrincipalTable  string
	PrincipalColumn string
}

// TableState is the table-level state carried by AlterTable.
type TableState struct {
	Description     *string
	MemoryOptimized *bool
}

type CreateTable struct {
	Schema          string
	Name            string
	Columns         []ColumnDef
	PrimaryKey      []string
	ForeignKeys     []ForeignKey
	Description     *string
	MemoryOptimized *bool
}

type AlterTable struct {
	Schema string
	Name   string
	TableState
	OldTable TableState
}

type AddColumn struct {
	Schema          string
	Table           string
	Column          ColumnDef
	MemoryOptimized *bool
}

type AlterColumn struct {
	Schema          string
	Table           string
	Column          ColumnDef
	OldColumn       ColumnDef
	MemoryOptimized *bool
}

// AddForeignKey adds a constraint that could not be created inline because the
// principal table did not exist yet.
type AddForeignKey struct {
	Schema     string
	Table      string
	ForeignKey ForeignKey
}

// DropForeignKey removes a constraint ahead of the column or table drops it
// would otherwise block.
type DropForeignKey struct {
	Schema string
	Table  string
	Name   string
}

type DropColumn struct {
	Schema  string
	Table   string
	Name    string
	Default string // default of the dropped column; its constraint goes first
}

type DropTable struct {
	Schema string
	Name   string
}

func (*CreateTable) Kind() string    { return "CreateTable" }
func (*AlterTable) Kind() string     { return "AlterTable" }
func (*AddColumn) Kind() string      { return "AddColumn" }
func (*AlterColumn) Kind() string    { return "AlterColumn" }
func (*AddForeignKey) Kind() string  { return "AddForeignKey" }
func (*DropForeignKey) Kind() string { return "DropForeignKey" }
func (*DropColumn) Kind() string     { return "DropColumn" }
func (*DropTable) Kind() string      { return "DropTable" }

func (*CreateTable) operation()    {}
func (*AlterTable) operation()     {}
func (*AddColumn) operation()      {}
func (*AlterColumn) operation()    {}
func (*AddForeignKey) operation()  {}
func (*DropForeignKey) operation() {}
func (*DropColumn) operation()     {}
func (*DropTable) operation()      {}

// StructureChanged reports whether an AlterColumn changes more than the description.
func (op *AlterColumn) StructureChanged() bool {
	return op.Column.StoreType != op.OldColumn.StoreType ||
		op.Column.Nullable != op.OldColumn.Nullable ||
		op.Column.Identity != op.OldColumn.Identity ||
		op.Column.Default != op.OldColumn.Default
}

func boolPtr(b bool) *bool {
	return &b
}
