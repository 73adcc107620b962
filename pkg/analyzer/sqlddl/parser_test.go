package sqlddl

import (
	"testing"
)

func parse(t *testing.T, ddl string) []Table {
	t.Helper()
	tables, err := NewParser(ddl).Parse()
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	return tables
}

func TestParse_BasicTable(t *testing.T) {
	tables := parse(t, `
		CREATE TABLE users (
			id INTEGER PRIMARY KEY,
			name VARCHAR(100) NOT NULL,
			bio TEXT
		);`)

	if len(tables) != 1 {
		t.Fatalf("expected 1 table, got %d", len(tables))
	}
	table := tables[0]
	if table.Name != "users" {
		t.Errorf("table name = %s", table.Name)
	}
	if len(table.Columns) != 3 {
		t.Fatalf("expected 3 columns, got %d", len(table.Columns))
	}

	id := table.Columns[0]
	if !id.PrimaryKey || !id.NotNull || id.Type != "integer" {
		t.Errorf("id column = %+v", id)
	}

	name := table.Columns[1]
	if name.Type != "varchar" || len(name.TypeArgs) != 1 || name.TypeArgs[0] != 100 {
		t.Errorf("name column = %+v", name)
	}
	if !name.NotNull {
		t.Error("name should be NOT NULL")
	}

	bio := table.Columns[2]
	if bio.NotNull || bio.Type != "text" {
		t.Errorf("bio column = %+v", bio)
	}
}

func TestParse_TableLevelPrimaryKey(t *testing.T) {
	tables := parse(t, `
		CREATE TABLE order_items (
			order_id INTEGER,
			item_id INTEGER,
			quantity INTEGER NOT NULL,
			PRIMARY KEY (order_id, item_id)
		);`)

	table := tables[0]
	if len(table.Columns) != 3 {
		t.Fatalf("constraint entry must not become a column, got %d columns", len(table.Columns))
	}
	for _, name := range []string{"order_id", "item_id"} {
		found := false
		for _, col := range table.Columns {
			if col.Name == name {
				found = true
				if !col.PrimaryKey || !col.NotNull {
					t.Errorf("%s should be a NOT NULL primary key column, got %+v", name, col)
				}
			}
		}
		if !found {
			t.Errorf("column %s missing", name)
		}
	}
}

func TestParse_DefaultsAndReferences(t *testing.T) {
	tables := parse(t, `
		CREATE TABLE posts (
			id BIGSERIAL PRIMARY KEY,
			author_id INTEGER NOT NULL REFERENCES users (id),
			status VARCHAR(20) DEFAULT 'draft',
			created_at TIMESTAMP WITH TIME ZONE DEFAULT now(),
			score NUMERIC(10, 2) CHECK (score >= 0)
		);`)

	table := tables[0]
	if len(table.Columns) != 5 {
		t.Fatalf("expected 5 columns, got %d: %+v", len(table.Columns), table.Columns)
	}

	status := table.Columns[2]
	if !status.HasDefault {
		t.Error("status should record its default")
	}
	created := table.Columns[3]
	if created.Type != "timestamp" {
		t.Errorf("created_at type = %s, want timestamp", created.Type)
	}
	score := table.Columns[4]
	if score.Type != "numeric" || len(score.TypeArgs) != 2 {
		t.Errorf("score column = %+v", score)
	}
}

func TestParse_MultiWordTypes(t *testing.T) {
	tables := parse(t, `
		CREATE TABLE measurements (
			value DOUBLE PRECISION,
			label CHARACTER VARYING(50),
			code CHARACTER(3)
		);`)

	cols := tables[0].Columns
	if cols[0].Type != "double precision" {
		t.Errorf("value type = %s", cols[0].Type)
	}
	if cols[1].Type != "varchar" {
		t.Errorf("label type = %s", cols[1].Type)
	}
	if cols[2].Type != "char" {
		t.Errorf("code type = %s", cols[2].Type)
	}
}

func TestParse_QuotedIdentifiersAndComments(t *testing.T) {
	tables := parse(t, `
		-- users live here
		CREATE TABLE "user_accounts" (
			"id" INTEGER PRIMARY KEY, /* surrogate key */
			"user name" VARCHAR(50)
		);`)

	table := tables[0]
	if table.Name != "user_accounts" {
		t.Errorf("table name = %s", table.Name)
	}
	if table.Columns[1].Name != "user name" {
		t.Errorf("quoted column name = %s", table.Columns[1].Name)
	}
}

func TestParse_SkipsOtherStatements(t *testing.T) {
	tables := parse(t, `
		CREATE INDEX idx_users_email ON users (email);
		CREATE TABLE users (id INTEGER);
		INSERT INTO users VALUES (1);`)

	if len(tables) != 1 || tables[0].Name != "users" {
		t.Errorf("tables = %+v", tables)
	}
}

func TestParse_SchemaQualifiedAndIfNotExists(t *testing.T) {
	tables := parse(t, `CREATE TABLE IF NOT EXISTS public.users (id INTEGER);`)
	if tables[0].Name != "users" {
		t.Errorf("table name = %s, want users", tables[0].Name)
	}
}

func TestParse_MultipleTables(t *testing.T) {
	tables := parse(t, `
		CREATE TABLE users (id INTEGER);
		CREATE TABLE orders (id INTEGER, user_id INTEGER);`)

	if len(tables) != 2 {
		t.Fatalf("expected 2 tables, got %d", len(tables))
	}
	if tables[0].Name != "users" || tables[1].Name != "orders" {
		t.Errorf("declared order not preserved: %s, %s", tables[0].Name, tables[1].Name)
	}
}

func TestParse_NoCreateTable(t *testing.T) {
	if _, err := NewParser("SELECT 1;").Parse(); err == nil {
		t.Fatal("expected error when no CREATE TABLE is present")
	}
}

func TestParse_UnterminatedColumnList(t *testing.T) {
	if _, err := NewParser("CREATE TABLE users (id INTEGER").Parse(); err == nil {
		t.Fatal("expected error for unterminated column list")
	}
}
