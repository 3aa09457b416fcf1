package drill

import (
	"errors"
	"io"
	"log"
	"reflect"
	"strings"
	"testing"

	"eventschema/internal/dialect"
	"eventschema/internal/schema"
)

func docTree(t *testing.T, doc string) *schema.Tree {
	t.Helper()
	v, err := schema.DecodeDocument([]byte(doc))
	if err != nil {
		t.Fatalf("DecodeDocument: %v", err)
	}
	tree, err := schema.FromDocument(v, "E")
	if err != nil {
		t.Fatalf("FromDocument: %v", err)
	}
	return tree
}

func testGenerator() Generator {
	return Generator{
		Database:  "dfs.views",
		Store:     "hbase.`events`",
		Family:    "d",
		Qualifier: "json",
		Logger:    log.New(io.Discard, "", 0),
	}
}

func TestColumns_NestedLeafFlattens(t *testing.T) {
	t.Parallel()

	got := testGenerator().Columns(docTree(t, `{"a": {"b": 1}}`))
	want := []string{"e.json.`a`.`b` as `a_b`"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Columns = %q, want %q", got, want)
	}
}

func TestColumns_ArraysStopDescent(t *testing.T) {
	t.Parallel()

	tree := docTree(t, `{"id": 1, "items": [{"sku": "x"}], "tags": ["t"], "meta": {"src": {"host": "h"}}}`)
	got := testGenerator().Columns(tree)
	want := []string{
		"e.json.`id` as `id`",
		"e.json.`items` as `items`",
		"e.json.`meta`.`src`.`host` as `meta_src_host`",
		"e.json.`tags` as `tags`",
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Columns =\n%q\nwant\n%q", got, want)
	}
}

func TestColumns_AliasCollision(t *testing.T) {
	t.Parallel()

	got := testGenerator().Columns(docTree(t, `{"a": {"b": 1}, "a_b": 2}`))
	want := []string{
		"e.json.`a`.`b` as `a_b`",
		"e.json.`a_b` as `a_b_2`",
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Columns = %q, want %q", got, want)
	}
}

func TestGenerate_ThreeWindows(t *testing.T) {
	t.Parallel()

	arts, err := testGenerator().Generate("Order.Created", docTree(t, `{"a": {"b": 1}}`))
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(arts) != 3 {
		t.Fatalf("artifacts = %d, want 3", len(arts))
	}

	wantNames := []string{"order_created", "order_created_last_day", "order_created_last_week"}
	for i, a := range arts {
		if a.Name != wantNames[i] || a.Dialect != Dialect || a.EventType != "Order.Created" {
			t.Fatalf("artifact[%d] = %s", i, a)
		}
	}

	all := arts[0].Text
	want := "CREATE OR REPLACE VIEW dfs.views.`order_created` AS SELECT e.row_key, " +
		"TO_TIMESTAMP(CAST(SUBSTR(e.row_key, 15) AS BIGINT)) AS `event_time`, " +
		"e.json.`a`.`b` as `a_b` " +
		"FROM (SELECT CONVERT_FROM(t.row_key, 'UTF8') AS row_key, CONVERT_FROM(t.d.json, 'JSON') AS json FROM hbase.`events` t " +
		"WHERE CONVERT_FROM(t.row_key, 'UTF8') BETWEEN 'Order.Created-0' AND 'Order.Created-9') e;"
	if all != want {
		t.Fatalf("all view =\n%s\nwant\n%s", all, want)
	}

	if !strings.Contains(arts[1].Text, "CONCAT('Order.Created-', CAST(UNIX_TIMESTAMP() - 86400 AS VARCHAR))") {
		t.Fatalf("last_day view has no day bound:\n%s", arts[1].Text)
	}
	if !strings.Contains(arts[2].Text, "UNIX_TIMESTAMP() - 604800") {
		t.Fatalf("last_week view has no week bound:\n%s", arts[2].Text)
	}
}

func TestGenerate_EmptyTree(t *testing.T) {
	t.Parallel()

	if _, err := testGenerator().Generate("E", schema.NewTree("E")); !errors.Is(err, dialect.ErrNoColumns) {
		t.Fatalf("Generate(empty) error = %v, want ErrNoColumns", err)
	}
}
