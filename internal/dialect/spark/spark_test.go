package spark

import (
	"bytes"
	"errors"
	"io"
	"log"
	"reflect"
	"strings"
	"testing"

	"eventschema/internal/dialect"
	"eventschema/internal/schema"
)

func docTree(t *testing.T, docs ...string) *schema.Tree {
	t.Helper()
	trees := make([]*schema.Tree, 0, len(docs))
	for _, d := range docs {
		v, err := schema.DecodeDocument([]byte(d))
		if err != nil {
			t.Fatalf("DecodeDocument(%q): %v", d, err)
		}
		tree, err := schema.FromDocument(v, "E")
		if err != nil {
			t.Fatalf("FromDocument(%q): %v", d, err)
		}
		trees = append(trees, tree)
	}
	merged, err := schema.Merge("E", trees)
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	return merged
}

func quietGenerator() Generator {
	return Generator{Database: "events", Source: "raw.events", Logger: log.New(io.Discard, "", 0)}
}

func TestTypeString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		docs []string
		want string
	}{
		{
			name: "scalars",
			docs: []string{`{"s": "x", "n": 1, "f": 1.5, "b": true}`},
			want: "struct<b:boolean,f:double,n:bigint,s:string>",
		},
		{
			name: "nested struct",
			docs: []string{`{"a": {"b": 1, "c": "x"}}`},
			want: "struct<a:struct<b:bigint,c:string>>",
		},
		{
			name: "scalar array",
			docs: []string{`{"tags": ["x", "y"]}`},
			want: "struct<tags:array<string>>",
		},
		{
			name: "array of objects has string items",
			docs: []string{`{"items": [{"sku": "x", "qty": 2}]}`},
			want: "struct<items:array<string>>",
		},
		{
			name: "array-shaped branch",
			docs: []string{`{"items": {"sku": "x", "qty": 2}}`, `{"items": []}`},
			want: "struct<items:array<struct<qty:bigint,sku:string>>>",
		},
		{
			name: "conflicting evidence widens",
			docs: []string{`{"a": 1}`, `{"a": "x"}`},
			want: "struct<a:string>",
		},
		{
			name: "unresolvable leaf falls back",
			docs: []string{`{"a": null}`},
			want: "struct<a:string>",
		},
		{
			name: "odd field names are quoted",
			docs: []string{`{"user id": 1}`},
			want: "struct<`user id`:bigint>",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := quietGenerator().TypeString(docTree(t, tt.docs...))
			if err != nil {
				t.Fatalf("TypeString error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("TypeString = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTypeString_FallbackIsLogged(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	g := Generator{Logger: log.New(&buf, "", 0)}
	if _, err := g.TypeString(docTree(t, `{"a": {"b": null}}`)); err != nil {
		t.Fatalf("TypeString: %v", err)
	}
	if !strings.Contains(buf.String(), "spark: warning: a.b: no type evidence, using string") {
		t.Fatalf("log = %q", buf.String())
	}
}

func TestTypeString_Empty(t *testing.T) {
	t.Parallel()

	if _, err := quietGenerator().TypeString(schema.NewTree("E")); !errors.Is(err, dialect.ErrNoColumns) {
		t.Fatalf("TypeString(empty) error = %v, want ErrNoColumns", err)
	}
}

func TestProjection(t *testing.T) {
	t.Parallel()

	tree := docTree(t, `{"a": {"b": 1}, "items": [{"sku": "x"}], "tags": ["t"]}`)
	cols, laterals := quietGenerator().Projection(tree)
	want := []string{
		"e.typed.`a`.`b` AS `a_b`",
		"e.typed.`items` AS `items`",
		"e.typed.`tags` AS `tags`",
	}
	if !reflect.DeepEqual(cols, want) || laterals != nil {
		t.Fatalf("Projection = %q, %q; want %q, nil", cols, laterals, want)
	}
}

func TestProjection_Explode(t *testing.T) {
	t.Parallel()

	tree := docTree(t,
		`{"id": 1, "order": {"items": {"sku": "x", "codes": ["c"]}}, "tags": ["t"]}`,
		`{"order": {"items": []}}`,
	)
	g := quietGenerator()
	g.ExplodeArrays = true

	cols, laterals := g.Projection(tree)
	wantCols := []string{
		"e.typed.`id` AS `id`",
		"ex_1_pos AS `order_items_idx`",
		"ex_2_pos AS `order_items_codes_idx`",
		"ex_2_item AS `order_items_codes`",
		"ex_1_item.`sku` AS `order_items_sku`",
		"ex_3_pos AS `tags_idx`",
		"ex_3_item AS `tags`",
	}
	wantLaterals := []string{
		"LATERAL VIEW OUTER posexplode(e.typed.`order`.`items`) ex_1 AS ex_1_pos, ex_1_item",
		"LATERAL VIEW OUTER posexplode(ex_1_item.`codes`) ex_2 AS ex_2_pos, ex_2_item",
		"LATERAL VIEW OUTER posexplode(e.typed.`tags`) ex_3 AS ex_3_pos, ex_3_item",
	}
	if !reflect.DeepEqual(cols, wantCols) {
		t.Fatalf("cols =\n%q\nwant\n%q", cols, wantCols)
	}
	if !reflect.DeepEqual(laterals, wantLaterals) {
		t.Fatalf("laterals =\n%q\nwant\n%q", laterals, wantLaterals)
	}
}

func TestGenerate(t *testing.T) {
	t.Parallel()

	arts, err := quietGenerator().Generate("E", docTree(t, `{"a": {"b": 1}}`))
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(arts) != 3 {
		t.Fatalf("artifacts = %d, want 3", len(arts))
	}

	want := "CREATE OR REPLACE VIEW events.e AS SELECT e.row_key, " +
		"from_unixtime(CAST(substr(e.row_key, 3) AS BIGINT)) AS event_time, " +
		"e.typed.`a`.`b` AS `a_b` " +
		"FROM (SELECT row_key, from_json(json, 'struct<a:struct<b:bigint>>') AS typed FROM raw.events " +
		"WHERE row_key BETWEEN 'E-0' AND 'E-9') e;"
	if arts[0].Text != want {
		t.Fatalf("all view =\n%s\nwant\n%s", arts[0].Text, want)
	}
	if arts[1].Name != "e_last_day" || !strings.Contains(arts[1].Text, "concat('E-', CAST(unix_timestamp() - 86400 AS STRING))") {
		t.Fatalf("last_day view = %s\n%s", arts[1], arts[1].Text)
	}
}

func TestGenerate_ExplodeAppendsLateralViews(t *testing.T) {
	t.Parallel()

	g := quietGenerator()
	g.ExplodeArrays = true
	arts, err := g.Generate("E", docTree(t, `{"tags": ["t"]}`))
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if !strings.HasSuffix(arts[0].Text, "'E-9') e LATERAL VIEW OUTER posexplode(e.typed.`tags`) ex_1 AS ex_1_pos, ex_1_item;") {
		t.Fatalf("view = %s", arts[0].Text)
	}
}
