package network

import (
	"testing"

	"cargonetsim/internal/model"
	"cargonetsim/internal/protocol"
	"cargonetsim/internal/region"
	"cargonetsim/internal/scene"
)

const railSample = `{
  "name": "rail1",
  "mode": "Rail",
  "nodes": [
    {"id": "N1", "lon": 0, "lat": 0},
    {"id": "N2", "lon": 0.01, "lat": 0}
  ],
  "links": [
    {"id": "L1", "from": "N1", "to": "N2", "length": 1000, "max_speed": 120}
  ]
}`

func TestParseAndImport(t *testing.T) {
	f, err := Parse([]byte(railSample))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	scenes := scene.NewSet()
	regions := region.NewRegistry(nil)
	res, err := Import(f, scenes, regions)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if len(res.Nodes) != 2 || len(res.Edges) != 1 {
		t.Fatalf("import result: %d nodes %d edges", len(res.Nodes), len(res.Edges))
	}
	if res.Nodes[0].ID != "rail1:N1" {
		t.Fatalf("node id not namespaced: %q", res.Nodes[0].ID)
	}
	if res.Edges[0].From != "rail1:N1" || res.Edges[0].To != "rail1:N2" {
		t.Fatalf("edge endpoints: %q -> %q", res.Edges[0].From, res.Edges[0].To)
	}
	if res.Nodes[0].Region != region.DefaultRegion {
		t.Fatalf("node region: %q", res.Nodes[0].Region)
	}
	if got := scenes.Region.ItemsByKind(model.KindMapNode); len(got) != 2 {
		t.Fatalf("nodes not in scene: %d", len(got))
	}
	rec := regions.Get(region.DefaultRegion)
	if _, ok := rec.RailNetworks["rail1"]; !ok {
		t.Fatalf("network name not registered")
	}
}

func TestParseRejectsBadFiles(t *testing.T) {
	bad := []string{
		`{`,
		`{"name": "n", "mode": "Sail", "nodes": [{"id":"a","lon":0,"lat":0}], "links": []}`,
		`{"name": "n", "mode": "Rail", "nodes": [], "links": []}`,
		`{"name": "n", "mode": "Rail", "nodes": [{"id":"a","lon":0,"lat":0}],
		  "links": [{"id":"l","from":"a","to":"missing","length":1}]}`,
	}
	for i, src := range bad {
		_, err := Parse([]byte(src))
		if protocol.CodeOf(err) != protocol.ErrInvalidConfig {
			t.Fatalf("case %d: expected E_INVALID_CONFIG, got %v", i, err)
		}
	}
}
