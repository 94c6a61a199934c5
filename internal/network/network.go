// Package network imports rail and truck network files onto the map. A
// network file is JSON: a name, a mode, geodetic nodes, and typed links.
package network

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"cargonetsim/internal/geo"
	"cargonetsim/internal/model"
	"cargonetsim/internal/protocol"
	"cargonetsim/internal/region"
	"cargonetsim/internal/scene"
)

// File is the on-disk network representation.
type File struct {
	Name  string `json:"name"`
	Mode  string `json:"mode"` // "Rail" or "Truck"
	Nodes []Node `json:"nodes"`
	Links []Link `json:"links"`
}

type Node struct {
	ID  string  `json:"id"`
	Lon float64 `json:"lon"`
	Lat float64 `json:"lat"`
}

type Link struct {
	ID   string `json:"id"`
	From string `json:"from"`
	To   string `json:"to"`

	Length        float64 `json:"length"`
	FreeFlowSpeed float64 `json:"free_flow_speed,omitempty"` // truck
	Lanes         int     `json:"lanes,omitempty"`           // truck
	MaxSpeed      float64 `json:"max_speed,omitempty"`       // rail
}

const fileSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["name", "mode", "nodes", "links"],
  "properties": {
    "name": {"type": "string", "minLength": 1},
    "mode": {"enum": ["Rail", "Truck"]},
    "nodes": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["id", "lon", "lat"],
        "properties": {
          "id": {"type": "string", "minLength": 1},
          "lon": {"type": "number"},
          "lat": {"type": "number"}
        }
      }
    },
    "links": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["id", "from", "to", "length"],
        "properties": {
          "id": {"type": "string", "minLength": 1},
          "from": {"type": "string"},
          "to": {"type": "string"},
          "length": {"type": "number", "minimum": 0}
        }
      }
    }
  }
}`

var compiledSchema = jsonschema.MustCompileString("network.schema.json", fileSchema)

// Parse validates and decodes a network file.
func Parse(data []byte) (*File, error) {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, protocol.Errorf(protocol.ErrInvalidConfig, "network file: %v", err)
	}
	if err := compiledSchema.Validate(v); err != nil {
		return nil, protocol.Errorf(protocol.ErrInvalidConfig, "network file: %v", err)
	}
	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, protocol.Errorf(protocol.ErrInvalidConfig, "network file: %v", err)
	}
	for _, l := range f.Links {
		if !hasNode(f.Nodes, l.From) || !hasNode(f.Nodes, l.To) {
			return nil, protocol.Errorf(protocol.ErrInvalidConfig,
				"link %s references unknown node", l.ID)
		}
	}
	return &f, nil
}

func hasNode(nodes []Node, id string) bool {
	for _, n := range nodes {
		if n.ID == id {
			return true
		}
	}
	return false
}

// ImportResult reports what an import added to the scene.
type ImportResult struct {
	Network string
	Mode    model.Mode
	Nodes   []*model.MapNode
	Edges   []*model.MapEdge
}

// Import materialises a parsed network into the region scene under the
// current region and registers the network name with the registry. Node ids
// are prefixed with the network name so two networks can share raw ids.
func Import(f *File, scenes *scene.Set, regions *region.Registry) (*ImportResult, error) {
	mode := model.Mode(f.Mode)
	current := regions.CurrentRegion()

	res := &ImportResult{Network: f.Name, Mode: mode}
	byRaw := make(map[string]*model.MapNode, len(f.Nodes))
	for _, n := range f.Nodes {
		x, y := geo.GeodeticToScene(n.Lon, n.Lat)
		node := &model.MapNode{
			ID:      nodeID(f.Name, n.ID),
			Network: f.Name,
			Mode:    mode,
			Region:  current,
			Lon:     n.Lon,
			Lat:     n.Lat,
			Pos:     model.Point{X: x, Y: y},
		}
		if err := scenes.Region.AddItem(node.Entity()); err != nil {
			return nil, err
		}
		byRaw[n.ID] = node
		res.Nodes = append(res.Nodes, node)
	}
	for _, l := range f.Links {
		edge := &model.MapEdge{
			ID:            nodeID(f.Name, l.ID),
			Network:       f.Name,
			Mode:          mode,
			Region:        current,
			From:          byRaw[l.From].ID,
			To:            byRaw[l.To].ID,
			Length:        l.Length,
			FreeFlowSpeed: l.FreeFlowSpeed,
			Lanes:         l.Lanes,
			MaxSpeed:      l.MaxSpeed,
		}
		if err := scenes.Region.AddItem(edge.Entity()); err != nil {
			return nil, err
		}
		res.Edges = append(res.Edges, edge)
	}
	if err := regions.AddNetwork(current, mode == model.ModeRail, f.Name); err != nil {
		return nil, err
	}
	return res, nil
}

// ImportPath loads, parses, and imports a network file from disk.
func ImportPath(path string, scenes *scene.Set, regions *region.Registry) (*ImportResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read network: %w", err)
	}
	f, perr := Parse(data)
	if perr != nil {
		return nil, perr
	}
	return Import(f, scenes, regions)
}

func nodeID(network, raw string) string {
	if strings.HasPrefix(raw, network+":") {
		return raw
	}
	return network + ":" + raw
}
