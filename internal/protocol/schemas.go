package protocol

// JSON schemas for the records that cross a service boundary. Embedded as
// strings so the engine validates without a schema directory on disk.

const TerminalRecordSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["names", "region", "interfaces"],
  "properties": {
    "names": {
      "type": "array",
      "items": {"type": "string"},
      "minItems": 1
    },
    "region": {"type": "string"},
    "interfaces": {
      "type": "object",
      "properties": {
        "LAND_SIDE": {"type": "array", "items": {"enum": ["Truck", "Train", "Ship"]}},
        "SEA_SIDE": {"type": "array", "items": {"enum": ["Truck", "Train", "Ship"]}}
      },
      "additionalProperties": false
    },
    "config": {"type": "object"}
  }
}`

const RouteSegmentSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["id", "start_terminal", "end_terminal", "mode", "attributes"],
  "properties": {
    "id": {"type": "string"},
    "start_terminal": {"type": "string"},
    "end_terminal": {"type": "string"},
    "mode": {"enum": ["Truck", "Train", "Ship"]},
    "attributes": {
      "type": "object",
      "required": ["distance", "travelTime", "cost", "carbonEmissions", "energyConsumption", "risk"],
      "properties": {
        "distance": {"type": "number"},
        "travelTime": {"type": "number"},
        "cost": {"type": "number"},
        "carbonEmissions": {"type": "number"},
        "energyConsumption": {"type": "number"},
        "risk": {"type": "number"}
      }
    }
  }
}`

// SimulationConfigSchema validates the JSON file consumed by the truck flow:
// a simulation block plus a non-empty list of networks with master files.
const SimulationConfigSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["simulation", "networks"],
  "properties": {
    "simulation": {
      "type": "object",
      "required": ["duration", "time_step"],
      "properties": {
        "duration": {"type": "number", "exclusiveMinimum": 0},
        "time_step": {"type": "number", "exclusiveMinimum": 0}
      }
    },
    "networks": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["name", "master_file"],
        "properties": {
          "name": {"type": "string", "minLength": 1},
          "master_file": {"type": "string", "minLength": 1}
        }
      }
    }
  }
}`
