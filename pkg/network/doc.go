// Package network defines the wire types for kinase–substrate interaction
// networks and fold-change overlay datasets.
//
// # Core Types
//
//   - [Dataset]: raw node/link input for one network
//   - [Node], [Link]: immutable inputs; links are identified by Key
//   - [Endpoint]: a node reference that also decodes the object form
//     force-graph renderers write back ({"id": "..."})
//   - [Measurement]: one fold-change record of an overlay dataset
//
// # Reading Data
//
//	ds, err := network.ReadDatasetFile("kinases.json")
//	ms, err := network.ReadMeasurementsFile("fc.json")
//
// Decoding does not validate identities; that is the job of
// multigraph.Build, which rejects duplicate ids and dangling links.
package network
