package network

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// PanSpecific is the measurement site that applies to every phosphosite of
// its target. Site-exact entries take precedence over it.
const PanSpecific = "Pan-specific"

// Effect codes carried on links.
const (
	EffectActivating = "+"
	EffectInhibiting = "-"
	EffectUnknown    = ""
)

// =============================================================================
// Dataset - Raw Network Input
// =============================================================================

// Dataset is the raw node/link input for one interaction network.
//
//	{
//	  "nodes": [{"id": "P06493", "name": "CDK1", "isKinase": true}],
//	  "links": [{"key": "l1", "source": "P06493", "target": "P04637"}]
//	}
type Dataset struct {
	Nodes []Node `json:"nodes"`
	Links []Link `json:"links"`
}

// Node is a protein in the network. Nodes are immutable inputs.
type Node struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Desc     string `json:"desc"`
	IsKinase bool   `json:"isKinase"`
	Type     string `json:"type"`
}

// Link is a directed phosphorylation event. Key identifies the link
// independently of its endpoints, so parallel links and self-loops are
// distinct entities.
type Link struct {
	Key                       string   `json:"key"`
	Source                    Endpoint `json:"source"`
	Target                    Endpoint `json:"target"`
	SubstratePhosphosite      string   `json:"substratePhosphosite"`
	EffectCode                string   `json:"effectCode"`
	FullPhosphorylationEffect string   `json:"fullPhosphorylationEffect"`
}

// Endpoint is a node id referenced by a link.
//
// Force-graph renderers replace link endpoints with the node objects they
// point at, so the decoder accepts a bare string, a number, or an object
// carrying an "id" field. It always encodes as a plain string.
type Endpoint string

// UnmarshalJSON implements json.Unmarshaler.
func (e *Endpoint) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return fmt.Errorf("empty endpoint")
	}
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*e = Endpoint(s)
		return nil
	case '{':
		var obj struct {
			ID json.RawMessage `json:"id"`
		}
		if err := json.Unmarshal(data, &obj); err != nil {
			return err
		}
		if len(obj.ID) == 0 {
			return fmt.Errorf("endpoint object has no id")
		}
		return e.UnmarshalJSON(obj.ID)
	case 'n':
		return fmt.Errorf("endpoint is null")
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("endpoint must be a string, number or object: %w", err)
		}
		*e = Endpoint(n.String())
		return nil
	}
}

// String returns the referenced node id.
func (e Endpoint) String() string { return string(e) }

// IsSelfLoop reports whether the link starts and ends at the same node.
func (l Link) IsSelfLoop() bool { return l.Source == l.Target }

// =============================================================================
// Measurement - Fold-Change Overlay Entry
// =============================================================================

// Measurement is one fold-change record from an uploaded overlay dataset.
// TargetID matches a node id; Site matches a link's substrate phosphosite
// or is PanSpecific.
type Measurement struct {
	TargetID string  `json:"targetid"`
	Site     string  `json:"site"`
	FC       float64 `json:"fc"`
	Err      float64 `json:"err"`
}

// IsPanSpecific reports whether the entry applies to all sites of its target.
func (m Measurement) IsPanSpecific() bool { return m.Site == PanSpecific }
