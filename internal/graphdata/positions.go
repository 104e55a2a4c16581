package graphdata

import (
	"encoding/base64"
	"encoding/json"
	"strings"

	"github.com/champtc/cyio-graph/internal/domain"
)

// EncodePositions serializes positions into the base64 JSON blob stored with
// a container.
func EncodePositions(positions domain.Positions) string {
	if positions == nil {
		positions = domain.Positions{}
	}
	payload, err := json.Marshal(positions)
	if err != nil {
		return ""
	}
	return base64.StdEncoding.EncodeToString(payload)
}

// DecodePositions parses a blob written by EncodePositions. Undecodable input
// yields an empty map and malformed entries are skipped.
func DecodePositions(encoded string) domain.Positions {
	positions := domain.Positions{}
	encoded = strings.TrimSpace(encoded)
	if encoded == "" {
		return positions
	}
	payload, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return positions
	}
	var entries map[string]json.RawMessage
	if err := json.Unmarshal(payload, &entries); err != nil {
		return positions
	}
	for id, raw := range entries {
		var pos domain.Position
		if err := json.Unmarshal(raw, &pos); err != nil {
			continue
		}
		positions[id] = pos
	}
	return positions
}

// PositionsFromNodes collects the pinned coordinates of nodes.
func PositionsFromNodes(nodes []domain.GraphNode) domain.Positions {
	positions := make(domain.Positions, len(nodes))
	for _, n := range nodes {
		if n.Fx == nil || n.Fy == nil {
			continue
		}
		x, y := *n.Fx, *n.Fy
		positions[n.ID] = domain.Position{X: &x, Y: &y}
	}
	return positions
}
