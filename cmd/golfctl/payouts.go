package main

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/stitts-dev/golf-prize-engine/internal/golf"
)

// payoutFile is the on-disk prize distribution. JSON files parse too.
type payoutFile struct {
	Tournament string             `yaml:"tournament,omitempty"`
	Payouts    []golf.PayoutEntry `yaml:"payouts"`
}

func readPayoutFile(path string) ([]golf.PayoutEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read payout file: %w", err)
	}
	return parsePayouts(data)
}

// parsePayouts accepts either a document with a payouts key or a bare list.
func parsePayouts(data []byte) ([]golf.PayoutEntry, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse payout file: %w", err)
	}
	if len(doc.Content) == 0 {
		return nil, errors.New("payout file is empty")
	}

	root := doc.Content[0]
	switch root.Kind {
	case yaml.SequenceNode:
		var entries []golf.PayoutEntry
		if err := root.Decode(&entries); err != nil {
			return nil, fmt.Errorf("failed to decode payouts: %w", err)
		}
		return entries, nil
	case yaml.MappingNode:
		var file payoutFile
		if err := root.Decode(&file); err != nil {
			return nil, fmt.Errorf("failed to decode payouts: %w", err)
		}
		return file.Payouts, nil
	default:
		return nil, errors.New("payout file must be a list or a document with a payouts key")
	}
}
