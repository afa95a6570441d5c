package postgres

import (
	"context"
	"fmt"

	"github.com/meikuraledutech/quest"
)

// GetNode fetches a single node with its narrative content.
// Returns nil, nil if not found.
func (s *PGStore) GetNode(ctx context.Context, nodeID string) (*quest.Node, error) {
	var n quest.Node
	var endingType *string
	err := s.db.QueryRow(ctx,
		`SELECT n.id, n.adventure_id, n.title, n.node_type, n.ending_type, n.content_id, c.body
		 FROM quest_nodes n JOIN quest_contents c ON c.id = n.content_id
		 WHERE n.id = $1`, nodeID,
	).Scan(&n.ID, &n.AdventureID, &n.Title, &n.Type, &endingType, &n.ContentID, &n.Content)

	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("quest: get node: %w", err)
	}
	if endingType != nil {
		n.EndingType = *endingType
	}

	return &n, nil
}

// ListNodes returns all nodes of an adventure, ordered by created_at.
// Returns an empty slice (not nil) if none found.
func (s *PGStore) ListNodes(ctx context.Context, adventureID string) ([]quest.Node, error) {
	rows, err := s.db.Query(ctx,
		`SELECT n.id, n.adventure_id, n.title, n.node_type, n.ending_type, n.content_id, c.body
		 FROM quest_nodes n JOIN quest_contents c ON c.id = n.content_id
		 WHERE n.adventure_id = $1 ORDER BY n.created_at`, adventureID)
	if err != nil {
		return nil, fmt.Errorf("quest: list nodes: %w", err)
	}
	defer rows.Close()

	nodes := []quest.Node{}
	for rows.Next() {
		var n quest.Node
		var endingType *string
		if err := rows.Scan(&n.ID, &n.AdventureID, &n.Title, &n.Type, &endingType, &n.ContentID, &n.Content); err != nil {
			return nil, fmt.Errorf("quest: scan node: %w", err)
		}
		if endingType != nil {
			n.EndingType = *endingType
		}
		nodes = append(nodes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("quest: rows nodes: %w", err)
	}

	return nodes, nil
}

// GetChoice fetches a single choice by its ID.
// Returns nil, nil if not found.
func (s *PGStore) GetChoice(ctx context.Context, choiceID string) (*quest.Choice, error) {
	var c quest.Choice
	err := s.db.QueryRow(ctx,
		`SELECT id, adventure_id, source_node_id, target_node_id, label, consequence
		 FROM quest_choices WHERE id = $1`, choiceID,
	).Scan(&c.ID, &c.AdventureID, &c.SourceNodeID, &c.TargetNodeID, &c.Label, &c.Consequence)

	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("quest: get choice: %w", err)
	}

	return &c, nil
}

// ListChoices returns the outgoing choices of a node, ordered by created_at.
// Returns an empty slice (not nil) if none found.
func (s *PGStore) ListChoices(ctx context.Context, nodeID string) ([]quest.Choice, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, adventure_id, source_node_id, target_node_id, label, consequence
		 FROM quest_choices WHERE source_node_id = $1 ORDER BY created_at`, nodeID)
	if err != nil {
		return nil, fmt.Errorf("quest: list choices: %w", err)
	}
	defer rows.Close()

	choices := []quest.Choice{}
	for rows.Next() {
		var c quest.Choice
		if err := rows.Scan(&c.ID, &c.AdventureID, &c.SourceNodeID, &c.TargetNodeID, &c.Label, &c.Consequence); err != nil {
			return nil, fmt.Errorf("quest: scan choice: %w", err)
		}
		choices = append(choices, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("quest: rows choices: %w", err)
	}

	return choices, nil
}
