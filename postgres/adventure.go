package postgres

import (
	"context"
	"fmt"

	"github.com/meikuraledutech/quest"
)

// CreateAdventureGraph persists a resolved graph build in one transaction,
// honoring the ordered construction protocol:
//
//  1. narrative contents and node records,
//  2. the adventure row with an unset start pointer and published = FALSE,
//  3. choice records (both endpoints already resolved by the builder),
//  4. the start-pointer patch together with published = TRUE as the final write.
//
// The transaction makes a failed attempt fully invisible; in particular no
// reader can ever observe the graph as published before step 4 commits. The
// node → adventure foreign key is deferred, so the node-first ordering holds.
func (s *PGStore) CreateAdventureGraph(ctx context.Context, b *quest.GraphBuild) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("quest: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	// Step 1: contents and nodes.
	for _, n := range b.Nodes {
		if _, err := tx.Exec(ctx,
			`INSERT INTO quest_contents (id, body) VALUES ($1, $2)`,
			n.ContentID, n.Content,
		); err != nil {
			return fmt.Errorf("quest: insert content for node %s: %w", n.ID, err)
		}
		var endingType *string
		if n.EndingType != "" {
			endingType = &n.EndingType
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO quest_nodes (id, adventure_id, title, node_type, ending_type, content_id)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			n.ID, n.AdventureID, n.Title, string(n.Type), endingType, n.ContentID,
		); err != nil {
			return fmt.Errorf("quest: insert node %s: %w", n.ID, err)
		}
	}

	// Step 2: the adventure row, root pointer unset, not yet published.
	if _, err := tx.Exec(ctx,
		`INSERT INTO quest_adventures (id, title, description, start_node_id, published)
		 VALUES ($1, $2, $3, NULL, FALSE)`,
		b.Adventure.ID, b.Adventure.Title, b.Adventure.Description,
	); err != nil {
		return fmt.Errorf("quest: insert adventure: %w", err)
	}

	// Step 3: choices.
	for _, c := range b.Choices {
		if _, err := tx.Exec(ctx,
			`INSERT INTO quest_choices (id, adventure_id, source_node_id, target_node_id, label, consequence)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			c.ID, c.AdventureID, c.SourceNodeID, c.TargetNodeID, c.Label, c.Consequence,
		); err != nil {
			return fmt.Errorf("quest: insert choice %s: %w", c.ID, err)
		}
	}

	// Step 4: patch the root pointer, then flip published — the final write.
	if _, err := tx.Exec(ctx,
		`UPDATE quest_adventures SET start_node_id = $1, published = TRUE WHERE id = $2`,
		b.StartNodeID, b.Adventure.ID,
	); err != nil {
		return fmt.Errorf("quest: publish adventure: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("quest: commit: %w", err)
	}
	return nil
}

// GetAdventure fetches an adventure by its ID.
// Returns nil, nil if not found.
func (s *PGStore) GetAdventure(ctx context.Context, adventureID string) (*quest.Adventure, error) {
	var a quest.Adventure
	err := s.db.QueryRow(ctx,
		`SELECT id, title, description, start_node_id, published, created_at
		 FROM quest_adventures WHERE id = $1`, adventureID,
	).Scan(&a.ID, &a.Title, &a.Description, &a.StartNodeID, &a.Published, &a.CreatedAt)

	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("quest: get adventure: %w", err)
	}

	return &a, nil
}
