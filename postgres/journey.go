package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/meikuraledutech/quest"
)

// uniqueViolation is the postgres error code for unique-constraint failures.
const uniqueViolation = "23505"

// CreateJourney inserts a new journey. A partial unique index guards the
// one-active-journey-per-(user, adventure) invariant: the losing writer of a
// racing pair gets ErrJourneyActive and must re-fetch the winner's row.
func (s *PGStore) CreateJourney(ctx context.Context, j *quest.Journey) error {
	pathJSON, err := json.Marshal(j.Path)
	if err != nil {
		return fmt.Errorf("quest: marshal path: %w", err)
	}

	err = s.db.QueryRow(ctx,
		`INSERT INTO quest_journeys (id, user_id, adventure_id, current_node_id, path)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING created_at, updated_at`,
		j.ID, j.UserID, j.AdventureID, j.CurrentNodeID, pathJSON,
	).Scan(&j.CreatedAt, &j.UpdatedAt)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return quest.ErrJourneyActive
		}
		return fmt.Errorf("quest: insert journey: %w", err)
	}
	return nil
}

const journeyColumns = `id, user_id, adventure_id, current_node_id, path, is_completed, completed_at, created_at, updated_at`

func scanJourney(row interface{ Scan(...any) error }) (*quest.Journey, error) {
	var j quest.Journey
	var pathJSON []byte
	if err := row.Scan(&j.ID, &j.UserID, &j.AdventureID, &j.CurrentNodeID,
		&pathJSON, &j.IsCompleted, &j.CompletedAt, &j.CreatedAt, &j.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(pathJSON, &j.Path); err != nil {
		return nil, fmt.Errorf("quest: unmarshal path: %w", err)
	}
	return &j, nil
}

// GetJourney fetches a journey by its ID.
// Returns nil, nil if not found.
func (s *PGStore) GetJourney(ctx context.Context, journeyID string) (*quest.Journey, error) {
	j, err := scanJourney(s.db.QueryRow(ctx,
		`SELECT `+journeyColumns+` FROM quest_journeys WHERE id = $1`, journeyID))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("quest: get journey: %w", err)
	}
	return j, nil
}

// ActiveJourney fetches the single non-completed journey for the pair.
// Returns nil, nil if there is none.
func (s *PGStore) ActiveJourney(ctx context.Context, userID, adventureID string) (*quest.Journey, error) {
	j, err := scanJourney(s.db.QueryRow(ctx,
		`SELECT `+journeyColumns+` FROM quest_journeys
		 WHERE user_id = $1 AND adventure_id = $2 AND NOT is_completed`,
		userID, adventureID))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("quest: active journey: %w", err)
	}
	return j, nil
}

// CompletedJourneyExists reports whether the pair has any completed journey.
func (s *PGStore) CompletedJourneyExists(ctx context.Context, userID, adventureID string) (bool, error) {
	var exists bool
	err := s.db.QueryRow(ctx,
		`SELECT EXISTS (
		     SELECT 1 FROM quest_journeys
		     WHERE user_id = $1 AND adventure_id = $2 AND is_completed
		 )`, userID, adventureID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("quest: completed journey exists: %w", err)
	}
	return exists, nil
}

// AdvanceJourney applies one choice as a single atomic update guarded by the
// expected current node. The path append, the current-node move and the
// completion flag commit together or not at all; a guard miss means either a
// lost race (ErrJourneyConflict) or a missing journey (nil, nil).
func (s *PGStore) AdvanceJourney(ctx context.Context, journeyID, fromNodeID string, entry quest.PathEntry, toNodeID string, complete bool) (*quest.Journey, error) {
	entryJSON, err := json.Marshal(entry)
	if err != nil {
		return nil, fmt.Errorf("quest: marshal path entry: %w", err)
	}
	var completedAt any
	if complete {
		completedAt = entry.ChosenAt
	}

	ct, err := s.db.Exec(ctx,
		`UPDATE quest_journeys
		 SET current_node_id = $2,
		     path            = path || $3::jsonb,
		     is_completed    = $4,
		     completed_at    = $5,
		     updated_at      = NOW()
		 WHERE id = $1 AND current_node_id = $6 AND NOT is_completed`,
		journeyID, toNodeID, entryJSON, complete, completedAt, fromNodeID,
	)
	if err != nil {
		return nil, fmt.Errorf("quest: advance journey: %w", err)
	}

	if ct.RowsAffected() == 0 {
		j, err := s.GetJourney(ctx, journeyID)
		if err != nil {
			return nil, err
		}
		if j == nil {
			return nil, nil
		}
		return nil, quest.ErrJourneyConflict
	}

	return s.GetJourney(ctx, journeyID)
}

// ChoiceStats aggregates choice popularity across every journey of an
// adventure by unnesting the embedded path ledgers. Read-only.
func (s *PGStore) ChoiceStats(ctx context.Context, adventureID string) ([]quest.ChoiceStat, error) {
	rows, err := s.db.Query(ctx,
		`SELECT e->>'choice_id', e->>'choice_text', COUNT(*)
		 FROM quest_journeys j, jsonb_array_elements(j.path) e
		 WHERE j.adventure_id = $1
		 GROUP BY 1, 2
		 ORDER BY 3 DESC, 1`, adventureID)
	if err != nil {
		return nil, fmt.Errorf("quest: choice stats: %w", err)
	}
	defer rows.Close()

	stats := []quest.ChoiceStat{}
	for rows.Next() {
		var st quest.ChoiceStat
		if err := rows.Scan(&st.ChoiceID, &st.ChoiceText, &st.Count); err != nil {
			return nil, fmt.Errorf("quest: scan choice stat: %w", err)
		}
		stats = append(stats, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("quest: rows choice stats: %w", err)
	}

	return stats, nil
}
