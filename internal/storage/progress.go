package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"finora/internal/core"
	"finora/internal/progress"
)

// LoadProgress fetches the gamification record for ownerID, creating a
// zero-value row on first access so callers never see a missing record.
func (r *SQLiteRepository) LoadProgress(ctx context.Context, ownerID int64) (*progress.State, error) {
	st := progress.NewState(ownerID)

	row := r.db.QueryRowContext(ctx, `
		SELECT xp, coins, bonus_xp, bonus_coins, spent_coins,
		       check_in_streak, last_check_in, quiz_score, emergency_target_cents
		FROM progress WHERE owner_id = ?`,
		ownerID,
	)

	var lastCheckIn sql.NullString
	err := row.Scan(&st.XP, &st.Coins, &st.BonusXP, &st.BonusCoins, &st.SpentCoins,
		&st.CheckInStreak, &lastCheckIn, &st.QuizScore, &st.EmergencyTarget.Cents)
	if errors.Is(err, sql.ErrNoRows) {
		if _, err := r.db.ExecContext(ctx,
			"INSERT OR IGNORE INTO progress (owner_id) VALUES (?)", ownerID); err != nil {
			return nil, fmt.Errorf("init progress row: %w", err)
		}
		return st, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan progress: %w", err)
	}

	if lastCheckIn.Valid && lastCheckIn.String != "" {
		t, err := time.Parse(dateLayout, lastCheckIn.String)
		if err != nil {
			return nil, fmt.Errorf("parse last check-in %q: %w", lastCheckIn.String, err)
		}
		st.LastCheckIn = t
	}

	if err := r.loadQuests(ctx, st); err != nil {
		return nil, err
	}
	if err := r.loadRewards(ctx, st); err != nil {
		return nil, err
	}
	if err := r.loadGoals(ctx, st); err != nil {
		return nil, err
	}
	return st, nil
}

func (r *SQLiteRepository) loadQuests(ctx context.Context, st *progress.State) error {
	rows, err := r.db.QueryContext(ctx,
		"SELECT quest_name FROM completed_quests WHERE owner_id = ?", st.OwnerID)
	if err != nil {
		return fmt.Errorf("query completed quests: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return fmt.Errorf("scan quest: %w", err)
		}
		st.QuestsCompleted[name] = true
	}
	return rows.Err()
}

func (r *SQLiteRepository) loadRewards(ctx context.Context, st *progress.State) error {
	rows, err := r.db.QueryContext(ctx,
		"SELECT reward_name FROM redeemed_rewards WHERE owner_id = ?", st.OwnerID)
	if err != nil {
		return fmt.Errorf("query redeemed rewards: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return fmt.Errorf("scan reward: %w", err)
		}
		st.RedeemedRewards[name] = true
	}
	return rows.Err()
}

func (r *SQLiteRepository) loadGoals(ctx context.Context, st *progress.State) error {
	rows, err := r.db.QueryContext(ctx,
		"SELECT month, goal_type, amount_cents FROM goals WHERE owner_id = ?", st.OwnerID)
	if err != nil {
		return fmt.Errorf("query goals: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			rawMonth string
			goalType string
			cents    int64
		)
		if err := rows.Scan(&rawMonth, &goalType, &cents); err != nil {
			return fmt.Errorf("scan goal: %w", err)
		}
		month, err := core.ParseMonth(rawMonth)
		if err != nil {
			return fmt.Errorf("parse goal month %q: %w", rawMonth, err)
		}
		st.Goals[month] = progress.Goal{
			Type:   progress.GoalType(goalType),
			Amount: core.Money{Cents: cents},
		}
	}
	return rows.Err()
}

// SaveProgress persists the full gamification record in one transaction.
// Completed quests and redeemed rewards only ever grow, so they are written
// with INSERT OR IGNORE; goals are upserted per month.
func (r *SQLiteRepository) SaveProgress(ctx context.Context, st *progress.State) error {
	dbTx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin progress save: %w", err)
	}
	defer dbTx.Rollback()

	var lastCheckIn any
	if !st.LastCheckIn.IsZero() {
		lastCheckIn = st.LastCheckIn.Format(dateLayout)
	}

	_, err = dbTx.ExecContext(ctx, `
		INSERT INTO progress (owner_id, xp, coins, bonus_xp, bonus_coins, spent_coins,
			check_in_streak, last_check_in, quiz_score, emergency_target_cents)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(owner_id) DO UPDATE SET
			xp = excluded.xp,
			coins = excluded.coins,
			bonus_xp = excluded.bonus_xp,
			bonus_coins = excluded.bonus_coins,
			spent_coins = excluded.spent_coins,
			check_in_streak = excluded.check_in_streak,
			last_check_in = excluded.last_check_in,
			quiz_score = excluded.quiz_score,
			emergency_target_cents = excluded.emergency_target_cents`,
		st.OwnerID, st.XP, st.Coins, st.BonusXP, st.BonusCoins, st.SpentCoins,
		st.CheckInStreak, lastCheckIn, st.QuizScore, st.EmergencyTarget.Cents,
	)
	if err != nil {
		return fmt.Errorf("upsert progress: %w", err)
	}

	for name := range st.QuestsCompleted {
		if _, err := dbTx.ExecContext(ctx,
			"INSERT OR IGNORE INTO completed_quests (owner_id, quest_name) VALUES (?, ?)",
			st.OwnerID, name); err != nil {
			return fmt.Errorf("insert completed quest: %w", err)
		}
	}

	for name := range st.RedeemedRewards {
		if _, err := dbTx.ExecContext(ctx,
			"INSERT OR IGNORE INTO redeemed_rewards (owner_id, reward_name) VALUES (?, ?)",
			st.OwnerID, name); err != nil {
			return fmt.Errorf("insert redeemed reward: %w", err)
		}
	}

	for month, goal := range st.Goals {
		if _, err := dbTx.ExecContext(ctx, `
			INSERT INTO goals (owner_id, month, goal_type, amount_cents)
			VALUES (?, ?, ?, ?)
			ON CONFLICT(owner_id, month) DO UPDATE SET
				goal_type = excluded.goal_type,
				amount_cents = excluded.amount_cents`,
			st.OwnerID, month.String(), string(goal.Type), goal.Amount.Cents); err != nil {
			return fmt.Errorf("upsert goal: %w", err)
		}
	}

	if err := dbTx.Commit(); err != nil {
		return fmt.Errorf("commit progress save: %w", err)
	}
	return nil
}
