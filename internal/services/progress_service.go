package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"finora/internal/amqp"
	"finora/internal/core"
	"finora/internal/progress"
	"finora/internal/storage"
)

// QuestView pairs a catalog quest with the user's completion flag.
type QuestView struct {
	Quest     progress.Quest
	Completed bool
}

// RewardView pairs a catalog reward with flags driving the redeem button.
type RewardView struct {
	Reward     progress.Reward
	Redeemed   bool
	Affordable bool
}

// ProgressView is the full gamification snapshot rendered on the progress page.
type ProgressView struct {
	XP             int
	Level          progress.Level
	Coins          int
	Streaks        progress.Streaks
	CheckInStreak  int
	CheckedInToday bool
	Badges         []progress.Badge
	Quests         []QuestView
	Rewards        []RewardView
	QuizScore      int
	QuizTotal      int
	FundPercent    int
	FundTarget     core.Money
}

// ProgressService owns the load-evaluate-save cycle around the progress
// engine. Every call re-derives XP and coins from the ledger so the stored
// snapshot can never drift.
type ProgressService struct {
	storage    *storage.SQLiteRepository
	amqpClient *amqp.Client
}

func NewProgressService(storage *storage.SQLiteRepository, amqpClient *amqp.Client) *ProgressService {
	return &ProgressService{
		storage:    storage,
		amqpClient: amqpClient,
	}
}

// Evaluate recomputes the user's progress against their ledger: newly
// satisfied quests are recorded (publishing a feed event each), the XP and
// coin snapshot is refreshed and the state is persisted. It returns the
// updated state together with the ledger it was derived from.
func (s *ProgressService) Evaluate(ctx context.Context, user *core.UserAccount, today time.Time) (*progress.State, []core.Transaction, error) {
	st, err := s.storage.LoadProgress(ctx, user.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("load progress: %w", err)
	}

	transactions, err := s.storage.ListTransactions(ctx, user.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("list entries: %w", err)
	}

	for _, q := range progress.EvaluateQuests(transactions, st, today) {
		st.QuestsCompleted[q.Name] = true
		slog.InfoContext(ctx, "Quest completed",
			"username", user.Username, "quest", q.Name, "xp", q.XP, "coins", q.Coins)
		s.publishActivity(ctx, user.Username, amqp.ActivityQuestCompleted, q.Name)
	}

	s.snapshot(st, transactions, today)

	if err := s.storage.SaveProgress(ctx, st); err != nil {
		return nil, nil, fmt.Errorf("save progress: %w", err)
	}
	return st, transactions, nil
}

// snapshot refreshes the derived totals. Coins cannot go negative: spending is
// capped at redemption time, and the derivation subtracts exactly what was
// spent.
func (s *ProgressService) snapshot(st *progress.State, transactions []core.Transaction, today time.Time) {
	derivedXP := progress.ComputeXP(transactions, st, today)
	st.XP = derivedXP + st.BonusXP

	coins := progress.ComputeCoins(derivedXP, st.QuestsCompleted) + st.BonusCoins - st.SpentCoins
	if coins < 0 {
		coins = 0
	}
	st.Coins = coins
}

// View evaluates progress and shapes it for rendering.
func (s *ProgressService) View(ctx context.Context, user *core.UserAccount, today time.Time) (*ProgressView, error) {
	st, transactions, err := s.Evaluate(ctx, user, today)
	if err != nil {
		return nil, err
	}

	quests := make([]QuestView, 0, len(progress.Quests))
	for _, q := range progress.Quests {
		quests = append(quests, QuestView{Quest: q, Completed: st.QuestsCompleted[q.Name]})
	}

	rewards := make([]RewardView, 0, len(progress.Rewards))
	for _, r := range progress.Rewards {
		rewards = append(rewards, RewardView{
			Reward:     r,
			Redeemed:   st.RedeemedRewards[r.Name],
			Affordable: st.Coins >= r.Cost,
		})
	}

	return &ProgressView{
		XP:             st.XP,
		Level:          progress.LevelFromXP(st.XP),
		Coins:          st.Coins,
		Streaks:        progress.ComputeStreaks(transactions),
		CheckInStreak:  st.CheckInStreak,
		CheckedInToday: st.CheckedInToday(today),
		Badges:         progress.EvaluateBadges(transactions, st, today),
		Quests:         quests,
		Rewards:        rewards,
		QuizScore:      st.QuizScore,
		QuizTotal:      len(progress.QuizQuestions),
		FundPercent:    progress.FundPercent(transactions, st.EmergencyTarget),
		FundTarget:     st.EmergencyTarget,
	}, nil
}

// CheckIn applies the daily check-in and returns the resulting streak.
// Checking in twice on the same day leaves the state untouched.
func (s *ProgressService) CheckIn(ctx context.Context, user *core.UserAccount, today time.Time) (int, error) {
	st, err := s.storage.LoadProgress(ctx, user.ID)
	if err != nil {
		return 0, fmt.Errorf("load progress: %w", err)
	}

	already := st.CheckedInToday(today)
	streak := progress.RecordCheckIn(st, today)
	if already {
		return streak, nil
	}

	transactions, err := s.storage.ListTransactions(ctx, user.ID)
	if err != nil {
		return 0, fmt.Errorf("list entries: %w", err)
	}
	s.snapshot(st, transactions, today)

	if err := s.storage.SaveProgress(ctx, st); err != nil {
		return 0, fmt.Errorf("save progress: %w", err)
	}

	s.publishActivity(ctx, user.Username, amqp.ActivityCheckIn,
		fmt.Sprintf("Check-in streak %d", streak))
	return streak, nil
}

// Redeem spends coins on a catalog reward. Progress is evaluated first so the
// balance reflects the latest ledger before the purchase check runs.
func (s *ProgressService) Redeem(ctx context.Context, user *core.UserAccount, name string, today time.Time) (progress.Reward, error) {
	st, _, err := s.Evaluate(ctx, user, today)
	if err != nil {
		return progress.Reward{}, err
	}

	reward, err := progress.RedeemReward(st, name)
	if err != nil {
		return progress.Reward{}, err
	}

	if err := s.storage.SaveProgress(ctx, st); err != nil {
		return progress.Reward{}, fmt.Errorf("save progress: %w", err)
	}

	slog.InfoContext(ctx, "Reward redeemed",
		"username", user.Username, "reward", reward.Name, "cost", reward.Cost)
	s.publishActivity(ctx, user.Username, amqp.ActivityRewardRedeemed, reward.Name)
	return reward, nil
}

// SubmitQuiz scores the answers and keeps the best score achieved so far.
func (s *ProgressService) SubmitQuiz(ctx context.Context, user *core.UserAccount, answers []int, today time.Time) (int, error) {
	st, err := s.storage.LoadProgress(ctx, user.ID)
	if err != nil {
		return 0, fmt.Errorf("load progress: %w", err)
	}

	score := progress.ScoreQuiz(answers)
	if score > st.QuizScore {
		st.QuizScore = score
	}

	transactions, err := s.storage.ListTransactions(ctx, user.ID)
	if err != nil {
		return 0, fmt.Errorf("list entries: %w", err)
	}
	s.snapshot(st, transactions, today)

	if err := s.storage.SaveProgress(ctx, st); err != nil {
		return 0, fmt.Errorf("save progress: %w", err)
	}

	s.publishActivity(ctx, user.Username, amqp.ActivityQuizSubmitted,
		fmt.Sprintf("Scored %d of %d", score, len(progress.QuizQuestions)))
	return score, nil
}

// SetGoal configures the monthly goal; an existing goal for the same month is
// replaced.
func (s *ProgressService) SetGoal(ctx context.Context, user *core.UserAccount, month core.Month, goal progress.Goal) error {
	if err := goal.Validate(); err != nil {
		return err
	}

	st, err := s.storage.LoadProgress(ctx, user.ID)
	if err != nil {
		return fmt.Errorf("load progress: %w", err)
	}
	st.Goals[month] = goal

	if err := s.storage.SaveProgress(ctx, st); err != nil {
		return fmt.Errorf("save progress: %w", err)
	}
	return nil
}

// SetEmergencyTarget configures the emergency-fund target amount.
func (s *ProgressService) SetEmergencyTarget(ctx context.Context, user *core.UserAccount, target core.Money) error {
	if err := target.Validate(); err != nil {
		return err
	}

	st, err := s.storage.LoadProgress(ctx, user.ID)
	if err != nil {
		return fmt.Errorf("load progress: %w", err)
	}
	st.EmergencyTarget = target

	if err := s.storage.SaveProgress(ctx, st); err != nil {
		return fmt.Errorf("save progress: %w", err)
	}
	return nil
}

func (s *ProgressService) publishActivity(ctx context.Context, username, kind, detail string) {
	if s.amqpClient == nil {
		return
	}
	msg := amqp.NewActivityMessage(username, kind, detail)
	if err := s.amqpClient.PublishActivity(ctx, msg); err != nil {
		slog.ErrorContext(ctx, "Failed to publish activity event",
			"kind", kind, "error", err)
	}
}
