package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"finora/internal/core"
	"finora/internal/progress"
)

func seedEntry(t *testing.T, svc *EntryService, u *core.UserAccount, kind core.Kind, cents int64, category, date string) {
	t.Helper()
	d, err := time.Parse("2006-01-02", date)
	if err != nil {
		t.Fatalf("bad date %q: %v", date, err)
	}
	_, err = svc.AddEntry(context.Background(), u.Username, core.Transaction{
		OwnerID:  u.ID,
		Kind:     kind,
		Amount:   core.Money{Cents: cents},
		Category: category,
		Date:     d,
	})
	if err != nil {
		t.Fatalf("AddEntry() error = %v", err)
	}
}

func TestEvaluateDerivesXPAndCoins(t *testing.T) {
	repo := newTestRepo(t)
	u := newTestUser(t, repo)
	entries := NewEntryService(repo, nil)
	svc := NewProgressService(repo, nil)
	ctx := context.Background()
	today := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	seedEntry(t, entries, u, core.Income, 1000_00, "Salary", "2025-06-01")
	seedEntry(t, entries, u, core.Expense, 300_00, "Food", "2025-06-10")

	st, _, err := svc.Evaluate(ctx, u, today)
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	// One income (5) plus one expense (3).
	if st.XP != 8 {
		t.Errorf("Evaluate() XP = %d, want 8", st.XP)
	}
	if st.Coins != 0 {
		t.Errorf("Evaluate() Coins = %d, want 0", st.Coins)
	}

	// Evaluation is idempotent.
	again, _, err := svc.Evaluate(ctx, u, today)
	if err != nil {
		t.Fatalf("Evaluate() second call error = %v", err)
	}
	if again.XP != st.XP || again.Coins != st.Coins {
		t.Errorf("Evaluate() second call = (%d, %d), want (%d, %d)",
			again.XP, again.Coins, st.XP, st.Coins)
	}
}

func TestEvaluateCompletesQuestOnce(t *testing.T) {
	repo := newTestRepo(t)
	u := newTestUser(t, repo)
	entries := NewEntryService(repo, nil)
	svc := NewProgressService(repo, nil)
	ctx := context.Background()
	today := time.Date(2025, 6, 12, 12, 0, 0, 0, time.UTC)

	// Five expenses within the ISO week containing June 12 2025.
	for i := 0; i < 5; i++ {
		seedEntry(t, entries, u, core.Expense, 10_00, "Food",
			time.Date(2025, 6, 9+i, 0, 0, 0, 0, time.UTC).Format("2006-01-02"))
	}

	st, _, err := svc.Evaluate(ctx, u, today)
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	if !st.QuestsCompleted["Budget Apprentice"] {
		t.Fatal("Budget Apprentice should be completed")
	}

	// 5 expenses * 3 XP + quest XP 25 = 40.
	if st.XP != 40 {
		t.Errorf("XP = %d, want 40", st.XP)
	}
	// 40/10 + quest coins 10 = 14.
	if st.Coins != 14 {
		t.Errorf("Coins = %d, want 14", st.Coins)
	}

	// Completion survives later evaluations outside the week.
	later := today.AddDate(0, 1, 0)
	st, _, err = svc.Evaluate(ctx, u, later)
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	if !st.QuestsCompleted["Budget Apprentice"] {
		t.Error("quest completion should persist")
	}
	if st.XP != 40 {
		t.Errorf("XP after later evaluation = %d, want 40", st.XP)
	}
}

func TestCheckInAccruesBonusAndIsIdempotent(t *testing.T) {
	repo := newTestRepo(t)
	u := newTestUser(t, repo)
	svc := NewProgressService(repo, nil)
	ctx := context.Background()
	day1 := time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC)

	streak, err := svc.CheckIn(ctx, u, day1)
	if err != nil {
		t.Fatalf("CheckIn() error = %v", err)
	}
	if streak != 1 {
		t.Errorf("CheckIn() streak = %d, want 1", streak)
	}

	st, err := repo.LoadProgress(ctx, u.ID)
	if err != nil {
		t.Fatalf("LoadProgress() error = %v", err)
	}
	if st.XP != 5 || st.Coins != 2 {
		t.Errorf("after check-in XP=%d Coins=%d, want 5 and 2", st.XP, st.Coins)
	}

	// Same day again: no extra grant.
	if _, err := svc.CheckIn(ctx, u, day1.Add(2*time.Hour)); err != nil {
		t.Fatalf("CheckIn() error = %v", err)
	}
	st, err = repo.LoadProgress(ctx, u.ID)
	if err != nil {
		t.Fatalf("LoadProgress() error = %v", err)
	}
	if st.XP != 5 || st.Coins != 2 {
		t.Errorf("second same-day check-in changed totals: XP=%d Coins=%d", st.XP, st.Coins)
	}

	// Next day extends the streak.
	streak, err = svc.CheckIn(ctx, u, day1.AddDate(0, 0, 1))
	if err != nil {
		t.Fatalf("CheckIn() error = %v", err)
	}
	if streak != 2 {
		t.Errorf("CheckIn() streak = %d, want 2", streak)
	}
}

func TestRedeemReward(t *testing.T) {
	repo := newTestRepo(t)
	u := newTestUser(t, repo)
	entries := NewEntryService(repo, nil)
	svc := NewProgressService(repo, nil)
	ctx := context.Background()
	today := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	// Build a ledger worth enough coins for the Investment Guide (150).
	// 200 income entries on distinct days push derived XP past 1100, so
	// coins from XP alone clear the cost together with quest coins.
	for i := 0; i < 200; i++ {
		seedEntry(t, entries, u, core.Income, 100_00, "Salary",
			time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, i).Format("2006-01-02"))
	}

	st, _, err := svc.Evaluate(ctx, u, today)
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	if st.Coins < 150 {
		t.Fatalf("test setup: coins = %d, need at least 150", st.Coins)
	}
	before := st.Coins

	reward, err := svc.Redeem(ctx, u, "Investment Guide", today)
	if err != nil {
		t.Fatalf("Redeem() error = %v", err)
	}
	if reward.Cost != 150 {
		t.Errorf("Redeem() cost = %d, want 150", reward.Cost)
	}

	st, _, err = svc.Evaluate(ctx, u, today)
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	if st.Coins != before-150 {
		t.Errorf("coins after redemption = %d, want %d", st.Coins, before-150)
	}
	if !st.RedeemedRewards["Investment Guide"] {
		t.Error("redemption not recorded")
	}

	// Second redemption fails regardless of balance.
	if _, err := svc.Redeem(ctx, u, "Investment Guide", today); !errors.Is(err, progress.ErrAlreadyRedeemed) {
		t.Errorf("second Redeem() error = %v, want ErrAlreadyRedeemed", err)
	}
}

func TestRedeemInsufficientCoins(t *testing.T) {
	repo := newTestRepo(t)
	u := newTestUser(t, repo)
	svc := NewProgressService(repo, nil)
	today := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	_, err := svc.Redeem(context.Background(), u, "Premium Theme", today)
	if !errors.Is(err, progress.ErrInsufficientCoins) {
		t.Errorf("Redeem() error = %v, want ErrInsufficientCoins", err)
	}

	_, err = svc.Redeem(context.Background(), u, "No Such Reward", today)
	if !errors.Is(err, progress.ErrUnknownReward) {
		t.Errorf("Redeem() error = %v, want ErrUnknownReward", err)
	}
}

func TestSubmitQuizKeepsBestScore(t *testing.T) {
	repo := newTestRepo(t)
	u := newTestUser(t, repo)
	svc := NewProgressService(repo, nil)
	ctx := context.Background()
	today := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	score, err := svc.SubmitQuiz(ctx, u, []int{1, 2, 2, 1, 1}, today)
	if err != nil {
		t.Fatalf("SubmitQuiz() error = %v", err)
	}
	if score != 5 {
		t.Errorf("SubmitQuiz() = %d, want 5", score)
	}

	// A worse attempt does not lower the stored score.
	if _, err := svc.SubmitQuiz(ctx, u, []int{0, 0, 0, 0, 0}, today); err != nil {
		t.Fatalf("SubmitQuiz() error = %v", err)
	}
	st, err := repo.LoadProgress(ctx, u.ID)
	if err != nil {
		t.Fatalf("LoadProgress() error = %v", err)
	}
	if st.QuizScore != 5 {
		t.Errorf("stored quiz score = %d, want 5", st.QuizScore)
	}
	// 5 correct answers * 5 XP each.
	if st.XP != 25 {
		t.Errorf("XP from quiz = %d, want 25", st.XP)
	}
}

func TestSetGoalAndEmergencyTarget(t *testing.T) {
	repo := newTestRepo(t)
	u := newTestUser(t, repo)
	entries := NewEntryService(repo, nil)
	svc := NewProgressService(repo, nil)
	ctx := context.Background()
	today := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	month := core.MonthOf(today)

	if err := svc.SetGoal(ctx, u, month, progress.Goal{Type: "bogus", Amount: core.Money{Cents: 100}}); err == nil {
		t.Error("SetGoal() should reject an unknown goal type")
	}

	if err := svc.SetGoal(ctx, u, month, progress.Goal{
		Type:   progress.GoalSave,
		Amount: core.Money{Cents: 500_00},
	}); err != nil {
		t.Fatalf("SetGoal() error = %v", err)
	}
	if err := svc.SetEmergencyTarget(ctx, u, core.Money{Cents: 1000_00}); err != nil {
		t.Fatalf("SetEmergencyTarget() error = %v", err)
	}

	seedEntry(t, entries, u, core.Income, 1000_00, "Salary", "2025-06-01")
	seedEntry(t, entries, u, core.Expense, 300_00, "Food", "2025-06-10")

	st, _, err := svc.Evaluate(ctx, u, today)
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	// 5 + 3 entry XP, 50 goal met, 30 fund at 50%+ (700/1000 = 70%).
	if st.XP != 88 {
		t.Errorf("XP with goal and fund = %d, want 88", st.XP)
	}
}

func TestViewShape(t *testing.T) {
	repo := newTestRepo(t)
	u := newTestUser(t, repo)
	entries := NewEntryService(repo, nil)
	svc := NewProgressService(repo, nil)
	ctx := context.Background()
	today := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	seedEntry(t, entries, u, core.Income, 1000_00, "Salary", "2025-06-01")

	view, err := svc.View(ctx, u, today)
	if err != nil {
		t.Fatalf("View() error = %v", err)
	}
	if len(view.Quests) != len(progress.Quests) {
		t.Errorf("View() quests = %d, want %d", len(view.Quests), len(progress.Quests))
	}
	if len(view.Rewards) != len(progress.Rewards) {
		t.Errorf("View() rewards = %d, want %d", len(view.Rewards), len(progress.Rewards))
	}
	if view.Level.Level != 1 {
		t.Errorf("View() level = %d, want 1", view.Level.Level)
	}
	if len(view.Badges) == 0 {
		t.Error("View() should include the First Step badge")
	}
	if view.CheckedInToday {
		t.Error("View() CheckedInToday = true before any check-in")
	}
}
