package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"finora/internal/core"
	"finora/internal/progress"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository() error = %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func newTestUser(t *testing.T, repo *SQLiteRepository, username string) *core.UserAccount {
	t.Helper()
	u, err := repo.CreateUser(context.Background(), username, "hash")
	if err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}
	return u
}

func TestCreateUserDuplicate(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if _, err := repo.CreateUser(ctx, "ada", "hash"); err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}
	if _, err := repo.CreateUser(ctx, "ada", "hash2"); !errors.Is(err, core.ErrDuplicateUser) {
		t.Errorf("CreateUser() duplicate error = %v, want ErrDuplicateUser", err)
	}
}

func TestGetUserByUsername(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	created := newTestUser(t, repo, "ada")

	got, err := repo.GetUserByUsername(ctx, "ada")
	if err != nil {
		t.Fatalf("GetUserByUsername() error = %v", err)
	}
	if got.ID != created.ID || got.Username != "ada" || got.PasswordHash != "hash" {
		t.Errorf("GetUserByUsername() = %+v, want id=%d username=ada", got, created.ID)
	}

	if _, err := repo.GetUserByUsername(ctx, "nobody"); !errors.Is(err, core.ErrInvalidCredentials) {
		t.Errorf("GetUserByUsername() missing error = %v, want ErrInvalidCredentials", err)
	}
}

func TestSessionLifecycle(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	u := newTestUser(t, repo, "ada")

	if err := repo.CreateSession(ctx, "tok1", u.ID, time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("CreateSession() error = %v", err)
	}

	got, err := repo.ValidateSession(ctx, "tok1")
	if err != nil {
		t.Fatalf("ValidateSession() error = %v", err)
	}
	if got.ID != u.ID {
		t.Errorf("ValidateSession() user id = %d, want %d", got.ID, u.ID)
	}

	if err := repo.DeleteSession(ctx, "tok1"); err != nil {
		t.Fatalf("DeleteSession() error = %v", err)
	}
	if _, err := repo.ValidateSession(ctx, "tok1"); !errors.Is(err, core.ErrInvalidCredentials) {
		t.Errorf("ValidateSession() after delete error = %v, want ErrInvalidCredentials", err)
	}
}

func TestValidateSessionExpired(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	u := newTestUser(t, repo, "ada")

	if err := repo.CreateSession(ctx, "old", u.ID, time.Now().Add(-time.Minute)); err != nil {
		t.Fatalf("CreateSession() error = %v", err)
	}
	if _, err := repo.ValidateSession(ctx, "old"); !errors.Is(err, core.ErrInvalidCredentials) {
		t.Errorf("ValidateSession() expired error = %v, want ErrInvalidCredentials", err)
	}

	if err := repo.CleanExpiredSessions(ctx); err != nil {
		t.Fatalf("CleanExpiredSessions() error = %v", err)
	}
}

func TestAppendAndListTransactions(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	u := newTestUser(t, repo, "ada")
	other := newTestUser(t, repo, "bob")

	second := core.Transaction{
		OwnerID:  u.ID,
		Kind:     core.Expense,
		Amount:   core.Money{Cents: 300_00},
		Category: "Food",
		Date:     time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC),
	}
	first := core.Transaction{
		OwnerID:  u.ID,
		Kind:     core.Income,
		Amount:   core.Money{Cents: 1000_00},
		Category: "Salary",
		Date:     time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
	}
	foreign := core.Transaction{
		OwnerID:  other.ID,
		Kind:     core.Expense,
		Amount:   core.Money{Cents: 50_00},
		Category: "Books",
		Date:     time.Date(2025, 6, 5, 0, 0, 0, 0, time.UTC),
	}

	for _, tx := range []core.Transaction{second, first, foreign} {
		if _, err := repo.AppendTransaction(ctx, tx); err != nil {
			t.Fatalf("AppendTransaction() error = %v", err)
		}
	}

	got, err := repo.ListTransactions(ctx, u.ID)
	if err != nil {
		t.Fatalf("ListTransactions() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("ListTransactions() returned %d entries, want 2", len(got))
	}
	if got[0].Category != "Salary" || got[1].Category != "Food" {
		t.Errorf("ListTransactions() order = [%s, %s], want [Salary, Food]",
			got[0].Category, got[1].Category)
	}
	if got[0].Amount.Cents != 1000_00 || got[0].Kind != core.Income {
		t.Errorf("ListTransactions()[0] = %+v, want 1000.00 Income", got[0])
	}
	if !got[1].Date.Equal(time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("ListTransactions()[1].Date = %v, want 2025-06-10", got[1].Date)
	}
}

func TestMirrorFlags(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	u := newTestUser(t, repo, "ada")

	var ids []int64
	for i := 0; i < 3; i++ {
		tx, err := repo.AppendTransaction(ctx, core.Transaction{
			OwnerID:  u.ID,
			Kind:     core.Expense,
			Amount:   core.Money{Cents: 10_00},
			Category: "Food",
			Date:     time.Date(2025, 6, 1+i, 0, 0, 0, 0, time.UTC),
		})
		if err != nil {
			t.Fatalf("AppendTransaction() error = %v", err)
		}
		ids = append(ids, tx.ID)
	}

	pending, err := repo.GetUnmirroredTransactions(ctx, 10)
	if err != nil {
		t.Fatalf("GetUnmirroredTransactions() error = %v", err)
	}
	if len(pending) != 3 {
		t.Fatalf("GetUnmirroredTransactions() returned %d, want 3", len(pending))
	}

	if err := repo.MarkMirrored(ctx, ids[0]); err != nil {
		t.Fatalf("MarkMirrored() error = %v", err)
	}
	if err := repo.MarkMirrorError(ctx, ids[1]); err != nil {
		t.Fatalf("MarkMirrorError() error = %v", err)
	}

	pending, err = repo.GetUnmirroredTransactions(ctx, 10)
	if err != nil {
		t.Fatalf("GetUnmirroredTransactions() error = %v", err)
	}
	if len(pending) != 1 || pending[0].ID != ids[2] {
		t.Errorf("GetUnmirroredTransactions() = %+v, want only id %d", pending, ids[2])
	}
}

func TestLoadProgressCreatesDefault(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	u := newTestUser(t, repo, "ada")

	st, err := repo.LoadProgress(ctx, u.ID)
	if err != nil {
		t.Fatalf("LoadProgress() error = %v", err)
	}
	if st.XP != 0 || st.Coins != 0 || st.CheckInStreak != 0 {
		t.Errorf("LoadProgress() default = %+v, want zero state", st)
	}
	if st.QuestsCompleted == nil || st.RedeemedRewards == nil || st.Goals == nil {
		t.Error("LoadProgress() default maps not initialized")
	}
	if !st.LastCheckIn.IsZero() {
		t.Errorf("LoadProgress() LastCheckIn = %v, want zero", st.LastCheckIn)
	}
}

func TestSaveAndLoadProgress(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	u := newTestUser(t, repo, "ada")

	st := progress.NewState(u.ID)
	st.XP = 250
	st.Coins = 40
	st.BonusXP = 15
	st.BonusCoins = 6
	st.SpentCoins = 150
	st.CheckInStreak = 3
	st.LastCheckIn = time.Date(2025, 6, 12, 0, 0, 0, 0, time.UTC)
	st.QuizScore = 4
	st.EmergencyTarget = core.Money{Cents: 3000_00}
	st.QuestsCompleted["Budget Apprentice"] = true
	st.RedeemedRewards["Investment Guide"] = true
	st.Goals[core.Month{Year: 2025, Month: 6}] = progress.Goal{
		Type:   progress.GoalSave,
		Amount: core.Money{Cents: 500_00},
	}

	if err := repo.SaveProgress(ctx, st); err != nil {
		t.Fatalf("SaveProgress() error = %v", err)
	}

	got, err := repo.LoadProgress(ctx, u.ID)
	if err != nil {
		t.Fatalf("LoadProgress() error = %v", err)
	}
	if got.XP != 250 || got.Coins != 40 || got.BonusXP != 15 || got.BonusCoins != 6 || got.SpentCoins != 150 {
		t.Errorf("LoadProgress() totals = %+v, want saved values", got)
	}
	if got.CheckInStreak != 3 || !got.LastCheckIn.Equal(st.LastCheckIn) {
		t.Errorf("LoadProgress() streak = %d last = %v, want 3 / %v",
			got.CheckInStreak, got.LastCheckIn, st.LastCheckIn)
	}
	if !got.QuestsCompleted["Budget Apprentice"] {
		t.Error("LoadProgress() missing completed quest")
	}
	if !got.RedeemedRewards["Investment Guide"] {
		t.Error("LoadProgress() missing redeemed reward")
	}
	goal, ok := got.GoalFor(core.Month{Year: 2025, Month: 6})
	if !ok || goal.Type != progress.GoalSave || goal.Amount.Cents != 500_00 {
		t.Errorf("LoadProgress() goal = %+v ok=%v, want save 500.00", goal, ok)
	}
	if got.EmergencyTarget.Cents != 3000_00 {
		t.Errorf("LoadProgress() emergency target = %d, want 300000", got.EmergencyTarget.Cents)
	}

	// Saving again must be idempotent for quests and rewards.
	if err := repo.SaveProgress(ctx, got); err != nil {
		t.Fatalf("SaveProgress() second call error = %v", err)
	}
}

func TestGoalUpsertReplaces(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	u := newTestUser(t, repo, "ada")
	month := core.Month{Year: 2025, Month: 7}

	st, err := repo.LoadProgress(ctx, u.ID)
	if err != nil {
		t.Fatalf("LoadProgress() error = %v", err)
	}
	st.Goals[month] = progress.Goal{Type: progress.GoalSave, Amount: core.Money{Cents: 100_00}}
	if err := repo.SaveProgress(ctx, st); err != nil {
		t.Fatalf("SaveProgress() error = %v", err)
	}

	st.Goals[month] = progress.Goal{Type: progress.GoalSpendBelow, Amount: core.Money{Cents: 200_00}}
	if err := repo.SaveProgress(ctx, st); err != nil {
		t.Fatalf("SaveProgress() error = %v", err)
	}

	got, err := repo.LoadProgress(ctx, u.ID)
	if err != nil {
		t.Fatalf("LoadProgress() error = %v", err)
	}
	goal, _ := got.GoalFor(month)
	if goal.Type != progress.GoalSpendBelow || goal.Amount.Cents != 200_00 {
		t.Errorf("goal after upsert = %+v, want spend_below 200.00", goal)
	}
}

func TestActivityLog(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	entries := []ActivityEntry{
		{Username: "ada", Kind: "entry_added", Detail: "Expense 12.00 Food", OccurredAt: base},
		{Username: "ada", Kind: "check_in", Detail: "streak 2", OccurredAt: base.Add(time.Hour)},
		{Username: "bob", Kind: "entry_added", Detail: "Income 50.00 Salary", OccurredAt: base},
	}
	for _, e := range entries {
		if err := repo.RecordActivity(ctx, e); err != nil {
			t.Fatalf("RecordActivity() error = %v", err)
		}
	}

	got, err := repo.ListRecentActivity(ctx, "ada", 10)
	if err != nil {
		t.Fatalf("ListRecentActivity() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("ListRecentActivity() returned %d, want 2", len(got))
	}
	if got[0].Kind != "check_in" {
		t.Errorf("ListRecentActivity() newest kind = %s, want check_in", got[0].Kind)
	}

	got, err = repo.ListRecentActivity(ctx, "ada", 1)
	if err != nil {
		t.Fatalf("ListRecentActivity() error = %v", err)
	}
	if len(got) != 1 {
		t.Errorf("ListRecentActivity() with limit 1 returned %d", len(got))
	}
}
