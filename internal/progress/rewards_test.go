package progress

import (
	"errors"
	"testing"
)

func TestRedeemReward(t *testing.T) {
	t.Run("successful redemption deducts cost", func(t *testing.T) {
		st := NewState(1)
		st.Coins = 250

		reward, err := RedeemReward(st, "Investment Guide")
		if err != nil {
			t.Fatalf("RedeemReward() error = %v", err)
		}
		if reward.Cost != 150 {
			t.Errorf("reward cost = %d, want 150", reward.Cost)
		}
		if st.Coins != 100 {
			t.Errorf("coins after redemption = %d, want 100", st.Coins)
		}
		if st.SpentCoins != 150 {
			t.Errorf("spent coins = %d, want 150", st.SpentCoins)
		}
		if !st.RedeemedRewards["Investment Guide"] {
			t.Error("reward should be recorded as redeemed")
		}
	})

	t.Run("second redemption always fails", func(t *testing.T) {
		st := NewState(1)
		st.Coins = 1000
		if _, err := RedeemReward(st, "Investment Guide"); err != nil {
			t.Fatalf("first redemption error = %v", err)
		}

		_, err := RedeemReward(st, "Investment Guide")
		if !errors.Is(err, ErrAlreadyRedeemed) {
			t.Errorf("second redemption error = %v, want ErrAlreadyRedeemed", err)
		}
		if st.Coins != 850 {
			t.Errorf("coins = %d, want 850 (unchanged by failed redemption)", st.Coins)
		}
	})

	t.Run("already redeemed wins over insufficient coins", func(t *testing.T) {
		st := NewState(1)
		st.RedeemedRewards["Investment Guide"] = true
		st.Coins = 0

		_, err := RedeemReward(st, "Investment Guide")
		if !errors.Is(err, ErrAlreadyRedeemed) {
			t.Errorf("error = %v, want ErrAlreadyRedeemed", err)
		}
	})

	t.Run("insufficient coins", func(t *testing.T) {
		st := NewState(1)
		st.Coins = 149

		_, err := RedeemReward(st, "Investment Guide")
		if !errors.Is(err, ErrInsufficientCoins) {
			t.Errorf("error = %v, want ErrInsufficientCoins", err)
		}
		if st.Coins != 149 {
			t.Errorf("coins = %d, want 149 (unchanged)", st.Coins)
		}
	})

	t.Run("unknown reward", func(t *testing.T) {
		st := NewState(1)
		st.Coins = 1000

		_, err := RedeemReward(st, "Time Machine")
		if !errors.Is(err, ErrUnknownReward) {
			t.Errorf("error = %v, want ErrUnknownReward", err)
		}
	})
}
