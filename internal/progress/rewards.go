package progress

// Reward is a catalog item purchasable with coins, at most once per user.
type Reward struct {
	Name        string
	Description string
	Cost        int
}

// Rewards is the fixed redemption catalog, in display order.
var Rewards = []Reward{
	{Name: "Budget Planner Template", Description: "Printable monthly planner", Cost: 100},
	{Name: "Savings Tracker", Description: "Visual savings goal tracker", Cost: 120},
	{Name: "Investment Guide", Description: "Beginner's guide to investing", Cost: 150},
	{Name: "Premium Theme", Description: "Unlock the premium dashboard theme", Cost: 200},
}

// RewardByName looks up a reward in the catalog.
func RewardByName(name string) (Reward, bool) {
	for _, r := range Rewards {
		if r.Name == name {
			return r, true
		}
	}
	return Reward{}, false
}

// RedeemReward spends coins on a catalog reward. A reward can be redeemed at
// most once per user; a redemption that would drive the balance negative is
// rejected. This is the one mutation point in the engine and assumes a single
// caller per account (no concurrent redemption for the same user).
//
// The already-redeemed check runs before the balance check, so a second
// attempt fails with ErrAlreadyRedeemed regardless of coins on hand.
func RedeemReward(st *State, name string) (Reward, error) {
	reward, ok := RewardByName(name)
	if !ok {
		return Reward{}, ErrUnknownReward
	}
	if st.RedeemedRewards[name] {
		return Reward{}, ErrAlreadyRedeemed
	}
	if st.Coins < reward.Cost {
		return Reward{}, ErrInsufficientCoins
	}
	st.Coins -= reward.Cost
	st.SpentCoins += reward.Cost
	st.RedeemedRewards[name] = true
	return reward, nil
}
