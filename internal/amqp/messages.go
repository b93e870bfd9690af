package amqp

import (
	"encoding/json"
	"time"
)

// Activity event kinds published to the feed queue.
const (
	ActivityEntryAdded     = "entry_added"
	ActivityCheckIn        = "check_in"
	ActivityQuestCompleted = "quest_completed"
	ActivityRewardRedeemed = "reward_redeemed"
	ActivityQuizSubmitted  = "quiz_submitted"
)

// ActivityMessage is the payload published whenever the user does something
// worth showing in the activity feed. The worker persists it to the log table.
type ActivityMessage struct {
	Username  string    `json:"username"`
	Kind      string    `json:"kind"`
	Detail    string    `json:"detail"`
	Timestamp time.Time `json:"timestamp"`
}

func NewActivityMessage(username, kind, detail string) *ActivityMessage {
	return &ActivityMessage{
		Username:  username,
		Kind:      kind,
		Detail:    detail,
		Timestamp: time.Now(),
	}
}

func (m *ActivityMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func ActivityMessageFromJSON(data []byte) (*ActivityMessage, error) {
	var msg ActivityMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
