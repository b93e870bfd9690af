package progress

// QuizQuestion is a single multiple-choice question. Answer indexes Options.
type QuizQuestion struct {
	Prompt  string
	Options []string
	Answer  int
}

// QuizQuestions is the fixed financial-literacy quiz shown on the education
// page. The best score is kept in State.QuizScore and feeds the XP derivation.
var QuizQuestions = []QuizQuestion{
	{
		Prompt:  "What should you do with expenses to avoid overspending?",
		Options: []string{"Ignore small ones", "Track them daily", "Round them up", "Only track big ones"},
		Answer:  1,
	},
	{
		Prompt:  "Which kind of debt is usually the most expensive?",
		Options: []string{"Mortgage", "Student loan", "Credit card debt", "Car loan"},
		Answer:  2,
	},
	{
		Prompt:  "When is the best time to start investing?",
		Options: []string{"After retirement", "Only when rich", "As early as possible", "Never"},
		Answer:  2,
	},
	{
		Prompt:  "What is an emergency fund for?",
		Options: []string{"Holiday shopping", "Unexpected expenses", "Stock speculation", "Daily groceries"},
		Answer:  1,
	},
	{
		Prompt:  "What does automating savings each month help with?",
		Options: []string{"Paying more fees", "Consistent saving", "Higher taxes", "Faster spending"},
		Answer:  1,
	},
}

// ScoreQuiz counts correct answers. Extra or missing answers score zero.
func ScoreQuiz(answers []int) int {
	score := 0
	for i, q := range QuizQuestions {
		if i < len(answers) && answers[i] == q.Answer {
			score++
		}
	}
	return score
}
