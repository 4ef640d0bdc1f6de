package core

import "errors"

// QuizQuestion is a multiple choice question with a single correct option.
type QuizQuestion struct {
	Prompt  string
	Options []string
	Answer  int
}

// QuizResult is the outcome of a completed quiz.
type QuizResult struct {
	Score   int
	Total   int
	Message string
}

var ErrQuizAnswers = errors.New("answer count does not match question count")

// FinanceQuiz is the financial literacy quiz offered on the game page.
var FinanceQuiz = []QuizQuestion{
	{
		Prompt:  "What is the recommended percentage of income to save?",
		Options: []string{"5-10%", "10-15%", "15-20%", "20-25%"},
		Answer:  2,
	},
	{
		Prompt: "Which of these is NOT a good strategy for reducing debt?",
		Options: []string{
			"Pay off high-interest debt first",
			"Make only minimum payments",
			"Consolidate debt with lower interest",
			"Create a debt repayment plan",
		},
		Answer: 1,
	},
	{
		Prompt: "What is an emergency fund for?",
		Options: []string{
			"Vacation expenses",
			"Unexpected financial emergencies",
			"Investment opportunities",
			"Luxury purchases",
		},
		Answer: 1,
	},
}

// ScoreQuiz grades answers against questions. An answer of -1 means the
// question was skipped.
func ScoreQuiz(questions []QuizQuestion, answers []int) (QuizResult, error) {
	if len(answers) != len(questions) {
		return QuizResult{}, ErrQuizAnswers
	}
	res := QuizResult{Total: len(questions)}
	for i, q := range questions {
		if answers[i] == q.Answer {
			res.Score++
		}
	}
	switch {
	case res.Score == res.Total:
		res.Message = "Perfect! You're a financial expert!"
	case res.Score*2 >= res.Total:
		res.Message = "Good job! Keep learning about personal finance."
	default:
		res.Message = "Keep practicing! Financial knowledge is power."
	}
	return res, nil
}
