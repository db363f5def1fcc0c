package quiz

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/palemoky/quiz-room/internal/apperrors"
)

// NumOptions 每道题的选项数
const NumOptions = 4

// Question 题目
type Question struct {
	Prompt  string   `yaml:"question" json:"question"`
	Options []string `yaml:"options" json:"options"`
	Correct int      `yaml:"correct_answer" json:"correctAnswer"` // 0-based
}

// Validate 检查题目格式
func (q *Question) Validate() error {
	if q.Prompt == "" {
		return fmt.Errorf("%w: 题干为空", apperrors.ErrInvalidQuestions)
	}
	if len(q.Options) != NumOptions {
		return fmt.Errorf("%w: %q 需要 %d 个选项，实际 %d 个",
			apperrors.ErrInvalidQuestions, q.Prompt, NumOptions, len(q.Options))
	}
	if q.Correct < 0 || q.Correct >= NumOptions {
		return fmt.Errorf("%w: %q 正确答案下标 %d 越界", apperrors.ErrInvalidQuestions, q.Prompt, q.Correct)
	}
	return nil
}

// IsCorrect 判断答案是否正确
func (q *Question) IsCorrect(answer int) bool {
	return answer == q.Correct
}

// OptionsArray 以定长数组返回选项
func (q *Question) OptionsArray() [NumOptions]string {
	var out [NumOptions]string
	copy(out[:], q.Options)
	return out
}

type questionFile struct {
	Questions []Question `yaml:"questions"`
}

// LoadFile 从 YAML 文件加载题库
func LoadFile(path string) ([]Question, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取题库失败: %w", err)
	}
	return Parse(data)
}

// Parse 解析 YAML 题库并逐题校验
func Parse(data []byte) ([]Question, error) {
	var f questionFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrInvalidQuestions, err)
	}
	if len(f.Questions) == 0 {
		return nil, fmt.Errorf("%w: 题库为空", apperrors.ErrInvalidQuestions)
	}
	for i := range f.Questions {
		if err := f.Questions[i].Validate(); err != nil {
			return nil, fmt.Errorf("第 %d 题: %w", i+1, err)
		}
	}
	return f.Questions, nil
}

// DefaultQuestions 内置题库
func DefaultQuestions() []Question {
	return []Question{
		{Prompt: "What is the capital of France?", Options: []string{"Berlin", "Paris", "London", "Madrid"}, Correct: 1},
		{Prompt: "Which planet is closest to the sun?", Options: []string{"Venus", "Earth", "Mercury", "Mars"}, Correct: 2},
		{Prompt: "Who painted the Mona Lisa?", Options: []string{"Michelangelo", "Leonardo da Vinci", "Raphael", "Donatello"}, Correct: 1},
		{Prompt: "What is the largest mammal?", Options: []string{"Elephant", "Blue Whale", "Giraffe", "Hippopotamus"}, Correct: 1},
		{Prompt: "What is the chemical symbol for gold?", Options: []string{"Go", "Gl", "Gd", "Au"}, Correct: 3},
		{Prompt: "Which country has the largest population?", Options: []string{"India", "USA", "China", "Russia"}, Correct: 2},
		{Prompt: "What is the largest organ in the human body?", Options: []string{"Heart", "Liver", "Skin", "Brain"}, Correct: 2},
		{Prompt: "Which famous scientist developed the theory of relativity?", Options: []string{"Isaac Newton", "Albert Einstein", "Galileo Galilei", "Stephen Hawking"}, Correct: 1},
		{Prompt: "What is the tallest mountain in the world?", Options: []string{"K2", "Mount Everest", "Mount Kilimanjaro", "Matterhorn"}, Correct: 1},
		{Prompt: "Which element has the chemical symbol 'O'?", Options: []string{"Osmium", "Oxygen", "Oganesson", "Oregano"}, Correct: 1},
	}
}
