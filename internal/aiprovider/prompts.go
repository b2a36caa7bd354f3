package aiprovider

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/magabrotheeeer/omniclass/internal/models"
)

// Системные промпты генераторов.
const (
	videoSystemPrompt      = "You are a helpful assistant that generates structured video scripts for educational content. Always return valid JSON."
	lessonPlanSystemPrompt = "You are an expert curriculum designer. Generate detailed, structured lesson plans."
	schemeSystemPrompt     = "You are an expert curriculum planner. Generate detailed schemes of work."
	assessmentSystemPrompt = "You are an expert assessment creator. Generate high-quality educational assessments."
)

// ChatRequest собирает запрос диалога: системный промпт агента, история и новое сообщение.
func ChatRequest(cfg models.AgentConfig, history []models.ChatMessage, content string) Request {
	messages := make([]Message, 0, len(history)+2)
	messages = append(messages, Message{Role: RoleSystem, Content: cfg.SystemPrompt})
	for _, m := range history {
		role := RoleUser
		if m.Role == models.MessageAssistant {
			role = RoleAssistant
		}
		messages = append(messages, Message{Role: role, Content: m.Content})
	}
	messages = append(messages, Message{Role: RoleUser, Content: content})

	return Request{
		Model:       cfg.Model,
		Messages:    messages,
		Temperature: cfg.Temperature,
		MaxTokens:   cfg.MaxTokens,
	}
}

// VideoScriptRequest собирает запрос сценария видеообъяснения.
func VideoScriptRequest(cfg models.AgentConfig, subject models.Subject, question string) Request {
	level := strings.ToLower(string(subject.Level))
	prompt := fmt.Sprintf(`You are an expert %[1]s teacher for %[2]s level students in Zimbabwe.

%[3]s

A student asked: %[4]q

Generate a step-by-step video script for explaining this. The script should:
1. Break down the solution into clear steps
2. Include what to write/draw on a whiteboard for each step
3. Include narration text for each step
4. Be appropriate for %[2]s level students
5. Follow Zimbabwean curriculum standards

Return a JSON object with this structure:
{
  "steps": [
    {
      "action": "write|draw|explain|highlight",
      "content": "What to show on the board",
      "narration": "What to say",
      "duration": 10
    }
  ],
  "summary": "A concise text summary of the explanation"
}`, subject.Name, level, cfg.SystemPrompt, question)

	return Request{
		Model:       cfg.Model,
		Temperature: defaultTemperature,
		Messages: []Message{
			{Role: RoleSystem, Content: videoSystemPrompt},
			{Role: RoleUser, Content: prompt},
		},
	}
}

// LessonPlanRequest собирает запрос плана урока.
func LessonPlanRequest(model string, subject models.Subject, syllabus *models.Syllabus, topic string, duration int, materials []string) Request {
	var b strings.Builder
	fmt.Fprintf(&b, "Generate a comprehensive lesson plan for %s (%s level) on the topic: %q.\n\n", subject.Name, subject.Level, topic)
	if duration > 0 {
		fmt.Fprintf(&b, "The lesson lasts %d minutes.\n\n", duration)
	}
	fmt.Fprintf(&b, "Syllabus context: %s\n\n", syllabusContext(syllabus))
	if len(materials) > 0 {
		fmt.Fprintf(&b, "Instructor materials available: %s\n\n", strings.Join(materials, ", "))
	}
	b.WriteString(`Create a lesson plan with:
- Clear learning objectives
- Required resources
- Step-by-step activities
- Assessment suggestions
- Homework/extension activities

Return a structured JSON object with all these components.`)

	return Request{
		Model:       model,
		Temperature: defaultTemperature,
		Messages: []Message{
			{Role: RoleSystem, Content: lessonPlanSystemPrompt},
			{Role: RoleUser, Content: b.String()},
		},
	}
}

// SchemeRequest собирает запрос плана работы на четверть.
func SchemeRequest(model string, subject models.Subject, syllabus *models.Syllabus, term string, year int) Request {
	prompt := fmt.Sprintf(`Generate a comprehensive scheme of work for %s (%s level) for %s term, %d.

Syllabus: %s

Create a scheme of work with:
- Weekly breakdown
- Topics to cover each week
- Learning objectives per week
- Assessment points
- Resources needed

Return a structured JSON object.`, subject.Name, subject.Level, term, year, syllabusContext(syllabus))

	return Request{
		Model:       model,
		Temperature: defaultTemperature,
		Messages: []Message{
			{Role: RoleSystem, Content: schemeSystemPrompt},
			{Role: RoleUser, Content: prompt},
		},
	}
}

// AssessmentRequest собирает запрос оценочного задания.
func AssessmentRequest(model string, subject models.Subject, topic string, kind models.AssessmentType, numQuestions int) Request {
	if numQuestions <= 0 {
		numQuestions = 10
	}
	prompt := fmt.Sprintf(`Generate a %s for %s (%s level) on the topic: %q.

Create %d questions including:
- Multiple choice questions
- Short answer questions
- Problem-solving questions (if applicable)
- Structured questions

For each question, provide:
- The question text
- Question type
- Marks allocated
- Answer key
- Marking scheme

Return a structured JSON object with all questions and answers.`,
		strings.ToLower(string(kind)), subject.Name, subject.Level, topic, numQuestions)

	return Request{
		Model:       model,
		Temperature: 0.8,
		Messages: []Message{
			{Role: RoleSystem, Content: assessmentSystemPrompt},
			{Role: RoleUser, Content: prompt},
		},
	}
}

func syllabusContext(s *models.Syllabus) string {
	if s == nil || len(s.Content) == 0 {
		return "{}"
	}
	var v any
	if err := json.Unmarshal(s.Content, &v); err != nil {
		return string(s.Content)
	}
	pretty, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return string(s.Content)
	}
	return string(pretty)
}
