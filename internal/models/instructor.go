package models

import "time"

// InstructorProfile профиль преподавателя.
type InstructorProfile struct {
	UserID         string    `json:"userId"`
	Bio            string    `json:"bio"`
	Qualifications string    `json:"qualifications"`
	Subjects       []string  `json:"subjects"`
	Levels         []Level   `json:"levels"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// InstructorProfileRequest тело запроса сохранения профиля.
type InstructorProfileRequest struct {
	Bio            string   `json:"bio"`
	Qualifications string   `json:"qualifications"`
	Subjects       []string `json:"subjects"`
	Levels         []Level  `json:"levels" validate:"dive,oneof=ORDINARY ADVANCED"`
}

// Material учебный материал преподавателя.
type Material struct {
	ID           string    `json:"id"`
	InstructorID string    `json:"instructorId"`
	SubjectID    *string   `json:"subjectId"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	FileURL      string    `json:"fileUrl"`
	FileType     string    `json:"fileType"`
	FileSize     int64     `json:"fileSize"`
	IsActive     bool      `json:"isActive"`
	CreatedAt    time.Time `json:"createdAt"`
}

// MaterialRequest тело запроса добавления материала.
type MaterialRequest struct {
	SubjectID   *string `json:"subjectId" validate:"omitempty,uuid"`
	Title       string  `json:"title" validate:"required"`
	Description string  `json:"description"`
	FileURL     string  `json:"fileUrl" validate:"required"`
	FileType    string  `json:"fileType"`
	FileSize    int64   `json:"fileSize" validate:"gte=0"`
}

// AgentConfigRequest тело запроса создания конфигурации агента.
type AgentConfigRequest struct {
	SubjectID    string   `json:"subjectId" validate:"required,uuid"`
	Name         string   `json:"name"`
	SystemPrompt string   `json:"systemPrompt" validate:"required"`
	Temperature  *float64 `json:"temperature" validate:"omitempty,gte=0,lte=2"`
	MaxTokens    *int     `json:"maxTokens" validate:"omitempty,gt=0"`
	Model        string   `json:"model"`
}

// AssessmentType вид оценочного задания.
type AssessmentType string

const (
	AssessmentExercise AssessmentType = "EXERCISE"
	AssessmentQuiz     AssessmentType = "QUIZ"
	AssessmentExam     AssessmentType = "EXAM"
)

// LessonPlan план урока.
type LessonPlan struct {
	ID           string         `json:"id"`
	InstructorID string         `json:"instructorId"`
	SubjectID    string         `json:"subjectId"`
	Title        string         `json:"title"`
	Topic        string         `json:"topic"`
	Content      map[string]any `json:"content"`
	CreatedAt    time.Time      `json:"createdAt"`
	Subject      *Subject       `json:"subject,omitempty"`
}

// SchemeOfWork план работы на четверть.
type SchemeOfWork struct {
	ID           string         `json:"id"`
	InstructorID string         `json:"instructorId"`
	SubjectID    string         `json:"subjectId"`
	Title        string         `json:"title"`
	Term         string         `json:"term"`
	Year         int            `json:"year"`
	Content      map[string]any `json:"content"`
	CreatedAt    time.Time      `json:"createdAt"`
	Subject      *Subject       `json:"subject,omitempty"`
}

// Assessment оценочное задание.
type Assessment struct {
	ID           string         `json:"id"`
	InstructorID string         `json:"instructorId"`
	SubjectID    string         `json:"subjectId"`
	Title        string         `json:"title"`
	Type         AssessmentType `json:"type"`
	Content      map[string]any `json:"content"`
	CreatedAt    time.Time      `json:"createdAt"`
	Subject      *Subject       `json:"subject,omitempty"`
}

// LessonPlanRequest тело запроса сохранения плана урока.
type LessonPlanRequest struct {
	SubjectID string         `json:"subjectId" validate:"required,uuid"`
	Title     string         `json:"title" validate:"required"`
	Topic     string         `json:"topic"`
	Content   map[string]any `json:"content" validate:"required"`
}

// SchemeRequest тело запроса сохранения плана работы.
type SchemeRequest struct {
	SubjectID string         `json:"subjectId" validate:"required,uuid"`
	Title     string         `json:"title" validate:"required"`
	Term      string         `json:"term" validate:"required"`
	Year      int            `json:"year" validate:"required,gt=2000"`
	Content   map[string]any `json:"content" validate:"required"`
}

// AssessmentRequest тело запроса сохранения задания.
type AssessmentRequest struct {
	SubjectID string         `json:"subjectId" validate:"required,uuid"`
	Title     string         `json:"title" validate:"required"`
	Type      AssessmentType `json:"type" validate:"required,oneof=EXERCISE QUIZ EXAM"`
	Content   map[string]any `json:"content" validate:"required"`
}

// GenerateLessonPlanRequest параметры генерации плана урока.
type GenerateLessonPlanRequest struct {
	SubjectID string `json:"subjectId" validate:"required,uuid"`
	Topic     string `json:"topic" validate:"required"`
	Duration  int    `json:"duration" validate:"omitempty,gt=0"`
}

// GenerateSchemeRequest параметры генерации плана работы.
type GenerateSchemeRequest struct {
	SubjectID string `json:"subjectId" validate:"required,uuid"`
	Term      string `json:"term" validate:"required"`
	Year      int    `json:"year" validate:"required,gt=2000"`
}

// GenerateAssessmentRequest параметры генерации задания.
type GenerateAssessmentRequest struct {
	SubjectID    string         `json:"subjectId" validate:"required,uuid"`
	Type         AssessmentType `json:"type" validate:"required,oneof=EXERCISE QUIZ EXAM"`
	Topic        string         `json:"topic"`
	NumQuestions int            `json:"numQuestions" validate:"omitempty,gt=0,lte=100"`
}

// AssessmentDownload ответ на выгрузку задания.
type AssessmentDownload struct {
	Message    string      `json:"message"`
	Assessment *Assessment `json:"assessment"`
	Format     string      `json:"format,omitempty"`
	Note       string      `json:"note"`
}
