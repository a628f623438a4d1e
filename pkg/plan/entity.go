package plan

import (
	"time"

	"github.com/google/uuid"
)

// Priority — приоритет шага плана.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Resource — рекомендованный материал шага (передаётся как есть из генерации).
type Resource struct {
	Name string `json:"name"`
	URL  string `json:"url"`
	Type string `json:"type"`
}

// Step — один шаг карьерного плана. Шаги неизменяемы после создания плана;
// меняется только прогресс пользователя по шагу.
type Step struct {
	ID          uuid.UUID  `json:"id"`
	PlanID      uuid.UUID  `json:"planId"`
	Position    int        `json:"position"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Timeframe   string     `json:"timeframe"`
	Priority    Priority   `json:"priority"`
	Resources   []Resource `json:"resources"`
}

// Content — типизированная аналитическая часть сгенерированного плана.
type Content struct {
	Overview         string   `json:"overview"`
	ReadinessPercent int      `json:"readinessPercent"`
	Strengths        []string `json:"strengths"`
	Gaps             []string `json:"gaps"`
}

// Plan — сгенерированный карьерный план. Снимок неизменяем; актуальным
// считается последний созданный план пользователя.
type Plan struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"userId"`
	Content   Content   `json:"content"`
	Steps     []Step    `json:"steps"`
	CreatedAt time.Time `json:"createdAt"`
}
