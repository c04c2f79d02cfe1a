package domain

import "context"

// Button описывает кнопку инлайн-клавиатуры уведомления.
type Button struct {
	Label string `json:"label"`
	Token string `json:"token"`
}

// NotifyJob содержит одно исходящее уведомление.
type NotifyJob struct {
	ID      string     `json:"job_id"`
	ChatID  int64      `json:"chat_id"`
	Text    string     `json:"text"`
	Buttons [][]Button `json:"buttons,omitempty"`
}

// NotifyQueue описывает очередь исходящих уведомлений.
type NotifyQueue interface {
	Enqueue(ctx context.Context, job NotifyJob) error
	// Pop блокирующе читает задачу из очереди.
	Pop(ctx context.Context) (NotifyJob, error)
}
