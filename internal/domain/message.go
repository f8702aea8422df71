package domain

import "time"

type ChatMessage struct {
	UserID      string    `bson:"user_id" json:"userId"`
	DisplayName string    `bson:"display_name" json:"displayName"`
	Body        string    `bson:"body" json:"body"`
	Query       string    `bson:"query,omitempty" json:"query,omitempty"` // только для ответов ассистента
	Timestamp   time.Time `bson:"ts" json:"timestamp"`
}
