package http

// Формы запросов/ответов с валидацией на границе: отсутствие обязательного
// поля — это 400, а не молчаливый undefined.

type ChatTurn struct {
	Message string `json:"message"`
}

type ChatData struct {
	Messages []ChatTurn `json:"messages"`
	Query    string     `json:"query"`
}

type ChatRequest struct {
	UserID  string    `json:"userId"`
	GroupID string    `json:"groupId"`
	Data    *ChatData `json:"data"`
}

type CreateGroupRequest struct {
	UserID    string `json:"userId"`
	GroupName string `json:"groupName"`
}

type CreateGroupResponse struct {
	UserID    string `json:"userId"`
	GroupID   string `json:"groupId"`
	GroupName string `json:"groupName"`
}

type JoinGroupRequest struct {
	UserID  string `json:"userId"`
	GroupID string `json:"groupId"`
}
