package ws

// Единый close-код для любого провала аутентификации/членства при коннекте.
// Клиент не узнаёт, какая именно проверка не прошла.
const (
	CloseUnauthorized       = 4001
	CloseReasonUnauthorized = "Unauthorized"
)
