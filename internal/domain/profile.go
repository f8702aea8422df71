package domain

// GroupRef — денормализованный индекс «мои группы» в профиле пользователя.
type GroupRef struct {
	ID   string `bson:"id" json:"groupId"`
	Name string `bson:"name" json:"name"`
}

type UserProfile struct {
	ID     string     `bson:"_id" json:"userId"`
	Groups []GroupRef `bson:"groups" json:"groups"`
}
