package domain

// Group — долговременная запись группы; members и messages живут внутри
// одного документа, история append-only.
type Group struct {
	ID       string        `bson:"_id" json:"groupId"`
	OwnerID  string        `bson:"owner_id" json:"ownerId"`
	Name     string        `bson:"name" json:"name"`
	Members  []string      `bson:"members" json:"members"`
	Messages []ChatMessage `bson:"messages" json:"messages"`
}

// HasMember проверяет членство по durable-списку документа.
func (g *Group) HasMember(userID string) bool {
	for _, m := range g.Members {
		if m == userID {
			return true
		}
	}
	return false
}
