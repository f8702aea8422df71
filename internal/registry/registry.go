package registry

import "sync"

// Registry — процессный кэш живых пользователей и составов групп.
// users: userID -> displayName, заполняется при успешном коннекте.
// groups: groupID -> набор userID, снапшот durable-списка на момент коннекта.
// Кэш может отставать от хранилища: членство, изменённое вне этого процесса,
// видно только после переподключения.
type Registry struct {
	mu     sync.RWMutex
	users  map[string]string
	groups map[string]map[string]struct{}
}

func New() *Registry {
	return &Registry{
		users:  make(map[string]string),
		groups: make(map[string]map[string]struct{}),
	}
}

func (r *Registry) UpsertUser(userID, displayName string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[userID] = displayName
}

// DisplayName возвращает имя подключённого пользователя; ok=false — нет
// живой сессии.
func (r *Registry) DisplayName(userID string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	name, ok := r.users[userID]
	return name, ok
}

func (r *Registry) IsConnected(userID string) bool {
	_, ok := r.DisplayName(userID)
	return ok
}

// SetMembers замещает состав группы свежевычитанным из хранилища.
func (r *Registry) SetMembers(groupID string, members []string) {
	set := make(map[string]struct{}, len(members))
	for _, m := range members {
		set[m] = struct{}{}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.groups[groupID] = set
}

func (r *Registry) AddMember(groupID, userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	set, ok := r.groups[groupID]
	if !ok {
		set = make(map[string]struct{})
		r.groups[groupID] = set
	}
	set[userID] = struct{}{}
}

func (r *Registry) IsMember(groupID, userID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	set, ok := r.groups[groupID]
	if !ok {
		return false
	}
	_, ok = set[userID]
	return ok
}

// RemoveUser подчищает кэш после дисконнекта: пользователь и его вхождения
// в составы групп. Повторный вызов — no-op.
func (r *Registry) RemoveUser(userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.users, userID)
	for groupID, set := range r.groups {
		delete(set, userID)
		if len(set) == 0 {
			delete(r.groups, groupID)
		}
	}
}
