package submission

import "sync"

// Step — шаг диалога отправки.
type Step string

const (
	// StepBody — ожидаем текст стихотворения.
	StepBody Step = "awaiting_body"
	// StepAuthor — ожидаем имя поэта.
	StepAuthor Step = "awaiting_author"
	// StepCategory — ожидаем выбор категории.
	StepCategory Step = "awaiting_category"
)

// Field — редактируемое поле при повторном входе в диалог.
type Field string

const (
	FieldBody     Field = "body"
	FieldAuthor   Field = "author"
	FieldCategory Field = "category"
)

// Session хранит состояние диалога одного актора. Состояние не
// персистентно: рестарт процесса его теряет, пользователь повторяет шаг.
type Session struct {
	ActorID    int64
	Step       Step
	Text       string
	Poet       string
	Editing    bool
	EditPoemID int64
	EditField  Field
}

// Store — потокобезопасное хранилище сессий с блокировкой по ключу.
type Store struct {
	mu       sync.Mutex
	sessions map[int64]Session
	locks    map[int64]*sync.Mutex
}

// NewStore создаёт хранилище.
func NewStore() *Store {
	return &Store{
		sessions: make(map[int64]Session),
		locks:    make(map[int64]*sync.Mutex),
	}
}

// Acquire захватывает блокировку актора и возвращает функцию освобождения.
// Последовательность чтение-изменение-запись одной сессии должна
// выполняться под этой блокировкой.
func (s *Store) Acquire(actorID int64) func() {
	s.mu.Lock()
	lock, ok := s.locks[actorID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[actorID] = lock
	}
	s.mu.Unlock()
	lock.Lock()
	return lock.Unlock
}

// Get возвращает сессию актора.
func (s *Store) Get(actorID int64) (Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[actorID]
	return sess, ok
}

// Put сохраняет сессию.
func (s *Store) Put(sess Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.ActorID] = sess
}

// Delete удаляет сессию актора.
func (s *Store) Delete(actorID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, actorID)
}
