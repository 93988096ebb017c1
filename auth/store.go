package auth

import (
	"errors"
	"sync"

	"github.com/CharlieCarsonKids/saleor-storefront/pkg/logger"
	"github.com/CharlieCarsonKids/saleor-storefront/pkg/metrics"
)

// Listener получает новое состояние входа при каждом изменении токена.
type Listener func(authenticated bool)

// TokenStore — единственный владелец живого токена аутентификации.
// Токен хранится в памяти процесса и зеркалируется в долговременное
// хранилище; при первом Get() память лениво инициализируется из хранилища.
//
// Подписчики (Subscribe) уведомляются синхронно при смене состояния:
// Set с новым токеном → authenticated=true, Clear — authenticated=false.
// Явный реестр подписчиков заменяет глобальную шину событий:
// store передаётся по ссылке в конструкторы API и звеньев пайплайна,
// что позволяет подменять его в тестах.
type TokenStore struct {
	mu      sync.Mutex
	token   string
	loaded  bool
	storage Storage

	lmu       sync.Mutex
	listeners map[int]Listener
	nextID    int
}

// NewTokenStore создаёт TokenStore поверх долговременного хранилища.
func NewTokenStore(storage Storage) *TokenStore {
	return &TokenStore{
		storage:   storage,
		listeners: make(map[int]Listener),
	}
}

// Get возвращает текущий токен. При неинициализированной памяти
// выполняется fallback в долговременное хранилище.
func (s *TokenStore) Get() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.loadLocked()
	return s.token, s.token != ""
}

// loadLocked лениво читает токен из хранилища. Вызывается под s.mu.
func (s *TokenStore) loadLocked() {
	if s.loaded {
		return
	}
	s.loaded = true

	token, err := s.storage.Read()
	if err != nil {
		if !errors.Is(err, ErrTokenNotFound) {
			logger.Warn().Err(err).Msg("Не удалось прочитать токен из хранилища")
		}
		return
	}
	s.token = token
}

// Set сохраняет токен в долговременном хранилище и в памяти.
// Память меняется только после успешной записи: при сбое хранилища
// store остаётся в прежнем состоянии, подписчики не уведомляются.
func (s *TokenStore) Set(token string) error {
	s.mu.Lock()
	s.loadLocked()

	if err := s.storage.Write(token); err != nil {
		s.mu.Unlock()
		return err
	}
	changed := s.token != token
	s.token = token
	s.mu.Unlock()

	if changed {
		metrics.RecordAuthEvent("signed_in")
		s.notify(true)
	}
	return nil
}

// Clear удаляет токен из долговременного хранилища и из памяти.
// Подписчики уведомляются ровно один раз на переход "токен есть → токена нет".
// При сбое удаления память не трогается: иначе store отчитался бы
// о выходе, а токен воскрес бы из хранилища при следующем запуске.
func (s *TokenStore) Clear() error {
	s.mu.Lock()
	s.loadLocked()

	if err := s.storage.Delete(); err != nil {
		s.mu.Unlock()
		return err
	}
	hadToken := s.token != ""
	s.token = ""
	s.mu.Unlock()

	if hadToken {
		metrics.RecordAuthEvent("signed_out")
		s.notify(false)
	}
	return nil
}

// IsAuthenticated возвращает true, если токен присутствует.
func (s *TokenStore) IsAuthenticated() bool {
	_, ok := s.Get()
	return ok
}

// Subscribe регистрирует подписчика на изменения состояния входа.
// Возвращает функцию отписки.
func (s *TokenStore) Subscribe(l Listener) func() {
	s.lmu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = l
	s.lmu.Unlock()

	return func() {
		s.lmu.Lock()
		defer s.lmu.Unlock()
		delete(s.listeners, id)
	}
}

// notify синхронно вызывает всех подписчиков.
// Порядок доставки между подписчиками не гарантируется.
func (s *TokenStore) notify(authenticated bool) {
	s.lmu.Lock()
	listeners := make([]Listener, 0, len(s.listeners))
	for _, l := range s.listeners {
		listeners = append(listeners, l)
	}
	s.lmu.Unlock()

	for _, l := range listeners {
		l(authenticated)
	}
}
