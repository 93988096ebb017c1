// Package auth реализует жизненный цикл токена аутентификации:
// хранение, подстановку в исходящие операции, обнаружение инвалидации
// и уведомление подписчиков об изменении состояния входа.
package auth

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrTokenNotFound возвращается хранилищем, когда токен отсутствует.
var ErrTokenNotFound = errors.New("токен не найден в хранилище")

// Storage — долговременное хранилище токена.
// TokenStore читает его при первом обращении и синхронно пишет
// при каждом изменении токена.
type Storage interface {
	Read() (string, error)
	Write(token string) error
	Delete() error
}

// FileStorage хранит токен в файле на диске с правами 0600.
type FileStorage struct {
	path string
}

// DefaultTokenPath возвращает путь токена по умолчанию: ~/.saleor/token.
// При недоступности домашнего каталога — файл в рабочем каталоге.
func DefaultTokenPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".saleor-token"
	}
	return filepath.Join(home, ".saleor", "token")
}

// NewFileStorage создаёт файловое хранилище токена.
// Пустой path означает путь по умолчанию.
func NewFileStorage(path string) *FileStorage {
	if path == "" {
		path = DefaultTokenPath()
	}
	return &FileStorage{path: path}
}

// Read читает токен из файла.
func (s *FileStorage) Read() (string, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", ErrTokenNotFound
		}
		return "", fmt.Errorf("ошибка чтения файла токена %s: %w", s.path, err)
	}

	token := strings.TrimSpace(string(raw))
	if token == "" {
		return "", ErrTokenNotFound
	}
	return token, nil
}

// Write сохраняет токен в файл, создавая каталог при необходимости.
func (s *FileStorage) Write(token string) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("ошибка создания каталога токена: %w", err)
	}
	if err := os.WriteFile(s.path, []byte(token), 0o600); err != nil {
		return fmt.Errorf("ошибка записи файла токена %s: %w", s.path, err)
	}
	return nil
}

// Delete удаляет файл токена. Отсутствие файла — не ошибка.
func (s *FileStorage) Delete() error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("ошибка удаления файла токена %s: %w", s.path, err)
	}
	return nil
}

// MemoryStorage хранит токен только в памяти процесса.
// Используется в тестах и короткоживущих утилитах.
type MemoryStorage struct {
	token string
	set   bool
}

// NewMemoryStorage создаёт пустое хранилище в памяти.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{}
}

// Read возвращает сохранённый токен.
func (s *MemoryStorage) Read() (string, error) {
	if !s.set {
		return "", ErrTokenNotFound
	}
	return s.token, nil
}

// Write сохраняет токен.
func (s *MemoryStorage) Write(token string) error {
	s.token = token
	s.set = true
	return nil
}

// Delete удаляет токен.
func (s *MemoryStorage) Delete() error {
	s.token = ""
	s.set = false
	return nil
}
