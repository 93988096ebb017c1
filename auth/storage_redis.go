package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStorage хранит токен в Redis с TTL.
// Используется, когда несколько инстансов приложения разделяют
// одну пользовательскую сессию.
type RedisStorage struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

// NewRedisStorage создаёт Redis хранилище токена.
func NewRedisStorage(client *redis.Client, key string, ttl time.Duration) *RedisStorage {
	return &RedisStorage{client: client, key: key, ttl: ttl}
}

// Read читает токен из Redis.
func (s *RedisStorage) Read() (string, error) {
	token, err := s.client.Get(context.Background(), s.key).Result()
	if err != nil {
		if err == redis.Nil {
			return "", ErrTokenNotFound
		}
		return "", fmt.Errorf("ошибка чтения токена из Redis: %w", err)
	}
	if token == "" {
		return "", ErrTokenNotFound
	}
	return token, nil
}

// Write сохраняет токен с TTL.
func (s *RedisStorage) Write(token string) error {
	if err := s.client.Set(context.Background(), s.key, token, s.ttl).Err(); err != nil {
		return fmt.Errorf("ошибка записи токена в Redis: %w", err)
	}
	return nil
}

// Delete удаляет токен.
func (s *RedisStorage) Delete() error {
	if err := s.client.Del(context.Background(), s.key).Err(); err != nil {
		return fmt.Errorf("ошибка удаления токена из Redis: %w", err)
	}
	return nil
}
