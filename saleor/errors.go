// Package saleor реализует диспетчер типизированных операций Saleor API:
// каталог запросов и мутаций, нормализацию ошибок и наблюдаемые запросы.
package saleor

import (
	"strings"

	"github.com/vektah/gqlparser/v2/gqlerror"
)

// DomainError — бизнес-ошибка валидации, встроенная в успешный ответ
// мутации (например невалидный адрес). Привязана к конкретному полю
// ввода либо не привязана вовсе (Field == "").
type DomainError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// APIError — унифицированная ошибка, отдаваемая вызывающему.
// Объединяет оба канала: транспортные ошибки GraphQL уровня и доменные
// ошибки валидации. ExtraInfo всегда содержит сырые доменные ошибки
// (возможно пустой список), чтобы вызывающий мог восстановить детали
// по полям.
type APIError struct {
	// NetworkError — сбой сети или протокола, если он был.
	NetworkError error

	// GraphQLErrors — транспортные ошибки GraphQL уровня из ответа.
	GraphQLErrors gqlerror.List

	// ExtraInfo — доменные ошибки, найденные внутри полезных данных.
	ExtraInfo []DomainError
}

// Error реализует интерфейс error.
func (e *APIError) Error() string {
	var parts []string

	if e.NetworkError != nil {
		parts = append(parts, e.NetworkError.Error())
	}
	for _, gqlErr := range e.GraphQLErrors {
		parts = append(parts, gqlErr.Message)
	}
	for _, domErr := range e.ExtraInfo {
		if domErr.Field != "" {
			parts = append(parts, domErr.Field+": "+domErr.Message)
		} else {
			parts = append(parts, domErr.Message)
		}
	}

	if len(parts) == 0 {
		return "неизвестная ошибка Saleor API"
	}
	return "ошибка Saleor API: " + strings.Join(parts, "; ")
}

// Unwrap возвращает сетевую ошибку для errors.Is/As.
func (e *APIError) Unwrap() error {
	return e.NetworkError
}

// HasDomainErrors возвращает true, если присутствуют доменные ошибки.
func (e *APIError) HasDomainErrors() bool {
	return len(e.ExtraInfo) > 0
}
