package saleor

import (
	"encoding/json"
	"fmt"

	"github.com/CharlieCarsonKids/saleor-storefront/graphql"
)

// errorWrapperFields — имена полей-обёрток, в которых мутации Saleor
// возвращают доменные ошибки. Поле errors присутствует на каждом
// payload типе мутации; остальные — legacy варианты схемы.
var errorWrapperFields = map[string]struct{}{
	"errors":         {},
	"accountErrors":  {},
	"checkoutErrors": {},
	"orderErrors":    {},
}

// Projection — каллер-специфичная проекция сырых данных ответа
// на интересующий его фрагмент. Обязана переносить null/отсутствующие
// данные без паники.
type Projection[T any] func(data json.RawMessage) (T, error)

// Field возвращает проекцию, извлекающую один корневой узел данных
// и декодирующую его в T. Для null узла возвращается nil без ошибки.
func Field[T any](name string) Projection[*T] {
	return func(data json.RawMessage) (*T, error) {
		if len(data) == 0 || string(data) == "null" {
			return nil, nil
		}

		var root map[string]json.RawMessage
		if err := json.Unmarshal(data, &root); err != nil {
			return nil, fmt.Errorf("ошибка декодирования данных ответа: %w", err)
		}

		node, ok := root[name]
		if !ok || string(node) == "null" {
			return nil, nil
		}

		out := new(T)
		if err := json.Unmarshal(node, out); err != nil {
			return nil, fmt.Errorf("ошибка декодирования узла %s: %w", name, err)
		}
		return out, nil
	}
}

// Normalize объединяет два канала ошибок ответа в единый исход:
// либо типизированные данные, либо APIError — никогда оба сразу.
//
// Алгоритм:
//  1. Рекурсивный поиск доменных ошибок в полях-обёртках данных.
//  2. Если есть транспортные или доменные ошибки — строится APIError.
//  3. Если APIError построен И данные пусты (корень null либо все прямые
//     потомки null) — возвращается ошибка, проекция не выполняется.
//  4. Иначе выполняется проекция — в том числе когда доменные ошибки
//     найдены, но данные непусты: частичный успех отдаёт данные,
//     и вызывающий, смотрящий только на данные, ошибок не увидит.
//     Мутации, для которых это неприемлемо (вход в систему), повторно
//     проверяют поле Errors своего payload.
func Normalize[T any](resp *graphql.Response, project Projection[T]) (T, error) {
	var zero T

	domainErrors := collectDomainErrors(resp.Data)

	var apiErr *APIError
	if len(resp.Errors) > 0 || len(domainErrors) > 0 {
		apiErr = &APIError{
			GraphQLErrors: resp.Errors,
			ExtraInfo:     domainErrors,
		}
	}

	if apiErr != nil && dataEmpty(resp.Data) {
		return zero, apiErr
	}

	projected, err := project(resp.Data)
	if err != nil {
		return zero, fmt.Errorf("ошибка проекции ответа: %w", err)
	}
	return projected, nil
}

// collectDomainErrors декодирует данные и рекурсивно собирает доменные
// ошибки из непустых списков в полях-обёртках.
func collectDomainErrors(data json.RawMessage) []DomainError {
	if len(data) == 0 || string(data) == "null" {
		return nil
	}

	var decoded any
	if err := json.Unmarshal(data, &decoded); err != nil {
		return nil
	}

	var acc []DomainError
	scanDomainErrors(decoded, &acc)
	return acc
}

// scanDomainErrors обходит дерево данных в поисках полей-обёрток
// с непустыми списками ошибок.
func scanDomainErrors(v any, acc *[]DomainError) {
	switch val := v.(type) {
	case map[string]any:
		for key, child := range val {
			if _, isWrapper := errorWrapperFields[key]; isWrapper {
				collectFromList(child, acc)
				continue
			}
			scanDomainErrors(child, acc)
		}
	case []any:
		for _, item := range val {
			scanDomainErrors(item, acc)
		}
	}
}

// collectFromList извлекает доменные ошибки из значения поля-обёртки.
// Элементы без message игнорируются: поле errors может содержать
// произвольные объекты в нестандартных схемах.
func collectFromList(v any, acc *[]DomainError) {
	list, ok := v.([]any)
	if !ok {
		return
	}

	for _, item := range list {
		entry, ok := item.(map[string]any)
		if !ok {
			continue
		}

		message, ok := entry["message"].(string)
		if !ok || message == "" {
			continue
		}

		domErr := DomainError{Message: message}
		if field, ok := entry["field"].(string); ok {
			domErr.Field = field
		}
		if code, ok := entry["code"].(string); ok {
			domErr.Code = code
		}
		*acc = append(*acc, domErr)
	}
}

// dataEmpty возвращает true, если данные отсутствуют, корень null,
// либо все прямые потомки корня null.
func dataEmpty(data json.RawMessage) bool {
	if len(data) == 0 || string(data) == "null" {
		return true
	}

	var root map[string]json.RawMessage
	if err := json.Unmarshal(data, &root); err != nil {
		// Корень не объект — по спецификации GraphQL data всегда объект,
		// недекодируемое значение считаем пустым.
		return true
	}

	for _, node := range root {
		if len(node) > 0 && string(node) != "null" {
			return false
		}
	}
	return true
}
