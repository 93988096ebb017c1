package saleor

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vektah/gqlparser/v2/gqlerror"

	"github.com/CharlieCarsonKids/saleor-storefront/graphql"
)

// TestNormalize_ErrorXORData тестирует главный инвариант нормализатора:
// вызывающий получает либо данные, либо ошибку, но не оба сразу.
func TestNormalize_ErrorXORData(t *testing.T) {
	tests := []struct {
		name      string
		resp      *graphql.Response
		wantErr   bool
		wantValue bool
	}{
		{
			name: "чистый успех",
			resp: &graphql.Response{
				Data: json.RawMessage(`{"product":{"id":"p1","name":"Чайник"}}`),
			},
			wantErr:   false,
			wantValue: true,
		},
		{
			name: "транспортная ошибка без данных",
			resp: &graphql.Response{
				Data:   json.RawMessage(`null`),
				Errors: gqlerror.List{{Message: "Internal server error"}},
			},
			wantErr: true,
		},
		{
			name: "транспортная ошибка, все узлы null",
			resp: &graphql.Response{
				Data:   json.RawMessage(`{"product":null}`),
				Errors: gqlerror.List{{Message: "Variable $id is invalid"}},
			},
			wantErr: true,
		},
		{
			name: "частичный успех: ошибки и непустые данные",
			resp: &graphql.Response{
				Data:   json.RawMessage(`{"product":{"id":"p1","name":"Чайник"}}`),
				Errors: gqlerror.List{{Message: "Field deprecated"}},
			},
			wantErr:   false,
			wantValue: true,
		},
		{
			name: "данные отсутствуют, ошибок нет",
			resp: &graphql.Response{
				Data: json.RawMessage(`{"product":null}`),
			},
			wantErr:   false,
			wantValue: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			product, err := Normalize(tt.resp, Field[Product]("product"))

			if tt.wantErr {
				require.Error(t, err)
				assert.Nil(t, product)

				var apiErr *APIError
				require.ErrorAs(t, err, &apiErr)
				return
			}

			require.NoError(t, err)
			if tt.wantValue {
				require.NotNil(t, product)
				assert.Equal(t, "p1", product.ID)
			} else {
				assert.Nil(t, product)
			}
		})
	}
}

// TestNormalize_DomainErrors тестирует рекурсивный сбор доменных ошибок
// из полей-обёрток payload мутаций.
func TestNormalize_DomainErrors(t *testing.T) {
	tests := []struct {
		name       string
		data       string
		wantErrors []DomainError
	}{
		{
			name: "ошибки в поле errors",
			data: `{"checkoutEmailUpdate":{"checkout":null,"errors":[
				{"field":"email","message":"Невалидный email","code":"INVALID"}
			]}}`,
			wantErrors: []DomainError{
				{Field: "email", Message: "Невалидный email", Code: "INVALID"},
			},
		},
		{
			name: "legacy поле accountErrors",
			data: `{"accountAddressDelete":{"user":null,"accountErrors":[
				{"field":"id","message":"Адрес не найден"}
			]}}`,
			wantErrors: []DomainError{
				{Field: "id", Message: "Адрес не найден"},
			},
		},
		{
			name: "вложенная обёртка на глубине",
			data: `{"outer":{"inner":{"checkoutErrors":[
				{"field":null,"message":"Оформление истекло","code":"EXPIRED"}
			]}}}`,
			wantErrors: []DomainError{
				{Message: "Оформление истекло", Code: "EXPIRED"},
			},
		},
		{
			name:       "пустой список ошибок",
			data:       `{"checkoutEmailUpdate":{"checkout":{"id":"c1"},"errors":[]}}`,
			wantErrors: nil,
		},
		{
			name:       "элементы без message игнорируются",
			data:       `{"payload":{"errors":[{"field":"x"},{"code":"Y"}]}}`,
			wantErrors: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := collectDomainErrors(json.RawMessage(tt.data))
			assert.Equal(t, tt.wantErrors, got)
		})
	}
}

// TestNormalize_DomainErrorsRejectEmptyData тестирует, что доменные ошибки
// при пустых данных превращаются в APIError с ExtraInfo.
func TestNormalize_DomainErrorsRejectEmptyData(t *testing.T) {
	resp := &graphql.Response{
		Data: json.RawMessage(`{"checkoutEmailUpdate":null,"other":null}`),
		Errors: gqlerror.List{
			{Message: "Something went wrong"},
		},
	}

	payload, err := Normalize(resp, Field[CheckoutEmailUpdate]("checkoutEmailUpdate"))
	require.Error(t, err)
	assert.Nil(t, payload)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Len(t, apiErr.GraphQLErrors, 1)
}

// TestNormalize_PartialSuccessWithDomainErrors тестирует, что payload
// с непустыми данными отдаётся вызывающему даже при наличии доменных
// ошибок внутри (частичный успех).
func TestNormalize_PartialSuccessWithDomainErrors(t *testing.T) {
	resp := &graphql.Response{
		Data: json.RawMessage(`{"tokenCreate":{
			"token":"",
			"refreshToken":"",
			"user":null,
			"errors":[{"field":"email","message":"Неверные учётные данные","code":"INVALID_CREDENTIALS"}]
		}}`),
	}

	payload, err := Normalize(resp, Field[TokenCreate]("tokenCreate"))
	require.NoError(t, err)
	require.NotNil(t, payload)
	require.Len(t, payload.Errors, 1)
	assert.Equal(t, "INVALID_CREDENTIALS", payload.Errors[0].Code)
}

// TestField тестирует проекцию корневого узла данных.
func TestField(t *testing.T) {
	t.Run("извлекает узел по имени", func(t *testing.T) {
		data := json.RawMessage(`{"me":{"id":"u1","email":"ivan@example.com"}}`)

		user, err := Field[User]("me")(data)
		require.NoError(t, err)
		require.NotNil(t, user)
		assert.Equal(t, "ivan@example.com", user.Email)
	})

	t.Run("null узел возвращает nil без ошибки", func(t *testing.T) {
		user, err := Field[User]("me")(json.RawMessage(`{"me":null}`))
		require.NoError(t, err)
		assert.Nil(t, user)
	})

	t.Run("отсутствующий узел возвращает nil без ошибки", func(t *testing.T) {
		user, err := Field[User]("me")(json.RawMessage(`{}`))
		require.NoError(t, err)
		assert.Nil(t, user)
	})

	t.Run("null данные возвращают nil без ошибки", func(t *testing.T) {
		user, err := Field[User]("me")(json.RawMessage(`null`))
		require.NoError(t, err)
		assert.Nil(t, user)
	})
}

// TestAPIError_Error тестирует текстовое представление ошибки.
func TestAPIError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *APIError
		want string
	}{
		{
			name: "доменная ошибка с полем",
			err: &APIError{ExtraInfo: []DomainError{
				{Field: "email", Message: "невалидный email"},
			}},
			want: "ошибка Saleor API: email: невалидный email",
		},
		{
			name: "транспортная ошибка",
			err: &APIError{GraphQLErrors: gqlerror.List{
				{Message: "Internal server error"},
			}},
			want: "ошибка Saleor API: Internal server error",
		},
		{
			name: "пустая ошибка",
			err:  &APIError{},
			want: "неизвестная ошибка Saleor API",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

// TestDataEmpty тестирует определение пустоты данных ответа.
func TestDataEmpty(t *testing.T) {
	tests := []struct {
		name string
		data string
		want bool
	}{
		{name: "null", data: `null`, want: true},
		{name: "пустая строка", data: ``, want: true},
		{name: "все узлы null", data: `{"a":null,"b":null}`, want: true},
		{name: "пустой объект", data: `{}`, want: true},
		{name: "один непустой узел", data: `{"a":null,"b":{"id":"1"}}`, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, dataEmpty(json.RawMessage(tt.data)))
		})
	}
}
