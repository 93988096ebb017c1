package saleor

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/CharlieCarsonKids/saleor-storefront/auth"
	"github.com/CharlieCarsonKids/saleor-storefront/graphql"
	"github.com/CharlieCarsonKids/saleor-storefront/pkg/logger"
	"github.com/CharlieCarsonKids/saleor-storefront/pkg/metrics"
)

// CredentialStore — опциональное хранилище учётных данных
// (например системный keychain). Сбой сохранения не считается
// ошибкой входа.
type CredentialStore interface {
	Store(id, password string) error
}

// API — диспетчер типизированных операций Saleor.
// Каждый публичный метод строит запрос из каталога, прогоняет его
// через транспортный пайплайн и нормализует результат.
type API struct {
	pipeline    graphql.Link
	tokens      *auth.TokenStore
	cache       graphql.Cache
	credentials CredentialStore
}

// Option — функциональная опция конструктора API.
type Option func(*API)

// WithCache подключает кэш ответов запросов.
// Без кэша все запросы выполняются по сети.
func WithCache(cache graphql.Cache) Option {
	return func(a *API) {
		a.cache = cache
	}
}

// WithCredentialStore подключает хранилище учётных данных,
// в которое SignIn сохраняет пару email/пароль после успешного входа.
func WithCredentialStore(store CredentialStore) Option {
	return func(a *API) {
		a.credentials = store
	}
}

// New создаёт диспетчер поверх собранного пайплайна и хранилища токена.
func New(pipeline graphql.Link, tokens *auth.TokenStore, opts ...Option) *API {
	a := &API{
		pipeline: pipeline,
		tokens:   tokens,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// roundTrip выполняет запрос через пайплайн с обогащённым контекстом.
// Сетевой сбой возвращается как обычная ошибка без нормализации:
// для вызывающего это "операция не выполнена", а не ответ API.
func (a *API) roundTrip(ctx context.Context, req *graphql.Request) (*graphql.Response, error) {
	ctx = logger.WithOperation(ctx, req.OperationName)
	ctx = logger.WithRequestID(ctx, uuid.New().String())

	resp, err := a.pipeline.RoundTrip(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("операция %s не выполнена: %w", req.OperationName, err)
	}
	return resp, nil
}

// mutate выполняет мутацию: сеть, затем нормализация. Кэш не участвует.
func mutate[T any](ctx context.Context, a *API, req *graphql.Request, project Projection[T]) (T, error) {
	var zero T

	resp, err := a.roundTrip(ctx, req)
	if err != nil {
		return zero, err
	}
	return Normalize(resp, project)
}

// query выполняет запрос с учётом политики кэширования.
// CacheFirst при попадании возвращает кэшированные данные без сети;
// сетевой успех без транспортных ошибок сохраняется в кэш.
func query[T any](ctx context.Context, a *API, req *graphql.Request, opts graphql.Options, project Projection[T]) (T, error) {
	var zero T
	key := req.CacheKey()

	if a.cache != nil && opts.FetchPolicy == graphql.CacheFirst {
		if data, ok := a.cache.Get(ctx, key); ok {
			metrics.RecordCacheLookup(true)
			out, err := project(data)
			if err == nil {
				return out, nil
			}
			log := logger.FromContext(ctx)
			log.Warn().Err(err).Str("key", key).
				Msg("Кэшированные данные не декодируются, идём в сеть")
		} else {
			metrics.RecordCacheLookup(false)
		}
	}

	resp, err := a.roundTrip(ctx, req)
	if err != nil {
		return zero, err
	}

	out, err := Normalize(resp, project)
	if err != nil {
		return zero, err
	}

	if a.cache != nil && resp.HasData() && len(resp.Errors) == 0 {
		a.cache.Set(ctx, key, resp.Data)
	}
	return out, nil
}

// callOptions сводит вариадик per-call настроек к одному значению.
func callOptions(opts []graphql.Options) graphql.Options {
	if len(opts) > 0 {
		return opts[0]
	}
	return graphql.DefaultOptions()
}

// SignIn выполняет вход по email и паролю. При успехе токен сохраняется
// в TokenStore (подписчики получают authenticated=true), учётные данные —
// в CredentialStore, если он подключён, после чего вызываются hooks
// вызывающего с полученным payload.
//
// В отличие от остальных мутаций вход не терпит частичного успеха:
// payload с непустым списком ошибок отклоняется даже при непустых данных.
func (a *API) SignIn(ctx context.Context, email, password string, hooks ...func(*TokenCreate)) (*TokenCreate, error) {
	req := graphql.NewRequest("TokenCreate", tokenCreateMutation, map[string]any{
		"email":    email,
		"password": password,
	})

	payload, err := mutate(ctx, a, req, Field[TokenCreate]("tokenCreate"))
	if err != nil {
		return nil, err
	}
	if payload == nil {
		return nil, &APIError{ExtraInfo: []DomainError{
			{Message: "сервер не вернул payload tokenCreate"},
		}}
	}
	if len(payload.Errors) > 0 {
		return nil, &APIError{ExtraInfo: payload.Errors}
	}
	if payload.Token == "" {
		return nil, &APIError{ExtraInfo: []DomainError{
			{Message: "сервер не вернул токен"},
		}}
	}

	if err := a.tokens.Set(payload.Token); err != nil {
		return nil, fmt.Errorf("ошибка сохранения токена: %w", err)
	}

	log := logger.FromContext(ctx)

	if claims, err := auth.ParseClaims(payload.Token); err == nil && claims.ExpiresAt != nil {
		log.Info().
			Str("email", email).
			Time("expires_at", claims.ExpiresAt.Time).
			Msg("Пользователь вошёл в систему")
	}

	if a.credentials != nil {
		if err := a.credentials.Store(email, password); err != nil {
			// Keychain недоступен — вход всё равно состоялся.
			log.Warn().Err(err).
				Msg("Не удалось сохранить учётные данные")
		}
	}

	for _, hook := range hooks {
		hook(payload)
	}

	return payload, nil
}

// SignOut завершает сессию: очищает токен (подписчики получают
// authenticated=false) и сбрасывает кэш ответов, чтобы данные
// пользователя не пережили сессию.
func (a *API) SignOut(ctx context.Context) error {
	if err := a.tokens.Clear(); err != nil {
		return fmt.Errorf("ошибка очистки токена: %w", err)
	}
	if a.cache != nil {
		a.cache.Clear(ctx)
	}
	return nil
}

// IsLoggedIn возвращает true, если токен присутствует.
// Срок действия не проверяется: истёкший токен обнаружит бэкенд,
// и DetectInvalidToken очистит его автоматически.
func (a *API) IsLoggedIn() bool {
	return a.tokens.IsAuthenticated()
}

// OnAuthChange подписывает на изменения состояния входа.
// Возвращает функцию отписки.
func (a *API) OnAuthChange(l auth.Listener) func() {
	return a.tokens.Subscribe(l)
}

// UserDetails возвращает аккаунт текущего пользователя.
// Для анонимного запроса сервер возвращает me=null — тогда результат nil.
func (a *API) UserDetails(ctx context.Context, opts ...graphql.Options) (*User, error) {
	req := graphql.NewRequest("UserDetails", userDetailsQuery, nil)
	return query(ctx, a, req, callOptions(opts), Field[User]("me"))
}

// ProductDetails возвращает карточку товара по ID.
func (a *API) ProductDetails(ctx context.Context, id string, opts ...graphql.Options) (*Product, error) {
	req := graphql.NewRequest("ProductDetails", productDetailsQuery, map[string]any{"id": id})
	return query(ctx, a, req, callOptions(opts), Field[Product]("product"))
}

// OrderDetails возвращает заказ по его токену.
func (a *API) OrderDetails(ctx context.Context, token string, opts ...graphql.Options) (*Order, error) {
	req := graphql.NewRequest("OrderDetails", orderDetailsQuery, map[string]any{"token": token})
	return query(ctx, a, req, callOptions(opts), Field[Order]("orderByToken"))
}

// SetDefaultAddress назначает адрес по умолчанию для доставки или оплаты.
func (a *API) SetDefaultAddress(ctx context.Context, addressID string, addrType AddressType) (*AccountSetDefaultAddress, error) {
	req := graphql.NewRequest("AccountSetDefaultAddress", setDefaultAddressMutation, map[string]any{
		"id":   addressID,
		"type": string(addrType),
	})
	return mutate(ctx, a, req, Field[AccountSetDefaultAddress]("accountSetDefaultAddress"))
}

// DeleteAddress удаляет адрес аккаунта.
func (a *API) DeleteAddress(ctx context.Context, addressID string) (*AccountAddressDelete, error) {
	req := graphql.NewRequest("AccountAddressDelete", deleteAddressMutation, map[string]any{
		"id": addressID,
	})
	return mutate(ctx, a, req, Field[AccountAddressDelete]("accountAddressDelete"))
}

// UpdateCheckoutShippingAddress обновляет адрес доставки оформления заказа.
func (a *API) UpdateCheckoutShippingAddress(ctx context.Context, checkoutID string, address AddressInput) (*CheckoutShippingAddressUpdate, error) {
	req := graphql.NewRequest("CheckoutShippingAddressUpdate", checkoutShippingAddressUpdateMutation, map[string]any{
		"checkoutId": checkoutID,
		"address":    address,
	})
	return mutate(ctx, a, req, Field[CheckoutShippingAddressUpdate]("checkoutShippingAddressUpdate"))
}

// UpdateCheckoutBillingAddress обновляет платёжный адрес оформления заказа.
func (a *API) UpdateCheckoutBillingAddress(ctx context.Context, checkoutID string, address AddressInput) (*CheckoutBillingAddressUpdate, error) {
	req := graphql.NewRequest("CheckoutBillingAddressUpdate", checkoutBillingAddressUpdateMutation, map[string]any{
		"checkoutId": checkoutID,
		"address":    address,
	})
	return mutate(ctx, a, req, Field[CheckoutBillingAddressUpdate]("checkoutBillingAddressUpdate"))
}

// UpdateCheckoutEmail обновляет email оформления заказа.
func (a *API) UpdateCheckoutEmail(ctx context.Context, checkoutID, email string) (*CheckoutEmailUpdate, error) {
	req := graphql.NewRequest("CheckoutEmailUpdate", checkoutEmailUpdateMutation, map[string]any{
		"checkoutId": checkoutID,
		"email":      email,
	})
	return mutate(ctx, a, req, Field[CheckoutEmailUpdate]("checkoutEmailUpdate"))
}
