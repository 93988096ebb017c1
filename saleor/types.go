package saleor

// Типизированные формы результатов операций каталога.
// Повторяют соответствующие типы схемы Saleor; поля, которые SDK
// не запрашивает, опущены.

// User — аккаунт покупателя.
type User struct {
	ID                     string    `json:"id"`
	Email                  string    `json:"email"`
	FirstName              string    `json:"firstName"`
	LastName               string    `json:"lastName"`
	IsActive               bool      `json:"isActive"`
	Addresses              []Address `json:"addresses"`
	DefaultShippingAddress *Address  `json:"defaultShippingAddress"`
	DefaultBillingAddress  *Address  `json:"defaultBillingAddress"`
}

// Address — адрес покупателя.
type Address struct {
	ID                       string  `json:"id"`
	FirstName                string  `json:"firstName"`
	LastName                 string  `json:"lastName"`
	CompanyName              string  `json:"companyName"`
	StreetAddress1           string  `json:"streetAddress1"`
	StreetAddress2           string  `json:"streetAddress2"`
	City                     string  `json:"city"`
	PostalCode               string  `json:"postalCode"`
	CountryArea              string  `json:"countryArea"`
	Phone                    string  `json:"phone"`
	Country                  Country `json:"country"`
	IsDefaultShippingAddress bool    `json:"isDefaultShippingAddress"`
	IsDefaultBillingAddress  bool    `json:"isDefaultBillingAddress"`
}

// Country — страна адреса.
type Country struct {
	Code    string `json:"code"`
	Country string `json:"country"`
}

// AddressInput — входные данные адреса для мутаций checkout.
type AddressInput struct {
	FirstName      string `json:"firstName,omitempty"`
	LastName       string `json:"lastName,omitempty"`
	CompanyName    string `json:"companyName,omitempty"`
	StreetAddress1 string `json:"streetAddress1,omitempty"`
	StreetAddress2 string `json:"streetAddress2,omitempty"`
	City           string `json:"city,omitempty"`
	PostalCode     string `json:"postalCode,omitempty"`
	Country        string `json:"country,omitempty"`
	CountryArea    string `json:"countryArea,omitempty"`
	Phone          string `json:"phone,omitempty"`
}

// AddressType — назначение адреса по умолчанию.
type AddressType string

const (
	AddressTypeShipping AddressType = "SHIPPING"
	AddressTypeBilling  AddressType = "BILLING"
)

// Money — денежная сумма.
type Money struct {
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
}

// TaxedMoney — сумма с налогом и без.
type TaxedMoney struct {
	Gross Money `json:"gross"`
	Net   Money `json:"net"`
}

// Image — изображение с альтернативным текстом.
type Image struct {
	URL string `json:"url"`
	Alt string `json:"alt"`
}

// Product — карточка товара.
type Product struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Thumbnail   *Image           `json:"thumbnail"`
	Pricing     *ProductPricing  `json:"pricing"`
	Variants    []ProductVariant `json:"variants"`
}

// ProductPricing — диапазон цен товара.
type ProductPricing struct {
	OnSale     bool             `json:"onSale"`
	PriceRange *TaxedMoneyRange `json:"priceRange"`
}

// TaxedMoneyRange — диапазон сумм.
type TaxedMoneyRange struct {
	Start *TaxedMoney `json:"start"`
	Stop  *TaxedMoney `json:"stop"`
}

// ProductVariant — вариант товара.
type ProductVariant struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	SKU      string `json:"sku"`
	Quantity int    `json:"quantityAvailable"`
}

// Checkout — корзина оформления заказа.
type Checkout struct {
	ID              string      `json:"id"`
	Token           string      `json:"token"`
	Email           string      `json:"email"`
	ShippingAddress *Address    `json:"shippingAddress"`
	BillingAddress  *Address    `json:"billingAddress"`
	TotalPrice      *TaxedMoney `json:"totalPrice"`
}

// Order — оформленный заказ.
type Order struct {
	ID            string      `json:"id"`
	Token         string      `json:"token"`
	Number        string      `json:"number"`
	Status        string      `json:"status"`
	StatusDisplay string      `json:"statusDisplay"`
	Created       string      `json:"created"`
	Total         *TaxedMoney `json:"total"`
	Lines         []OrderLine `json:"lines"`
}

// OrderLine — позиция заказа.
type OrderLine struct {
	ID          string      `json:"id"`
	ProductName string      `json:"productName"`
	VariantName string      `json:"variantName"`
	Quantity    int         `json:"quantity"`
	TotalPrice  *TaxedMoney `json:"totalPrice"`
}

// TokenCreate — payload мутации входа в систему.
type TokenCreate struct {
	Token        string        `json:"token"`
	RefreshToken string        `json:"refreshToken"`
	User         *User         `json:"user"`
	Errors       []DomainError `json:"errors"`
}

// AccountAddressDelete — payload мутации удаления адреса.
type AccountAddressDelete struct {
	User   *User         `json:"user"`
	Errors []DomainError `json:"errors"`
}

// AccountSetDefaultAddress — payload мутации выбора адреса по умолчанию.
type AccountSetDefaultAddress struct {
	User   *User         `json:"user"`
	Errors []DomainError `json:"errors"`
}

// CheckoutShippingAddressUpdate — payload обновления адреса доставки.
type CheckoutShippingAddressUpdate struct {
	Checkout *Checkout     `json:"checkout"`
	Errors   []DomainError `json:"errors"`
}

// CheckoutBillingAddressUpdate — payload обновления платёжного адреса.
type CheckoutBillingAddressUpdate struct {
	Checkout *Checkout     `json:"checkout"`
	Errors   []DomainError `json:"errors"`
}

// CheckoutEmailUpdate — payload обновления email оформления заказа.
type CheckoutEmailUpdate struct {
	Checkout *Checkout     `json:"checkout"`
	Errors   []DomainError `json:"errors"`
}
