package saleor

// GraphQL документы каталога операций. Фрагменты переиспользуются
// между запросами, чтобы формы ответов совпадали с типами из types.go.

const addressFragment = `
fragment AddressFields on Address {
  id
  firstName
  lastName
  companyName
  streetAddress1
  streetAddress2
  city
  postalCode
  countryArea
  phone
  country {
    code
    country
  }
  isDefaultShippingAddress
  isDefaultBillingAddress
}`

const userFragment = `
fragment UserFields on User {
  id
  email
  firstName
  lastName
  isActive
  addresses {
    ...AddressFields
  }
  defaultShippingAddress {
    ...AddressFields
  }
  defaultBillingAddress {
    ...AddressFields
  }
}` + addressFragment

const checkoutFragment = `
fragment CheckoutFields on Checkout {
  id
  token
  email
  shippingAddress {
    ...AddressFields
  }
  billingAddress {
    ...AddressFields
  }
  totalPrice {
    gross {
      amount
      currency
    }
    net {
      amount
      currency
    }
  }
}` + addressFragment

const tokenCreateMutation = `
mutation TokenCreate($email: String!, $password: String!) {
  tokenCreate(email: $email, password: $password) {
    token
    refreshToken
    user {
      ...UserFields
    }
    errors {
      field
      message
      code
    }
  }
}` + userFragment

const userDetailsQuery = `
query UserDetails {
  me {
    ...UserFields
  }
}` + userFragment

const productDetailsQuery = `
query ProductDetails($id: ID!) {
  product(id: $id) {
    id
    name
    description
    thumbnail {
      url
      alt
    }
    pricing {
      onSale
      priceRange {
        start {
          gross {
            amount
            currency
          }
          net {
            amount
            currency
          }
        }
        stop {
          gross {
            amount
            currency
          }
          net {
            amount
            currency
          }
        }
      }
    }
    variants {
      id
      name
      sku
      quantityAvailable
    }
  }
}`

const orderDetailsQuery = `
query OrderDetails($token: UUID!) {
  orderByToken(token: $token) {
    id
    token
    number
    status
    statusDisplay
    created
    total {
      gross {
        amount
        currency
      }
      net {
        amount
        currency
      }
    }
    lines {
      id
      productName
      variantName
      quantity
      totalPrice {
        gross {
          amount
          currency
        }
        net {
          amount
          currency
        }
      }
    }
  }
}`

const setDefaultAddressMutation = `
mutation AccountSetDefaultAddress($id: ID!, $type: AddressTypeEnum!) {
  accountSetDefaultAddress(id: $id, type: $type) {
    user {
      ...UserFields
    }
    errors {
      field
      message
      code
    }
  }
}` + userFragment

const deleteAddressMutation = `
mutation AccountAddressDelete($id: ID!) {
  accountAddressDelete(id: $id) {
    user {
      ...UserFields
    }
    errors {
      field
      message
      code
    }
  }
}` + userFragment

const checkoutShippingAddressUpdateMutation = `
mutation CheckoutShippingAddressUpdate($checkoutId: ID!, $address: AddressInput!) {
  checkoutShippingAddressUpdate(checkoutId: $checkoutId, shippingAddress: $address) {
    checkout {
      ...CheckoutFields
    }
    errors {
      field
      message
      code
    }
  }
}` + checkoutFragment

const checkoutBillingAddressUpdateMutation = `
mutation CheckoutBillingAddressUpdate($checkoutId: ID!, $address: AddressInput!) {
  checkoutBillingAddressUpdate(checkoutId: $checkoutId, billingAddress: $address) {
    checkout {
      ...CheckoutFields
    }
    errors {
      field
      message
      code
    }
  }
}` + checkoutFragment

const checkoutEmailUpdateMutation = `
mutation CheckoutEmailUpdate($checkoutId: ID!, $email: String!) {
  checkoutEmailUpdate(checkoutId: $checkoutId, email: $email) {
    checkout {
      ...CheckoutFields
    }
    errors {
      field
      message
      code
    }
  }
}` + checkoutFragment
