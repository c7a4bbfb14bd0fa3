package domain

import "github.com/shopspring/decimal"

// User — профиль покупателя. Хранилищем владеет внешний сервис,
// здесь затрагивается только список заказов.
type User struct {
	ID     string
	Name   string
	Email  string
	Role   string
	Orders []string
}

// Product — запись каталога, используемая при раскрытии позиций.
type Product struct {
	ID          string
	Name        string
	Description string
	Price       decimal.Decimal
	Thumbnail   string
}

// Address — адрес доставки.
type Address struct {
	ID         string
	UserID     string
	FullName   string
	Line1      string
	Line2      string
	City       string
	State      string
	PostalCode string
	Country    string
	Phone      string
}

// Clone возвращает копию пользователя без общего слайса заказов.
func (u User) Clone() User {
	u.Orders = append([]string(nil), u.Orders...)
	return u
}
