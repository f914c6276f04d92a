package model

import "time"

// User is an identity returned by the ordering service.
type User struct {
	ID         string  `json:"id" yaml:"id"`
	Username   string  `json:"username" yaml:"username"`
	BarcodeID  string  `json:"barcodeId,omitempty" yaml:"barcodeId,omitempty"`
	Role       string  `json:"role,omitempty" yaml:"role,omitempty"`
	HeartValue float64 `json:"heartValue,omitempty" yaml:"heartValue,omitempty"`
}

// DisplayName returns the username, falling back to the id.
func (u User) DisplayName() string {
	if u.Username != "" {
		return u.Username
	}
	if u.ID != "" {
		return u.ID
	}
	return "Unknown"
}

// OrderItem is a single line of an order.
type OrderItem struct {
	DishID   int     `json:"id"`
	Name     string  `json:"name,omitempty"`
	Price    float64 `json:"price,omitempty"`
	Quantity int     `json:"quantity"`
}

// OrderRequest is the body sent to the order-create endpoint.
type OrderRequest struct {
	UserID    string      `json:"userId"`
	Items     []OrderItem `json:"items"`
	Timestamp time.Time   `json:"timestamp"`
}

// OrderReceipt is the order-create response.
type OrderReceipt struct {
	Success bool   `json:"success"`
	OrderID int64  `json:"orderId,omitempty"`
	Message string `json:"message,omitempty"`
}

// Category groups dishes on the menu.
type Category struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
	Icon string `json:"icon,omitempty" yaml:"icon,omitempty"`
}

// Dish is a menu entry.
type Dish struct {
	ID          int     `json:"id" yaml:"id"`
	CategoryID  string  `json:"categoryId" yaml:"categoryId"`
	Name        string  `json:"name" yaml:"name"`
	Price       float64 `json:"price" yaml:"price"`
	Image       string  `json:"image,omitempty" yaml:"image,omitempty"`
	Description string  `json:"description,omitempty" yaml:"description,omitempty"`
}

// Menu is the menu-service payload.
type Menu struct {
	Categories []Category `json:"categories" yaml:"categories"`
	Dishes     []Dish     `json:"dishes" yaml:"dishes"`
}
