package forms

import (
	"regexp"
	"strconv"

	"github.com/shopspring/decimal"
)

var (
	PriceMask = regexp.MustCompile(`^\d*\.?\d*$`)
	StockMask = regexp.MustCompile(`^\d*$`)

	idPattern     = regexp.MustCompile(`^[1-9]\d*$`)
	phonePattern  = regexp.MustCompile(`^\d{9}$`)
	emailPattern  = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	ratingPattern = regexp.MustCompile(`^[1-5]$`)
)

const (
	PaymentCashOnDelivery = "CashOnDelivery"
	PaymentCard           = "Card"
)

var (
	ReturnReasons    = []string{"Damaged", "WrongItem", "SizeIssue", "NotAsDescribed", "ChangedMind", "Other"}
	ReturnConditions = []string{"Unopened", "LikeNew", "Used", "Damaged"}
	PaymentMethods   = []string{PaymentCashOnDelivery, PaymentCard}
)

func positivePrice(s string) string {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return "price must be a number"
	}
	if !d.IsPositive() {
		return "price must be greater than zero"
	}
	return ""
}

func stockRange(s string) string {
	if _, err := strconv.ParseUint(s, 10, 32); err != nil {
		return "stock quantity is out of range"
	}
	return ""
}

func idField(name, label string) Field {
	return Field{Name: name, Label: label, Required: true, Pattern: idPattern, PatternMsg: label + " must be selected"}
}

var AddProduct = &Form{
	Name: "add_product",
	Steps: []Step{
		{
			Title: "Basic information",
			Fields: []Field{
				{Name: "name", Label: "name", Required: true, MinLen: 2, MaxLen: 100},
				{Name: "description", Label: "description", MaxLen: 1000},
			},
		},
		{
			Title: "Category",
			Fields: []Field{
				idField("categoryId", "category"),
				idField("subCategoryId", "subcategory"),
			},
		},
		{
			Title: "Pricing & stock",
			Fields: []Field{
				{Name: "price", Label: "price", Required: true, Mask: PriceMask, Check: positivePrice},
				{Name: "stockQuantity", Label: "stock quantity", Required: true, Mask: StockMask, Check: stockRange},
			},
		},
		{
			Title: "Variants & images",
			Fields: []Field{
				{Name: "sizes", Label: "size", Multi: true, Distinct: true, MaxLen: 20},
				{Name: "colors", Label: "color", Multi: true, Distinct: true, MaxLen: 30},
				{Name: "images", Label: "image", Multi: true, Required: true},
			},
		},
	},
}

var AddCategory = &Form{
	Name: "add_category",
	Steps: []Step{
		{
			Title: "Category",
			Fields: []Field{
				{Name: "name", Label: "category name", Required: true, MinLen: 2, MaxLen: 50},
				{Name: "description", Label: "description", MaxLen: 250},
				{Name: "imageUrl", Label: "image", MaxLen: 500},
			},
		},
		{
			Title: "Subcategories",
			Fields: []Field{
				{Name: "subCategories", Label: "subcategory", Multi: true, Distinct: true, MinLen: 2, MaxLen: 50},
			},
		},
	},
}

var ReturnOrder = &Form{
	Name: "return_order",
	Steps: []Step{
		{
			Title: "Order",
			Fields: []Field{
				idField("orderId", "order"),
				idField("productId", "product"),
			},
		},
		{
			Title: "Reason",
			Fields: []Field{
				{Name: "reason", Label: "reason", Required: true, OneOf: ReturnReasons},
				{Name: "condition", Label: "condition", Required: true, OneOf: ReturnConditions},
			},
		},
		{
			Title: "Details",
			Fields: []Field{
				{Name: "description", Label: "description", MaxLen: 500},
				{Name: "imageUrl", Label: "image"},
			},
		},
		{
			Title: "Confirm",
			Fields: []Field{
				{Name: "termsAccepted", Label: "terms"},
			},
			Check: func(v Values) FieldErrors {
				if v.Get("termsAccepted") != "true" {
					return FieldErrors{"termsAccepted": "you must accept the return policy"}
				}
				return nil
			},
		},
	},
}

var Checkout = &Form{
	Name: "checkout",
	Steps: []Step{
		{
			Title: "Contact",
			Fields: []Field{
				{Name: "fullName", Label: "full name", Required: true, MinLen: 3, MaxLen: 100},
				{Name: "phoneNumber", Label: "phone number", Required: true, Pattern: phonePattern,
					PatternMsg: "phone number must be exactly 9 digits"},
			},
		},
		{
			Title: "Shipping",
			Fields: []Field{
				{Name: "address", Label: "address", Required: true, MinLen: 5, MaxLen: 200},
				{Name: "city", Label: "city", Required: true, MinLen: 2, MaxLen: 60},
			},
		},
		{
			Title: "Payment",
			Fields: []Field{
				{Name: "paymentMethod", Label: "payment method", Required: true, OneOf: PaymentMethods},
			},
		},
	},
}

var Register = &Form{
	Name: "register",
	Steps: []Step{
		{
			Title: "Account",
			Fields: []Field{
				{Name: "fullName", Label: "full name", Required: true, MinLen: 3, MaxLen: 100},
				{Name: "email", Label: "email", Required: true, MaxLen: 254, Pattern: emailPattern,
					PatternMsg: "email is not valid"},
				{Name: "phoneNumber", Label: "phone number", Pattern: phonePattern,
					PatternMsg: "phone number must be exactly 9 digits"},
				{Name: "password", Label: "password", Required: true, MinLen: 6, MaxLen: 72},
			},
		},
	},
}

var Login = &Form{
	Name: "login",
	Steps: []Step{
		{
			Title: "Sign in",
			Fields: []Field{
				{Name: "email", Label: "email", Required: true},
				{Name: "password", Label: "password", Required: true},
			},
		},
	},
}

var Review = &Form{
	Name: "review",
	Steps: []Step{
		{
			Title: "Review",
			Fields: []Field{
				{Name: "rating", Label: "rating", Required: true, Pattern: ratingPattern,
					PatternMsg: "rating must be between 1 and 5"},
				{Name: "comment", Label: "comment", MaxLen: 1000},
			},
		},
	},
}

var UpdateUser = &Form{
	Name: "update_user",
	Steps: []Step{
		{
			Title: "Profile",
			Fields: []Field{
				{Name: "fullName", Label: "full name", MinLen: 3, MaxLen: 100},
				{Name: "phoneNumber", Label: "phone number", Pattern: phonePattern,
					PatternMsg: "phone number must be exactly 9 digits"},
				{Name: "role", Label: "role", OneOf: []string{"user", "admin"}},
			},
		},
	},
}
