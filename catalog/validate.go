package catalog

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// Draft is the input for adding a record. UnitPrice is the price as typed by
// the user and must parse as a non-negative number.
type Draft struct {
	ItemName     string   `json:"item_name" validate:"required"`
	Category     string   `json:"category"`
	UnitPrice    string   `json:"unit_price" validate:"required,price"`
	Unit         string   `json:"unit"`
	Source       string   `json:"source"`
	ItemCode     string   `json:"item_code"`
	IRCReference []string `json:"irc_reference"`
	Description  string   `json:"description"`
	LastVerified string   `json:"last_verified"`
}

// Patch carries the editable fields of an existing record. Nil fields are
// left unchanged. The id and creation time are not editable and have no
// place here.
type Patch struct {
	ID          string           `json:"id"`
	ItemName    *string          `json:"item_name,omitempty"`
	Category    *string          `json:"category,omitempty"`
	UnitPrice   *decimal.Decimal `json:"unit_price,omitempty"`
	Unit        *string          `json:"unit,omitempty"`
	Source      *string          `json:"source,omitempty"`
	ItemCode    *string          `json:"item_code,omitempty"`
	Description *string          `json:"description,omitempty"`
}

// Empty reports whether the patch changes nothing.
func (p Patch) Empty() bool {
	return p.ItemName == nil && p.Category == nil && p.UnitPrice == nil &&
		p.Unit == nil && p.Source == nil && p.ItemCode == nil && p.Description == nil
}

// Apply returns rec with the patch applied. Only editable fields change.
func (p Patch) Apply(rec PriceRecord) PriceRecord {
	if p.ItemName != nil {
		rec.ItemName = strings.TrimSpace(*p.ItemName)
	}
	if p.Category != nil {
		rec.Category = strings.TrimSpace(*p.Category)
	}
	if p.UnitPrice != nil {
		rec.UnitPrice = decimal.NewNullDecimal(*p.UnitPrice)
	}
	if p.Unit != nil {
		rec.Unit = strings.TrimSpace(*p.Unit)
	}
	if p.Source != nil {
		rec.Source = strings.TrimSpace(*p.Source)
	}
	if p.ItemCode != nil {
		rec.ItemCode = strings.TrimSpace(*p.ItemCode)
	}
	if p.Description != nil {
		rec.Description = *p.Description
	}
	return rec
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		tag := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if tag == "" {
			return f.Name
		}
		return tag
	})
	_ = v.RegisterValidation("price", func(fl validator.FieldLevel) bool {
		_, err := ParsePrice(fl.Field().String())
		return err == nil
	})
	return v
}

// ParsePrice parses a user-entered unit price. Negative values are rejected.
func ParsePrice(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, err
	}
	if d.IsNegative() {
		return decimal.Zero, errNegativePrice
	}
	return d, nil
}

var errNegativePrice = &Error{Kind: KindValidation, Op: "parse price", Fields: map[string]string{"unit_price": "must not be negative"}}

// Validate checks the draft and returns the record to create. Nothing is
// sent anywhere.
func (d Draft) Validate() (PriceRecord, error) {
	d.ItemName = strings.TrimSpace(d.ItemName)
	d.UnitPrice = strings.TrimSpace(d.UnitPrice)
	if err := validate.Struct(d); err != nil {
		return PriceRecord{}, validationError("add", fieldMessages(err))
	}
	price, _ := ParsePrice(d.UnitPrice)
	return PriceRecord{
		ItemName:     d.ItemName,
		Category:     strings.TrimSpace(d.Category),
		UnitPrice:    decimal.NewNullDecimal(price),
		Unit:         strings.TrimSpace(d.Unit),
		Source:       strings.TrimSpace(d.Source),
		ItemCode:     strings.TrimSpace(d.ItemCode),
		IRCReference: NormalizeReferences(d.IRCReference),
		Description:  d.Description,
		LastVerified: strings.TrimSpace(d.LastVerified),
	}, nil
}

// Validate checks the fields the patch sets.
func (p Patch) Validate() error {
	fields := map[string]string{}
	if strings.TrimSpace(p.ID) == "" {
		fields["id"] = "is required"
	}
	if p.ItemName != nil && strings.TrimSpace(*p.ItemName) == "" {
		fields["item_name"] = "is required"
	}
	if p.UnitPrice != nil && p.UnitPrice.IsNegative() {
		fields["unit_price"] = "must not be negative"
	}
	if len(fields) > 0 {
		return validationError("edit", fields)
	}
	return nil
}

// ValidateRecord checks the invariants a stored record must hold. Stores use
// it before accepting a create.
func ValidateRecord(rec PriceRecord) error {
	fields := map[string]string{}
	if strings.TrimSpace(rec.ItemName) == "" {
		fields["item_name"] = "is required"
	}
	if !rec.UnitPrice.Valid {
		fields["unit_price"] = "is required"
	} else if rec.UnitPrice.Decimal.IsNegative() {
		fields["unit_price"] = "must not be negative"
	}
	if len(fields) > 0 {
		return validationError("create", fields)
	}
	return nil
}

func fieldMessages(err error) map[string]string {
	fields := map[string]string{}
	errs, ok := err.(validator.ValidationErrors)
	if !ok {
		fields["_"] = err.Error()
		return fields
	}
	for _, fe := range errs {
		switch fe.Tag() {
		case "required":
			fields[fe.Field()] = "is required"
		case "price":
			fields[fe.Field()] = "must be a non-negative number"
		default:
			fields[fe.Field()] = "is invalid"
		}
	}
	return fields
}
